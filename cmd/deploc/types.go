package main

import (
	"slices"
	"time"

	"github.com/jward/deploc"
	"github.com/jward/deploc/internal/report"
)

// CLIReport is the JSON form of a report run.
type CLIReport struct {
	Root               string           `json:"root"`
	Application        deploc.Aggregate `json:"application"`
	Dependencies       deploc.Aggregate `json:"dependencies"`
	ApplicationPercent string           `json:"application_percent"`
	DependencyPercent  string           `json:"dependency_percent"`
	Packages           int              `json:"packages"`
	DurationMS         int64            `json:"duration_ms"`
	ScanID             int64            `json:"scan_id,omitempty"`
}

func newCLIReport(res *deploc.Result) CLIReport {
	return CLIReport{
		Root:               res.Root.Path,
		Application:        res.Report.Application,
		Dependencies:       res.Report.Dependencies,
		ApplicationPercent: res.Report.ApplicationPercent(),
		DependencyPercent:  res.Report.DependencyPercent(),
		Packages:           len(res.Root.Nodes()),
		DurationMS:         res.Duration.Milliseconds(),
		ScanID:             res.ScanID,
	}
}

// CLITreeNode is the JSON form of one tree node.
type CLITreeNode struct {
	Name     string        `json:"name"`
	Version  string        `json:"version"`
	Path     string        `json:"path"`
	Code     *int          `json:"code,omitempty"`
	Children []CLITreeNode `json:"children"`
}

func newCLITree(n *deploc.Node, withLOC bool, languages []string) CLITreeNode {
	t := CLITreeNode{
		Name:     n.NameString(),
		Version:  n.VersionString(),
		Path:     n.Path,
		Children: make([]CLITreeNode, 0, len(n.Children)),
	}
	if withLOC {
		code := subtreeCode(n, languages)
		t.Code = &code
	}
	for _, c := range n.Children {
		t.Children = append(t.Children, newCLITree(c, withLOC, languages))
	}
	return t
}

// subtreeCode sums the code lines of n and its descendants over the report
// languages.
func subtreeCode(n *deploc.Node, languages []string) int {
	if len(languages) == 0 {
		languages = report.DefaultLanguages
	}
	code := 0
	for lang, agg := range n.SubtreeTotals() {
		if slices.Contains(languages, lang) {
			code += agg.Code
		}
	}
	return code
}

// CLIScan is the JSON form of a stored scan.
type CLIScan struct {
	ID                int64            `json:"id"`
	Root              string           `json:"root"`
	Counter           string           `json:"counter"`
	StartedAt         time.Time        `json:"started_at"`
	DurationMS        int64            `json:"duration_ms"`
	Application       deploc.Aggregate `json:"application"`
	Dependencies      deploc.Aggregate `json:"dependencies"`
	DependencyPercent string           `json:"dependency_percent"`
	Packages          int              `json:"packages"`
}

func newCLIScan(s *deploc.Scan) CLIScan {
	return CLIScan{
		ID:                s.ID,
		Root:              s.Root,
		Counter:           s.Counter,
		StartedAt:         s.StartedAt,
		DurationMS:        s.Duration.Milliseconds(),
		Application:       s.Application,
		Dependencies:      s.Dependencies,
		DependencyPercent: report.Percent(s.Dependencies.Code, s.Application.Code+s.Dependencies.Code),
		Packages:          s.Packages,
	}
}

// CLIPackage is the JSON form of a stored package.
type CLIPackage struct {
	ID       int64            `json:"id"`
	ParentID *int64           `json:"parent_id,omitempty"`
	Name     string           `json:"name"`
	Version  string           `json:"version"`
	Path     string           `json:"path"`
	RealPath string           `json:"real_path"`
	Depth    int              `json:"depth"`
	Totals   deploc.Aggregate `json:"totals"`
}

func newCLIPackage(p *deploc.Package) CLIPackage {
	return CLIPackage{
		ID:       p.ID,
		ParentID: p.ParentID,
		Name:     p.Name,
		Version:  p.Version,
		Path:     p.Path,
		RealPath: p.RealPath,
		Depth:    p.Depth,
		Totals:   p.Totals,
	}
}

// CLIScanDetail is the JSON output of "history show".
type CLIScanDetail struct {
	Scan     CLIScan      `json:"scan"`
	Packages []CLIPackage `json:"packages"`
}
