// Package report turns an annotated dependency tree into application versus
// dependency line totals.
package report

import (
	"fmt"
	"slices"

	"github.com/jward/deploc/internal/deptree"
)

// DefaultLanguages is the allowlist of languages summed into a Report.
// Languages the counter recognizes outside this list (JSON, Markdown, ...)
// are ignored.
var DefaultLanguages = []string{
	"JavaScript",
	"C++",
	"TypeScript",
	"C",
	"C/C++ Header",
}

// Report splits counted lines between the root package and everything it
// depends on.
type Report struct {
	Application  deptree.Aggregate `json:"application"`
	Dependencies deptree.Aggregate `json:"dependencies"`
}

// Total is the number of code lines across both aggregates.
func (r Report) Total() int {
	return r.Application.Code + r.Dependencies.Code
}

// ApplicationPercent is the application's share of code lines.
func (r Report) ApplicationPercent() string {
	return Percent(r.Application.Code, r.Total())
}

// DependencyPercent is the dependencies' share of code lines.
func (r Report) DependencyPercent() string {
	return Percent(r.Dependencies.Code, r.Total())
}

// NoDependencies reports whether no dependency code was found.
func (r Report) NoDependencies() bool {
	return r.Dependencies.Code == 0
}

// Percent renders part/total as a percentage with two decimals. A zero
// total renders as 0.00.
func Percent(part, total int) string {
	if total == 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(part)/float64(total)*100)
}

// Classifier decides whether a non-root node is first-party code.
type Classifier func(node *deptree.Node) (bool, error)

type config struct {
	languages  []string
	firstParty Classifier
}

// Option configures Generate.
type Option func(*config)

// WithLanguages replaces DefaultLanguages.
func WithLanguages(langs ...string) Option {
	return func(c *config) {
		c.languages = slices.Clone(langs)
	}
}

// WithFirstParty counts non-root nodes matching fn as application code.
func WithFirstParty(fn Classifier) Option {
	return func(c *config) {
		c.firstParty = fn
	}
}

// Generate folds each node's own line counts by language and sums them:
// the root into Application, every other node into Dependencies. Only
// allowlisted languages contribute.
//
// Generate is not read-only: it overwrites every node's LanguageTotals with
// that node's own per-language fold (all languages, not just the
// allowlist).
func Generate(root *deptree.Node, opts ...Option) (Report, error) {
	cfg := config{languages: DefaultLanguages}
	for _, opt := range opts {
		opt(&cfg)
	}

	var r Report
	for _, node := range root.Nodes() {
		node.LanguageTotals = deptree.FoldLanguages(node.LineCounts)
		agg := sumLanguages(node.LanguageTotals, cfg.languages)

		if node == root {
			r.Application.Add(agg)
			continue
		}
		if cfg.firstParty != nil {
			ok, err := cfg.firstParty(node)
			if err != nil {
				return Report{}, fmt.Errorf("classify %s: %w", node.ID(), err)
			}
			if ok {
				r.Application.Add(agg)
				continue
			}
		}
		r.Dependencies.Add(agg)
	}
	return r, nil
}

func sumLanguages(totals deptree.LanguageTotals, languages []string) deptree.Aggregate {
	var acc deptree.Aggregate
	for lang, agg := range totals {
		if slices.Contains(languages, lang) {
			acc.Add(agg)
		}
	}
	return acc
}
