package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jward/deploc"
	"github.com/jward/deploc/internal/report"
	"github.com/jward/deploc/internal/store"
)

// validFormats lists accepted values for --format.
var validFormats = []string{"text", "json"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatTreeText prints one line per node, two spaces of indent per depth.
func formatTreeText(w io.Writer, root *deploc.Node, withLOC bool, languages []string) {
	root.Walk(func(n *deploc.Node, depth int) {
		line := strings.Repeat("  ", depth) + n.ID()
		if withLOC {
			code := subtreeCode(n, languages)
			line += fmt.Sprintf("  (%d %s)", code, strings.TrimSpace(report.PluralLines(code)))
		}
		fmt.Fprintln(w, line)
	})
}

// formatScansText formats stored scans as aligned columns.
func formatScansText(w io.Writer, scans []*store.Scan) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tCOUNTER\tPACKAGES\tAPP\tDEPS\tDEPS%\tROOT")
	for _, s := range scans {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			s.ID, s.StartedAt.Local().Format(time.DateTime), s.Counter, s.Packages,
			s.Application.Code, s.Dependencies.Code,
			report.Percent(s.Dependencies.Code, s.Application.Code+s.Dependencies.Code),
			s.Root)
	}
	tw.Flush()
}

// formatPackagesText formats stored packages as an indented tree with
// their own totals.
func formatPackagesText(w io.Writer, pkgs []*store.Package) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PACKAGE\tCODE\tFILES\tPATH")
	for _, p := range pkgs {
		fmt.Fprintf(tw, "%s%s@%s\t%d\t%d\t%s\n",
			strings.Repeat("  ", p.Depth), p.Name, p.Version,
			p.Totals.Code, p.Totals.NumFiles, p.Path)
	}
	tw.Flush()
}
