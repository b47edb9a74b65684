package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NoDependenciesNote is printed when the dependency total is zero.
const NoDependenciesNote = "We didn't find any dependencies! Did you remember to npm install first?"

const (
	appLabel = "Your application code:"
	depLabel = "  `node_modules` code:"
)

// Printer renders a Report as text. Colors are used only when the target
// writer is a color-capable terminal.
type Printer struct {
	w       io.Writer
	number  lipgloss.Style
	percent lipgloss.Style
	note    lipgloss.Style
	nums    *message.Printer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		number:  r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		percent: r.NewStyle().Foreground(lipgloss.Color("14")),
		note:    r.NewStyle().Foreground(lipgloss.Color("14")),
		nums:    message.NewPrinter(language.English),
	}
}

// Print writes the two-line summary and, when no dependency code was
// found, the informational note.
func (p *Printer) Print(r Report) error {
	appNum := p.nums.Sprintf("%d", r.Application.Code)
	depNum := p.nums.Sprintf("%d", r.Dependencies.Code)
	appPct := r.ApplicationPercent()
	depPct := r.DependencyPercent()

	numWidth := max(len(appNum), len(depNum))
	pctWidth := max(len(appPct), len(depPct))

	var b strings.Builder
	b.WriteString("\n")
	p.line(&b, appLabel, appNum, numWidth, r.Application.Code, appPct, pctWidth)
	p.line(&b, depLabel, depNum, numWidth, r.Dependencies.Code, depPct, pctWidth)
	if r.NoDependencies() {
		b.WriteString("\n")
		b.WriteString(p.note.Render(NoDependenciesNote))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	_, err := io.WriteString(p.w, b.String())
	return err
}

func (p *Printer) line(b *strings.Builder, label, num string, numWidth, count int, pct string, pctWidth int) {
	fmt.Fprintf(b, "%s  %s%s %s (%s%s)\n",
		label,
		strings.Repeat(" ", numWidth-len(num)), p.number.Render(num),
		PluralLines(count),
		strings.Repeat(" ", pctWidth-len(pct)), p.percent.Render(pct+"%"),
	)
}

// PluralLines returns "line " or "lines"; the singular keeps a trailing
// space so columns stay aligned.
func PluralLines(n int) string {
	if n == 1 {
		return "line "
	}
	return "lines"
}
