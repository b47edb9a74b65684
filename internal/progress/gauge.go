package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const (
	// gaugeMargin is the room left for the brackets and the percentage.
	gaugeMargin    = 11
	defaultColumns = 80
	clearLine      = "\x1b[2K\x1b[1000D"
)

// Render formats pct as a bar sized for columns when tty is set, or as a
// plain "done:" line otherwise.
func Render(pct float64, tty bool, columns int) string {
	formatted := formatPercent(pct)
	if !tty {
		return "done: " + formatted
	}

	total := max(columns-gaugeMargin, 0)
	done := 0
	if pct > 0 {
		done = max(int(float64(total)*pct/100), 1)
	}
	done = min(done, total)
	return "[" + strings.Repeat("=", done) + strings.Repeat(" ", total-done) + "] " + formatted
}

func formatPercent(pct float64) string {
	pad := ""
	switch {
	case pct < 10:
		pad = "  "
	case pct < 100:
		pad = " "
	}
	return fmt.Sprintf("%s%.2f%%", pad, pct)
}

// Gauge redraws the progress line on a writer, normally stderr.
type Gauge struct {
	w       io.Writer
	tty     bool
	columns func() int

	mu      sync.Mutex
	started bool
}

// NewGauge creates a Gauge on f, redrawing in place when f is a terminal.
func NewGauge(f *os.File) *Gauge {
	fd := int(f.Fd())
	return &Gauge{
		w:   f,
		tty: term.IsTerminal(fd),
		columns: func() int {
			w, _, err := term.GetSize(fd)
			if err != nil || w <= 0 {
				return defaultColumns
			}
			return w
		},
	}
}

// NewGaugeWriter creates a Gauge on an arbitrary writer with a fixed width.
func NewGaugeWriter(w io.Writer, tty bool, columns int) *Gauge {
	return &Gauge{w: w, tty: tty, columns: func() int { return columns }}
}

// Update redraws the gauge. It matches the onUpdate signature of
// NewEstimator.
func (g *Gauge) Update(pct float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.started {
		fmt.Fprintln(g.w)
		g.started = true
	}
	fmt.Fprint(g.w, clearLine+Render(pct, g.tty, g.columns()))
}

// Finish ends the gauge line if anything was drawn.
func (g *Gauge) Finish() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		fmt.Fprintln(g.w)
	}
}
