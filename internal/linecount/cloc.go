package linecount

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jward/deploc/internal/deptree"
)

// DefaultClocBin is looked up on PATH when no binary is configured.
const DefaultClocBin = "cloc"

// clocArgs are passed on every invocation. --by-file-by-lang would save us
// the per-language fold but does not emit valid JSON.
var clocArgs = []string{
	"--json",
	"--by-file",
	"--skip-archive=(tgz|zip|tar(.(gz|Z|bz2|xz|7z))?)",
}

// ClocCounter runs the cloc tool once per package directory, feeding it an
// explicit file list so exclusions are applied consistently.
type ClocCounter struct {
	bin       string
	admission *Admission
	logger    *slog.Logger
}

// ClocOption configures a ClocCounter.
type ClocOption func(*ClocCounter)

// WithClocBin sets the cloc executable.
func WithClocBin(bin string) ClocOption {
	return func(c *ClocCounter) {
		if bin != "" {
			c.bin = bin
		}
	}
}

// WithClocAdmission shares an admission queue with the counter.
func WithClocAdmission(a *Admission) ClocOption {
	return func(c *ClocCounter) {
		c.admission = a
	}
}

// WithClocLogger sets the logger for non-fatal anomalies.
func WithClocLogger(l *slog.Logger) ClocOption {
	return func(c *ClocCounter) {
		c.logger = l
	}
}

// NewClocCounter creates a cloc-backed Counter.
func NewClocCounter(opts ...ClocOption) *ClocCounter {
	c := &ClocCounter{bin: DefaultClocBin}
	for _, opt := range opts {
		opt(c)
	}
	if c.admission == nil {
		c.admission = NewAdmission(0)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Count implements Counter. A non-zero exit status is an error; output that
// does not parse is logged and reported as no files.
func (c *ClocCounter) Count(ctx context.Context, req Request) (deptree.FileCounts, error) {
	files, err := ListFiles(req, c.logger)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return deptree.FileCounts{}, nil
	}

	tmpDir, err := os.MkdirTemp("", "cloc-args-")
	if err != nil {
		return nil, fmt.Errorf("cloc: create list dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	listFile := filepath.Join(tmpDir, "files")
	if err := os.WriteFile(listFile, []byte(strings.Join(files, "\n")), 0o600); err != nil {
		return nil, fmt.Errorf("cloc: write file list: %w", err)
	}

	if err := c.admission.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.admission.Release()

	args := append(append([]string{}, clocArgs...), "--list-file="+listFile)
	cmd := exec.CommandContext(ctx, c.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("cloc: run %s: %w", c.bin, err)
		}
		if code := exitErr.ExitCode(); code != -1 {
			return nil, fmt.Errorf("cloc exited with code %d: %s", code, strings.TrimSpace(stderr.String()))
		}
		// Terminated by a signal: no exit status, fall through to whatever
		// output was produced.
		c.logger.Warn("cloc terminated by signal", "dir", req.Dir)
	}

	counts, err := ParseClocOutput(stdout.Bytes())
	if err != nil {
		c.logger.Warn("malformed cloc output, counting no files", "dir", req.Dir, "error", err)
		return deptree.FileCounts{}, nil
	}
	return counts, nil
}

// ParseClocOutput decodes cloc's --json --by-file report. The "header" and
// "SUM" entries are dropped. Empty output means no recognized files.
func ParseClocOutput(data []byte) (deptree.FileCounts, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return deptree.FileCounts{}, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	delete(raw, "header")
	delete(raw, "SUM")

	counts := make(deptree.FileCounts, len(raw))
	for file, msg := range raw {
		var fc deptree.FileCount
		if err := json.Unmarshal(msg, &fc); err != nil {
			return nil, fmt.Errorf("entry %s: %w", file, err)
		}
		counts[file] = fc
	}
	return counts, nil
}
