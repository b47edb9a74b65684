package deploc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jward/deploc/internal/linecount"
	"github.com/jward/deploc/internal/pathutil"
	"github.com/jward/deploc/internal/progress"
	"github.com/jward/deploc/internal/report"
	"github.com/jward/deploc/internal/scanner"
	"github.com/jward/deploc/internal/store"
)

// ErrNoAppRoot is matched by the error Analyze returns when no package.json
// exists at or above the starting directory.
var ErrNoAppRoot = errors.New("deploc: no package.json found")

// NoAppRootError reports the directory the upward search started from.
type NoAppRootError struct {
	Start string
}

func (e *NoAppRootError) Error() string {
	return fmt.Sprintf("tried to traverse up (from '%s') to find a package.json, but didn't find one", e.Start)
}

// Is makes errors.Is(err, ErrNoAppRoot) succeed.
func (e *NoAppRootError) Is(target error) bool {
	return target == ErrNoAppRoot
}

// Engine runs the scan, count and report pipeline.
type Engine struct {
	counter       Counter
	counterName   string
	progress      *progress.Estimator
	logger        *slog.Logger
	languages     []string
	firstParty    report.Classifier
	rootGitignore bool
	history       *store.Store
	resolver      *pathutil.Resolver
}

// Option configures an Engine.
type Option func(*Engine)

// WithCounter sets the line counter. name is recorded with stored scans.
func WithCounter(name string, c Counter) Option {
	return func(e *Engine) {
		e.counter = c
		e.counterName = name
	}
}

// WithProgress reports discovery and per-node counting to est.
func WithProgress(est *progress.Estimator) Option {
	return func(e *Engine) {
		e.progress = est
	}
}

// WithLogger sets the logger handed to the scanner and the default counter.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithLanguages replaces the default report language allowlist.
func WithLanguages(languages ...string) Option {
	return func(e *Engine) {
		e.languages = languages
	}
}

// WithFirstParty counts dependencies matching fn as application code.
func WithFirstParty(fn report.Classifier) Option {
	return func(e *Engine) {
		e.firstParty = fn
	}
}

// WithRootGitignore makes the root package honour its .gitignore.
func WithRootGitignore(enabled bool) Option {
	return func(e *Engine) {
		e.rootGitignore = enabled
	}
}

// WithHistory stores every scan completed by Run in s.
func WithHistory(s *store.Store) Option {
	return func(e *Engine) {
		e.history = s
	}
}

// New creates an Engine. Without WithCounter it counts with the built-in
// tree-sitter counter.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e.resolver = pathutil.NewResolver(0)
	if e.counter == nil {
		e.counter = linecount.NewBuiltinCounter(nil, e.logger)
		e.counterName = "builtin"
	}
	return e
}

// Analyze finds the application root at or above start, scans its
// dependency tree and attaches line counts to every node.
func (e *Engine) Analyze(ctx context.Context, start string) (*Node, error) {
	root, err := e.Scan(ctx, start)
	if err != nil {
		return nil, err
	}
	total := len(root.Nodes())
	e.logger.Debug("scan complete", "packages", total)
	if e.progress != nil {
		e.progress.DiscoveryDone()
		e.progress.SetTotal(total)
	}

	annotatorOpts := []linecount.AnnotatorOption{
		linecount.WithRootGitignore(e.rootGitignore),
		linecount.WithResolver(e.resolver),
	}
	if e.progress != nil {
		annotatorOpts = append(annotatorOpts, linecount.WithNodeComplete(func(*Node) {
			e.progress.NodeCounted()
		}))
	}
	if err := linecount.NewAnnotator(e.counter, annotatorOpts...).Annotate(ctx, root); err != nil {
		return nil, err
	}
	return root, nil
}

// Scan finds the application root at or above start and returns its
// deduplicated dependency tree without line counts.
func (e *Engine) Scan(ctx context.Context, start string) (*Node, error) {
	appRoot, err := e.findAppRoot(start)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("found package.json", "dir", appRoot)
	return scanner.New(appRoot,
		scanner.WithLogger(e.logger),
		scanner.WithResolver(e.resolver),
	).Scan(ctx)
}

func (e *Engine) findAppRoot(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", start, err)
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}
	dir, err := pathutil.FindAppRoot(abs)
	if errors.Is(err, pathutil.ErrNoManifestAncestor) {
		return "", &NoAppRootError{Start: abs}
	}
	return dir, err
}

// Report aggregates an analyzed tree into application and dependency
// totals. It also fills each node's LanguageTotals.
func (e *Engine) Report(root *Node) (Report, error) {
	var opts []report.Option
	if e.languages != nil {
		opts = append(opts, report.WithLanguages(e.languages...))
	}
	if e.firstParty != nil {
		opts = append(opts, report.WithFirstParty(e.firstParty))
	}
	return report.Generate(root, opts...)
}

// Result is the outcome of Run.
type Result struct {
	Root     *Node
	Report   Report
	Duration time.Duration

	// ScanID is the stored scan, or 0 without WithHistory.
	ScanID int64
}

// Run analyzes start, builds the report and, with WithHistory, stores the
// scan.
func (e *Engine) Run(ctx context.Context, start string) (*Result, error) {
	began := time.Now()
	root, err := e.Analyze(ctx, start)
	if err != nil {
		return nil, err
	}
	rep, err := e.Report(root)
	if err != nil {
		return nil, err
	}
	res := &Result{Root: root, Report: rep, Duration: time.Since(began)}

	if e.history != nil {
		scan := &Scan{
			Root:         root.Path,
			Counter:      e.counterName,
			StartedAt:    began,
			Duration:     res.Duration,
			Application:  rep.Application,
			Dependencies: rep.Dependencies,
		}
		id, err := e.history.SaveScan(scan, root)
		if err != nil {
			return nil, err
		}
		res.ScanID = id
	}
	return res, nil
}
