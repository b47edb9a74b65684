package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/deploc"
	"github.com/jward/deploc/internal/classify"
	"github.com/jward/deploc/internal/config"
	"github.com/jward/deploc/internal/linecount"
	"github.com/jward/deploc/internal/pathutil"
	"github.com/jward/deploc/internal/progress"
	"github.com/jward/deploc/internal/report"
	"github.com/jward/deploc/internal/store"
)

// debugTreeFile is written to the temp directory after every report run.
const debugTreeFile = "deploc-results.json"

var (
	flagDB               string
	flagFormat           string
	flagCounter          string
	flagClocBin          string
	flagMaxConcurrent    int
	flagLanguages        string
	flagNoProgress       bool
	flagRespectGitignore bool
	flagFirstParty       string
	flagVerbose          bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "deploc [path]",
	Short: "Compare your application's lines of code with its node_modules",
	Long: "deploc finds the nearest package.json at or above path, scans the installed " +
		"dependency tree, counts lines of code in every package and reports how much " +
		"of the total is application code versus dependency code.",
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	RunE: runReport,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagDB, "db", "", "scan history database (env DEPLOC_DB)")
	pf.StringVar(&flagFormat, "format", "text", "output format: text|json")
	pf.StringVar(&flagCounter, "counter", config.CounterCloc, "line counter: cloc|builtin")
	pf.StringVar(&flagClocBin, "cloc-bin", "cloc", "path to the cloc executable")
	pf.IntVar(&flagMaxConcurrent, "max-concurrent", 0, "concurrent counter invocations (default: number of CPUs)")
	pf.StringVar(&flagLanguages, "languages", "", "comma-separated languages to report (default: JavaScript,C++,TypeScript,C,C/C++ Header)")
	pf.BoolVar(&flagRespectGitignore, "respect-gitignore", false, "skip files ignored by the application's .gitignore")
	pf.StringVar(&flagFirstParty, "first-party", "", "Risor expression marking dependencies as application code")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.Flags().BoolVar(&flagNoProgress, "no-progress", false, "do not draw the progress gauge")

	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(historyCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	target, err := resolveTarget(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, target)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr())

	var gauge *progress.Gauge
	if !flagNoProgress {
		gauge = newGauge(cmd.ErrOrStderr())
	}
	opts, cleanup, err := engineOptions(ctx, cfg, logger, gauge)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := deploc.New(opts...).Run(ctx, target)
	if gauge != nil {
		gauge.Finish()
	}
	if err != nil {
		return err
	}

	if path, err := writeDebugTree(os.TempDir(), res.Root); err != nil {
		logger.Warn("could not write debug tree", "err", err)
	} else {
		logger.Debug("wrote debug tree", "path", path)
	}

	out := cmd.OutOrStdout()
	if flagFormat == "text" {
		return report.NewPrinter(out).Print(res.Report)
	}
	return outputJSON(out, newCLIReport(res))
}

// resolveTarget returns the absolute path to start the package.json search
// from. Files are allowed; their directory is used.
func resolveTarget(args []string) (string, error) {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", target, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("path not found: %s", abs)
	}
	return abs, nil
}

// loadConfig reads configuration from the application root (or target when
// there is none) and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command, target string) (config.Config, error) {
	dir := target
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		dir = filepath.Dir(target)
	}
	if root, err := pathutil.FindAppRoot(dir); err == nil {
		dir = root
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("counter") {
		cfg.Counter = flagCounter
	}
	if flags.Changed("cloc-bin") {
		cfg.ClocBin = flagClocBin
	}
	if flags.Changed("max-concurrent") {
		cfg.MaxConcurrent = flagMaxConcurrent
	}
	if flags.Changed("db") {
		cfg.DB = flagDB
	}
	if flags.Changed("languages") {
		cfg.Languages = splitList(flagLanguages)
	}
	if flags.Changed("respect-gitignore") {
		cfg.RespectGitignore = flagRespectGitignore
	}
	if flags.Changed("first-party") {
		cfg.FirstParty = flagFirstParty
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// engineOptions translates cfg into Engine options. The returned cleanup
// closes the history database when one was opened.
func engineOptions(ctx context.Context, cfg config.Config, logger *slog.Logger, gauge *progress.Gauge) ([]deploc.Option, func(), error) {
	cleanup := func() {}
	opts := []deploc.Option{
		deploc.WithLogger(logger),
		deploc.WithCounter(cfg.Counter, buildCounter(cfg, logger)),
		deploc.WithRootGitignore(cfg.RespectGitignore),
	}
	if len(cfg.Languages) > 0 {
		opts = append(opts, deploc.WithLanguages(cfg.Languages...))
	}
	if gauge != nil {
		opts = append(opts, deploc.WithProgress(progress.NewEstimator(gauge.Update)))
	}
	if cfg.FirstParty != "" {
		c, err := classify.Compile(ctx, cfg.FirstParty)
		if err != nil {
			return nil, cleanup, err
		}
		opts = append(opts, deploc.WithFirstParty(c.Func(ctx)))
	}
	if cfg.DB != "" {
		s, err := openStore(cfg.DB)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() { s.Close() }
		opts = append(opts, deploc.WithHistory(s))
	}
	return opts, cleanup, nil
}

func buildCounter(cfg config.Config, logger *slog.Logger) deploc.Counter {
	admission := linecount.NewAdmission(cfg.MaxConcurrent)
	if cfg.Counter == config.CounterBuiltin {
		return linecount.NewBuiltinCounter(admission, logger)
	}
	return linecount.NewClocCounter(
		linecount.WithClocBin(cfg.ClocBin),
		linecount.WithClocAdmission(admission),
		linecount.WithClocLogger(logger),
	)
}

func openStore(path string) (*store.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	s, err := store.NewStore(path)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newGauge(w io.Writer) *progress.Gauge {
	if f, ok := w.(*os.File); ok {
		return progress.NewGauge(f)
	}
	return progress.NewGaugeWriter(w, false, 0)
}

// writeDebugTree dumps the analyzed tree as indented JSON into dir.
func writeDebugTree(dir string, root *deploc.Node) (string, error) {
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding tree: %w", err)
	}
	path := filepath.Join(dir, debugTreeFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
