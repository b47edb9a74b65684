package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jward/deploc"
)

var flagTreeLOC bool

var treeCmd = &cobra.Command{
	Use:   "tree [path]",
	Short: "Print the deduplicated dependency tree",
	Long:  "Scans node_modules and prints one name@version line per installed package, indented by depth. With --loc each line also shows the code lines of the package and everything below it.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTree,
}

func init() {
	treeCmd.Flags().BoolVar(&flagTreeLOC, "loc", false, "count lines and show subtree code totals")
}

func runTree(cmd *cobra.Command, args []string) error {
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
	opts, cleanup, err := engineOptions(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer cleanup()
	e := deploc.New(opts...)

	var root *deploc.Node
	if flagTreeLOC {
		root, err = e.Analyze(ctx, target)
	} else {
		root, err = e.Scan(ctx, target)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagFormat == "text" {
		formatTreeText(out, root, flagTreeLOC, cfg.Languages)
		return nil
	}
	return outputJSON(out, newCLITree(root, flagTreeLOC, cfg.Languages))
}
