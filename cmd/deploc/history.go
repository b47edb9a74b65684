package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/deploc/internal/config"
)

var errNoHistoryDB = errors.New("no history database: set --db or " + config.EnvDB)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored scans",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <scan-id>",
	Short: "List the packages of a stored scan",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "maximum number of scans to list (0 for all)")
	historyCmd.AddCommand(historyShowCmd)
}

func historyDB(cmd *cobra.Command) (string, error) {
	cfg, err := loadConfig(cmd, ".")
	if err != nil {
		return "", err
	}
	if cfg.DB == "" {
		return "", errNoHistoryDB
	}
	return cfg.DB, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	path, err := historyDB(cmd)
	if err != nil {
		return err
	}
	s, err := openStore(path)
	if err != nil {
		return err
	}
	defer s.Close()

	scans, err := s.Scans(flagHistoryLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if flagFormat == "text" {
		formatScansText(out, scans)
		return nil
	}
	result := make([]CLIScan, len(scans))
	for i, sc := range scans {
		result[i] = newCLIScan(sc)
	}
	return outputJSON(out, result)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid scan id %q", args[0])
	}
	path, err := historyDB(cmd)
	if err != nil {
		return err
	}
	s, err := openStore(path)
	if err != nil {
		return err
	}
	defer s.Close()

	scan, err := s.ScanByID(id)
	if err != nil {
		return err
	}
	if scan == nil {
		return fmt.Errorf("scan %d not found", id)
	}
	pkgs, err := s.PackagesByScan(id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagFormat == "text" {
		formatPackagesText(out, pkgs)
		return nil
	}
	result := CLIScanDetail{Scan: newCLIScan(scan), Packages: make([]CLIPackage, len(pkgs))}
	for i, p := range pkgs {
		result.Packages[i] = newCLIPackage(p)
	}
	return outputJSON(out, result)
}
