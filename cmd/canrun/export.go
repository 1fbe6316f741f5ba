package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/canrun/internal/export"
	"github.com/vovakirdan/canrun/internal/storage"
)

var (
	flagRunsCSV  string
	flagRunLimit int
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export profiles as CSV",
	Long: `Write every registered profile to a CSV file with the columns
Nombre, Edad, Correo, Ciudad, PuntajeMaximo.

With --runs, the most recent runs are also written to a second file.

Examples:
  canrun export profiles.csv
  canrun export profiles.csv --runs runs.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&flagRunsCSV, "runs", "", "Also export recent runs to this path")
	exportCmd.Flags().IntVar(&flagRunLimit, "limit", 100, "Number of runs to export with --runs")
}

func runExport(_ *cobra.Command, args []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	profiles, err := store.Profiles()
	if err != nil {
		return err
	}
	if err := export.WriteProfilesFile(args[0], profiles); err != nil {
		return err
	}
	fmt.Printf("Wrote %d profiles to %s\n", len(profiles), args[0])

	if flagRunsCSV == "" {
		return nil
	}
	runs, err := store.RecentRuns(flagRunLimit)
	if err != nil {
		return err
	}
	runLog, err := export.CreateRunLog(flagRunsCSV)
	if err != nil {
		return err
	}
	for _, r := range runs {
		if err := runLog.Write(export.RunRowFrom(r)); err != nil {
			runLog.Close()
			return err
		}
	}
	if err := runLog.Close(); err != nil {
		return err
	}
	fmt.Printf("Wrote %d runs to %s\n", len(runs), flagRunsCSV)
	return nil
}
