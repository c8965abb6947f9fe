package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/citecheck/internal/report"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past verification runs",
	Long: `History reads the run database that check writes after every run and
lists the most recent runs. With --run it prints the issues one run
recorded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bindFlags(cmd, map[string]string{
			"output": "output",
			"db":     "db",
		})
		dbPath := viper.GetString("db")
		if dbPath == "" {
			dbPath = filepath.Join(viper.GetString("output"), historyDBName)
		}
		limit, _ := cmd.Flags().GetInt("limit")
		runID, _ := cmd.Flags().GetString("run")
		return runHistory(cmd.Context(), dbPath, limit, runID, cmd.OutOrStdout())
	},
}

func init() {
	historyCmd.Flags().String("output", defaultOutputDir, "report directory holding the default database")
	historyCmd.Flags().String("db", "", "run history database (default <output>/"+historyDBName+")")
	historyCmd.Flags().Int("limit", report.DefaultHistoryLimit, "maximum number of runs to list")
	historyCmd.Flags().String("run", "", "show the issues recorded for this run ID")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(ctx context.Context, dbPath string, limit int, runID string, w io.Writer) error {
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("no run history at %s: %w", dbPath, err)
	}
	store, err := report.OpenStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if runID != "" {
		issues, err := store.RunIssues(ctx, runID)
		if err != nil {
			return err
		}
		if len(issues) == 0 {
			fmt.Fprintf(w, "Run %s recorded no issues.\n", runID)
			return nil
		}
		report.IssuesTable(w, issues)
		return nil
	}

	records, err := store.History(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	report.HistoryTable(w, records)
	return nil
}
