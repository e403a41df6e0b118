package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/evidentia/internal/store"
)

var runsDB string

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "Inspect recorded evaluation runs",
	Long: `List evaluation runs recorded with 'eval --db', or show the per-claim
outcomes of one run.

Example:
  evidentia runs --db runs.db
  evidentia runs 4f2a... --db runs.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().StringVar(&runsDB, "db", "runs.db", "SQLite database recorded by eval")
}

func runRuns(cmd *cobra.Command, args []string) error {
	st, err := store.Open(runsDB)
	if err != nil {
		return fmt.Errorf("open results database: %w", err)
	}
	defer st.Close()

	if len(args) == 1 {
		return showRun(st, args[0])
	}
	return listRuns(st)
}

func listRuns(st *store.Store) error {
	records, err := st.ListRuns()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	for _, r := range records {
		fmt.Printf("%s  %s\n", r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("    %s  backend=%s planner=%s ranker=%s\n", r.Dataset, r.Backend, r.Planner, r.Ranker)
		if r.FinishedAt.IsZero() {
			fmt.Printf("    (unfinished)\n")
			continue
		}
		s := r.Summary
		fmt.Printf("    %d claims, %d passed (%.1f%%), recall %.3f, MRR %.3f\n", s.Total, s.Passed, s.PassRate*100, s.MeanRecall, s.MRR)
	}
	return nil
}

func showRun(st *store.Store, runID string) error {
	outcomes, err := st.Outcomes(runID)
	if err != nil {
		return fmt.Errorf("load outcomes: %w", err)
	}
	if len(outcomes) == 0 {
		return fmt.Errorf("no outcomes recorded for run %s", runID)
	}

	for _, o := range outcomes {
		switch {
		case o.Error != "":
			fmt.Printf("✗ %s: %s\n", claimLabel(o.Claim), o.Error)
		case o.Passed:
			fmt.Printf("✓ %s (%d queries, %d hops)\n", claimLabel(o.Claim), o.Queries, o.Hops)
		default:
			fmt.Printf("✗ %s (recall %.2f)\n", claimLabel(o.Claim), o.Recall)
			for _, title := range o.Missing {
				fmt.Printf("    missing: %s\n", title)
			}
		}
	}
	return nil
}
