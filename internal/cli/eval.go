package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/evidentia/internal/dataset"
	"github.com/ppiankov/evidentia/internal/eval"
	"github.com/ppiankov/evidentia/internal/model"
	"github.com/ppiankov/evidentia/internal/store"
)

var (
	evalWorkers int
	evalLimit   int
	evalHops    int
	evalLabel   string
	evalShuffle bool
	evalSeed    int64
	evalTimeout time.Duration
	evalDB      string
	evalJSON    string
)

// evalCmd represents the eval command
var evalCmd = &cobra.Command{
	Use:   "eval <dataset>",
	Short: "Evaluate retrieval quality over a claims dataset",
	Long: `Eval runs the full retrieval loop over every claim in a dataset and
judges each evidence set against the gold titles:
- Load claims from a JSONL export (plain, gzip, or zstd)
- Gather evidence for claims in parallel with configurable workers
- Pass a claim only when every gold title is in the evidence set
- Report pass rate, mean recall, MRR, and the most-missed titles

Example:
  evidentia eval dev.jsonl
  evidentia eval dev.jsonl --workers 16 --limit 100
  evidentia eval dev.jsonl --num-hops 2 --shuffle --seed 7
  evidentia eval dev.jsonl --ranker hybrid --llm-provider openai --db runs.db`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	// Batch flags
	evalCmd.Flags().IntVar(&evalWorkers, "workers", 8, "number of claims evaluated concurrently")
	evalCmd.Flags().DurationVar(&evalTimeout, "timeout", 30*time.Minute, "total timeout for the evaluation run")

	// Dataset filter flags
	evalCmd.Flags().IntVar(&evalLimit, "limit", 0, "evaluate at most this many claims (0 = all)")
	evalCmd.Flags().IntVar(&evalHops, "num-hops", 0, "keep only claims with this hop count (0 = all)")
	evalCmd.Flags().StringVar(&evalLabel, "label", "", "keep only claims with this label")
	evalCmd.Flags().BoolVar(&evalShuffle, "shuffle", false, "shuffle claims before applying --limit")
	evalCmd.Flags().Int64Var(&evalSeed, "seed", 42, "shuffle seed")

	// Output flags
	evalCmd.Flags().StringVar(&evalDB, "db", "", "SQLite database to record the run in")
	evalCmd.Flags().StringVar(&evalJSON, "json", "", "write per-claim outcomes as JSON to this path")

	addEngineFlags(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if cmd.Flags().Changed("workers") {
		cfg.Concurrency.Workers = evalWorkers
	}
	if err := resolveAPIKey(cfg); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	banner(os.Stderr, "Evidentia Evaluation")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Dataset:   %s\n", path)
	fmt.Fprintf(os.Stderr, "  Backend:   %s\n", cfg.Backend.Kind)
	fmt.Fprintf(os.Stderr, "  Planner:   %s\n", cfg.Planner.Strategy)
	fmt.Fprintf(os.Stderr, "  Ranker:    %s\n", cfg.Ranker.Strategy)
	fmt.Fprintf(os.Stderr, "  Budget:    %d queries x %d docs, keep %d\n", cfg.Engine.MaxQueries, cfg.Engine.PerHopK, cfg.Engine.MaxOutput)
	fmt.Fprintf(os.Stderr, "  Workers:   %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Timeout:   %v\n", evalTimeout)
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  LLM:       %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	fmt.Fprintf(os.Stderr, "⚙️  Loading claims...\n")
	claims, err := dataset.Load(path, dataset.Options{
		Hops:    evalHops,
		Label:   evalLabel,
		Shuffle: evalShuffle,
		Seed:    evalSeed,
		Limit:   evalLimit,
	})
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	if len(claims) == 0 {
		return fmt.Errorf("no claims matched the dataset filters")
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d claims\n", len(claims))

	fmt.Fprintf(os.Stderr, "⚙️  Building %s backend...\n", cfg.Backend.Kind)
	eng, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}

	var st *store.Store
	var runID string
	if evalDB != "" {
		st, err = store.Open(evalDB)
		if err != nil {
			return fmt.Errorf("open results database: %w", err)
		}
		defer st.Close()

		runID, err = st.BeginRun(filepath.Base(path), cfg.Backend.Kind, cfg.Planner.Strategy, cfg.Ranker.Strategy, cfg)
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "⚙️  Evaluating claims with %d workers...\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "\n")

	runner := eval.NewRunner(eng, cfg)
	runner.OnOutcome = func(o model.Outcome) {
		switch {
		case o.Error != "":
			fmt.Fprintf(os.Stderr, "✗ %s: %s\n", claimLabel(o.Claim), o.Error)
		case o.Passed:
			fmt.Fprintf(os.Stderr, "✓ %s (%d queries, %d hops)\n", claimLabel(o.Claim), o.Queries, o.Hops)
		default:
			fmt.Fprintf(os.Stderr, "✗ %s (recall %.2f, missing %d)\n", claimLabel(o.Claim), o.Recall, len(o.Missing))
		}
	}

	outcomes, summary := runner.Run(ctx, claims)

	fmt.Fprintf(os.Stderr, "\n")
	banner(os.Stderr, "Evaluation Complete")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Claims:       %d\n", summary.Total)
	fmt.Fprintf(os.Stderr, "  Passed:       %d\n", summary.Passed)
	fmt.Fprintf(os.Stderr, "  Failed:       %d (%d errored)\n", summary.Failed, summary.Errors)
	fmt.Fprintf(os.Stderr, "  Pass rate:    %.1f%%\n", summary.PassRate*100)
	fmt.Fprintf(os.Stderr, "  Mean recall:  %.3f\n", summary.MeanRecall)
	fmt.Fprintf(os.Stderr, "  MRR:          %.3f\n", summary.MRR)
	fmt.Fprintf(os.Stderr, "  Elapsed:      %v\n", summary.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "\n")

	printMissed(summary.Missed, 10)

	if st != nil {
		if err := st.SaveOutcomes(runID, outcomes); err != nil {
			return fmt.Errorf("save outcomes: %w", err)
		}
		if err := st.FinishRun(runID, summary); err != nil {
			return fmt.Errorf("finish run: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Recorded run %s in %s\n", runID, evalDB)
	}

	if evalJSON != "" {
		report := struct {
			Summary  model.Summary   `json:"summary"`
			Outcomes []model.Outcome `json:"outcomes"`
		}{summary, outcomes}
		if err := writeJSON(evalJSON, report); err != nil {
			return fmt.Errorf("write outcomes JSON: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote outcomes to %s\n", evalJSON)
	}

	return nil
}

// printMissed reports the gold titles most often absent from evidence
// sets, the usual starting point when a run's pass rate drops
func printMissed(missed map[string]int, top int) {
	if len(missed) == 0 {
		return
	}

	type entry struct {
		title string
		count int
	}
	entries := make([]entry, 0, len(missed))
	for title, count := range missed {
		entries = append(entries, entry{title, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].title < entries[j].title
	})
	if len(entries) > top {
		entries = entries[:top]
	}

	fmt.Fprintf(os.Stderr, "  Most-missed gold titles:\n")
	for _, e := range entries {
		fmt.Fprintf(os.Stderr, "    %3dx  %s\n", e.count, e.title)
	}
	fmt.Fprintf(os.Stderr, "\n")
}
