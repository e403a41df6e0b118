package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/evidentia/internal/eval"
	"github.com/ppiankov/evidentia/internal/model"
)

var (
	goldTitles    []string
	verifyJSON    string
	verifyTrace   bool
	verifyTimeout time.Duration
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <claim>",
	Short: "Gather evidence for a single claim",
	Long: `Verify runs the full retrieval loop for one claim:
- Plan search queries from the claim (and from evidence found so far)
- Retrieve candidate documents over multiple hops
- Pool, deduplicate, and rerank everything retrieved
- Emit the top evidence documents within the output budget

With --gold, the evidence set is also judged against the expected
titles: the claim passes only if every gold title was retrieved.

Example:
  evidentia verify "Skagen painter Peder Severin Krøyer favored naturalism"
  evidentia verify "..." --backend wiki --ranker rrf --trace
  evidentia verify "..." --gold "Peder Severin Krøyer" --gold "Skagen Painters"
  evidentia verify "..." --planner decompose --llm-provider openai`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	// Output flags
	verifyCmd.Flags().StringArrayVar(&goldTitles, "gold", nil, "gold evidence title (repeatable)")
	verifyCmd.Flags().StringVar(&verifyJSON, "json", "", "write the evidence set and trace as JSON to this path")
	verifyCmd.Flags().BoolVar(&verifyTrace, "trace", false, "print the per-hop query trace")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 2*time.Minute, "overall timeout for the claim")

	addEngineFlags(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	claimText := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := resolveAPIKey(cfg); err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Claim: %s\n", claimText)
		fmt.Fprintf(os.Stderr, "Backend: %s\n", cfg.Backend.Kind)
		fmt.Fprintf(os.Stderr, "Planner: %s, ranker: %s\n", cfg.Planner.Strategy, cfg.Ranker.Strategy)
		fmt.Fprintf(os.Stderr, "Budget: %d queries x %d docs, keep %d\n", cfg.Engine.MaxQueries, cfg.Engine.PerHopK, cfg.Engine.MaxOutput)
		fmt.Fprintln(os.Stderr)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Building %s backend...\n", cfg.Backend.Kind)
	}

	eng, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Gathering evidence...\n")
	}

	ev, err := eng.Run(ctx, model.Claim{Text: claimText, Gold: goldTitles})
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Issued %d queries over %d hops in %v\n", ev.Queries, ev.Hops, ev.Elapsed.Round(time.Millisecond))
		fmt.Fprintf(os.Stderr, "✓ Selected %d evidence documents\n", len(ev.Docs))
		fmt.Fprintln(os.Stderr)
	}

	if verifyTrace {
		printTrace(ev)
	}

	for i, d := range ev.Docs {
		fmt.Printf("%2d. [%6.2f] %s\n", i+1, d.Score, d.Title)
	}

	if len(goldTitles) > 0 {
		outcome := eval.Assess(ev, cfg.Engine.MaxOutput)
		fmt.Println()
		if outcome.Passed {
			fmt.Printf("✓ evidence covers all %d gold titles\n", len(goldTitles))
		} else {
			fmt.Printf("✗ evidence misses %d of %d gold titles (recall %.2f)\n", len(outcome.Missing), len(goldTitles), outcome.Recall)
			for _, title := range outcome.Missing {
				fmt.Printf("    missing: %s\n", title)
			}
		}
	}

	if verifyJSON != "" {
		if err := writeJSON(verifyJSON, ev); err != nil {
			return fmt.Errorf("write evidence JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote evidence to %s\n", verifyJSON)
		}
	}

	return nil
}

// printTrace shows which query each hop issued and what it brought back
func printTrace(ev *model.Evidence) {
	for _, r := range ev.Retrievals {
		fmt.Printf("hop %d: %q -> %d docs\n", r.Hop, r.Query, len(r.Docs))
		for i, d := range r.Docs {
			if i >= 3 {
				fmt.Printf("    ... and %d more\n", len(r.Docs)-i)
				break
			}
			fmt.Printf("    %s\n", d.Title)
		}
	}
	fmt.Println()
}

// writeJSON writes v to path as indented JSON
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
