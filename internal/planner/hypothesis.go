package planner

import (
	"context"
	"fmt"

	"github.com/ppiankov/evidentia/internal/llm"
)

const hypothesisSystem = "You reason backward from a claim: you state " +
	"hypotheses about which documents would verify it, then write a search " +
	"query to find each one."

// Hypothesis plans backward. Instead of asking what is missing, it
// guesses which documents would settle the claim and searches for those
// directly. Works best when the claim names its evidence obliquely. A
// failed provider degrades to the decompose plan.
type Hypothesis struct {
	provider   llm.Provider
	hypotheses int
	maxQueries int
	fallback   *Decompose
}

// NewHypothesis creates a hypothesis planner
func NewHypothesis(provider llm.Provider, hypotheses, maxQueries int) *Hypothesis {
	if hypotheses <= 0 {
		hypotheses = 3
	}
	return &Hypothesis{
		provider:   provider,
		hypotheses: hypotheses,
		maxQueries: maxQueries,
		fallback:   NewDecompose(provider, maxQueries, 0, 0),
	}
}

// Name returns the strategy name
func (h *Hypothesis) Name() string {
	return "hypothesis"
}

// Plan proposes hypothesis-driven queries
func (h *Hypothesis) Plan(ctx context.Context, state State) ([]string, error) {
	prompt := fmt.Sprintf(`Claim: %s

Already searched: %s

Propose up to %d hypotheses about documents that would verify or refute this claim, each with a search query to find that document. Answer in this format, one pair per hypothesis:
HYPOTHESIS: <what the document would establish>
QUERY: <search query>`,
		state.Claim,
		formatPrior(state.PriorQueries),
		h.hypotheses,
	)

	answer, err := h.provider.Complete(ctx, llm.CompletionRequest{
		System: hypothesisSystem,
		Prompt: prompt,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return h.fallback.Plan(ctx, state)
	}

	queries := linesWithPrefix(answer, "QUERY:")
	if len(queries) == 0 {
		queries = listItems(answer)
	}

	return sanitize(queries, state.PriorQueries, h.maxQueries), nil
}

func formatPrior(queries []string) string {
	if len(queries) == 0 {
		return "(nothing)"
	}
	out := ""
	for i, q := range queries {
		if i > 0 {
			out += "; "
		}
		out += fmt.Sprintf("%q", q)
	}
	return out
}
