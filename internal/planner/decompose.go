package planner

import (
	"context"
	"fmt"

	"github.com/ppiankov/evidentia/internal/llm"
)

const decomposeSystem = "You break multi-hop claims into the independent " +
	"facts they rest on, and write one search query per fact."

// Decompose plans by splitting the claim into its constituent facts. On
// the first hop it decomposes the claim itself; on later hops it asks
// which facts remain unverified given the evidence so far. A failed
// provider degrades to the passthrough plan.
type Decompose struct {
	provider   llm.Provider
	maxQueries int
	ctxDocs    int
	ctxChars   int
	fallback   *Passthrough
}

// NewDecompose creates a decompose planner
func NewDecompose(provider llm.Provider, maxQueries, ctxDocs, ctxChars int) *Decompose {
	return &Decompose{
		provider:   provider,
		maxQueries: maxQueries,
		ctxDocs:    ctxDocs,
		ctxChars:   ctxChars,
		fallback:   NewPassthrough(),
	}
}

// Name returns the strategy name
func (d *Decompose) Name() string {
	return "decompose"
}

// Plan returns one query per unverified constituent fact
func (d *Decompose) Plan(ctx context.Context, state State) ([]string, error) {
	var prompt string
	if state.Hop == 0 {
		prompt = fmt.Sprintf(`Claim: %s

Break this claim into at most %d independent facts that must each be checked, and write one search query per fact. Answer with a numbered list of queries only.`,
			state.Claim, d.maxQueries)
	} else {
		prompt = fmt.Sprintf(`Claim: %s

Retrieved so far:
%s

Which facts in the claim are still unverified by these documents? Write one search query per remaining fact, at most %d. Answer with a numbered list of queries only. If everything is covered, answer DONE.`,
			state.Claim,
			formatContext(state.Docs, d.ctxDocs, d.ctxChars),
			d.maxQueries)
	}

	answer, err := d.provider.Complete(ctx, llm.CompletionRequest{
		System: decomposeSystem,
		Prompt: prompt,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return d.fallback.Plan(ctx, state)
	}

	queries := listItems(answer)
	if len(queries) == 0 {
		queries = linesWithPrefix(answer, "QUERY:")
	}

	return sanitize(queries, state.PriorQueries, d.maxQueries), nil
}
