package planner

import (
	"context"
	"fmt"

	"github.com/ppiankov/evidentia/internal/llm"
)

const gapSystem = "You identify what evidence is still missing to verify a claim, " +
	"and you write concise search queries to find that evidence."

// Gap plans queries by reasoning about the difference between the claim
// and the evidence already retrieved. With an LLM provider it asks the
// model what is missing; without one, or when the provider fails, it
// falls back to uncovered-entity planning, which keeps the engine usable
// offline.
type Gap struct {
	provider   llm.Provider
	maxQueries int
	ctxDocs    int
	ctxChars   int
	fallback   *Entity
}

// NewGap creates a gap planner. provider may be nil.
func NewGap(provider llm.Provider, maxQueries, ctxDocs, ctxChars int) *Gap {
	return &Gap{
		provider:   provider,
		maxQueries: maxQueries,
		ctxDocs:    ctxDocs,
		ctxChars:   ctxChars,
		fallback:   NewEntity(maxQueries),
	}
}

// Name returns the strategy name
func (g *Gap) Name() string {
	return "gap"
}

// Plan asks for the missing information and returns queries targeting it
func (g *Gap) Plan(ctx context.Context, state State) ([]string, error) {
	if g.provider == nil {
		return g.fallback.Plan(ctx, state)
	}

	prompt := fmt.Sprintf(`Claim: %s

Retrieved so far:
%s

State what information is still missing to verify the claim, then write up to %d search queries that would retrieve it. Answer in this format:
MISSING: <one line describing the gap>
QUERY: <search query>`,
		state.Claim,
		formatContext(state.Docs, g.ctxDocs, g.ctxChars),
		g.maxQueries,
	)

	answer, err := g.provider.Complete(ctx, llm.CompletionRequest{
		System: gapSystem,
		Prompt: prompt,
	})
	if err != nil {
		// Cancellation aborts planning; any other provider failure
		// degrades to the entity fallback
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return g.fallback.Plan(ctx, state)
	}

	queries := linesWithPrefix(answer, "QUERY:")
	if len(queries) == 0 {
		// Model ignored the format; fall back to its list items, minus
		// any MISSING lines that slipped through
		for _, item := range listItems(answer) {
			if len(item) > 3 {
				queries = append(queries, item)
			}
		}
	}

	return sanitize(queries, state.PriorQueries, g.maxQueries), nil
}
