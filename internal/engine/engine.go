// Package engine drives the bounded retrieval loop that gathers an
// evidence set for a claim: plan queries, issue them concurrently against
// the backend, merge results into a deduplicated pool, then score the
// pool and select the output budget.
package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/evidentia/internal/backend"
	"github.com/ppiankov/evidentia/internal/model"
	"github.com/ppiankov/evidentia/internal/planner"
	"github.com/ppiankov/evidentia/internal/rank"
)

// Engine evaluates one claim per Run call. Claims share no mutable state,
// so a single Engine may serve many goroutines at once.
type Engine struct {
	backend backend.Retriever
	planner planner.Strategy
	ranker  rank.Strategy

	maxHops    int
	maxQueries int
	maxOutput  int
	perHopK    int
}

// New creates an engine from its collaborators and the engine config
func New(retriever backend.Retriever, plan planner.Strategy, ranker rank.Strategy, cfg *model.Config) *Engine {
	return &Engine{
		backend:    retriever,
		planner:    plan,
		ranker:     ranker,
		maxHops:    cfg.Engine.MaxHops,
		maxQueries: cfg.Engine.MaxQueries,
		maxOutput:  cfg.Engine.MaxOutput,
		perHopK:    cfg.Engine.PerHopK,
	}
}

// Run gathers evidence for a claim. It never issues more than MaxQueries
// backend calls and never returns more than MaxOutput documents. A
// cancelled context aborts the claim; planner and backend failures only
// end exploration early and whatever is pooled still gets scored.
func (e *Engine) Run(ctx context.Context, claim model.Claim) (*model.Evidence, error) {
	start := time.Now()

	pool := NewPool()
	var retrievals []model.Retrieval
	var prior []string
	issued := 0
	hops := 0

	for hop := 0; hop < e.maxHops && issued < e.maxQueries; hop++ {
		queries, err := e.planner.Plan(ctx, planner.State{
			Claim:        claim.Text,
			Hop:          hop,
			Docs:         pool.Docs(),
			PriorQueries: prior,
		})
		if err != nil || len(queries) == 0 {
			break
		}

		// The issuance gate: a plan never exceeds the remaining budget
		if remaining := e.maxQueries - issued; len(queries) > remaining {
			queries = queries[:remaining]
		}

		hops++
		results := make([][]model.Document, len(queries))
		g, gctx := errgroup.WithContext(ctx)
		for i, query := range queries {
			g.Go(func() error {
				docs, err := e.backend.Retrieve(gctx, query, e.perHopK)
				if err != nil {
					// Cancellation aborts the claim; any other failure
					// degrades to zero documents for this query
					if gctx.Err() != nil {
						return gctx.Err()
					}
					return nil
				}
				results[i] = docs
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		issued += len(queries)
		prior = append(prior, queries...)
		for i, query := range queries {
			retrievals = append(retrievals, model.Retrieval{
				Query: query,
				Hop:   hops,
				Docs:  results[i],
			})
			pool.Add(results[i]...)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scored, err := e.ranker.Score(ctx, claim.Text, pool.Docs(), retrievals)
	if err != nil {
		return nil, fmt.Errorf("score pool: %w", err)
	}

	return &model.Evidence{
		Claim:      claim,
		Docs:       Select(scored, e.maxOutput),
		Retrievals: retrievals,
		Hops:       hops,
		Queries:    issued,
		Elapsed:    time.Since(start),
	}, nil
}
