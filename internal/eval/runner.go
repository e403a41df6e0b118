package eval

import (
	"context"
	"time"

	"github.com/ppiankov/evidentia/internal/model"
	"github.com/ppiankov/evidentia/internal/worker"
)

// Evidencer gathers evidence for one claim. Satisfied by engine.Engine.
type Evidencer interface {
	Run(ctx context.Context, claim model.Claim) (*model.Evidence, error)
}

// Runner evaluates a batch of claims on a worker pool. Claims share no
// state, so the only coordination is the worker cap.
type Runner struct {
	engine    Evidencer
	workers   int
	maxOutput int

	// OnOutcome, when set, is called from worker goroutines as each
	// claim finishes. It must be safe for concurrent use.
	OnOutcome func(model.Outcome)
}

// NewRunner creates a batch runner sized from the concurrency config
func NewRunner(eng Evidencer, cfg *model.Config) *Runner {
	workers := cfg.Concurrency.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Runner{
		engine:    eng,
		workers:   workers,
		maxOutput: cfg.Engine.MaxOutput,
	}
}

// claimJob evaluates one claim on the pool
type claimJob struct {
	runner *Runner
	index  int
	claim  model.Claim
}

// claimResult carries an outcome back through the pool
type claimResult struct {
	index   int
	outcome model.Outcome
	err     error
}

// GetError returns the engine error, if any
func (r *claimResult) GetError() error {
	return r.err
}

// Execute runs the engine for the job's claim and assesses the evidence.
// An engine failure becomes an errored outcome, not a batch abort.
func (j *claimJob) Execute(ctx context.Context) worker.Result {
	var outcome model.Outcome

	ev, err := j.runner.engine.Run(ctx, j.claim)
	if err != nil {
		outcome = model.Outcome{Claim: j.claim, Error: err.Error()}
	} else {
		outcome = Assess(ev, j.runner.maxOutput)
	}

	if j.runner.OnOutcome != nil {
		j.runner.OnOutcome(outcome)
	}
	return &claimResult{index: j.index, outcome: outcome, err: err}
}

// Run evaluates every claim and returns the outcomes in input order plus
// the aggregate summary. A cancelled context stops submission; claims
// already queued still finish.
func (r *Runner) Run(ctx context.Context, claims []model.Claim) ([]model.Outcome, model.Summary) {
	start := time.Now()

	pool := worker.NewPool(r.workers)
	pool.Start()
	submitted := 0
	for i, claim := range claims {
		if ctx.Err() != nil {
			break
		}
		pool.Submit(&claimJob{runner: r, index: i, claim: claim})
		submitted++
	}
	results := pool.Wait()

	outcomes := make([]model.Outcome, len(claims))
	for i := submitted; i < len(claims); i++ {
		outcomes[i] = model.Outcome{Claim: claims[i], Error: "not evaluated: batch cancelled"}
	}
	for _, res := range results {
		cr := res.(*claimResult)
		outcomes[cr.index] = cr.outcome
	}

	return outcomes, Summarize(outcomes, time.Since(start))
}
