package planner

import "context"

// Passthrough issues the claim text as the single query of the first hop
// and stops. The one-hop baseline every other strategy is measured
// against.
type Passthrough struct{}

// NewPassthrough creates a passthrough planner
func NewPassthrough() *Passthrough {
	return &Passthrough{}
}

// Name returns the strategy name
func (p *Passthrough) Name() string {
	return "passthrough"
}

// Plan returns the claim on hop zero and nothing after
func (p *Passthrough) Plan(ctx context.Context, state State) ([]string, error) {
	if state.Hop > 0 {
		return nil, nil
	}
	return sanitize([]string{state.Claim}, state.PriorQueries, 1), nil
}
