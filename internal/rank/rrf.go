package rank

import (
	"context"

	"github.com/ppiankov/evidentia/internal/model"
)

// RRF fuses the per-query retrieval rankings with reciprocal rank fusion.
// A document at 1-based rank r in one query's result contributes
// 1/(C + r); documents ranked well across several queries accumulate the
// highest fused scores without any judgment calls.
type RRF struct {
	constant float64
}

// NewRRF creates a rank fusion ranker. constant is C in 1/(C+rank); zero
// or negative selects the conventional 60.
func NewRRF(constant float64) *RRF {
	if constant <= 0 {
		constant = 60
	}
	return &RRF{constant: constant}
}

// Name returns the strategy name
func (r *RRF) Name() string {
	return "rrf"
}

// Score sums reciprocal rank contributions across all retrievals. A
// document absent from every retrieval list scores zero.
func (r *RRF) Score(ctx context.Context, claim string, docs []model.Document, retrievals []model.Retrieval) ([]model.Scored, error) {
	fused := make(map[string]float64, len(docs))
	for _, ret := range retrievals {
		seen := make(map[string]bool, len(ret.Docs))
		for i, doc := range ret.Docs {
			key := doc.Key()
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			fused[key] += 1.0 / (r.constant + float64(i+1))
		}
	}

	scored := make([]model.Scored, 0, len(docs))
	for _, doc := range docs {
		scored = append(scored, model.Scored{Document: doc, Score: fused[doc.Key()]})
	}

	return scored, nil
}
