package rank

import (
	"context"
	"fmt"

	"github.com/ppiankov/evidentia/internal/model"
)

// Hybrid combines judged relevance with rank fusion as a weighted sum.
// The two component scores live on very different scales (0-10 ordinal
// versus reciprocal-rank fractions), so each side is normalized to [0,1]
// by its maximum before mixing.
type Hybrid struct {
	judged Strategy
	fused  Strategy
	alpha  float64
}

// NewHybrid creates a hybrid ranker. alpha is the judged weight; values
// outside (0,1] select 0.6.
func NewHybrid(judged, fused Strategy, alpha float64) *Hybrid {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.6
	}
	return &Hybrid{judged: judged, fused: fused, alpha: alpha}
}

// Name returns the strategy name
func (h *Hybrid) Name() string {
	return "hybrid"
}

// Score runs both component strategies and mixes their normalized scores
func (h *Hybrid) Score(ctx context.Context, claim string, docs []model.Document, retrievals []model.Retrieval) ([]model.Scored, error) {
	judged, err := h.judged.Score(ctx, claim, docs, retrievals)
	if err != nil {
		return nil, fmt.Errorf("hybrid judged pass: %w", err)
	}
	fused, err := h.fused.Score(ctx, claim, docs, retrievals)
	if err != nil {
		return nil, fmt.Errorf("hybrid fusion pass: %w", err)
	}
	if len(judged) != len(docs) || len(fused) != len(docs) {
		return nil, fmt.Errorf("hybrid component returned %d/%d scores for %d documents", len(judged), len(fused), len(docs))
	}

	jn := maxNormalize(judged)
	fn := maxNormalize(fused)

	scored := make([]model.Scored, 0, len(docs))
	for i, doc := range docs {
		score := h.alpha*jn[i] + (1-h.alpha)*fn[i]
		scored = append(scored, model.Scored{Document: doc, Score: score})
	}

	return scored, nil
}

// maxNormalize maps scores onto [0,1] by dividing by the maximum. An
// all-zero list stays all zero.
func maxNormalize(scored []model.Scored) []float64 {
	max := 0.0
	for _, s := range scored {
		if s.Score > max {
			max = s.Score
		}
	}

	out := make([]float64, len(scored))
	for i, s := range scored {
		if max > 0 {
			out[i] = s.Score / max
		}
	}
	return out
}
