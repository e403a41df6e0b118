package rank

import (
	"context"
	"strings"

	"github.com/ppiankov/evidentia/internal/extract"
	"github.com/ppiankov/evidentia/internal/model"
	"github.com/ppiankov/evidentia/internal/textnorm"
)

// Relative weights of the lexical signals. An exact entity-name match in
// the title is the strongest evidence of relevance; content overlap the
// weakest. The rank penalty nudges ties toward documents the backend
// itself preferred.
const (
	entityTitleWeight    = 4.0
	titleOverlapWeight   = 2.0
	contentOverlapWeight = 1.0
	rankPenalty          = 0.02
)

// Heuristic scores documents by lexical overlap with the claim. No
// external calls, so it is the default strategy and the offline baseline.
type Heuristic struct{}

// NewHeuristic creates a heuristic ranker
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Name returns the strategy name
func (h *Heuristic) Name() string {
	return "heuristic"
}

// Score weighs entity matches in the title, keyword overlap in title and
// content, and the document's own retrieval rank
func (h *Heuristic) Score(ctx context.Context, claim string, docs []model.Document, retrievals []model.Retrieval) ([]model.Scored, error) {
	var entities []string
	for _, e := range extract.Entities(claim) {
		if norm := textnorm.Normalize(e); norm != "" {
			entities = append(entities, norm)
		}
	}

	scored := make([]model.Scored, 0, len(docs))
	for _, doc := range docs {
		title := textnorm.Normalize(model.TitleKey(doc.Title))

		var hits float64
		for _, entity := range entities {
			if strings.Contains(title, entity) {
				hits++
			}
		}

		score := 0.0
		if len(entities) > 0 {
			score += entityTitleWeight * hits / float64(len(entities))
		}
		score += titleOverlapWeight * textnorm.Overlap(claim, doc.Title)
		score += contentOverlapWeight * textnorm.Overlap(claim, doc.Content)
		if doc.Rank > 0 {
			score -= rankPenalty * float64(doc.Rank-1)
		}

		scored = append(scored, model.Scored{Document: doc, Score: score})
	}

	return scored, nil
}
