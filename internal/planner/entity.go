package planner

import (
	"context"
	"strings"

	"github.com/ppiankov/evidentia/internal/extract"
	"github.com/ppiankov/evidentia/internal/model"
	"github.com/ppiankov/evidentia/internal/textnorm"
)

// Entity plans without an LLM. The first hop searches for the claim
// itself; later hops search for claim entities that no pooled document
// title covers yet. When every entity is covered the plan comes back
// empty and the engine finalizes.
type Entity struct {
	maxQueries int
}

// NewEntity creates an entity planner
func NewEntity(maxQueries int) *Entity {
	return &Entity{maxQueries: maxQueries}
}

// Name returns the strategy name
func (e *Entity) Name() string {
	return "entity"
}

// Plan returns the claim on the first hop and uncovered entities after
func (e *Entity) Plan(ctx context.Context, state State) ([]string, error) {
	if state.Hop == 0 {
		queries := []string{state.Claim}
		queries = append(queries, extract.Entities(state.Claim)...)
		return sanitize(queries, state.PriorQueries, e.maxQueries), nil
	}

	uncovered := uncoveredEntities(state.Claim, state.Docs)
	return sanitize(uncovered, state.PriorQueries, e.maxQueries), nil
}

// uncoveredEntities returns claim entities that no pooled title mentions
func uncoveredEntities(claim string, docs []model.Document) []string {
	titles := make([]string, 0, len(docs))
	for _, doc := range docs {
		titles = append(titles, textnorm.Normalize(model.TitleKey(doc.Title)))
	}

	var uncovered []string
	for _, entity := range extract.Entities(claim) {
		norm := textnorm.Normalize(entity)
		if norm == "" {
			continue
		}
		covered := false
		for _, title := range titles {
			if strings.Contains(title, norm) {
				covered = true
				break
			}
		}
		if !covered {
			uncovered = append(uncovered, entity)
		}
	}

	return uncovered
}
