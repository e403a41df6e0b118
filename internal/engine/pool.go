package engine

import (
	"sort"

	"github.com/ppiankov/evidentia/internal/model"
)

// Pool accumulates candidate documents across hops, keyed by normalized
// title. The first occurrence of a title wins and insertion order is
// preserved, which gives the selector a stable tie-break.
type Pool struct {
	keys map[string]bool
	docs []model.Document
}

// NewPool creates an empty candidate pool
func NewPool() *Pool {
	return &Pool{keys: make(map[string]bool)}
}

// Add inserts documents whose normalized title is not yet pooled and
// reports how many were new. Untitled documents are dropped.
func (p *Pool) Add(docs ...model.Document) int {
	added := 0
	for _, doc := range docs {
		key := doc.Key()
		if key == "" || p.keys[key] {
			continue
		}
		p.keys[key] = true
		p.docs = append(p.docs, doc)
		added++
	}
	return added
}

// Docs returns the pooled documents in insertion order
func (p *Pool) Docs() []model.Document {
	return p.docs
}

// Len returns the number of pooled documents
func (p *Pool) Len() int {
	return len(p.docs)
}

// Dedupe removes documents sharing a normalized title, keeping the first
// occurrence. Stable and idempotent.
func Dedupe(docs []model.Document) []model.Document {
	seen := make(map[string]bool, len(docs))
	out := make([]model.Document, 0, len(docs))
	for _, doc := range docs {
		key := doc.Key()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, doc)
	}
	return out
}

// Select sorts scored documents by score descending, stable on ties, and
// truncates to max. Title uniqueness is re-asserted so no strategy can
// smuggle a duplicate past the output budget.
func Select(scored []model.Scored, max int) []model.Scored {
	ranked := make([]model.Scored, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	seen := make(map[string]bool, len(ranked))
	selected := make([]model.Scored, 0, len(ranked))
	for _, s := range ranked {
		key := s.Key()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		selected = append(selected, s)
		if max > 0 && len(selected) >= max {
			break
		}
	}
	return selected
}
