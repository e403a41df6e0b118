package model

import "strings"

// Document represents a retrieved passage
type Document struct {
	Title   string `json:"title"`             // Passage title
	Content string `json:"content,omitempty"` // Passage body text

	Query   string `json:"query,omitempty"`   // Query that retrieved it (traceability)
	Rank    int    `json:"rank,omitempty"`    // 1-based rank within that query's result
	Backend string `json:"backend,omitempty"` // Backend that served it
}

// TitleKey canonicalizes a title for document identity: lowercase, trimmed,
// first segment before " | ". Two documents with the same key are the same
// document.
func TitleKey(title string) string {
	if idx := strings.Index(title, " | "); idx >= 0 {
		title = title[:idx]
	}
	return strings.ToLower(strings.TrimSpace(title))
}

// Key returns the document's identity key
func (d Document) Key() string {
	return TitleKey(d.Title)
}
