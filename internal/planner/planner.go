// Package planner turns a claim and the evidence gathered so far into the
// next hop's search queries. Strategies differ in how they reason about
// what is still missing; all of them respect a per-hop query cap and never
// repeat a query already issued.
package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/evidentia/internal/llm"
	"github.com/ppiankov/evidentia/internal/model"
)

// State carries what the engine knows when asking for the next queries
type State struct {
	// Claim is the claim under verification
	Claim string

	// Hop is the zero-based index of the hop being planned
	Hop int

	// Docs is the deduplicated evidence pool accumulated so far
	Docs []model.Document

	// PriorQueries lists every query already sent to the backend
	PriorQueries []string
}

// Strategy proposes search queries for the next hop. An empty plan with a
// nil error means the strategy considers the evidence complete.
type Strategy interface {
	// Name returns the strategy name
	Name() string

	// Plan returns up to the configured number of queries for this hop
	Plan(ctx context.Context, state State) ([]string, error)
}

// New creates a planner strategy by name. Strategies that reason with an
// LLM refuse to construct without a provider; the others ignore it.
func New(name string, cfg *model.Config, provider llm.Provider) (Strategy, error) {
	maxQueries := cfg.Planner.MaxQueries
	if maxQueries <= 0 {
		maxQueries = cfg.Engine.MaxQueries
	}

	switch strings.ToLower(name) {
	case "gap", "":
		return NewGap(provider, maxQueries, cfg.Engine.ContextDocs, cfg.Engine.ContextChars), nil

	case "decompose":
		if provider == nil {
			return nil, fmt.Errorf("decompose planner requires an LLM provider")
		}
		return NewDecompose(provider, maxQueries, cfg.Engine.ContextDocs, cfg.Engine.ContextChars), nil

	case "entity":
		return NewEntity(maxQueries), nil

	case "hypothesis":
		if provider == nil {
			return nil, fmt.Errorf("hypothesis planner requires an LLM provider")
		}
		return NewHypothesis(provider, cfg.Planner.Hypotheses, maxQueries), nil

	case "passthrough":
		return NewPassthrough(), nil

	default:
		return nil, fmt.Errorf("unknown planner: %s (supported: gap, decompose, entity, hypothesis, passthrough)", name)
	}
}

// formatContext renders pooled documents for a prompt, bounded in both
// document count and per-document characters
func formatContext(docs []model.Document, maxDocs, maxChars int) string {
	if len(docs) == 0 {
		return "(nothing retrieved yet)"
	}
	if maxDocs <= 0 {
		maxDocs = 10
	}
	if maxChars <= 0 {
		maxChars = 300
	}

	var sb strings.Builder
	for i, doc := range docs {
		if i >= maxDocs {
			fmt.Fprintf(&sb, "... and %d more documents\n", len(docs)-maxDocs)
			break
		}
		content := doc.Content
		if len(content) > maxChars {
			content = content[:maxChars] + "..."
		}
		fmt.Fprintf(&sb, "Doc %d: %s", i+1, doc.Title)
		if content != "" {
			fmt.Fprintf(&sb, " | %s", content)
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// sanitize trims, deduplicates, and caps proposed queries, dropping any
// query that was already issued
func sanitize(queries, prior []string, max int) []string {
	seen := make(map[string]bool, len(prior))
	for _, q := range prior {
		seen[normalizeQuery(q)] = true
	}

	var out []string
	for _, q := range queries {
		q = strings.TrimSpace(q)
		key := normalizeQuery(q)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
		if max > 0 && len(out) >= max {
			break
		}
	}

	return out
}

func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// linesWithPrefix extracts the remainder of every line starting with the
// given prefix, case-insensitively
func linesWithPrefix(text, prefix string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(stripListMarker(line))
		if len(line) < len(prefix) {
			continue
		}
		if strings.EqualFold(line[:len(prefix)], prefix) {
			rest := strings.TrimSpace(line[len(prefix):])
			rest = strings.Trim(rest, `"'`)
			if rest != "" {
				out = append(out, rest)
			}
		}
	}
	return out
}

// listItems extracts numbered or bulleted list entries from text
func listItems(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		stripped := stripListMarker(trimmed)
		if stripped == trimmed {
			continue
		}
		stripped = strings.TrimSpace(strings.Trim(stripped, `"'`))
		if stripped != "" {
			out = append(out, stripped)
		}
	}
	return out
}

// stripListMarker removes a leading "1.", "2)", "-", or "*" marker
func stripListMarker(line string) string {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
		return strings.TrimSpace(trimmed[2:])
	}

	digits := 0
	for digits < len(trimmed) && trimmed[digits] >= '0' && trimmed[digits] <= '9' {
		digits++
	}
	if digits > 0 && digits < len(trimmed) && (trimmed[digits] == '.' || trimmed[digits] == ')') {
		return strings.TrimSpace(trimmed[digits+1:])
	}

	return trimmed
}
