package rank

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/evidentia/internal/llm"
	"github.com/ppiankov/evidentia/internal/model"
)

const windowSystem = "You rank a numbered list of documents by how useful " +
	"each one is for verifying a claim. Score every document from 0 to 10."

const windowContentChars = 200

// Window scores documents listwise: the pool is partitioned into
// overlapping windows of fixed size, each window is judged jointly in a
// single call, and a document appearing in several windows gets the mean
// of its window scores. Joint judgment lets the model compare candidates
// directly instead of scoring each in isolation.
type Window struct {
	provider     llm.Provider
	size         int
	stride       int
	defaultScore float64
}

// NewWindow creates a listwise ranker. Zero or negative size and stride
// select 10 and 5; a stride larger than the window is clamped so no
// document is skipped.
func NewWindow(provider llm.Provider, size, stride int, defaultScore float64) *Window {
	if size <= 0 {
		size = 10
	}
	if stride <= 0 {
		stride = 5
	}
	if stride > size {
		stride = size
	}
	return &Window{
		provider:     provider,
		size:         size,
		stride:       stride,
		defaultScore: defaultScore,
	}
}

// Name returns the strategy name
func (w *Window) Name() string {
	return "window"
}

// Score judges overlapping windows over the pool and averages documents
// that fall into more than one. A failed window call contributes nothing;
// its documents keep scores from other windows or the default.
func (w *Window) Score(ctx context.Context, claim string, docs []model.Document, retrievals []model.Retrieval) ([]model.Scored, error) {
	sums := make([]float64, len(docs))
	counts := make([]int, len(docs))

	for start := 0; start < len(docs); start += w.stride {
		end := start + w.size
		if end > len(docs) {
			end = len(docs)
		}

		scores, err := w.judgeWindow(ctx, claim, docs[start:end])
		if err == nil {
			for i, s := range scores {
				sums[start+i] += s
				counts[start+i]++
			}
		}

		if end == len(docs) {
			break
		}
	}

	scored := make([]model.Scored, 0, len(docs))
	for i, doc := range docs {
		score := w.defaultScore
		if counts[i] > 0 {
			score = sums[i] / float64(counts[i])
		}
		scored = append(scored, model.Scored{Document: doc, Score: score})
	}

	return scored, nil
}

// judgeWindow scores one window of documents with a single joint call
func (w *Window) judgeWindow(ctx context.Context, claim string, docs []model.Document) ([]float64, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Claim: %s\n\nDocuments:\n", claim)
	for i, doc := range docs {
		content := doc.Content
		if len(content) > windowContentChars {
			content = content[:windowContentChars] + "..."
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, doc.Title)
		if content != "" {
			fmt.Fprintf(&sb, " - %s", content)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nScore each document's relevance to verifying the claim from 0 to 10. Answer in this exact format:\nSCORES: <score for 1>, <score for 2>, ...")

	answer, err := w.provider.Complete(ctx, llm.CompletionRequest{
		System: windowSystem,
		Prompt: sb.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("window judgment: %w", err)
	}

	scores := parseScoreList(answer, len(docs))
	if scores == nil {
		return nil, fmt.Errorf("window judgment returned no parsable scores")
	}
	return scores, nil
}
