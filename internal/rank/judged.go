package rank

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/ppiankov/evidentia/internal/llm"
	"github.com/ppiankov/evidentia/internal/model"
)

const judgedSystem = "You judge how useful a document is for verifying a claim. " +
	"Answer with a single score from 0 to 10, where 10 means the document " +
	"directly supports or refutes the claim, followed by a short justification."

// Content passed to the judge is truncated so one long passage cannot
// blow the prompt budget
const judgeContentChars = 500

// Judged scores each document with an independent LLM relevance judgment.
// Judgments are claim-conditioned and fan out concurrently up to the
// worker cap. A failed call or an unparsable answer falls back to the
// default score; a scoring pass never aborts over one document.
type Judged struct {
	provider     llm.Provider
	defaultScore float64
	workers      int
}

// NewJudged creates a judged ranker
func NewJudged(provider llm.Provider, defaultScore float64, workers int) *Judged {
	if workers <= 0 {
		workers = 4
	}
	return &Judged{
		provider:     provider,
		defaultScore: defaultScore,
		workers:      workers,
	}
}

// Name returns the strategy name
func (j *Judged) Name() string {
	return "judged"
}

// Score judges every document concurrently and preserves pool order
func (j *Judged) Score(ctx context.Context, claim string, docs []model.Document, retrievals []model.Retrieval) ([]model.Scored, error) {
	pool, err := ants.NewPool(j.workers)
	if err != nil {
		return nil, fmt.Errorf("create judge pool: %w", err)
	}
	defer pool.Release()

	scored := make([]model.Scored, len(docs))
	var wg sync.WaitGroup

	for i, doc := range docs {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			scored[i] = model.Scored{Document: doc, Score: j.judge(ctx, claim, doc)}
		})
		if submitErr != nil {
			wg.Done()
			scored[i] = model.Scored{Document: doc, Score: j.defaultScore}
		}
	}
	wg.Wait()

	return scored, nil
}

// judge asks for one relevance score, falling back to the default when
// the call or the parse fails
func (j *Judged) judge(ctx context.Context, claim string, doc model.Document) float64 {
	content := doc.Content
	if len(content) > judgeContentChars {
		content = content[:judgeContentChars] + "..."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Claim: %s\n\nDocument title: %s\n", claim, doc.Title)
	if content != "" {
		fmt.Fprintf(&sb, "Document text: %s\n", content)
	}
	sb.WriteString("\nScore this document's relevance to verifying the claim from 0 to 10. Answer with the score first.")

	answer, err := j.provider.Complete(ctx, llm.CompletionRequest{
		System: judgedSystem,
		Prompt: sb.String(),
	})
	if err != nil {
		return j.defaultScore
	}

	score, ok := parseScore(answer)
	if !ok {
		return j.defaultScore
	}
	return clampScore(score)
}
