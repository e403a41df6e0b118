// Package rank scores pooled candidate documents against a claim.
//
// Strategies are interchangeable behind one interface: heuristic overlap
// and reciprocal rank fusion need nothing beyond the pool and the
// per-query retrieval lists, while the judged, window, and hybrid
// strategies call out to an LLM provider for relevance judgments.
package rank

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/evidentia/internal/llm"
	"github.com/ppiankov/evidentia/internal/model"
)

// Strategy assigns every pooled document a relevance score for the claim.
// Output order mirrors the input pool; sorting is the selector's job. The
// score scale is strategy-specific and only its total order matters.
type Strategy interface {
	Name() string
	Score(ctx context.Context, claim string, docs []model.Document, retrievals []model.Retrieval) ([]model.Scored, error)
}

// New creates a ranking strategy by name. Strategies that judge documents
// with an LLM refuse to construct without a provider.
func New(name string, cfg *model.Config, provider llm.Provider) (Strategy, error) {
	rc := cfg.Ranker

	switch name {
	case "heuristic", "":
		return NewHeuristic(), nil
	case "rrf":
		return NewRRF(rc.RRFConstant), nil
	case "judged":
		if provider == nil {
			return nil, fmt.Errorf("judged ranker requires an LLM provider")
		}
		return NewJudged(provider, rc.DefaultScore, rc.JudgeWorkers), nil
	case "window":
		if provider == nil {
			return nil, fmt.Errorf("window ranker requires an LLM provider")
		}
		return NewWindow(provider, rc.WindowSize, rc.WindowStride, rc.DefaultScore), nil
	case "hybrid":
		if provider == nil {
			return nil, fmt.Errorf("hybrid ranker requires an LLM provider")
		}
		return NewHybrid(
			NewJudged(provider, rc.DefaultScore, rc.JudgeWorkers),
			NewRRF(rc.RRFConstant),
			rc.HybridAlpha,
		), nil
	default:
		return nil, fmt.Errorf("unknown ranker strategy: %s (supported: heuristic, judged, rrf, window, hybrid)", name)
	}
}

var (
	numberPattern     = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	listMarkerPattern = regexp.MustCompile(`^\s*\d+[.):]\s*`)
)

// parseScore extracts a numeric judgment from model output. It tries the
// first token, then the first number anywhere in the text. Models rarely
// answer with a bare number even when asked to.
func parseScore(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}

	if fields := strings.Fields(text); len(fields) > 0 {
		tok := strings.Trim(fields[0], ".,:;")
		if v, err := strconv.ParseFloat(tok, 64); err == nil {
			return v, true
		}
	}

	if m := numberPattern.FindString(text); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			return v, true
		}
	}

	return 0, false
}

// parseScoreList extracts n scores from a joint judgment answer. It reads
// a "SCORES: 7, 3, 9" line first, then falls back to one score per
// numbered line. Returns nil when fewer than n scores can be recovered.
func parseScoreList(text string, n int) []float64 {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 7 || !strings.EqualFold(line[:7], "SCORES:") {
			continue
		}
		parts := strings.Split(line[7:], ",")
		if len(parts) < n {
			continue
		}
		scores := make([]float64, 0, n)
		for _, p := range parts[:n] {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				scores = nil
				break
			}
			scores = append(scores, clampScore(v))
		}
		if len(scores) == n {
			return scores
		}
	}

	var scores []float64
	for _, line := range strings.Split(text, "\n") {
		rest := listMarkerPattern.ReplaceAllString(line, "")
		if rest == line {
			continue
		}
		if v, ok := parseScore(rest); ok {
			scores = append(scores, clampScore(v))
		}
	}
	if len(scores) >= n {
		return scores[:n]
	}

	return nil
}

// clampScore keeps judged scores on the 0-10 ordinal scale
func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
