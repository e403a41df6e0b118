package model

import "time"

// Retrieval records one backend call's ordered result, kept for rank fusion
// and tracing which hop produced which documents
type Retrieval struct {
	Query string     `json:"query"`          // Query string sent to the backend
	Hop   int        `json:"hop"`            // 1-based hop index that issued it
	Docs  []Document `json:"docs,omitempty"` // Ordered result, best match first
}

// Scored attaches a relevance score to a document. Score scale depends on
// the ranking strategy; only the total order matters downstream.
type Scored struct {
	Document
	Score float64 `json:"score"`
}

// Evidence is the final bounded evidence set for a claim plus its trace
type Evidence struct {
	Claim      Claim         `json:"claim"`
	Docs       []Scored      `json:"docs"`                 // Ranked, at most the output budget
	Retrievals []Retrieval   `json:"retrievals,omitempty"` // Per-query results across hops
	Hops       int           `json:"hops"`                 // Hops actually executed
	Queries    int           `json:"queries"`              // Backend calls issued
	Elapsed    time.Duration `json:"elapsed,omitempty"`
}

// Titles returns the evidence document titles in rank order
func (e *Evidence) Titles() []string {
	titles := make([]string, len(e.Docs))
	for i, d := range e.Docs {
		titles[i] = d.Title
	}
	return titles
}

// Outcome is one claim's evaluated result
type Outcome struct {
	Claim   Claim         `json:"claim"`
	Passed  bool          `json:"passed"`
	Recall  float64       `json:"recall"`
	Missing []string      `json:"missing,omitempty"` // Gold titles absent from the evidence set
	Titles  []string      `json:"titles,omitempty"`  // Evidence titles in rank order
	Hops    int           `json:"hops"`
	Queries int           `json:"queries"`
	Elapsed time.Duration `json:"elapsed"`
	Error   string        `json:"error,omitempty"` // Non-empty when the claim could not be evaluated
}

// Summary aggregates a batch evaluation run
type Summary struct {
	Total      int            `json:"total"`
	Passed     int            `json:"passed"`
	Failed     int            `json:"failed"`
	Errors     int            `json:"errors"`
	PassRate   float64        `json:"pass_rate"`
	MeanRecall float64        `json:"mean_recall"`
	MRR        float64        `json:"mrr"`
	Missed     map[string]int `json:"missed,omitempty"` // Gold title -> claims where it was never retrieved
	Elapsed    time.Duration  `json:"elapsed"`
}
