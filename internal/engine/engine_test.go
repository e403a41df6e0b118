package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/evidentia/internal/model"
	"github.com/ppiankov/evidentia/internal/planner"
	"github.com/ppiankov/evidentia/internal/rank"
)

// fakeBackend serves canned results per query and counts calls
type fakeBackend struct {
	mu    sync.Mutex
	calls int
	docs  map[string][]model.Document
	err   error
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Retrieve(ctx context.Context, query string, k int) ([]model.Document, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	docs := f.docs[query]
	if len(docs) > k {
		docs = docs[:k]
	}
	return docs, nil
}

// blockingBackend parks until the context is cancelled
type blockingBackend struct{}

func (b *blockingBackend) Name() string { return "blocking" }

func (b *blockingBackend) Retrieve(ctx context.Context, query string, k int) ([]model.Document, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// fakePlanner replays a fixed plan per hop
type fakePlanner struct {
	plans [][]string
	err   error
}

func (f *fakePlanner) Name() string { return "fake" }

func (f *fakePlanner) Plan(ctx context.Context, state planner.State) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if state.Hop >= len(f.plans) {
		return nil, nil
	}
	return f.plans[state.Hop], nil
}

// constRanker scores every document identically, so selection order is
// exactly pool order
type constRanker struct{}

func (r *constRanker) Name() string { return "const" }

func (r *constRanker) Score(ctx context.Context, claim string, docs []model.Document, retrievals []model.Retrieval) ([]model.Scored, error) {
	out := make([]model.Scored, len(docs))
	for i, doc := range docs {
		out[i] = model.Scored{Document: doc, Score: 1}
	}
	return out, nil
}

func testConfig(maxQueries, maxHops, maxOutput, perHopK int) *model.Config {
	cfg := model.DefaultConfig()
	cfg.Engine.MaxQueries = maxQueries
	cfg.Engine.MaxHops = maxHops
	cfg.Engine.MaxOutput = maxOutput
	cfg.Engine.PerHopK = perHopK
	return cfg
}

func TestRun_QueryBudget(t *testing.T) {
	tests := []struct {
		name      string
		plans     [][]string
		wantCalls int
		wantHops  int
	}{
		{
			name:      "oversized plan truncated",
			plans:     [][]string{{"q1", "q2", "q3", "q4", "q5"}},
			wantCalls: 3,
			wantHops:  1,
		},
		{
			name:      "budget across hops",
			plans:     [][]string{{"q1"}, {"q2"}, {"q3"}, {"q4"}},
			wantCalls: 3,
			wantHops:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := &fakeBackend{docs: map[string][]model.Document{}}
			eng := New(be, &fakePlanner{plans: tt.plans}, &constRanker{}, testConfig(3, 3, 21, 15))

			ev, err := eng.Run(context.Background(), model.Claim{ID: "c", Text: "claim"})
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if be.calls != tt.wantCalls {
				t.Errorf("expected %d backend calls, got %d", tt.wantCalls, be.calls)
			}
			if ev.Queries != tt.wantCalls {
				t.Errorf("expected %d issued queries, got %d", tt.wantCalls, ev.Queries)
			}
			if ev.Hops != tt.wantHops {
				t.Errorf("expected %d hops, got %d", tt.wantHops, ev.Hops)
			}
		})
	}
}

func TestRun_StopsOnEmptyPlan(t *testing.T) {
	be := &fakeBackend{docs: map[string][]model.Document{
		"q1": {{Title: "Doc A"}},
	}}
	eng := New(be, &fakePlanner{plans: [][]string{{"q1"}}}, &constRanker{}, testConfig(3, 3, 21, 15))

	ev, err := eng.Run(context.Background(), model.Claim{Text: "claim"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if ev.Hops != 1 || ev.Queries != 1 {
		t.Errorf("expected 1 hop / 1 query, got %d / %d", ev.Hops, ev.Queries)
	}
	if len(ev.Docs) != 1 {
		t.Errorf("expected 1 document, got %d", len(ev.Docs))
	}
}

func TestRun_PlannerErrorFinalizes(t *testing.T) {
	be := &fakeBackend{}
	eng := New(be, &fakePlanner{err: errors.New("llm unavailable")}, &constRanker{}, testConfig(3, 3, 21, 15))

	ev, err := eng.Run(context.Background(), model.Claim{Text: "claim"})
	if err != nil {
		t.Fatalf("expected degraded run, got error: %v", err)
	}
	if len(ev.Docs) != 0 || ev.Queries != 0 || ev.Hops != 0 {
		t.Errorf("expected empty evidence, got %d docs / %d queries / %d hops",
			len(ev.Docs), ev.Queries, ev.Hops)
	}
}

func TestRun_BackendFailureDegrades(t *testing.T) {
	be := &fakeBackend{err: errors.New("connection refused")}
	eng := New(be, &fakePlanner{plans: [][]string{{"q1", "q2"}}}, &constRanker{}, testConfig(3, 1, 21, 15))

	ev, err := eng.Run(context.Background(), model.Claim{Text: "claim"})
	if err != nil {
		t.Fatalf("expected degraded run, got error: %v", err)
	}
	if len(ev.Docs) != 0 {
		t.Errorf("expected no documents, got %d", len(ev.Docs))
	}
	if ev.Queries != 2 {
		t.Errorf("failed calls still count against the budget: got %d", ev.Queries)
	}
}

func TestRun_CancellationAborts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	eng := New(&blockingBackend{}, &fakePlanner{plans: [][]string{{"q1"}}}, &constRanker{}, testConfig(3, 3, 21, 15))

	_, err := eng.Run(ctx, model.Claim{Text: "claim"})
	if err == nil {
		t.Fatal("expected cancellation error, got nil")
	}
}

func TestRun_DedupeAcrossHops(t *testing.T) {
	be := &fakeBackend{docs: map[string][]model.Document{
		"q1": {
			{Title: "Shared Doc", Content: "first occurrence"},
			{Title: "Only Q1"},
		},
		"q2": {
			{Title: "shared doc", Content: "second occurrence"},
			{Title: "Only Q2"},
		},
	}}
	eng := New(be, &fakePlanner{plans: [][]string{{"q1"}, {"q2"}}}, &constRanker{}, testConfig(3, 3, 21, 15))

	ev, err := eng.Run(context.Background(), model.Claim{Text: "claim"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"Shared Doc", "Only Q1", "Only Q2"}
	if !reflect.DeepEqual(ev.Titles(), want) {
		t.Errorf("expected %v, got %v", want, ev.Titles())
	}
	if ev.Docs[0].Content != "first occurrence" {
		t.Errorf("first-seen occurrence should win, got %q", ev.Docs[0].Content)
	}
}

func TestRun_OutputBudget(t *testing.T) {
	docs := make([]model.Document, 30)
	for i := range docs {
		docs[i] = model.Document{Title: fmt.Sprintf("Doc %d", i)}
	}
	be := &fakeBackend{docs: map[string][]model.Document{"q1": docs}}
	eng := New(be, &fakePlanner{plans: [][]string{{"q1"}}}, &constRanker{}, testConfig(3, 3, 21, 50))

	ev, err := eng.Run(context.Background(), model.Claim{Text: "claim"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(ev.Docs) != 21 {
		t.Errorf("expected 21 documents, got %d", len(ev.Docs))
	}
}

func TestRun_PoolSmallerThanBudget(t *testing.T) {
	docs := make([]model.Document, 12)
	want := make([]string, 12)
	for i := range docs {
		docs[i] = model.Document{Title: fmt.Sprintf("Doc %d", i)}
		want[i] = docs[i].Title
	}
	be := &fakeBackend{docs: map[string][]model.Document{"q1": docs}}
	eng := New(be, &fakePlanner{plans: [][]string{{"q1"}}}, &constRanker{}, testConfig(3, 3, 21, 15))

	ev, err := eng.Run(context.Background(), model.Claim{Text: "claim"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// No padding, pool order preserved under equal scores
	if !reflect.DeepEqual(ev.Titles(), want) {
		t.Errorf("expected %v, got %v", want, ev.Titles())
	}
}

func TestRun_MultiHopCoverage(t *testing.T) {
	claim := model.Claim{
		ID:   "scenario-a",
		Text: "Film X was directed by the same person as Film Y",
		Gold: []string{"Film X", "Film Y", "Director Z"},
	}
	be := &fakeBackend{docs: map[string][]model.Document{
		"Film X director": {
			{Title: "Film X", Content: "Film X is a 1994 film directed by Director Z."},
			{Title: "Film Y", Content: "Film Y is a 1997 film directed by Director Z."},
		},
		"Director Z filmography": {
			{Title: "Director Z", Content: "Director Z directed Film X and Film Y."},
			{Title: "Film X", Content: "duplicate"},
		},
	}}
	eng := New(be, &fakePlanner{plans: [][]string{{"Film X director", "Director Z filmography"}}},
		rank.NewHeuristic(), testConfig(2, 3, 21, 15))

	ev, err := eng.Run(context.Background(), claim)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if ev.Queries != 2 {
		t.Errorf("expected 2 queries, got %d", ev.Queries)
	}

	got := make(map[string]bool)
	for _, title := range ev.Titles() {
		got[title] = true
	}
	for _, want := range []string{"Film X", "Film Y", "Director Z"} {
		if !got[want] {
			t.Errorf("expected %q in evidence, got %v", want, ev.Titles())
		}
	}
	if len(ev.Docs) != 3 {
		t.Errorf("expected 3 unique documents, got %d", len(ev.Docs))
	}
}

func TestRun_PartialCoverage(t *testing.T) {
	claim := model.Claim{
		ID:   "scenario-b",
		Text: "Film X was directed by the same person as Film Y",
		Gold: []string{"Film X", "Film Y", "Director Z"},
	}
	be := &fakeBackend{docs: map[string][]model.Document{
		"Film X director": {
			{Title: "Film X"},
			{Title: "Film Y"},
		},
	}}
	eng := New(be, &fakePlanner{plans: [][]string{{"Film X director", "Director Z filmography"}}},
		rank.NewHeuristic(), testConfig(2, 3, 21, 15))

	ev, err := eng.Run(context.Background(), claim)
	if err != nil {
		t.Fatalf("partial coverage must not error: %v", err)
	}
	if len(ev.Docs) == 0 || len(ev.Docs) > 21 {
		t.Errorf("expected 1-21 documents, got %d", len(ev.Docs))
	}
	for _, title := range ev.Titles() {
		if title == "Director Z" {
			t.Error("Director Z should not be retrievable in this scenario")
		}
	}
}

func TestPool_Add(t *testing.T) {
	pool := NewPool()

	if added := pool.Add(
		model.Document{Title: "A"},
		model.Document{Title: "B"},
	); added != 2 {
		t.Errorf("expected 2 added, got %d", added)
	}
	if added := pool.Add(
		model.Document{Title: "a"},
		model.Document{Title: "C"},
		model.Document{Title: ""},
	); added != 1 {
		t.Errorf("expected 1 added, got %d", added)
	}
	if pool.Len() != 3 {
		t.Errorf("expected 3 pooled, got %d", pool.Len())
	}
}

func TestDedupe_Idempotent(t *testing.T) {
	docs := []model.Document{
		{Title: "Same Doc", Content: "kept"},
		{Title: "same doc", Content: "dropped"},
		{Title: "Same Doc | disambiguation", Content: "dropped too"},
		{Title: "Other Doc"},
	}

	once := Dedupe(docs)
	twice := Dedupe(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("dedupe is not idempotent: %v vs %v", once, twice)
	}
	if len(once) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(once))
	}
	if once[0].Content != "kept" {
		t.Errorf("first occurrence should win, got %q", once[0].Content)
	}
}

func TestSelect(t *testing.T) {
	scored := []model.Scored{
		{Document: model.Document{Title: "A"}, Score: 1},
		{Document: model.Document{Title: "B"}, Score: 2},
		{Document: model.Document{Title: "C"}, Score: 1},
		{Document: model.Document{Title: "D"}, Score: 2},
	}

	first := Select(scored, 10)
	second := Select(scored, 10)
	if !reflect.DeepEqual(first, second) {
		t.Error("selection is not deterministic")
	}

	// Ties keep pool order: B before D, A before C
	wantOrder := []string{"B", "D", "A", "C"}
	for i, want := range wantOrder {
		if first[i].Title != want {
			t.Errorf("position %d: expected %q, got %q", i, want, first[i].Title)
		}
	}

	if truncated := Select(scored, 2); len(truncated) != 2 || truncated[1].Title != "D" {
		t.Errorf("expected [B D], got %v", truncated)
	}
}

func TestSelect_ReassertsUniqueness(t *testing.T) {
	scored := []model.Scored{
		{Document: model.Document{Title: "A"}, Score: 5},
		{Document: model.Document{Title: "a"}, Score: 4},
		{Document: model.Document{Title: ""}, Score: 9},
		{Document: model.Document{Title: "B"}, Score: 3},
	}

	selected := Select(scored, 10)
	if len(selected) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(selected))
	}
	if selected[0].Title != "A" || selected[1].Title != "B" {
		t.Errorf("expected [A B], got %v", selected)
	}
}
