package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeCorpus(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	if err := os.WriteFile(path, []byte(lines), 0644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	return path
}

func TestLocal_Retrieve(t *testing.T) {
	path := writeCorpus(t, `
{"title": "Solar Power", "text": "Solar panels convert sunlight into electrical energy."}
{"title": "Danube", "text": "The Danube is a river flowing through central Europe."}
{"title": "Jazz", "text": "Jazz is a music genre that originated in New Orleans."}
`)

	local, err := NewLocal(context.Background(), path, 512, 2)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	if local.Size() != 3 {
		t.Errorf("expected 3 indexed documents, got %d", local.Size())
	}

	docs, err := local.Retrieve(context.Background(), "solar panels electrical energy sunlight", 2)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Title != "Solar Power" {
		t.Errorf("expected 'Solar Power' first, got %q", docs[0].Title)
	}
	if docs[0].Rank != 1 || docs[0].Backend != "local" {
		t.Errorf("unexpected rank/backend: %d, %q", docs[0].Rank, docs[0].Backend)
	}
}

func TestLocal_Retrieve_EmptyQuery(t *testing.T) {
	path := writeCorpus(t, `{"title": "Doc", "text": "some content"}`)

	local, err := NewLocal(context.Background(), path, 128, 1)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	// Articles normalize away, leaving nothing to embed
	docs, err := local.Retrieve(context.Background(), "the a an", 5)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no documents for empty embedding, got %d", len(docs))
	}
}

func TestLocal_EmptyCorpus(t *testing.T) {
	path := writeCorpus(t, "\n\n")

	_, err := NewLocal(context.Background(), path, 128, 1)
	if err == nil {
		t.Fatal("expected error for empty corpus, got nil")
	}
}

func TestLocal_MissingCorpus(t *testing.T) {
	_, err := NewLocal(context.Background(), filepath.Join(t.TempDir(), "absent.jsonl"), 128, 1)
	if err == nil {
		t.Fatal("expected error for missing corpus file, got nil")
	}
}

func TestEmbed(t *testing.T) {
	vec := embed("solar panels energy", 64)
	if vec == nil {
		t.Fatal("expected non-nil vector")
	}
	if len(vec) != 64 {
		t.Fatalf("expected dimension 64, got %d", len(vec))
	}

	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares < 0.99 || sumSquares > 1.01 {
		t.Errorf("expected unit vector, got squared norm %f", sumSquares)
	}

	if embed("", 64) != nil {
		t.Error("expected nil vector for empty text")
	}
	if embed("the a an", 64) != nil {
		t.Error("expected nil vector for stopword-only text")
	}
}
