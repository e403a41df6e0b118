package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ppiankov/evidentia/internal/model"
)

func TestColBERT_Retrieve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "skagen painters" {
			t.Errorf("expected query param 'skagen painters', got %q", got)
		}
		if got := r.URL.Query().Get("k"); got != "3" {
			t.Errorf("expected k param 3, got %q", got)
		}

		_, _ = w.Write([]byte(`{"topk": [
			{"text": "Skagen Painters | A group of Scandinavian artists.", "pid": 11, "rank": 1, "score": 25.1, "prob": 0.6},
			{"text": "Peder Severin Krøyer | One of the Skagen Painters.", "pid": 12, "rank": 2, "score": 21.8, "prob": 0.3},
			{"text": "Untitled passage", "pid": 13, "rank": 3, "score": 10.0, "prob": 0.1}
		]}`))
	}))
	defer server.Close()

	client := NewColBERT(server.URL, model.DefaultConfig())

	docs, err := client.Retrieve(context.Background(), "skagen painters", 3)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}

	if docs[0].Title != "Skagen Painters" {
		t.Errorf("expected title 'Skagen Painters', got %q", docs[0].Title)
	}
	if docs[0].Content != "A group of Scandinavian artists." {
		t.Errorf("unexpected content: %q", docs[0].Content)
	}
	if docs[0].Rank != 1 || docs[1].Rank != 2 {
		t.Errorf("expected ranks 1, 2, got %d, %d", docs[0].Rank, docs[1].Rank)
	}
	if docs[0].Backend != "colbert" {
		t.Errorf("expected backend colbert, got %q", docs[0].Backend)
	}

	// A passage without the separator is all title
	if docs[2].Title != "Untitled passage" || docs[2].Content != "" {
		t.Errorf("unexpected separator-free passage: %+v", docs[2])
	}
}

func TestColBERT_Retrieve_TruncatesToK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"topk": [
			{"text": "A | one"},
			{"text": "B | two"},
			{"text": "C | three"}
		]}`))
	}))
	defer server.Close()

	client := NewColBERT(server.URL, model.DefaultConfig())

	docs, err := client.Retrieve(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("expected server overshoot trimmed to 2, got %d", len(docs))
	}
}

func TestColBERT_Retrieve_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewColBERT(server.URL, model.DefaultConfig())

	_, err := client.Retrieve(context.Background(), "q", 5)
	if err == nil {
		t.Fatal("expected error for HTTP 502, got nil")
	}
}

func TestColBERT_Retrieve_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{broken`))
	}))
	defer server.Close()

	client := NewColBERT(server.URL, model.DefaultConfig())

	_, err := client.Retrieve(context.Background(), "q", 5)
	if err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}

func TestSplitPassage(t *testing.T) {
	tests := []struct {
		text        string
		wantTitle   string
		wantContent string
	}{
		{"Title | body text", "Title", "body text"},
		{"Title | body | with pipe", "Title", "body | with pipe"},
		{"No separator here", "No separator here", ""},
		{"  Spaced | out  ", "Spaced", "out"},
	}

	for _, tt := range tests {
		title, content := splitPassage(tt.text)
		if title != tt.wantTitle || content != tt.wantContent {
			t.Errorf("splitPassage(%q) = (%q, %q), want (%q, %q)",
				tt.text, title, content, tt.wantTitle, tt.wantContent)
		}
	}
}
