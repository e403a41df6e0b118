package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ppiankov/evidentia/internal/model"
	"github.com/ppiankov/evidentia/internal/worker"
)

func wikiTestServer(t *testing.T, robots string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/robots.txt":
			_, _ = w.Write([]byte(robots))
		case r.URL.Path != "/w/api.php":
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Query().Get("prop") == "extracts":
			if got := r.URL.Query().Get("titles"); got != "Nobel Prize|Alfred Nobel" {
				t.Errorf("expected batched titles, got %q", got)
			}
			_, _ = w.Write([]byte(`{"query": {"pages": {
				"21201": {"title": "Nobel Prize", "extract": "The Nobel Prizes are awarded annually in Stockholm."}
			}}}`))
		default:
			if got := r.URL.Query().Get("list"); got != "search" {
				t.Errorf("expected list=search, got %q", got)
			}
			if got := r.URL.Query().Get("srsearch"); got != "nobel prize" {
				t.Errorf("expected srsearch='nobel prize', got %q", got)
			}
			_, _ = w.Write([]byte(`{"query": {"search": [
				{"title": "Nobel Prize", "snippet": "The <span class=\"searchmatch\">Nobel</span> <span class=\"searchmatch\">Prize</span> ceremony"},
				{"title": "Alfred Nobel", "snippet": "Swedish chemist and inventor"}
			]}}`))
		}
	}))
}

func TestWiki_Retrieve(t *testing.T) {
	server := wikiTestServer(t, "User-agent: *\nAllow: /\n")
	defer server.Close()

	wiki := NewWiki(server.URL+"/w/api.php", model.DefaultConfig(), worker.NewLimiter(100, 10))

	docs, err := wiki.Retrieve(context.Background(), "nobel prize", 5)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Title != "Nobel Prize" {
		t.Errorf("expected title 'Nobel Prize', got %q", docs[0].Title)
	}
	if docs[0].Content != "The Nobel Prizes are awarded annually in Stockholm." {
		t.Errorf("expected intro extract, got %q", docs[0].Content)
	}
	// No extract came back for the second page, so its snippet stays
	if docs[1].Content != "Swedish chemist and inventor" {
		t.Errorf("expected stripped snippet fallback, got %q", docs[1].Content)
	}
	if docs[0].Backend != "wiki" || docs[0].Rank != 1 {
		t.Errorf("unexpected backend/rank: %q, %d", docs[0].Backend, docs[0].Rank)
	}
}

func TestWiki_Retrieve_RobotsDisallowed(t *testing.T) {
	server := wikiTestServer(t, "User-agent: *\nDisallow: /w/\n")
	defer server.Close()

	wiki := NewWiki(server.URL+"/w/api.php", model.DefaultConfig(), worker.NewLimiter(100, 10))

	_, err := wiki.Retrieve(context.Background(), "nobel prize", 5)
	if err == nil {
		t.Fatal("expected robots error, got nil")
	}
	if !strings.Contains(err.Error(), "robots.txt disallows") {
		t.Errorf("expected robots error, got %v", err)
	}
}

func TestWiki_Retrieve_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nAllow: /\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	wiki := NewWiki(server.URL+"/w/api.php", model.DefaultConfig(), worker.NewLimiter(100, 10))

	_, err := wiki.Retrieve(context.Background(), "anything", 5)
	if err == nil {
		t.Fatal("expected error for HTTP 503, got nil")
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain text`, "plain text"},
		{`a <b>bold</b> move`, "a bold move"},
		{`<span class="searchmatch">match</span> here`, "match here"},
		{``, ""},
	}

	for _, tt := range tests {
		if got := stripTags(tt.in); got != tt.want {
			t.Errorf("stripTags(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
