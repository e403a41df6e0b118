package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRobotsChecker_CanFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
	}))
	defer server.Close()

	checker := NewRobotsChecker("Evidentia", 5*time.Second)
	ctx := context.Background()

	allowed, _, err := checker.CanFetch(ctx, server.URL+"/w/api.php")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("expected public path to be allowed")
	}

	allowed, _, err = checker.CanFetch(ctx, server.URL+"/private/page")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if allowed {
		t.Error("expected disallowed path to be blocked")
	}
}

func TestRobotsChecker_Missing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	checker := NewRobotsChecker("Evidentia", 5*time.Second)

	// Missing robots.txt allows everything
	allowed, _, err := checker.CanFetch(context.Background(), server.URL+"/anything")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("expected allow when robots.txt is missing")
	}
}

func TestRobotsChecker_Unreachable(t *testing.T) {
	checker := NewRobotsChecker("Evidentia", 100*time.Millisecond)

	// Fetch errors default to allow
	allowed, _, err := checker.CanFetch(context.Background(), "http://127.0.0.1:1/page")
	if err != nil {
		t.Fatalf("CanFetch returned error: %v", err)
	}
	if !allowed {
		t.Error("expected allow when robots.txt cannot be fetched")
	}
}

func TestRobotsChecker_Clear(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte("User-agent: *\nAllow: /\n"))
	}))
	defer server.Close()

	checker := NewRobotsChecker("Evidentia", 5*time.Second)
	ctx := context.Background()

	_, _, _ = checker.CanFetch(ctx, server.URL+"/a")
	_, _, _ = checker.CanFetch(ctx, server.URL+"/b")
	if calls != 1 {
		t.Errorf("expected 1 robots.txt fetch with cache, got %d", calls)
	}

	checker.Clear()
	_, _, _ = checker.CanFetch(ctx, server.URL+"/c")
	if calls != 2 {
		t.Errorf("expected refetch after Clear, got %d calls", calls)
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := []struct {
		ua   string
		want string
	}{
		{"Evidentia/0.1 (+https://github.com/ppiankov/evidentia)", "Evidentia"},
		{"Evidentia", "Evidentia"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeUserAgent(tt.ua); got != tt.want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", tt.ua, got, tt.want)
		}
	}
}
