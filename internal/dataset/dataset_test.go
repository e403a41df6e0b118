package dataset

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/ppiankov/evidentia/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_JSONL(t *testing.T) {
	path := writeFile(t, "claims.jsonl", `
{"uid": "a1", "claim": "First claim.", "label": "SUPPORTED", "num_hops": 3, "supporting_facts": [{"key": "Doc One"}, {"key": "Doc Two"}, {"key": "Doc One"}]}
{"uid": "a2", "claim": "Second claim.", "label": "NOT_SUPPORTED", "num_hops": 2, "gold_titles": ["Doc Three"]}
`)

	claims, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(claims))
	}

	if claims[0].ID != "a1" || claims[0].Text != "First claim." {
		t.Errorf("unexpected first claim: %+v", claims[0])
	}
	if !reflect.DeepEqual(claims[0].Gold, []string{"Doc One", "Doc Two"}) {
		t.Errorf("expected deduplicated supporting fact titles, got %v", claims[0].Gold)
	}
	if !reflect.DeepEqual(claims[1].Gold, []string{"Doc Three"}) {
		t.Errorf("expected explicit gold titles, got %v", claims[1].Gold)
	}
}

func TestLoad_JSONArray(t *testing.T) {
	path := writeFile(t, "claims.json", `[
		{"id": "b1", "question": "Which river?", "supporting_facts": [["River Doc", 0], ["Other Doc", 2]]}
	]`)

	claims, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(claims) != 1 {
		t.Fatalf("expected 1 claim, got %d", len(claims))
	}
	if claims[0].Text != "Which river?" {
		t.Errorf("expected question text fallback, got %q", claims[0].Text)
	}
	if !reflect.DeepEqual(claims[0].Gold, []string{"River Doc", "Other Doc"}) {
		t.Errorf("expected pair-form supporting facts, got %v", claims[0].Gold)
	}
}

func TestLoad_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.jsonl.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(`{"uid": "c1", "claim": "Compressed claim."}` + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	claims, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(claims) != 1 || claims[0].Text != "Compressed claim." {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestLoad_Zstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.jsonl.zst")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatalf("new zstd writer: %v", err)
	}
	if _, err := zw.Write([]byte(`{"uid": "c2", "claim": "Zstd claim."}` + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zstd: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	claims, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(claims) != 1 || claims[0].Text != "Zstd claim." {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestLoad_Filters(t *testing.T) {
	path := writeFile(t, "claims.jsonl", `
{"uid": "a", "claim": "one", "label": "SUPPORTED", "num_hops": 3}
{"uid": "b", "claim": "two", "label": "NOT_SUPPORTED", "num_hops": 3}
{"uid": "c", "claim": "three", "label": "SUPPORTED", "num_hops": 2}
{"uid": "d", "claim": "four", "label": "SUPPORTED", "num_hops": 3}
`)

	claims, err := Load(path, Options{Hops: 3, Label: "supported"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(claims) != 2 {
		t.Fatalf("expected 2 claims after filtering, got %d", len(claims))
	}
	if claims[0].ID != "a" || claims[1].ID != "d" {
		t.Errorf("unexpected claims: %v, %v", claims[0].ID, claims[1].ID)
	}

	limited, err := Load(path, Options{Limit: 2})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected limit of 2, got %d", len(limited))
	}

	// Datasets without a hop field filter on distinct gold titles
	goldPath := writeFile(t, "gold.jsonl", `
{"uid": "e", "claim": "five", "gold_titles": ["A", "B"]}
{"uid": "f", "claim": "six", "gold_titles": ["A", "B", "C"]}
`)
	twoHop, err := Load(goldPath, Options{Hops: 2})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(twoHop) != 1 || twoHop[0].ID != "e" {
		t.Errorf("expected gold-count fallback to keep e, got %+v", twoHop)
	}
}

func TestLoad_MissingIDs(t *testing.T) {
	path := writeFile(t, "claims.jsonl", `
{"claim": "anonymous one"}
{"claim": "anonymous two"}
`)

	claims, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if claims[0].ID != "claim-0" || claims[1].ID != "claim-1" {
		t.Errorf("expected generated IDs, got %q, %q", claims[0].ID, claims[1].ID)
	}
}

func TestShuffle_Deterministic(t *testing.T) {
	base := []model.Claim{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}}

	first := append([]model.Claim(nil), base...)
	second := append([]model.Claim(nil), base...)
	Shuffle(first, 42)
	Shuffle(second, 42)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("same seed should give same order: %v vs %v", first, second)
	}

	third := append([]model.Claim(nil), base...)
	Shuffle(third, 7)
	if reflect.DeepEqual(first, third) {
		t.Log("different seeds produced the same order (possible but unlikely)")
	}
}

func TestSplit(t *testing.T) {
	claims := []model.Claim{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}}

	groups := Split(claims, 2, 2)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if len(groups[0]) != 2 || len(groups[1]) != 2 || len(groups[2]) != 1 {
		t.Errorf("unexpected group sizes: %d, %d, %d", len(groups[0]), len(groups[1]), len(groups[2]))
	}

	// Oversized request is clamped
	groups = Split(claims[:1], 5)
	if len(groups[0]) != 1 || len(groups[1]) != 0 {
		t.Errorf("expected clamped split, got %d, %d", len(groups[0]), len(groups[1]))
	}
}
