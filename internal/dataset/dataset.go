// Package dataset loads claim verification datasets from JSON or JSONL
// files, optionally gzip or zstd compressed. It understands the common
// export shapes for multi-hop claim data: gold titles either listed
// directly or derivable from supporting facts.
package dataset

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/ppiankov/evidentia/internal/model"
)

// Options controls filtering and ordering of loaded claims
type Options struct {
	// Hops keeps only claims with this hop count, counting distinct
	// gold titles when the dataset has no hop field (0 = all)
	Hops int

	// Label keeps only claims with this label (empty = all)
	Label string

	// Shuffle randomizes claim order using Seed
	Shuffle bool

	// Seed for deterministic shuffling
	Seed int64

	// Limit caps the number of claims returned (0 = all)
	Limit int
}

// record is the on-disk claim shape. Field names vary between dataset
// exports, so several aliases are accepted.
type record struct {
	ID       string `json:"id"`
	UID      string `json:"uid"`
	Claim    string `json:"claim"`
	Question string `json:"question"`
	Label    string `json:"label"`
	NumHops  int    `json:"num_hops"`

	GoldTitles      []string          `json:"gold_titles"`
	SupportingFacts []json.RawMessage `json:"supporting_facts"`
}

// supportingFact is one entry of supporting_facts in object form
type supportingFact struct {
	Key string `json:"key"`
}

// Load reads claims from path and applies opts
func Load(path string, opts Options) ([]model.Claim, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	records, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}

	claims := make([]model.Claim, 0, len(records))
	for i, rec := range records {
		claim := toClaim(rec, i)
		if opts.Hops > 0 && hopCount(rec, claim) != opts.Hops {
			continue
		}
		if opts.Label != "" && !strings.EqualFold(claim.Label, opts.Label) {
			continue
		}
		claims = append(claims, claim)
	}

	if opts.Shuffle {
		Shuffle(claims, opts.Seed)
	}

	if opts.Limit > 0 && len(claims) > opts.Limit {
		claims = claims[:opts.Limit]
	}

	return claims, nil
}

// Open opens path, transparently decompressing .gz and .zst files
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip: %w", err)
		}
		return &wrappedCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil

	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open zstd: %w", err)
		}
		rc := zr.IOReadCloser()
		return &wrappedCloser{Reader: rc, closers: []io.Closer{rc, f}}, nil

	default:
		return f, nil
	}
}

// wrappedCloser closes the decompressor and the underlying file
type wrappedCloser struct {
	io.Reader
	closers []io.Closer
}

func (w *wrappedCloser) Close() error {
	var firstErr error
	for _, c := range w.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// parse handles both a JSON array and line-delimited JSON
func parse(data []byte) ([]record, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var records []record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var records []record
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// hopCount is the record's declared hop count, or the number of distinct
// gold titles when the dataset carries none
func hopCount(rec record, claim model.Claim) int {
	if rec.NumHops > 0 {
		return rec.NumHops
	}
	return len(claim.Gold)
}

// toClaim converts a record to the internal claim shape
func toClaim(rec record, index int) model.Claim {
	id := rec.ID
	if id == "" {
		id = rec.UID
	}
	if id == "" {
		id = fmt.Sprintf("claim-%d", index)
	}

	text := rec.Claim
	if text == "" {
		text = rec.Question
	}

	return model.Claim{
		ID:    id,
		Text:  text,
		Label: rec.Label,
		Gold:  goldTitles(rec),
	}
}

// goldTitles prefers an explicit gold list and falls back to the titles
// referenced by supporting facts
func goldTitles(rec record) []string {
	titles := rec.GoldTitles
	if len(titles) == 0 {
		for _, raw := range rec.SupportingFacts {
			if title, ok := factTitle(raw); ok {
				titles = append(titles, title)
			}
		}
	}

	seen := make(map[string]bool)
	var unique []string
	for _, title := range titles {
		key := model.TitleKey(title)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, title)
	}
	return unique
}

// factTitle extracts the title from one supporting fact, which is either
// an object with a "key" field or a [title, sentence] pair
func factTitle(raw json.RawMessage) (string, bool) {
	var fact supportingFact
	if err := json.Unmarshal(raw, &fact); err == nil && fact.Key != "" {
		return fact.Key, true
	}

	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err == nil && len(pair) > 0 {
		var title string
		if err := json.Unmarshal(pair[0], &title); err == nil && title != "" {
			return title, true
		}
	}

	return "", false
}

// Shuffle reorders claims deterministically for the given seed
func Shuffle(claims []model.Claim, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(claims), func(i, j int) {
		claims[i], claims[j] = claims[j], claims[i]
	})
}

// Split partitions claims into consecutive groups of the given sizes. The
// final group receives the remainder.
func Split(claims []model.Claim, sizes ...int) [][]model.Claim {
	groups := make([][]model.Claim, 0, len(sizes)+1)
	rest := claims
	for _, size := range sizes {
		if size > len(rest) {
			size = len(rest)
		}
		groups = append(groups, rest[:size])
		rest = rest[size:]
	}
	groups = append(groups, rest)
	return groups
}
