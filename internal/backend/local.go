package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"github.com/hupe1980/vecgo"
	"github.com/panjf2000/ants/v2"

	"github.com/ppiankov/evidentia/internal/dataset"
	"github.com/ppiankov/evidentia/internal/model"
	"github.com/ppiankov/evidentia/internal/textnorm"
)

// Local is an in-process vector backend. It embeds corpus passages with a
// term-frequency hashing trick and serves exact cosine-similarity search,
// so the engine can run without any external retrieval service.
type Local struct {
	vg   *vecgo.Vecgo[model.Document]
	dim  int
	size int
}

// corpusRecord is one corpus line on disk
type corpusRecord struct {
	Title   string `json:"title"`
	Text    string `json:"text"`
	Content string `json:"content"`
}

// NewLocal builds the index from a JSONL corpus file (optionally gzip or
// zstd compressed). Embedding runs on a worker pool; inserts are
// serialized.
func NewLocal(ctx context.Context, corpusPath string, dim, workers int) (*Local, error) {
	if dim <= 0 {
		dim = 4096
	}
	if workers <= 0 {
		workers = 1
	}

	vg, err := vecgo.Flat[model.Document](dim).Cosine().Build()
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	local := &Local{vg: vg, dim: dim}
	if err := local.ingest(ctx, corpusPath, workers); err != nil {
		return nil, err
	}

	return local, nil
}

func (l *Local) ingest(ctx context.Context, corpusPath string, workers int) error {
	r, err := dataset.Open(corpusPath)
	if err != nil {
		return err
	}
	defer r.Close()

	pool, err := ants.NewPool(workers)
	if err != nil {
		return fmt.Errorf("create ingest pool: %w", err)
	}
	defer pool.Release()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		insertErr error
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var rec corpusRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return fmt.Errorf("corpus line %d: %w", line, err)
		}
		if rec.Title == "" {
			continue
		}

		doc := model.Document{
			Title:   rec.Title,
			Content: rec.Text,
		}
		if doc.Content == "" {
			doc.Content = rec.Content
		}

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			vec := embed(doc.Title+" "+doc.Content, l.dim)
			if vec == nil {
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if insertErr != nil {
				return
			}
			if _, err := l.vg.Insert(ctx, vecgo.VectorWithData[model.Document]{
				Vector: vec,
				Data:   doc,
			}); err != nil {
				insertErr = fmt.Errorf("insert %q: %w", doc.Title, err)
				return
			}
			l.size++
		})
		if submitErr != nil {
			wg.Done()
			return fmt.Errorf("submit ingest job: %w", submitErr)
		}
	}

	wg.Wait()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read corpus: %w", err)
	}
	if insertErr != nil {
		return insertErr
	}
	if l.size == 0 {
		return fmt.Errorf("corpus %s produced no indexable documents", corpusPath)
	}

	return nil
}

// Name returns the backend name
func (l *Local) Name() string {
	return "local"
}

// Size returns the number of indexed documents
func (l *Local) Size() int {
	return l.size
}

// Retrieve embeds the query and returns the k nearest documents
func (l *Local) Retrieve(ctx context.Context, query string, k int) ([]model.Document, error) {
	vec := embed(query, l.dim)
	if vec == nil {
		return nil, nil
	}

	results, err := l.vg.Search(vec).KNN(k).Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	docs := make([]model.Document, 0, len(results))
	for i, res := range results {
		doc := res.Data
		doc.Rank = i + 1
		doc.Backend = l.Name()
		docs = append(docs, doc)
	}

	return docs, nil
}

// embed maps text onto a fixed-dimension term-frequency vector using the
// hashing trick, L2-normalized for cosine distance. Returns nil when the
// text has no usable tokens.
func embed(text string, dim int) []float32 {
	tokens := textnorm.Tokens(text)
	if len(tokens) == 0 {
		return nil
	}

	vec := make([]float32, dim)
	for _, token := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[int(h.Sum32())%dim]++
	}

	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return nil
	}

	norm := float32(math.Sqrt(sumSquares))
	for i := range vec {
		vec[i] /= norm
	}

	return vec
}
