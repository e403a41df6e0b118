// Probe a retrieval backend outside the full engine loop. Useful to
// check that a ColBERT server, wiki endpoint, or local corpus answers
// sensibly before spending an evaluation run on it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/evidentia/internal/backend"
	"github.com/ppiankov/evidentia/internal/model"
)

func main() {
	kind := flag.String("backend", "colbert", "backend kind (colbert, wiki, local)")
	serverURL := flag.String("url", "", "ColBERT server endpoint (overrides default)")
	wikiAPI := flag.String("wiki-api", "", "MediaWiki api.php endpoint (overrides default)")
	corpus := flag.String("corpus", "", "corpus file for the local backend")
	k := flag.Int("k", 10, "documents to request")
	timeout := flag.Duration("timeout", 30*time.Second, "retrieval timeout")
	noCache := flag.Bool("no-cache", false, "disable the retrieval cache")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: probe-backend [flags] <query>\n")
		flag.PrintDefaults()
		os.Exit(2)
	}
	query := flag.Arg(0)

	cfg := model.DefaultConfig()
	cfg.Backend.Kind = *kind
	cfg.Backend.CorpusPath = *corpus
	if *serverURL != "" {
		cfg.Backend.URL = *serverURL
	}
	if *wikiAPI != "" {
		cfg.Backend.WikiAPI = *wikiAPI
	}
	if *noCache {
		cfg.Cache.Enabled = false
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	retriever, err := backend.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build backend: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	docs, err := retriever.Retrieve(ctx, query, *k)
	if err != nil {
		fmt.Fprintf(os.Stderr, "retrieve: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s returned %d docs for %q in %v\n\n", retriever.Name(), len(docs), query, time.Since(start).Round(time.Millisecond))
	for _, d := range docs {
		fmt.Printf("%2d. %s\n", d.Rank, d.Title)
		if d.Content != "" {
			snippet := d.Content
			if len(snippet) > 160 {
				snippet = snippet[:160] + "..."
			}
			fmt.Printf("      %s\n", snippet)
		}
	}
}
