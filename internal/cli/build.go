package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/evidentia/internal/backend"
	"github.com/ppiankov/evidentia/internal/engine"
	"github.com/ppiankov/evidentia/internal/llm"
	"github.com/ppiankov/evidentia/internal/model"
	"github.com/ppiankov/evidentia/internal/planner"
	"github.com/ppiankov/evidentia/internal/rank"
)

// Flags shared by the verify and eval commands. Each command registers
// its own copy with identical defaults, bound to these variables.
var (
	backendKind string
	backendURL  string
	wikiAPI     string
	corpusPath  string
	plannerName string
	rankerName  string
	maxHops     int
	maxQueries  int
	perHopK     int
	maxOutput   int
	noCache     bool
	llmProvider string
	llmModel    string
)

// addEngineFlags registers the retrieval flags common to verify and eval
func addEngineFlags(cmd *cobra.Command) {
	// Backend flags
	cmd.Flags().StringVar(&backendKind, "backend", "colbert", "retrieval backend (colbert, wiki, local)")
	cmd.Flags().StringVar(&backendURL, "backend-url", "http://localhost:2017/wiki17_abstracts", "ColBERT server endpoint")
	cmd.Flags().StringVar(&wikiAPI, "wiki-api", "https://en.wikipedia.org/w/api.php", "MediaWiki api.php endpoint")
	cmd.Flags().StringVar(&corpusPath, "corpus", "", "corpus file for the local backend (JSONL, optionally zstd-compressed)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable retrieval cache (force fresh backend calls)")

	// Strategy flags
	cmd.Flags().StringVar(&plannerName, "planner", "gap", "query planner (decompose, gap, entity, hypothesis, passthrough)")
	cmd.Flags().StringVar(&rankerName, "ranker", "heuristic", "ranking strategy (heuristic, judged, rrf, window, hybrid)")

	// Budget flags
	cmd.Flags().IntVar(&maxHops, "hops", 3, "maximum plan/retrieve cycles per claim")
	cmd.Flags().IntVar(&maxQueries, "queries", 3, "maximum backend calls per claim")
	cmd.Flags().IntVar(&perHopK, "k", 15, "documents requested per query")
	cmd.Flags().IntVar(&maxOutput, "max-output", 21, "evidence set size ceiling")

	// LLM flags
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider for LLM-backed strategies (openai, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

// loadConfig builds the effective configuration: defaults, then the
// config file located by viper, if any. Flags are overlaid afterwards
// by applyFlags.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if file := viper.ConfigFileUsed(); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", file, err)
		}
	}

	return cfg, nil
}

// applyFlags overlays explicitly set flags onto cfg. Flags the user did
// not touch keep whatever the config file or defaults provided.
func applyFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()

	if flags.Changed("backend") {
		cfg.Backend.Kind = backendKind
	}
	if flags.Changed("backend-url") {
		cfg.Backend.URL = backendURL
	}
	if flags.Changed("wiki-api") {
		cfg.Backend.WikiAPI = wikiAPI
	}
	if flags.Changed("corpus") {
		cfg.Backend.CorpusPath = corpusPath
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("planner") {
		cfg.Planner.Strategy = plannerName
	}
	if flags.Changed("ranker") {
		cfg.Ranker.Strategy = rankerName
	}
	if flags.Changed("hops") {
		cfg.Engine.MaxHops = maxHops
	}
	if flags.Changed("queries") {
		cfg.Engine.MaxQueries = maxQueries
	}
	if flags.Changed("k") {
		cfg.Engine.PerHopK = perHopK
	}
	if flags.Changed("max-output") {
		cfg.Engine.MaxOutput = maxOutput
	}
	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
}

// resolveAPIKey fills cfg.LLM.APIKey from the environment for providers
// that require one. A key already present in the config file wins.
func resolveAPIKey(cfg *model.Config) error {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}
	return nil
}

// buildEngine assembles the retrieval engine: LLM provider, backend,
// planner, and ranker, all picked by configuration. Local backends
// ingest their corpus here, so this can take a while.
func buildEngine(ctx context.Context, cfg *model.Config) (*engine.Engine, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg))
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}

	retriever, err := backend.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	plan, err := planner.New(cfg.Planner.Strategy, cfg, provider)
	if err != nil {
		return nil, fmt.Errorf("create planner: %w", err)
	}

	ranker, err := rank.New(cfg.Ranker.Strategy, cfg, provider)
	if err != nil {
		return nil, fmt.Errorf("create ranker: %w", err)
	}

	return engine.New(retriever, plan, ranker, cfg), nil
}

// banner frames a section heading in command output
func banner(w io.Writer, title string) {
	rule := strings.Repeat("═", 59)
	fmt.Fprintf(w, "%s\n  %s\n%s\n", rule, title, rule)
}

// claimLabel is the short identifier used in per-claim progress lines
func claimLabel(c model.Claim) string {
	if c.ID != "" {
		return c.ID
	}
	text := c.Text
	if len(text) > 60 {
		text = text[:57] + "..."
	}
	return text
}
