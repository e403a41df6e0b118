package model

import "time"

// Config holds the complete engine configuration.
// Hierarchy: CLI flags > environment (EVIDENTIA_*) > config file > defaults.
type Config struct {
	Engine       EngineConfig      `yaml:"engine" json:"engine"`
	Planner      PlannerConfig     `yaml:"planner" json:"planner"`
	Ranker       RankerConfig      `yaml:"ranker" json:"ranker"`
	Backend      BackendConfig     `yaml:"backend" json:"backend"`
	LLM          LLMConfig         `yaml:"llm" json:"llm"`
	Cache        CacheConfig       `yaml:"cache" json:"cache"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" json:"rate_limiting"`
	HTTP         HTTPConfig        `yaml:"http" json:"http"`
}

// EngineConfig bounds the retrieval loop. MaxQueries and MaxOutput are hard
// budgets and are never exceeded.
type EngineConfig struct {
	MaxQueries   int `yaml:"max_queries" json:"max_queries"`     // Backend calls per claim
	MaxOutput    int `yaml:"max_output" json:"max_output"`       // Evidence set size ceiling
	MaxHops      int `yaml:"max_hops" json:"max_hops"`           // Plan/retrieve cycles per claim
	PerHopK      int `yaml:"per_hop_k" json:"per_hop_k"`         // Documents requested per query
	ContextDocs  int `yaml:"context_docs" json:"context_docs"`   // Pool documents shown to the planner
	ContextChars int `yaml:"context_chars" json:"context_chars"` // Content truncation per context document
}

// PlannerConfig selects and tunes the query planning strategy
type PlannerConfig struct {
	Strategy   string `yaml:"strategy" json:"strategy"`     // decompose, gap, entity, hypothesis, passthrough
	MaxQueries int    `yaml:"max_queries" json:"max_queries"` // Queries a single plan may emit
	Hypotheses int    `yaml:"hypotheses" json:"hypotheses"`   // Hypothesis count for the hypothesis strategy
}

// RankerConfig selects and tunes the scoring strategy
type RankerConfig struct {
	Strategy     string  `yaml:"strategy" json:"strategy"`           // heuristic, judged, rrf, window, hybrid
	RRFConstant  float64 `yaml:"rrf_constant" json:"rrf_constant"`   // C in 1/(C+rank)
	WindowSize   int     `yaml:"window_size" json:"window_size"`     // Listwise window width
	WindowStride int     `yaml:"window_stride" json:"window_stride"` // Listwise window stride
	HybridAlpha  float64 `yaml:"hybrid_alpha" json:"hybrid_alpha"`   // Judged weight in the hybrid combination
	DefaultScore float64 `yaml:"default_score" json:"default_score"` // Assigned when a judgment call fails
	JudgeWorkers int     `yaml:"judge_workers" json:"judge_workers"` // Concurrent judgment calls per scoring pass
}

// BackendConfig selects the retrieval backend
type BackendConfig struct {
	Kind       string        `yaml:"kind" json:"kind"`               // colbert, wiki, local
	URL        string        `yaml:"url" json:"url"`                 // ColBERT server endpoint
	WikiAPI    string        `yaml:"wiki_api" json:"wiki_api"`       // MediaWiki api.php endpoint
	CorpusPath string        `yaml:"corpus_path" json:"corpus_path"` // Corpus file for the local backend
	VectorDim  int           `yaml:"vector_dim" json:"vector_dim"`   // Hashed vector dimension for the local backend
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

// LLMConfig holds LLM provider configuration
type LLMConfig struct {
	Provider  string `yaml:"provider" json:"provider"` // openai, anthropic, ollama, ""
	Model     string `yaml:"model" json:"model"`
	APIKey    string `yaml:"api_key" json:"-"`
	BaseURL   string `yaml:"base_url" json:"base_url"`
	Timeout   int    `yaml:"timeout" json:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" json:"max_tokens"`
}

// CacheConfig controls retrieval result caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Dir       string        `yaml:"dir" json:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" json:"disk_ttl"`
}

// ConcurrencyConfig controls worker counts
type ConcurrencyConfig struct {
	Workers       int `yaml:"workers" json:"workers"`               // Concurrent claims in a batch run
	IngestWorkers int `yaml:"ingest_workers" json:"ingest_workers"` // Corpus ingestion workers for the local backend
}

// RateLimitConfig controls per-host request rates for HTTP backends
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// HTTPConfig holds shared HTTP client settings
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" json:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" json:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" json:"no_proxy"`
}

// DefaultConfig returns the default configuration: three hops at k=15 with
// the gap planner, heuristic ranking, 21-document output budget.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxQueries:   3,
			MaxOutput:    21,
			MaxHops:      3,
			PerHopK:      15,
			ContextDocs:  10,
			ContextChars: 300,
		},
		Planner: PlannerConfig{
			Strategy:   "gap",
			MaxQueries: 3,
			Hypotheses: 3,
		},
		Ranker: RankerConfig{
			Strategy:     "heuristic",
			RRFConstant:  60,
			WindowSize:   10,
			WindowStride: 5,
			HybridAlpha:  0.6,
			DefaultScore: 0,
			JudgeWorkers: 8,
		},
		Backend: BackendConfig{
			Kind:      "colbert",
			URL:       "http://localhost:2017/wiki17_abstracts",
			WikiAPI:   "https://en.wikipedia.org/w/api.php",
			VectorDim: 4096,
			Timeout:   30 * time.Second,
		},
		LLM: LLMConfig{
			Provider:  "",
			Model:     "",
			Timeout:   30,
			MaxTokens: 512,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".evidentia-cache",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:       8,
			IngestWorkers: 4,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2.0,
			Burst:             5,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Evidentia/0.1 (+https://github.com/ppiankov/evidentia)",
			MaxBodyBytes: 2_000_000,
		},
	}
}
