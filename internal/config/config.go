// Package config provides configuration loading for docintel.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/docintel/internal/logging"
)

// ErrInvalidConfig indicates invalid configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the root configuration for the extraction engine.
type Config struct {
	Logging    logging.Config   `koanf:"logging"`
	Cache      CacheConfig      `koanf:"cache"`
	Embedding  EmbeddingConfig  `koanf:"embedding"`
	LLM        LLMConfig        `koanf:"llm"`
	RAG        RAGConfig        `koanf:"rag"`
	Retrieval  RetrievalConfig  `koanf:"retrieval"`
	Confidence ConfidenceConfig `koanf:"confidence"`
}

// CacheConfig controls the content-addressed parse cache.
type CacheConfig struct {
	Dir string `koanf:"dir"`
}

// EmbeddingConfig configures the embedding capability endpoint.
type EmbeddingConfig struct {
	// BaseURL is an OpenAI-compatible embeddings endpoint (TEI, Ollama).
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  Secret `koanf:"api_key"`
	// MaxChars is the input ceiling; text is truncated before embedding.
	MaxChars int `koanf:"max_chars"`
}

// LLMConfig configures the last-resort LLM capability.
type LLMConfig struct {
	Primary LLMProviderConfig `koanf:"primary"`
	Backup  LLMProviderConfig `koanf:"backup"`
}

// LLMProviderConfig holds provider-specific LLM configuration.
type LLMProviderConfig struct {
	// Provider is "ollama", "anthropic" or "disabled".
	Provider  string   `koanf:"provider"`
	Model     string   `koanf:"model"`
	ServerURL string   `koanf:"server_url"`
	APIKey    Secret   `koanf:"api_key"`
	Timeout   Duration `koanf:"timeout"`
}

// RAGConfig configures the optional domain knowledge retriever.
type RAGConfig struct {
	Enabled       bool    `koanf:"enabled"`
	KnowledgePath string  `koanf:"knowledge_path"`
	TopK          int     `koanf:"top_k"`
	MinSimilarity float64 `koanf:"min_similarity"`
	// MaxChunkChars caps each knowledge chunk in the formatted context.
	MaxChunkChars int `koanf:"max_chunk_chars"`
}

// RetrievalConfig controls embedding-guided chunk retrieval.
type RetrievalConfig struct {
	TopK                int     `koanf:"top_k"`
	SimilarityThreshold float64 `koanf:"similarity_threshold"`
	// ChunkMaxChars caps each document chunk before embedding.
	ChunkMaxChars int `koanf:"chunk_max_chars"`
}

// ConfidenceConfig holds the hand-tuned confidence constants. These are
// configuration, not algorithmic invariants, and can be swapped per
// deployment.
type ConfidenceConfig struct {
	MethodWeights    MethodWeights `koanf:"method_weights"`
	SimilarityBoosts []BoostBand   `koanf:"similarity_boosts"`
}

// MethodWeights are the base confidence weights per extraction method.
type MethodWeights struct {
	ChunkScoped float64 `koanf:"chunk_scoped"`
	FullReport  float64 `koanf:"full_report"`
	LLMAssisted float64 `koanf:"llm_assisted"`
}

// BoostBand maps a minimum similarity score to a confidence multiplier.
// Bands are evaluated in order; the first band whose MinSimilarity is met
// wins, so they must be sorted by MinSimilarity descending.
type BoostBand struct {
	MinSimilarity float64 `koanf:"min_similarity"`
	Boost         float64 `koanf:"boost"`
}

// Default returns a Config with production-ready defaults.
func Default() *Config {
	return &Config{
		Logging: *logging.NewDefaultConfig(),
		Cache: CacheConfig{
			Dir: "docling_cache",
		},
		Embedding: EmbeddingConfig{
			BaseURL:  "http://localhost:11434/v1",
			Model:    "mxbai-embed-large",
			MaxChars: 1600,
		},
		LLM: LLMConfig{
			Primary: LLMProviderConfig{
				Provider:  "ollama",
				Model:     "gemma3:1b",
				ServerURL: "http://localhost:11434",
				Timeout:   Duration(60 * time.Second),
			},
			Backup: LLMProviderConfig{
				Provider: "disabled",
				Timeout:  Duration(30 * time.Second),
			},
		},
		RAG: RAGConfig{
			Enabled:       true,
			KnowledgePath: "config/domain_knowledge.md",
			TopK:          2,
			MinSimilarity: 0.5,
			MaxChunkChars: 500,
		},
		Retrieval: RetrievalConfig{
			TopK:                3,
			SimilarityThreshold: 0.5,
			ChunkMaxChars:       1500,
		},
		Confidence: ConfidenceConfig{
			MethodWeights: MethodWeights{
				ChunkScoped: 0.95,
				FullReport:  0.85,
				LLMAssisted: 0.60,
			},
			SimilarityBoosts: []BoostBand{
				{MinSimilarity: 0.85, Boost: 1.0},
				{MinSimilarity: 0.70, Boost: 0.9},
				{MinSimilarity: 0.50, Boost: 0.7},
				{MinSimilarity: 0.0, Boost: 0.5},
			},
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.Cache.Dir == "" {
		return fmt.Errorf("%w: cache.dir required", ErrInvalidConfig)
	}
	if c.Embedding.BaseURL == "" {
		return fmt.Errorf("%w: embedding.base_url required", ErrInvalidConfig)
	}
	if c.Embedding.MaxChars <= 0 {
		return fmt.Errorf("%w: embedding.max_chars must be positive", ErrInvalidConfig)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.top_k must be positive", ErrInvalidConfig)
	}
	if c.Retrieval.SimilarityThreshold < 0 || c.Retrieval.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: retrieval.similarity_threshold must be in [0,1]", ErrInvalidConfig)
	}
	if c.Retrieval.ChunkMaxChars <= 0 {
		return fmt.Errorf("%w: retrieval.chunk_max_chars must be positive", ErrInvalidConfig)
	}
	if c.RAG.Enabled {
		if c.RAG.TopK <= 0 {
			return fmt.Errorf("%w: rag.top_k must be positive", ErrInvalidConfig)
		}
		if c.RAG.MinSimilarity < 0 || c.RAG.MinSimilarity > 1 {
			return fmt.Errorf("%w: rag.min_similarity must be in [0,1]", ErrInvalidConfig)
		}
	}
	if err := c.Confidence.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks the confidence constants.
func (c *ConfidenceConfig) Validate() error {
	for name, w := range map[string]float64{
		"chunk_scoped": c.MethodWeights.ChunkScoped,
		"full_report":  c.MethodWeights.FullReport,
		"llm_assisted": c.MethodWeights.LLMAssisted,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: confidence.method_weights.%s must be in [0,1]", ErrInvalidConfig, name)
		}
	}
	if len(c.SimilarityBoosts) == 0 {
		return fmt.Errorf("%w: confidence.similarity_boosts required", ErrInvalidConfig)
	}
	prev := 2.0
	for i, band := range c.SimilarityBoosts {
		if band.MinSimilarity < 0 || band.MinSimilarity > 1 {
			return fmt.Errorf("%w: confidence.similarity_boosts[%d].min_similarity must be in [0,1]", ErrInvalidConfig, i)
		}
		if band.Boost < 0 || band.Boost > 1 {
			return fmt.Errorf("%w: confidence.similarity_boosts[%d].boost must be in [0,1]", ErrInvalidConfig, i)
		}
		if band.MinSimilarity >= prev {
			return fmt.Errorf("%w: confidence.similarity_boosts must be sorted by min_similarity descending", ErrInvalidConfig)
		}
		prev = band.MinSimilarity
	}
	return nil
}
