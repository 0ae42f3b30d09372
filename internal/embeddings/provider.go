// Package embeddings provides the embedding capability and the
// cosine-similarity retrieval used to guide parameter extraction.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"time"

	lcembeddings "github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/fyrsmithlabs/docintel/internal/config"
)

var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Provider is the embedding capability consumed by retrieval. Inputs are
// pre-truncated to the provider's character ceiling before any call.
type Provider interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Service generates embeddings through an OpenAI-compatible endpoint
// (TEI, Ollama) via langchaingo.
type Service struct {
	embedder *lcembeddings.EmbedderImpl
	maxChars int
	model    string
	metrics  *Metrics
}

// NewService creates an embedding service from config.
func NewService(cfg config.EmbeddingConfig, metrics *Metrics) (*Service, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL required", config.ErrInvalidConfig)
	}

	apiKey := cfg.APIKey.Value()
	if apiKey == "" {
		// langchaingo requires a token; local endpoints ignore it
		apiKey = "placeholder"
	}

	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating embedding client: %w", err)
	}

	embedder, err := lcembeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &Service{
		embedder: embedder,
		maxChars: cfg.MaxChars,
		model:    cfg.Model,
		metrics:  metrics,
	}, nil
}

// EmbedQuery generates an embedding for a single query.
func (s *Service) EmbedQuery(ctx context.Context, text string) (vec []float32, err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordGeneration(ctx, s.model, "embed_query", time.Since(start), 1, err)
	}()

	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}

	vec, err = s.embedder.EmbedQuery(ctx, s.clamp(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	return vec, nil
}

// EmbedDocuments generates embeddings for multiple texts.
func (s *Service) EmbedDocuments(ctx context.Context, texts []string) (vecs [][]float32, err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordGeneration(ctx, s.model, "embed_documents", time.Since(start), len(texts), err)
	}()

	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}

	clamped := make([]string, len(texts))
	for i, t := range texts {
		clamped[i] = s.clamp(t)
	}

	vecs, err = s.embedder.EmbedDocuments(ctx, clamped)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	return vecs, nil
}

// clamp truncates text to the embedding model's input ceiling.
func (s *Service) clamp(text string) string {
	if s.maxChars > 0 && len(text) > s.maxChars {
		return text[:s.maxChars]
	}
	return text
}

var _ Provider = (*Service)(nil)
