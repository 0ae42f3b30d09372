// Package llm provides the last-resort text generation capability used
// when deterministic extraction finds nothing. Providers are chained so a
// backup can answer when the primary is down.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docintel/internal/config"
)

var (
	// ErrUnavailable indicates no usable LLM provider is configured.
	ErrUnavailable = errors.New("no LLM provider available")

	// ErrGenerationFailed indicates the provider call failed.
	ErrGenerationFailed = errors.New("LLM generation failed")
)

// Client is the generation capability consumed by extraction.
type Client interface {
	// Generate produces a completion for the prompt under the given
	// system instructions.
	Generate(ctx context.Context, prompt, system string) (string, error)

	// Available reports whether the client can serve requests.
	Available() bool
}

// NoOpClient is a disabled client. Generate always fails with
// ErrUnavailable.
type NoOpClient struct{}

func (NoOpClient) Generate(context.Context, string, string) (string, error) {
	return "", ErrUnavailable
}

func (NoOpClient) Available() bool { return false }

// Chain tries providers in order and returns the first success. A
// provider failure is logged and the next provider is tried; only when
// every provider fails does Generate return an error.
type Chain struct {
	clients []Client
	logger  *zap.Logger
}

// NewChain creates a failover chain over the given clients. Unavailable
// clients are skipped at call time.
func NewChain(logger *zap.Logger, clients ...Client) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{clients: clients, logger: logger}
}

// Generate tries each available client in order.
func (c *Chain) Generate(ctx context.Context, prompt, system string) (string, error) {
	var lastErr error
	for i, client := range c.clients {
		if !client.Available() {
			continue
		}
		response, err := client.Generate(ctx, prompt, system)
		if err == nil {
			return response, nil
		}
		lastErr = err
		c.logger.Warn("LLM provider failed, trying next",
			zap.Int("provider_index", i),
			zap.Error(err))
	}
	if lastErr != nil {
		return "", fmt.Errorf("%w: all providers failed: %v", ErrGenerationFailed, lastErr)
	}
	return "", ErrUnavailable
}

// Available reports whether any client in the chain is available.
func (c *Chain) Available() bool {
	for _, client := range c.clients {
		if client.Available() {
			return true
		}
	}
	return false
}

// ollamaClient generates through a local Ollama server via langchaingo.
type ollamaClient struct {
	llm   *ollama.LLM
	model string
}

func newOllamaClient(cfg config.LLMProviderConfig) (*ollamaClient, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.ServerURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.ServerURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}
	return &ollamaClient{llm: llm, model: cfg.Model}, nil
}

func (o *ollamaClient) Generate(ctx context.Context, prompt, system string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}
	if system != "" {
		messages = append([]llms.MessageContent{
			llms.TextParts(schema.ChatMessageTypeSystem, system),
		}, messages...)
	}

	resp, err := o.llm.GenerateContent(ctx, messages, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

func (o *ollamaClient) Available() bool { return true }

// New builds a client from a single provider config. Unknown or
// "disabled" providers yield a NoOpClient.
func New(cfg config.LLMProviderConfig, logger *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case "ollama":
		return newOllamaClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	case "", "disabled":
		return NoOpClient{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", config.ErrInvalidConfig, cfg.Provider)
	}
}

// NewFromConfig builds the primary-then-backup failover chain.
func NewFromConfig(cfg config.LLMConfig, logger *zap.Logger) (Client, error) {
	primary, err := New(cfg.Primary, logger)
	if err != nil {
		return nil, fmt.Errorf("primary LLM: %w", err)
	}
	backup, err := New(cfg.Backup, logger)
	if err != nil {
		return nil, fmt.Errorf("backup LLM: %w", err)
	}
	return NewChain(logger, primary, backup), nil
}

var (
	_ Client = (*Chain)(nil)
	_ Client = (*ollamaClient)(nil)
	_ Client = NoOpClient{}
)
