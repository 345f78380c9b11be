// Package openai provides the embedding provider on OpenAI-compatible embedding endpoints.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/pscheid92/moodpulse/internal/platform/breaker"
	"github.com/sashabaranov/go-openai"
)

const (
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 5 * time.Second
)

var _ domain.EmbeddingProvider = (*Embedder)(nil)

// Config contains configuration for the embedder.
type Config struct {
	APIKey  string
	BaseURL string // Optional custom base URL
	Model   string
	Timeout time.Duration

	// Observer receives circuit breaker transitions. Optional.
	Observer breaker.Observer
}

// Embedder calls the embeddings endpoint behind a circuit breaker. Every failure,
// including an open breaker, is reported as domain.ErrModelUnavailable.
type Embedder struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	cb      circuitbreaker.CircuitBreaker[any]
}

func New(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &Embedder{
		client:  openai.NewClientWithConfig(config),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		cb:      breaker.New("embeddings", breaker.Settings{Observer: cfg.Observer}),
	}, nil
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one request. Results keep the input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if !e.cb.TryAcquirePermit() {
		return nil, fmt.Errorf("embeddings: %w: %w", domain.ErrModelUnavailable, circuitbreaker.ErrOpen)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(callCtx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		if ctx.Err() == nil {
			e.cb.RecordError(err)
		}
		return nil, fmt.Errorf("failed to create embeddings: %w: %w", domain.ErrModelUnavailable, err)
	}
	e.cb.RecordSuccess()

	results := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index >= 0 && data.Index < len(results) {
			results[data.Index] = data.Embedding
		}
	}
	return results, nil
}

// BreakerState reports the circuit breaker state for health checks.
func (e *Embedder) BreakerState() circuitbreaker.State {
	return e.cb.State()
}
