// Package inference is an HTTP client for a text-classification inference server
// serving a three-way (negative, neutral, positive) sentiment model.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/pscheid92/moodpulse/internal/platform/breaker"
	"github.com/pscheid92/moodpulse/internal/platform/correlation"
	"github.com/pscheid92/moodpulse/internal/platform/retry"
)

const DefaultTimeout = 3 * time.Second

var _ domain.PrimarySentimentModel = (*Client)(nil)

type Config struct {
	URL     string
	Timeout time.Duration

	// Retry defaults to two attempts with a short backoff.
	Retry    retry.Policy
	Observer breaker.Observer
	Clock    clockwork.Clock
}

// Client calls the inference server. It retries transient failures and opens a
// circuit breaker when the server keeps failing; both surface as ErrModelUnavailable.
type Client struct {
	url    string
	http   *http.Client
	policy retry.Policy
	cb     circuitbreaker.CircuitBreaker[any]
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("inference URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	policy := cfg.Retry
	if policy.MaxAttempts == 0 {
		policy = retry.Policy{
			MaxAttempts:      2,
			InitialBackoff:   100 * time.Millisecond,
			MaxBackoff:       time.Second,
			RateLimitBackoff: time.Second,
		}
	}
	if policy.Clock == nil {
		policy.Clock = cfg.Clock
	}
	policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		slog.Debug("Retrying inference request", "attempt", attempt, "backoff", backoff, "error", err)
	}

	return &Client{
		url:    cfg.URL,
		http:   &http.Client{Timeout: cfg.Timeout},
		policy: policy,
		cb:     breaker.New("inference", breaker.Settings{Observer: cfg.Observer}),
	}, nil
}

type request struct {
	Inputs     string     `json:"inputs"`
	Parameters parameters `json:"parameters"`
}

type parameters struct {
	Truncation bool `json:"truncation"`
	MaxLength  int  `json:"max_length,omitempty"`
	TopK       int  `json:"top_k,omitempty"`
}

// Prediction is one label of a classification response.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// statusError carries the HTTP status so the retry classifier can decide.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("inference server returned %d: %s", e.status, e.body)
}

// Infer returns P(positive) - P(negative) for text. The server truncates to maxTokens.
func (c *Client) Infer(ctx context.Context, text string, maxTokens int) (float64, error) {
	if !c.cb.TryAcquirePermit() {
		return 0, fmt.Errorf("inference: %w: %w", domain.ErrModelUnavailable, circuitbreaker.ErrOpen)
	}

	preds, err := retry.Do(ctx, c.policy, classify, func(ctx context.Context) ([]Prediction, error) {
		return c.classify(ctx, text, maxTokens)
	})
	if err != nil {
		if ctx.Err() == nil {
			c.cb.RecordError(err)
		}
		return 0, fmt.Errorf("inference: %w: %w", domain.ErrModelUnavailable, err)
	}
	c.cb.RecordSuccess()

	return Polarity(preds), nil
}

// BreakerState reports the circuit breaker state for health checks.
func (c *Client) BreakerState() circuitbreaker.State {
	return c.cb.State()
}

func (c *Client) classify(ctx context.Context, text string, maxTokens int) ([]Prediction, error) {
	body, err := json.Marshal(request{
		Inputs:     text,
		Parameters: parameters{Truncation: true, MaxLength: maxTokens, TopK: 3},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id, ok := correlation.ID(ctx); ok {
		req.Header.Set(correlation.HeaderName, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(raw))}
	}
	return decodePredictions(raw)
}

// decodePredictions accepts both a flat list and the batched [[...]] shape.
func decodePredictions(raw []byte) ([]Prediction, error) {
	var nested [][]Prediction
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, errors.New("empty prediction batch")
		}
		return nested[0], nil
	}

	var flat []Prediction
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("failed to decode predictions: %w", err)
	}
	return flat, nil
}

// Polarity folds label probabilities into a score in [-1, 1]. Both named labels and
// the LABEL_0..LABEL_2 convention (negative, neutral, positive) are understood.
func Polarity(preds []Prediction) float64 {
	var pos, neg float64
	for _, p := range preds {
		switch strings.ToLower(p.Label) {
		case "positive", "pos", "label_2":
			pos += p.Score
		case "negative", "neg", "label_0":
			neg += p.Score
		}
	}
	return domain.ClampScore(pos - neg)
}

func classify(err error) retry.Action {
	var se *statusError
	if errors.As(err, &se) {
		switch {
		case se.status == http.StatusTooManyRequests:
			return retry.After
		case se.status >= 500:
			return retry.Retry
		default:
			return retry.Stop
		}
	}
	if errors.Is(err, context.Canceled) {
		return retry.Stop
	}
	return retry.Retry
}
