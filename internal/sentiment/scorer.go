package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/pscheid92/moodpulse/internal/domain"
)

const (
	// MaxTokens bounds the text handed to the primary model.
	MaxTokens = 512

	primaryWeight   = 0.70
	secondaryWeight = 0.30
)

// BaseScorer produces the raw score the pipeline starts from.
type BaseScorer struct {
	primary domain.PrimarySentimentModel
	lexicon domain.LexiconScorer
}

// NewBaseScorer creates a scorer. primary may be nil, in which case every score
// comes from the lexicon.
func NewBaseScorer(primary domain.PrimarySentimentModel, lexicon domain.LexiconScorer) *BaseScorer {
	return &BaseScorer{primary: primary, lexicon: lexicon}
}

// Score blends 0.7 primary + 0.3 lexicon, or returns the lexicon score alone
// (SourceFallback) when the primary model is missing, fails or panics.
func (s *BaseScorer) Score(ctx context.Context, text string) (float64, domain.ConfidenceSource) {
	secondary := domain.ClampScore(s.lexiconScore(ctx, text))

	if s.primary == nil {
		return secondary, domain.SourceFallback
	}

	primary, err := s.infer(ctx, text)
	if err != nil || math.IsNaN(primary) {
		if err != nil && !errors.Is(err, domain.ErrModelUnavailable) {
			slog.WarnContext(ctx, "Primary model inference failed, using lexicon fallback", "error", err)
		}
		return secondary, domain.SourceFallback
	}

	return domain.ClampScore(primaryWeight*domain.ClampScore(primary) + secondaryWeight*secondary), domain.SourcePrimary
}

// infer turns a panicking model into ErrModelUnavailable.
func (s *BaseScorer) infer(ctx context.Context, text string) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Primary model panicked, using lexicon fallback", "panic", r)
			score, err = 0, fmt.Errorf("%w: primary model panicked: %v", domain.ErrModelUnavailable, r)
		}
	}()
	return s.primary.Infer(ctx, Truncate(text, MaxTokens), MaxTokens)
}

// lexiconScore scores a panicking lexicon as neutral.
func (s *BaseScorer) lexiconScore(ctx context.Context, text string) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Lexicon scorer panicked, scoring neutral", "panic", r)
			score = 0
		}
	}()
	return s.lexicon.Score(text)
}

// Truncate keeps at most maxTokens whitespace-separated tokens of text.
func Truncate(text string, maxTokens int) string {
	fields := strings.Fields(text)
	if len(fields) <= maxTokens {
		return text
	}
	return strings.Join(fields[:maxTokens], " ")
}
