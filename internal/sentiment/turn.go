package sentiment

import (
	"context"
	"log/slog"
	"time"

	"github.com/pscheid92/moodpulse/internal/domain"
)

// Turn carries one message through the pipeline. Model-derived inputs (embedding,
// linguistic analysis) are computed lazily, at most once, and a failure leaves them nil.
type Turn struct {
	Text       string
	Normalized string
	Timestamp  time.Time
	Raw        float64
	Source     domain.ConfidenceSource
	State      *State

	embedder domain.EmbeddingProvider
	analyzer domain.LinguisticAnalyzer

	embedding    []float32
	embedDone    bool
	analysis     *domain.Analysis
	analysisDone bool

	capped  bool
	ceiling float64

	crisisMatched []string
	flags         []string
	commits       []func(final float64)
}

// Embedding returns the text's embedding, or nil when no provider is configured or it failed.
func (t *Turn) Embedding(ctx context.Context) []float32 {
	if t.embedDone {
		return t.embedding
	}
	t.embedDone = true
	if t.embedder == nil {
		return nil
	}
	v, err := t.embedder.Embed(ctx, t.Text)
	if err != nil {
		slog.DebugContext(ctx, "Embedding unavailable, stages use keyword fallback", "error", err)
		return nil
	}
	t.embedding = v
	return v
}

// Analysis returns linguistic analysis of the text, or nil when unavailable.
func (t *Turn) Analysis(ctx context.Context) *domain.Analysis {
	if t.analysisDone {
		return t.analysis
	}
	t.analysisDone = true
	if t.analyzer == nil {
		return nil
	}
	a, err := t.analyzer.Analyze(ctx, t.Text)
	if err != nil {
		slog.DebugContext(ctx, "Linguistic analysis unavailable", "error", err)
		return nil
	}
	t.analysis = a
	return a
}

// Flags lists the detectors that fired, in stage order.
func (t *Turn) Flags() []string { return t.flags }

// CrisisMatched returns the crisis phrases found in the text.
func (t *Turn) CrisisMatched() []string { return t.crisisMatched }

// Capped reports whether a ceiling is in force and what it is.
func (t *Turn) Capped() (bool, float64) { return t.capped, t.ceiling }

func (t *Turn) flag(name string) { t.flags = append(t.flags, name) }

// capAt installs a ceiling for the remainder of the run. Ceilings only ever move down.
func (t *Turn) capAt(ceiling float64) {
	if !t.capped || ceiling < t.ceiling {
		t.ceiling = ceiling
	}
	t.capped = true
}

// onCommit defers a state mutation until the final score is known.
func (t *Turn) onCommit(fn func(final float64)) { t.commits = append(t.commits, fn) }

func (t *Turn) commit(final float64) {
	for _, fn := range t.commits {
		fn(final)
	}
	t.commits = nil
}
