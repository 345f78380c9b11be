package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/pscheid92/moodpulse/internal/domain"
)

// StageFunc maps the running score to its adjusted value.
type StageFunc func(ctx context.Context, score float64, turn *Turn) (float64, error)

// Stage is a named step of the pipeline.
type Stage struct {
	Name  string
	Apply StageFunc
}

// Pipeline runs its stages in order and clamps the result.
type Pipeline struct {
	stages   []Stage
	embedder domain.EmbeddingProvider
	analyzer domain.LinguisticAnalyzer
	recorder Recorder
}

func NewPipeline(stages []Stage, embedder domain.EmbeddingProvider, analyzer domain.LinguisticAnalyzer, recorder Recorder) *Pipeline {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Pipeline{stages: stages, embedder: embedder, analyzer: analyzer, recorder: recorder}
}

// Stages returns the stage names in run order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, st := range p.stages {
		names[i] = st.Name
	}
	return names
}

func (p *Pipeline) newTurn(text string, ts time.Time, raw float64, source domain.ConfidenceSource, state *State) *Turn {
	return &Turn{
		Text:       text,
		Normalized: normalize(text),
		Timestamp:  ts,
		Raw:        raw,
		Source:     source,
		State:      state,
		embedder:   p.embedder,
		analyzer:   p.analyzer,
	}
}

// Run applies every stage to score. A stage that errors or panics contributes no
// adjustment; later stages still run. Once a ceiling is installed no stage can lift
// the score above it.
func (p *Pipeline) Run(ctx context.Context, score float64, turn *Turn) float64 {
	for _, st := range p.stages {
		next, err := runStage(ctx, st, score, turn)
		if err != nil {
			slog.WarnContext(ctx, "Pipeline stage failed, skipping adjustment", "stage", st.Name, "user_id", turn.State.UserID(), "error", err)
			p.recorder.StageFailed(st.Name)
			continue
		}
		if math.IsNaN(next) || math.IsInf(next, 0) {
			slog.WarnContext(ctx, "Pipeline stage produced non-finite score, skipping adjustment", "stage", st.Name)
			p.recorder.StageFailed(st.Name)
			continue
		}
		if turn.capped {
			next = min(next, turn.ceiling)
		}
		if next != score {
			p.recorder.StageAdjusted(st.Name)
		}
		score = next
	}

	score = domain.ClampScore(score)
	if turn.capped {
		score = min(score, turn.ceiling)
	}
	return score
}

func runStage(ctx context.Context, st Stage, score float64, turn *Turn) (out float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = score, fmt.Errorf("stage %s panicked: %v", st.Name, r)
		}
	}()
	return st.Apply(ctx, score, turn)
}
