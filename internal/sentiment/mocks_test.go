package sentiment

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pscheid92/moodpulse/internal/domain"
)

// --- Primary model ---

type mockPrimary struct {
	inferFn func(ctx context.Context, text string, maxTokens int) (float64, error)
	calls   atomic.Int64
}

func (m *mockPrimary) Infer(ctx context.Context, text string, maxTokens int) (float64, error) {
	m.calls.Add(1)
	if m.inferFn != nil {
		return m.inferFn(ctx, text, maxTokens)
	}
	return 0, nil
}

// --- Lexicon ---

type mockLexicon struct {
	scoreFn func(text string) float64
	calls   atomic.Int64
}

func (m *mockLexicon) Score(text string) float64 {
	m.calls.Add(1)
	if m.scoreFn != nil {
		return m.scoreFn(text)
	}
	return 0
}

func constLexicon(v float64) *mockLexicon {
	return &mockLexicon{scoreFn: func(string) float64 { return v }}
}

// --- Embeddings ---

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return nil, domain.ErrModelUnavailable
}

type mockBatchEmbedder struct {
	mockEmbedder
	embedBatchFn func(ctx context.Context, texts []string) ([][]float32, error)
	batches      atomic.Int64
}

func (m *mockBatchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.batches.Add(1)
	if m.embedBatchFn != nil {
		return m.embedBatchFn(ctx, texts)
	}
	return nil, domain.ErrModelUnavailable
}

// --- Linguistic analysis ---

type mockLinguistic struct {
	analyzeFn func(ctx context.Context, text string) (*domain.Analysis, error)
}

func (m *mockLinguistic) Analyze(ctx context.Context, text string) (*domain.Analysis, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, text)
	}
	return nil, domain.ErrModelUnavailable
}

// --- Baseline store ---

type mockBaselineStore struct {
	loadFn func(ctx context.Context, userID string) (domain.HourlyBaselines, error)
	saveFn func(ctx context.Context, userID string, hour int, value float64) error
}

func (m *mockBaselineStore) LoadBaselines(ctx context.Context, userID string) (domain.HourlyBaselines, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx, userID)
	}
	return domain.HourlyBaselines{}, nil
}

func (m *mockBaselineStore) SaveBaseline(ctx context.Context, userID string, hour int, value float64) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, userID, hour, value)
	}
	return nil
}

func (m *mockBaselineStore) ClearBaselines(context.Context, string) error { return nil }

// --- Crisis log ---

type mockCrisisLog struct {
	mu        sync.Mutex
	records   []domain.CrisisLogRecord
	appendErr error
}

func (m *mockCrisisLog) AppendCrisis(_ context.Context, record domain.CrisisLogRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.records = append(m.records, record)
	return nil
}

func (m *mockCrisisLog) ListCrisis(_ context.Context, userID string, _ int) ([]domain.CrisisLogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CrisisLogRecord
	for _, r := range m.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockCrisisLog) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// --- Recorder ---

type countingRecorder struct {
	mu       sync.Mutex
	adjusted map[string]int
	failed   map[string]int
	sources  map[string]int
	evicted  int
	crises   int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{adjusted: map[string]int{}, failed: map[string]int{}, sources: map[string]int{}}
}

func (r *countingRecorder) ObserveAnalysis(source string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[source]++
}

func (r *countingRecorder) StageAdjusted(stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adjusted[stage]++
}

func (r *countingRecorder) StageFailed(stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[stage]++
}

func (r *countingRecorder) CacheEvicted(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evicted += n
}

func (r *countingRecorder) CrisisDetected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.crises++
}

// --- Helpers ---

var testTime = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

// runTurn drives text through p the way the Analyzer does, minus the cache.
func runTurn(p *Pipeline, state *State, text string, raw float64) (float64, *Turn) {
	turn := p.newTurn(text, testTime, raw, domain.SourceFallback, state)
	score := p.Run(context.Background(), raw, turn)
	turn.commit(score)
	return score, turn
}

func newTestTurn(text string) *Turn {
	return NewPipeline(nil, nil, nil, nil).newTurn(text, testTime, 0, domain.SourceFallback, NewState("u1"))
}
