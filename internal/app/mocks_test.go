package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/pscheid92/moodpulse/internal/sentiment"
)

var testTime = time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC) // a Wednesday

type mockAnalyzer struct {
	analyzeFn   func(ctx context.Context, msg domain.Message, state *sentiment.State) sentiment.Result
	loadStateFn func(ctx context.Context, userID string) *sentiment.State
	loads       atomic.Int32
}

func (m *mockAnalyzer) Analyze(ctx context.Context, msg domain.Message, state *sentiment.State) sentiment.Result {
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, msg, state)
	}
	return sentiment.Result{Score: 0.1, Source: domain.SourceFallback}
}

func (m *mockAnalyzer) LoadState(ctx context.Context, userID string) *sentiment.State {
	m.loads.Add(1)
	if m.loadStateFn != nil {
		return m.loadStateFn(ctx, userID)
	}
	return sentiment.NewState(userID)
}

// memoryHistory is an in-memory domain.MoodHistory.
type memoryHistory struct {
	mu        sync.Mutex
	entries   map[string][]domain.MoodEntry
	acks      map[string]time.Time
	appendErr error
}

func newMemoryHistory() *memoryHistory {
	return &memoryHistory{entries: map[string][]domain.MoodEntry{}, acks: map[string]time.Time{}}
}

func (m *memoryHistory) AppendMood(_ context.Context, userID string, entry domain.MoodEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.entries[userID] = append(m.entries[userID], entry)
	return nil
}

func (m *memoryHistory) ListMood(_ context.Context, userID string) ([]domain.MoodEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.MoodEntry(nil), m.entries[userID]...), nil
}

func (m *memoryHistory) ClearMood(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
	delete(m.acks, userID)
	return nil
}

func (m *memoryHistory) AlertAcknowledged(_ context.Context, userID string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acks[userID], nil
}

func (m *memoryHistory) AcknowledgeAlert(_ context.Context, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acks[userID] = at
	return nil
}

type mockBaselineStore struct {
	clearFn func(ctx context.Context, userID string) error
}

func (m *mockBaselineStore) LoadBaselines(context.Context, string) (domain.HourlyBaselines, error) {
	return domain.HourlyBaselines{}, nil
}

func (m *mockBaselineStore) SaveBaseline(context.Context, string, int, float64) error { return nil }

func (m *mockBaselineStore) ClearBaselines(ctx context.Context, userID string) error {
	if m.clearFn != nil {
		return m.clearFn(ctx, userID)
	}
	return nil
}

type mockCrisisLog struct {
	listFn func(ctx context.Context, userID string, limit int) ([]domain.CrisisLogRecord, error)
}

func (m *mockCrisisLog) AppendCrisis(context.Context, domain.CrisisLogRecord) error { return nil }

func (m *mockCrisisLog) ListCrisis(ctx context.Context, userID string, limit int) ([]domain.CrisisLogRecord, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, limit)
	}
	return nil, nil
}

type countingStateRecorder struct {
	active  atomic.Int32
	evicted atomic.Int32
}

func (r *countingStateRecorder) StatesActive(n int)  { r.active.Store(int32(n)) }
func (r *countingStateRecorder) StatesEvicted(n int) { r.evicted.Add(int32(n)) }
