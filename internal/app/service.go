package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/pscheid92/moodpulse/internal/sentiment"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultAlertThreshold = -0.5
	DefaultAlertLimit     = 5
	DefaultIdleTTL        = 30 * time.Minute

	minEvictionInterval = time.Second
)

// Analyzer is the sentiment core as seen by the service.
type Analyzer interface {
	Analyze(ctx context.Context, msg domain.Message, state *sentiment.State) sentiment.Result
	LoadState(ctx context.Context, userID string) *sentiment.State
}

// StateRecorder receives registry telemetry. Optional.
type StateRecorder interface {
	StatesActive(n int)
	StatesEvicted(n int)
}

type Config struct {
	AlertThreshold float64
	AlertLimit     int
	// IdleTTL is how long an unused per-user state stays in memory. Zero disables eviction.
	IdleTTL time.Duration
}

// DefaultConfig mirrors the configuration defaults.
func DefaultConfig() Config {
	return Config{AlertThreshold: DefaultAlertThreshold, AlertLimit: DefaultAlertLimit, IdleTTL: DefaultIdleTTL}
}

type userState struct {
	state    *sentiment.State
	lastUsed time.Time
}

// Service owns the per-user State registry and the history-backed use cases.
type Service struct {
	analyzer  Analyzer
	history   domain.MoodHistory
	baselines domain.BaselineStore
	crisis    domain.CrisisLog
	cfg       Config
	clock     clockwork.Clock
	recorder  StateRecorder

	mu        sync.Mutex
	states    map[string]*userState
	loadGroup singleflight.Group

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewService starts the idle-state eviction timer when cfg.IdleTTL > 0; call Stop to end it.
// baselines, crisis and recorder may be nil.
func NewService(analyzer Analyzer, history domain.MoodHistory, baselines domain.BaselineStore, crisis domain.CrisisLog, cfg Config, clock clockwork.Clock, recorder StateRecorder) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &Service{
		analyzer:  analyzer,
		history:   history,
		baselines: baselines,
		crisis:    crisis,
		cfg:       cfg,
		clock:     clock,
		recorder:  recorder,
		states:    make(map[string]*userState),
		stopCh:    make(chan struct{}),
	}

	if cfg.IdleTTL > 0 {
		s.startEvictionTimer()
	}
	return s
}

// Analyze scores text for userID. A zero ts means now. Every result, cached or not,
// is appended to the user's mood history; a history failure is logged, not returned.
func (s *Service) Analyze(ctx context.Context, userID, text string, ts time.Time) (sentiment.Result, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return sentiment.Result{}, err
	}
	if strings.TrimSpace(text) == "" {
		return sentiment.Result{}, domain.ErrEmptyText
	}
	if ts.IsZero() {
		ts = s.clock.Now()
	}

	state, err := s.stateFor(ctx, userID)
	if err != nil {
		return sentiment.Result{}, err
	}

	res := s.analyzer.Analyze(ctx, domain.Message{Text: text, Timestamp: ts}, state)
	if err := s.history.AppendMood(ctx, userID, domain.MoodEntry{Timestamp: ts.UTC(), Score: res.Score}); err != nil {
		slog.ErrorContext(ctx, "Failed to record mood history", "user_id", userID, "error", err)
	}
	return res, nil
}

// stateFor returns the user's live State, loading it at most once for concurrent callers.
func (s *Service) stateFor(ctx context.Context, userID string) (*sentiment.State, error) {
	now := s.clock.Now()

	s.mu.Lock()
	if us, ok := s.states[userID]; ok {
		us.lastUsed = now
		s.mu.Unlock()
		return us.state, nil
	}
	s.mu.Unlock()

	v, err, _ := s.loadGroup.Do(userID, func() (any, error) {
		s.mu.Lock()
		if us, ok := s.states[userID]; ok {
			s.mu.Unlock()
			return us.state, nil
		}
		s.mu.Unlock()

		state := s.analyzer.LoadState(ctx, userID)

		s.mu.Lock()
		s.states[userID] = &userState{state: state, lastUsed: now}
		n := len(s.states)
		s.mu.Unlock()

		if s.recorder != nil {
			s.recorder.StatesActive(n)
		}
		slog.DebugContext(ctx, "Loaded user state", "user_id", userID)
		return state, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sentiment.State), nil
}

// ActiveStates returns the number of per-user states held in memory.
func (s *Service) ActiveStates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// EvictIdle drops states unused for longer than the idle TTL and returns how many went.
// Circadian baselines are already persisted; windows start empty on the next load.
func (s *Service) EvictIdle() int {
	if s.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := s.clock.Now().Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	evicted := 0
	for id, us := range s.states {
		if us.lastUsed.Before(cutoff) {
			delete(s.states, id)
			evicted++
		}
	}
	n := len(s.states)
	s.mu.Unlock()

	if evicted > 0 {
		slog.Info("Evicted idle user states", "evicted", evicted, "remaining", n)
		if s.recorder != nil {
			s.recorder.StatesEvicted(evicted)
			s.recorder.StatesActive(n)
		}
	}
	return evicted
}

func (s *Service) startEvictionTimer() {
	interval := max(s.cfg.IdleTTL/2, minEvictionInterval)
	ticker := s.clock.NewTicker(interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ticker.Chan():
				s.EvictIdle()
			case <-s.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
	slog.Info("State eviction timer started", "interval", interval.String(), "idle_ttl", s.cfg.IdleTTL.String())
}

// Stop ends the eviction timer and waits for it to exit.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}

// ResetState clears the user's windows and circadian profile, in memory and in the
// baseline store. The crisis log is left untouched.
func (s *Service) ResetState(ctx context.Context, userID string) error {
	if err := domain.ValidateUserID(userID); err != nil {
		return err
	}

	s.mu.Lock()
	us, ok := s.states[userID]
	s.mu.Unlock()
	if ok {
		us.state.Reset()
	}

	if s.baselines != nil {
		if err := s.baselines.ClearBaselines(ctx, userID); err != nil {
			return fmt.Errorf("failed to clear baselines: %w", err)
		}
	}
	slog.InfoContext(ctx, "User state reset", "user_id", userID)
	return nil
}

// ClearHistory drops the user's mood history and alert acknowledgement.
func (s *Service) ClearHistory(ctx context.Context, userID string) error {
	if err := domain.ValidateUserID(userID); err != nil {
		return err
	}
	if err := s.history.ClearMood(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	slog.InfoContext(ctx, "Mood history cleared", "user_id", userID)
	return nil
}

// History returns the user's mood entries, oldest first.
func (s *Service) History(ctx context.Context, userID string) ([]domain.MoodEntry, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListMood(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return entries, nil
}

// CrisisRecords returns the user's crisis audit records, newest first.
func (s *Service) CrisisRecords(ctx context.Context, userID string, limit int) ([]domain.CrisisLogRecord, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}
	if s.crisis == nil {
		return nil, nil
	}
	records, err := s.crisis.ListCrisis(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load crisis records: %w", err)
	}
	return records, nil
}
