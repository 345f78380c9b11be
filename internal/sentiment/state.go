package sentiment

import (
	"math"
	"sync"

	"github.com/pscheid92/moodpulse/internal/domain"
)

const (
	AnomalyWindowSize      = 10
	ConversationWindowSize = 5
	hoursPerDay            = 24
)

// State is the per-handle history the stateful stages read and update.
// A caller chooses the granularity: one State per user, or one shared State.
// The Analyzer holds mu for the whole of a pipeline run.
type State struct {
	mu     sync.Mutex
	userID string

	anomaly      *fifo[float64]
	conversation *fifo[conversationEntry]
	circadian    map[int]float64
}

type conversationEntry struct {
	words     []string
	embedding []float32
}

func NewState(userID string) *State {
	return &State{
		userID:       userID,
		anomaly:      newFIFO[float64](AnomalyWindowSize),
		conversation: newFIFO[conversationEntry](ConversationWindowSize),
		circadian:    make(map[int]float64, hoursPerDay),
	}
}

func (s *State) UserID() string { return s.userID }

// LoadBaselines replaces the circadian profile. Entries outside the hour range or
// the score range are dropped; the rest of the profile is kept.
func (s *State) LoadBaselines(baselines domain.HourlyBaselines) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.circadian = make(map[int]float64, hoursPerDay)
	dropped := 0
	for hour, v := range baselines {
		if hour < 0 || hour >= hoursPerDay || math.IsNaN(v) || v < domain.MinScore || v > domain.MaxScore {
			dropped++
			continue
		}
		s.circadian[hour] = v
	}
	return dropped
}

// Baselines returns a copy of the circadian profile.
func (s *State) Baselines() domain.HourlyBaselines {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(domain.HourlyBaselines, len(s.circadian))
	for h, v := range s.circadian {
		out[h] = v
	}
	return out
}

// AnomalyScores returns the anomaly window, oldest first.
func (s *State) AnomalyScores() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anomaly.values()
}

// ConversationLen returns the number of messages in the conversation window.
func (s *State) ConversationLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversation.len()
}

// Reset clears all windows and the circadian profile.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anomaly.clear()
	s.conversation.clear()
	s.circadian = make(map[int]float64, hoursPerDay)
}

func (s *State) baseline(hour int) (float64, bool) {
	v, ok := s.circadian[hour]
	return v, ok
}

// updateBaseline folds score into the hour's EMA. An unseen hour starts at score.
func (s *State) updateBaseline(hour int, score float64) float64 {
	old, ok := s.circadian[hour]
	if !ok {
		s.circadian[hour] = score
		return score
	}
	next := (1-circadianAlpha)*old + circadianAlpha*score
	s.circadian[hour] = next
	return next
}

// fifo is a fixed-capacity window that drops its oldest element on overflow.
type fifo[T any] struct {
	items    []T
	capacity int
}

func newFIFO[T any](capacity int) *fifo[T] {
	return &fifo[T]{items: make([]T, 0, capacity), capacity: capacity}
}

func (f *fifo[T]) push(v T) {
	if len(f.items) == f.capacity {
		copy(f.items, f.items[1:])
		f.items = f.items[:len(f.items)-1]
	}
	f.items = append(f.items, v)
}

func (f *fifo[T]) values() []T {
	out := make([]T, len(f.items))
	copy(out, f.items)
	return out
}

func (f *fifo[T]) len() int { return len(f.items) }

func (f *fifo[T]) clear() { f.items = f.items[:0] }
