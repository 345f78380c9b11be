package sentiment

import (
	"math"
	"testing"

	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestState_LoadBaselinesDropsInvalidEntries(t *testing.T) {
	s := NewState("u1")

	dropped := s.LoadBaselines(domain.HourlyBaselines{
		0:  0.1,
		23: -0.4,
		24: 0.2,
		-1: 0.2,
		5:  1.5,
		6:  math.NaN(),
	})

	assert.Equal(t, 4, dropped)
	assert.Equal(t, domain.HourlyBaselines{0: 0.1, 23: -0.4}, s.Baselines())
}

func TestState_BaselinesReturnsCopy(t *testing.T) {
	s := NewState("u1")
	s.LoadBaselines(domain.HourlyBaselines{3: 0.2})

	b := s.Baselines()
	b[3] = 0.9

	assert.Equal(t, 0.2, s.Baselines()[3])
}

func TestState_CircadianEMAConverges(t *testing.T) {
	const (
		v0   = 0.4
		v    = -0.6
		hour = 9
	)
	s := NewState("u1")
	s.LoadBaselines(domain.HourlyBaselines{hour: v0})

	for n := 1; n <= 25; n++ {
		got := s.updateBaseline(hour, v)
		want := v - (v-v0)*math.Pow(0.9, float64(n))
		assert.InDelta(t, want, got, 1e-9, "after %d updates", n)
	}
}

func TestState_CircadianColdStartTakesFirstScore(t *testing.T) {
	s := NewState("u1")

	_, ok := s.baseline(7)
	assert.False(t, ok)

	assert.Equal(t, 0.3, s.updateBaseline(7, 0.3))
	assert.Len(t, s.Baselines(), 1)
}

func TestState_WindowsNeverExceedCapacity(t *testing.T) {
	s := NewState("u1")

	for i := range 15 {
		s.anomaly.push(float64(i))
		s.conversation.push(conversationEntry{words: []string{"w"}})
	}

	assert.Equal(t, []float64{5, 6, 7, 8, 9, 10, 11, 12, 13, 14}, s.AnomalyScores())
	assert.Equal(t, ConversationWindowSize, s.ConversationLen())
}

func TestState_Reset(t *testing.T) {
	s := NewState("u1")
	s.anomaly.push(0.1)
	s.conversation.push(conversationEntry{})
	s.updateBaseline(1, 0.1)

	s.Reset()

	assert.Empty(t, s.AnomalyScores())
	assert.Zero(t, s.ConversationLen())
	assert.Empty(t, s.Baselines())
}
