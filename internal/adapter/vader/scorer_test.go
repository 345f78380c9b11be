package vader

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnhancement(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"plain", "i went to the store", 0},
		{"elongated", "yayyy", 0.3 + 0.5},
		{"non-positive repeat", "zzzz", 0},
		{"excited caps", "LETS GO", 0.25},
		{"many caps words", "THE BUS CAME LATE", 0.2},
		{"exclamation capped", "nice!!!!!", 0.3},
		{"question exclamation", "really?!", 0.1 + 0.2},
		{"emoticon once", "ok :) :D", 0.2},
		{"action word", "i am winning", 0.2},
		{"overwhelming phrase", "best day", 0.3},
		{"negative slang", "ugh", -0.2},
		{"multi-word negative", "kill me", -0.5},
		{"word boundary", "ripple", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Enhancement(tt.text), 1e-9)
		})
	}
}

func TestPositiveRepeats(t *testing.T) {
	assert.Equal(t, 0, positiveRepeats("hello"))
	assert.Equal(t, 1, positiveRepeats("wooooo"))
	assert.Equal(t, 2, positiveRepeats("yayyy wooo"))
	assert.Equal(t, 0, positiveRepeats("hmmm"))
}

func TestCombine(t *testing.T) {
	assert.InDelta(t, 0.4, Combine(-0.05, 0.42), 1e-9)
	assert.InDelta(t, 0.6, Combine(0.1, 0.5), 1e-9)
	assert.InDelta(t, -0.3, Combine(-0.5, 0.2), 1e-9)
	assert.Equal(t, 1.0, Combine(0.9, 0.8))
	assert.Equal(t, -1.0, Combine(-0.9, -0.5))
}

func TestScorer_Polarity(t *testing.T) {
	s := NewScorer()

	assert.Greater(t, s.Score("I love this, it is wonderful"), 0.3)
	assert.Less(t, s.Score("I hate this, it is terrible and awful"), -0.3)
	assert.Equal(t, 0.0, s.Score("   "))
}

func TestScorer_Bounds(t *testing.T) {
	s := NewScorer()
	for _, text := range []string{
		"YESSS WOOO LETS GO AMAZING!!!! :D best day so happy yayyyy",
		"ugh kill me end me cringe yikes oof this is horrible and awful",
	} {
		v := s.Score(text)
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestScorer_Concurrent(t *testing.T) {
	s := NewScorer()
	want := s.Score("what a great day")

	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			assert.InDelta(t, want, s.Score("what a great day"), 1e-12)
		})
	}
	wg.Wait()
}
