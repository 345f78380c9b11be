package domain

import (
	"math"
	"time"
)

// Message is a single piece of text submitted for scoring. Immutable once scored.
type Message struct {
	Text      string
	Timestamp time.Time
}

// ScoreSample is a final score together with the time its message was written.
type ScoreSample struct {
	Score     float64
	Timestamp time.Time
}

// ConfidenceSource reports which scorer produced a base score.
type ConfidenceSource int

const (
	SourcePrimary  ConfidenceSource = iota // primary model blended with the lexicon estimate
	SourceFallback                         // lexicon estimate only
)

func (s ConfidenceSource) String() string {
	switch s {
	case SourcePrimary:
		return "primary"
	case SourceFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// MinScore and MaxScore bound every score that is returned or persisted.
const (
	MinScore = -1.0
	MaxScore = 1.0
)

// ClampScore limits v to [MinScore, MaxScore]. NaN is treated as neutral.
func ClampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return max(MinScore, min(MaxScore, v))
}
