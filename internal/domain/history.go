package domain

import (
	"context"
	"time"
)

// MaxHistoryEntries bounds a user's persisted mood history.
const MaxHistoryEntries = 10000

// MoodEntry is a privacy-safe history record: no text, only when and how.
type MoodEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Score     float64   `json:"score"`
}

// MoodHistory persists scored entries per user, oldest first, together with the
// alert acknowledgement cursor. ClearMood drops both.
type MoodHistory interface {
	AppendMood(ctx context.Context, userID string, entry MoodEntry) error
	ListMood(ctx context.Context, userID string) ([]MoodEntry, error)
	ClearMood(ctx context.Context, userID string) error

	// AlertAcknowledged returns the zero time when no alert was acknowledged yet.
	AlertAcknowledged(ctx context.Context, userID string) (time.Time, error)
	AcknowledgeAlert(ctx context.Context, userID string, at time.Time) error
}

// Period selects the bucket size for mood statistics.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod converts a string to a Period.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return Period(s), nil
	case "":
		return PeriodDaily, nil
	default:
		return "", ErrUnknownPeriod
	}
}

// PeriodStat is one bucket of mood statistics.
type PeriodStat struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// MoodSummary aggregates a user's whole history.
type MoodSummary struct {
	TotalEntries  int     `json:"total_entries"`
	AverageScore  float64 `json:"avg_score"`
	PositiveCount int     `json:"positive_count"`
	NegativeCount int     `json:"negative_count"`
	NeutralCount  int     `json:"neutral_count"`
}

// AlertStatus reports how many strongly negative entries arrived since the last acknowledgement.
type AlertStatus struct {
	BelowThreshold int  `json:"below_threshold"`
	Total          int  `json:"total"`
	Alert          bool `json:"alert"`
}
