package app

import (
	"context"
	"fmt"
	"time"

	"github.com/pscheid92/moodpulse/internal/domain"
)

const (
	dailyBuckets   = 30
	weeklyBuckets  = 12
	monthlyBuckets = 12

	// Scores within ±summaryNeutralBand count as neutral.
	summaryNeutralBand = 0.1
)

// AlertStatus counts entries strictly below the alert threshold that arrived after
// the last acknowledgement.
func (s *Service) AlertStatus(ctx context.Context, userID string) (domain.AlertStatus, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return domain.AlertStatus{}, err
	}

	entries, err := s.history.ListMood(ctx, userID)
	if err != nil {
		return domain.AlertStatus{}, fmt.Errorf("failed to load history: %w", err)
	}
	ackAt, err := s.history.AlertAcknowledged(ctx, userID)
	if err != nil {
		return domain.AlertStatus{}, fmt.Errorf("failed to load alert acknowledgement: %w", err)
	}

	var status domain.AlertStatus
	for _, e := range entries {
		if !ackAt.IsZero() && !e.Timestamp.After(ackAt) {
			continue
		}
		status.Total++
		if e.Score < s.cfg.AlertThreshold {
			status.BelowThreshold++
		}
	}
	status.Alert = status.BelowThreshold >= s.cfg.AlertLimit
	return status, nil
}

// AcknowledgeAlert moves the cursor past the newest history entry, so only later
// entries count toward the next alert.
func (s *Service) AcknowledgeAlert(ctx context.Context, userID string) error {
	if err := domain.ValidateUserID(userID); err != nil {
		return err
	}

	entries, err := s.history.ListMood(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	at := s.clock.Now().UTC()
	for _, e := range entries {
		if e.Timestamp.After(at) {
			at = e.Timestamp
		}
	}

	if err := s.history.AcknowledgeAlert(ctx, userID, at); err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	return nil
}

// Summary aggregates the user's whole history.
func (s *Service) Summary(ctx context.Context, userID string) (domain.MoodSummary, error) {
	entries, err := s.History(ctx, userID)
	if err != nil {
		return domain.MoodSummary{}, err
	}
	return Summarize(entries), nil
}

// Summarize counts entries as positive (> 0.1), negative (< -0.1) or neutral.
func Summarize(entries []domain.MoodEntry) domain.MoodSummary {
	sum := domain.MoodSummary{TotalEntries: len(entries)}
	if len(entries) == 0 {
		return sum
	}

	var total float64
	for _, e := range entries {
		total += e.Score
		switch {
		case e.Score > summaryNeutralBand:
			sum.PositiveCount++
		case e.Score < -summaryNeutralBand:
			sum.NegativeCount++
		default:
			sum.NeutralCount++
		}
	}
	sum.AverageScore = total / float64(len(entries))
	return sum
}

// Statistics buckets the user's history by period, ending at the current bucket.
func (s *Service) Statistics(ctx context.Context, userID string, period domain.Period) ([]domain.PeriodStat, error) {
	entries, err := s.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	return BucketStats(entries, period, s.clock.Now())
}

type bucket struct {
	label      string
	start, end time.Time
}

// BucketStats computes oldest-first buckets in now's location: 30 days, 12 weeks
// starting Monday or 12 calendar months. Empty buckets report a value of 0.
func BucketStats(entries []domain.MoodEntry, period domain.Period, now time.Time) ([]domain.PeriodStat, error) {
	buckets, err := periodBuckets(period, now)
	if err != nil {
		return nil, err
	}

	stats := make([]domain.PeriodStat, len(buckets))
	sums := make([]float64, len(buckets))
	for i, b := range buckets {
		stats[i].Label = b.label
	}

	for _, e := range entries {
		ts := e.Timestamp.In(now.Location())
		for i, b := range buckets {
			if !ts.Before(b.start) && ts.Before(b.end) {
				sums[i] += e.Score
				stats[i].Count++
				break
			}
		}
	}

	for i := range stats {
		if stats[i].Count > 0 {
			stats[i].Value = sums[i] / float64(stats[i].Count)
		}
	}
	return stats, nil
}

func periodBuckets(period domain.Period, now time.Time) ([]bucket, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var out []bucket
	switch period {
	case domain.PeriodDaily:
		for i := dailyBuckets - 1; i >= 0; i-- {
			start := today.AddDate(0, 0, -i)
			out = append(out, bucket{label: start.Format("01/02"), start: start, end: start.AddDate(0, 0, 1)})
		}
	case domain.PeriodWeekly:
		monday := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
		for i := weeklyBuckets - 1; i >= 0; i-- {
			start := monday.AddDate(0, 0, -7*i)
			out = append(out, bucket{label: "Week " + start.Format("01/02"), start: start, end: start.AddDate(0, 0, 7)})
		}
	case domain.PeriodMonthly:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		for i := monthlyBuckets - 1; i >= 0; i-- {
			start := first.AddDate(0, -i, 0)
			out = append(out, bucket{label: start.Format("Jan 2006"), start: start, end: start.AddDate(0, 1, 0)})
		}
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPeriod, period)
	}
	return out, nil
}
