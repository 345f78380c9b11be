package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/pscheid92/moodpulse/internal/platform/crypto"
	goredis "github.com/redis/go-redis/v9"
)

var (
	_ domain.BaselineStore = (*Store)(nil)
	_ domain.CrisisLog     = (*Store)(nil)
	_ domain.MoodHistory   = (*Store)(nil)
)

// Store keeps each user's data under its own keys:
//
//	moodpulse:baselines:{user}  hash   hour -> baseline
//	moodpulse:history:{user}    list   sealed MoodEntry, oldest first
//	moodpulse:alert_ack:{user}  string RFC 3339 timestamp
//	moodpulse:crisis:{user}     stream one sealed record per detection
type Store struct {
	rdb    *goredis.Client
	cipher crypto.Service
}

// NewStore creates a store. A nil cipher stores payloads as plain JSON.
func NewStore(rdb *goredis.Client, cipher crypto.Service) *Store {
	if cipher == nil {
		cipher = crypto.NoopService{}
	}
	return &Store{rdb: rdb, cipher: cipher}
}

func baselinesKey(userID string) string { return "moodpulse:baselines:" + userID }
func historyKey(userID string) string   { return "moodpulse:history:" + userID }
func alertAckKey(userID string) string  { return "moodpulse:alert_ack:" + userID }
func crisisKey(userID string) string    { return "moodpulse:crisis:" + userID }

func (s *Store) LoadBaselines(ctx context.Context, userID string) (domain.HourlyBaselines, error) {
	fields, err := s.rdb.HGetAll(ctx, baselinesKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load baselines: %w", err)
	}

	out := make(domain.HourlyBaselines, len(fields))
	for k, v := range fields {
		hour, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("%w: baseline hour %q", domain.ErrStateCorruption, k)
		}
		value, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: baseline value %q", domain.ErrStateCorruption, v)
		}
		out[hour] = value
	}
	return out, nil
}

func (s *Store) SaveBaseline(ctx context.Context, userID string, hour int, value float64) error {
	err := s.rdb.HSet(ctx, baselinesKey(userID), strconv.Itoa(hour), strconv.FormatFloat(value, 'g', -1, 64)).Err()
	if err != nil {
		return fmt.Errorf("failed to save baseline: %w", err)
	}
	return nil
}

func (s *Store) ClearBaselines(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, baselinesKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear baselines: %w", err)
	}
	return nil
}

// AppendMood pushes and trims in one transaction so the list never exceeds the cap.
func (s *Store) AppendMood(ctx context.Context, userID string, entry domain.MoodEntry) error {
	data, err := crypto.Seal(s.cipher, entry)
	if err != nil {
		return fmt.Errorf("failed to seal mood entry: %w", err)
	}

	key := historyKey(userID)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -domain.MaxHistoryEntries, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append mood pipeline failed: %w", err)
	}
	return nil
}

func (s *Store) ListMood(ctx context.Context, userID string) ([]domain.MoodEntry, error) {
	raw, err := s.rdb.LRange(ctx, historyKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list mood history: %w", err)
	}

	entries := make([]domain.MoodEntry, 0, len(raw))
	for _, item := range raw {
		e, err := crypto.Open[domain.MoodEntry](s.cipher, item)
		if err != nil {
			return nil, fmt.Errorf("%w: mood entry: %w", domain.ErrStateCorruption, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *Store) ClearMood(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, historyKey(userID), alertAckKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear mood history: %w", err)
	}
	return nil
}

func (s *Store) AlertAcknowledged(ctx context.Context, userID string) (time.Time, error) {
	raw, err := s.rdb.Get(ctx, alertAckKey(userID)).Result()
	if errors.Is(err, goredis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load alert acknowledgement: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: alert acknowledgement %q", domain.ErrStateCorruption, raw)
	}
	return at, nil
}

func (s *Store) AcknowledgeAlert(ctx context.Context, userID string, at time.Time) error {
	if err := s.rdb.Set(ctx, alertAckKey(userID), at.UTC().Format(time.RFC3339Nano), 0).Err(); err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	return nil
}

func (s *Store) AppendCrisis(ctx context.Context, record domain.CrisisLogRecord) error {
	data, err := crypto.Seal(s.cipher, record)
	if err != nil {
		return fmt.Errorf("failed to seal crisis record: %w", err)
	}
	err = s.rdb.XAdd(ctx, &goredis.XAddArgs{
		Stream: crisisKey(record.UserID),
		Values: map[string]any{"record": data},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to append crisis record: %w", err)
	}
	return nil
}

// ListCrisis returns records newest first. limit <= 0 returns all.
func (s *Store) ListCrisis(ctx context.Context, userID string, limit int) ([]domain.CrisisLogRecord, error) {
	var (
		messages []goredis.XMessage
		err      error
	)
	if limit > 0 {
		messages, err = s.rdb.XRevRangeN(ctx, crisisKey(userID), "+", "-", int64(limit)).Result()
	} else {
		messages, err = s.rdb.XRevRange(ctx, crisisKey(userID), "+", "-").Result()
	}
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("failed to list crisis records: %w", err)
	}

	records := make([]domain.CrisisLogRecord, 0, len(messages))
	for _, msg := range messages {
		raw, ok := msg.Values["record"].(string)
		if !ok {
			continue
		}
		rec, err := crypto.Open[domain.CrisisLogRecord](s.cipher, raw)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed crisis record", "stream_id", msg.ID, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
