package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/pscheid92/moodpulse/internal/platform/crypto"
)

var (
	_ domain.BaselineStore = (*Store)(nil)
	_ domain.CrisisLog     = (*Store)(nil)
	_ domain.MoodHistory   = (*Store)(nil)
)

// Store keeps mood entries and crisis records as sealed payloads. Only the columns
// needed for ordering and lookup are stored in the clear.
type Store struct {
	pool   *pgxpool.Pool
	cipher crypto.Service
}

// NewStore creates a store. A nil cipher stores payloads as plain JSON.
func NewStore(pool *pgxpool.Pool, cipher crypto.Service) *Store {
	if cipher == nil {
		cipher = crypto.NoopService{}
	}
	return &Store{pool: pool, cipher: cipher}
}

func (s *Store) LoadBaselines(ctx context.Context, userID string) (domain.HourlyBaselines, error) {
	rows, err := s.pool.Query(ctx, `SELECT hour, value FROM circadian_baselines WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load baselines: %w", err)
	}
	defer rows.Close()

	out := domain.HourlyBaselines{}
	for rows.Next() {
		var (
			hour  int16
			value float64
		)
		if err := rows.Scan(&hour, &value); err != nil {
			return nil, fmt.Errorf("%w: baseline row: %w", domain.ErrStateCorruption, err)
		}
		out[int(hour)] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load baselines: %w", err)
	}
	return out, nil
}

func (s *Store) SaveBaseline(ctx context.Context, userID string, hour int, value float64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO circadian_baselines (user_id, hour, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, hour) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		userID, hour, value)
	if err != nil {
		return fmt.Errorf("failed to save baseline: %w", err)
	}
	return nil
}

func (s *Store) ClearBaselines(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM circadian_baselines WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear baselines: %w", err)
	}
	return nil
}

// AppendMood inserts and trims in one transaction so the user never holds more
// than MaxHistoryEntries rows.
func (s *Store) AppendMood(ctx context.Context, userID string, entry domain.MoodEntry) error {
	entry.Timestamp = entry.Timestamp.UTC()
	entry.Score = domain.ClampScore(entry.Score)
	payload, err := crypto.Seal(s.cipher, entry)
	if err != nil {
		return fmt.Errorf("failed to seal mood entry: %w", err)
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO mood_entries (user_id, recorded_at, payload) VALUES ($1, $2, $3)`,
			userID, entry.Timestamp, payload); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			DELETE FROM mood_entries
			WHERE user_id = $1 AND id <= (
				SELECT id FROM mood_entries WHERE user_id = $1
				ORDER BY id DESC OFFSET $2 LIMIT 1
			)`, userID, domain.MaxHistoryEntries)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to append mood entry: %w", err)
	}
	return nil
}

func (s *Store) ListMood(ctx context.Context, userID string) ([]domain.MoodEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM mood_entries WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mood history: %w", err)
	}

	payloads, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan mood history: %w", err)
	}

	entries := make([]domain.MoodEntry, 0, len(payloads))
	for _, p := range payloads {
		e, err := crypto.Open[domain.MoodEntry](s.cipher, p)
		if err != nil {
			return nil, fmt.Errorf("%w: mood entry: %w", domain.ErrStateCorruption, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *Store) ClearMood(ctx context.Context, userID string) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM mood_entries WHERE user_id = $1`, userID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM alert_acknowledgements WHERE user_id = $1`, userID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to clear mood history: %w", err)
	}
	return nil
}

func (s *Store) AlertAcknowledged(ctx context.Context, userID string) (time.Time, error) {
	var at time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT acknowledged_at FROM alert_acknowledgements WHERE user_id = $1`, userID).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load alert acknowledgement: %w", err)
	}
	return at, nil
}

func (s *Store) AcknowledgeAlert(ctx context.Context, userID string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO alert_acknowledgements (user_id, acknowledged_at) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET acknowledged_at = EXCLUDED.acknowledged_at`,
		userID, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	return nil
}

func (s *Store) AppendCrisis(ctx context.Context, record domain.CrisisLogRecord) error {
	record.Timestamp = record.Timestamp.UTC()
	payload, err := crypto.Seal(s.cipher, record)
	if err != nil {
		return fmt.Errorf("failed to seal crisis record: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO crisis_log (id, user_id, occurred_at, payload)
		VALUES ($1, $2, $3, $4)`,
		record.ID.String(), record.UserID, record.Timestamp, payload)
	if err != nil {
		return fmt.Errorf("failed to append crisis record: %w", err)
	}
	return nil
}

// ListCrisis returns records newest first. limit <= 0 returns all. Records that
// cannot be opened are skipped.
func (s *Store) ListCrisis(ctx context.Context, userID string, limit int) ([]domain.CrisisLogRecord, error) {
	query := `SELECT id::text, payload
		FROM crisis_log WHERE user_id = $1 ORDER BY occurred_at DESC, created_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list crisis records: %w", err)
	}

	type row struct {
		id      string
		payload string
	}
	raw, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (row, error) {
		var out row
		err := r.Scan(&out.id, &out.payload)
		return out, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan crisis records: %w", err)
	}

	records := make([]domain.CrisisLogRecord, 0, len(raw))
	for _, r := range raw {
		rec, err := crypto.Open[domain.CrisisLogRecord](s.cipher, r.payload)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable crisis record", "id", r.id, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
