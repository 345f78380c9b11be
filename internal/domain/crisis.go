package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CrisisLogRecord is an audit entry for a positive crisis detection. Never mutated.
// TextRef is a stable hash of the message; the text itself is not stored.
type CrisisLogRecord struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	TextRef   string    `json:"text_ref"`
	Matched   []string  `json:"matched"`
	Score     float64   `json:"score"`
}

// CrisisLog is the append-only crisis audit store.
type CrisisLog interface {
	AppendCrisis(ctx context.Context, record CrisisLogRecord) error
	ListCrisis(ctx context.Context, userID string, limit int) ([]CrisisLogRecord, error)
}
