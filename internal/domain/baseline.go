package domain

import "context"

// HourlyBaselines maps hour-of-day (0-23) to the EMA baseline for that hour.
// Missing hours have not been observed yet.
type HourlyBaselines map[int]float64

// BaselineStore persists a user's circadian profile keyed by hour bucket.
// Load returns ErrStateCorruption when the stored profile cannot be decoded.
type BaselineStore interface {
	LoadBaselines(ctx context.Context, userID string) (HourlyBaselines, error)
	SaveBaseline(ctx context.Context, userID string, hour int, value float64) error
	ClearBaselines(ctx context.Context, userID string) error
}
