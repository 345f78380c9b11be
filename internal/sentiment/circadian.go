package sentiment

import (
	"context"
	"log/slog"

	"github.com/pscheid92/moodpulse/internal/domain"
)

const (
	circadianAlpha    = 0.1
	circadianDampener = 0.2
)

// CircadianBaselineTracker pulls a score 20% of the way toward the user's EMA
// baseline for the current hour. The baseline absorbs the final score after the run
// and is written through to the store.
type CircadianBaselineTracker struct {
	store domain.BaselineStore
}

// NewCircadianBaselineTracker creates the tracker. store may be nil for in-memory use.
func NewCircadianBaselineTracker(store domain.BaselineStore) *CircadianBaselineTracker {
	return &CircadianBaselineTracker{store: store}
}

func (c *CircadianBaselineTracker) Apply(ctx context.Context, score float64, turn *Turn) (float64, error) {
	state := turn.State
	hour := turn.Timestamp.Hour()

	turn.onCommit(func(final float64) {
		value := state.updateBaseline(hour, final)
		if c.store == nil {
			return
		}
		if err := c.store.SaveBaseline(ctx, state.UserID(), hour, value); err != nil {
			slog.ErrorContext(ctx, "Failed to persist circadian baseline", "user_id", state.UserID(), "hour", hour, "error", err)
		}
	})

	baseline, ok := state.baseline(hour)
	if !ok {
		return score, nil
	}
	return score - circadianDampener*(score-baseline), nil
}
