// Package breaker builds the circuit breakers that guard external model and storage calls.
package breaker

import (
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
)

// Defaults: open at a 60% failure rate over at least 5 calls in a 10s window,
// try again after 30s, close after one successful trial call.
const (
	FailureRate      = 0.6
	MinimumCalls     = 5
	FailureWindow    = 10 * time.Second
	OpenDelay        = 30 * time.Second
	SuccessThreshold = 1
)

// Observer is notified on every state transition.
type Observer interface {
	BreakerStateChanged(component string, state circuitbreaker.State)
}

// Settings overrides the defaults. Zero fields keep the default.
type Settings struct {
	Delay    time.Duration
	Observer Observer
}

// New returns a breaker for component with the default thresholds.
func New(component string, s Settings) circuitbreaker.CircuitBreaker[any] {
	delay := s.Delay
	if delay <= 0 {
		delay = OpenDelay
	}

	return circuitbreaker.NewBuilder[any]().
		WithFailureRateThreshold(FailureRate, MinimumCalls, FailureWindow).
		WithDelay(delay).
		WithSuccessThreshold(SuccessThreshold).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", component,
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			if s.Observer != nil {
				s.Observer.BreakerStateChanged(component, e.NewState)
			}
		}).
		Build()
}

// StateValue maps a state to the gauge encoding 0=closed, 1=half-open, 2=open.
func StateValue(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}
