package metrics

import (
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/moodpulse/internal/platform/breaker"
)

// RedisMetrics implements the redis adapter's OpRecorder.
type RedisMetrics struct {
	OpsTotal         *prometheus.CounterVec
	OpDuration       *prometheus.HistogramVec
	ConnectionErrors prometheus.Counter
}

func NewRedisMetrics(reg prometheus.Registerer) *RedisMetrics {
	m := &RedisMetrics{
		OpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "operations_total",
			Help:      "Total Redis operations by operation and status.",
		}, []string{"operation", "status"}),
		OpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "operation_duration_seconds",
			Help:      "Redis operation duration in seconds.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		ConnectionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "connection_errors_total",
			Help:      "Total Redis connection errors.",
		}),
	}

	reg.MustRegister(m.OpsTotal, m.OpDuration, m.ConnectionErrors)
	return m
}

func (m *RedisMetrics) ObserveRedisOp(operation, status string, d time.Duration) {
	m.OpsTotal.WithLabelValues(operation, status).Inc()
	m.OpDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *RedisMetrics) RedisConnectionError() {
	m.ConnectionErrors.Inc()
}

// DBMetrics implements the postgres adapter's QueryRecorder.
type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
	ErrorsTotal   *prometheus.CounterVec
}

func NewDBMetrics(reg prometheus.Registerer) *DBMetrics {
	m := &DBMetrics{
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds, by leading SQL keyword.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"query"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "errors_total",
			Help:      "Total database query errors.",
		}, []string{"query"}),
	}

	reg.MustRegister(m.QueryDuration, m.ErrorsTotal)
	return m
}

func (m *DBMetrics) ObserveDBQuery(query string, d time.Duration, err error) {
	m.QueryDuration.WithLabelValues(query).Observe(d.Seconds())
	if err != nil {
		m.ErrorsTotal.WithLabelValues(query).Inc()
	}
}

var _ breaker.Observer = (*BreakerMetrics)(nil)

// BreakerMetrics tracks circuit breaker transitions for every guarded dependency.
type BreakerMetrics struct {
	StateChanges *prometheus.CounterVec
	State        *prometheus.GaugeVec
}

func NewBreakerMetrics(reg prometheus.Registerer) *BreakerMetrics {
	m := &BreakerMetrics{
		StateChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "circuit_breaker",
			Name:      "state_changes_total",
			Help:      "Circuit breaker state transitions by component and new state.",
		}, []string{"component", "state"}),
		State: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "circuit_breaker",
			Name:      "state",
			Help:      "Current circuit breaker state (0=closed, 1=half-open, 2=open).",
		}, []string{"component"}),
	}

	reg.MustRegister(m.StateChanges, m.State)
	return m
}

func (m *BreakerMetrics) BreakerStateChanged(component string, state circuitbreaker.State) {
	m.StateChanges.WithLabelValues(component, state.String()).Inc()
	m.State.WithLabelValues(component).Set(breaker.StateValue(state))
}

// StateMetrics tracks the per-user state registry.
type StateMetrics struct {
	Active    prometheus.Gauge
	Evictions prometheus.Counter
}

func NewStateMetrics(reg prometheus.Registerer) *StateMetrics {
	m := &StateMetrics{
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "states",
			Name:      "active",
			Help:      "Number of per-user analysis states held in memory.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "states",
			Name:      "evictions_total",
			Help:      "Total number of idle per-user states evicted.",
		}),
	}

	reg.MustRegister(m.Active, m.Evictions)
	return m
}

func (m *StateMetrics) StatesActive(n int) { m.Active.Set(float64(n)) }
func (m *StateMetrics) StatesEvicted(n int) { m.Evictions.Add(float64(n)) }
