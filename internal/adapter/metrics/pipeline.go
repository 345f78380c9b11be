package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/moodpulse/internal/sentiment"
)

var _ sentiment.Recorder = (*PipelineMetrics)(nil)

// PipelineMetrics implements sentiment.Recorder.
type PipelineMetrics struct {
	AnalysisDuration *prometheus.HistogramVec
	StageAdjustments *prometheus.CounterVec
	StageFailures    *prometheus.CounterVec
	CacheEvictions   prometheus.Counter
	CrisisDetections prometheus.Counter
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		AnalysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "analysis_duration_seconds",
			Help:      "Duration of sentiment analyses, by score source (primary, fallback, cache).",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"source"}),
		StageAdjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_adjustments_total",
			Help:      "Total number of times a stage changed the score.",
		}, []string{"stage"}),
		StageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_failures_total",
			Help:      "Total number of stage errors and panics converted to no adjustment.",
		}, []string{"stage"}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "result_cache",
			Name:      "evictions_total",
			Help:      "Total number of result cache entries evicted.",
		}),
		CrisisDetections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "crisis_detections_total",
			Help:      "Total number of messages that matched crisis language.",
		}),
	}

	reg.MustRegister(m.AnalysisDuration, m.StageAdjustments, m.StageFailures, m.CacheEvictions, m.CrisisDetections)
	return m
}

func (m *PipelineMetrics) ObserveAnalysis(source string, d time.Duration) {
	m.AnalysisDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (m *PipelineMetrics) StageAdjusted(stage string) {
	m.StageAdjustments.WithLabelValues(stage).Inc()
}

func (m *PipelineMetrics) StageFailed(stage string) {
	m.StageFailures.WithLabelValues(stage).Inc()
}

func (m *PipelineMetrics) CacheEvicted(n int) {
	m.CacheEvictions.Add(float64(n))
}

func (m *PipelineMetrics) CrisisDetected() {
	m.CrisisDetections.Inc()
}
