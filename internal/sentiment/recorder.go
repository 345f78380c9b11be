package sentiment

import "time"

// Recorder receives pipeline telemetry. Implemented by the Prometheus adapter.
type Recorder interface {
	ObserveAnalysis(source string, duration time.Duration)
	StageAdjusted(stage string)
	StageFailed(stage string)
	CacheEvicted(n int)
	CrisisDetected()
}

// NopRecorder discards all telemetry.
type NopRecorder struct{}

func (NopRecorder) ObserveAnalysis(string, time.Duration) {}
func (NopRecorder) StageAdjusted(string)                  {}
func (NopRecorder) StageFailed(string)                    {}
func (NopRecorder) CacheEvicted(int)                      {}
func (NopRecorder) CrisisDetected()                       {}
