package sentiment

import (
	"context"
	"math"
)

const (
	anomalyMinSamples    = 2
	anomalyZThreshold    = -2.0
	anomalySlope         = 0.05
	anomalyMaxAdjustment = 0.20
	minStdDev            = 1e-9
)

// StatisticalAnomalyDetector pushes down scores that fall more than two standard
// deviations below the recent mean. The window records the score entering this
// stage, never the adjusted one.
type StatisticalAnomalyDetector struct{}

func NewStatisticalAnomalyDetector() *StatisticalAnomalyDetector {
	return &StatisticalAnomalyDetector{}
}

func (d *StatisticalAnomalyDetector) Apply(_ context.Context, score float64, turn *Turn) (float64, error) {
	state := turn.State
	window := state.anomaly.values()
	turn.onCommit(func(float64) { state.anomaly.push(score) })

	adj := anomalyAdjustment(window, score)
	if adj == 0 {
		return score, nil
	}
	turn.flag("statistical_anomaly")
	return score - adj, nil
}

func anomalyAdjustment(window []float64, score float64) float64 {
	if len(window) < anomalyMinSamples {
		return 0
	}
	mean, sd := meanStdDev(window)
	if sd < minStdDev {
		return 0
	}
	z := (score - mean) / sd
	if z >= anomalyZThreshold {
		return 0
	}
	return min(anomalyMaxAdjustment, anomalySlope*(anomalyZThreshold-z))
}

// meanStdDev returns the mean and population standard deviation of xs.
func meanStdDev(xs []float64) (float64, float64) {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}
