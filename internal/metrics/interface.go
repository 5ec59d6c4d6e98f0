// Image quality metrics comparing a raster before and after enhancement
package metrics

import (
	"fmt"
	"sort"

	"gocv.io/x/gocv"
)

// Metric defines the interface for quality metrics
type Metric interface {
	// Calculate computes the metric value
	Calculate(original, processed gocv.Mat) (float64, error)

	// GetName returns the metric name
	GetName() string

	// IsHigherBetter returns true if higher values indicate better quality
	IsHigherBetter() bool
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator creates a new metrics evaluator
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		metrics: make(map[string]Metric),
	}

	e.RegisterDefaultMetrics()

	return e
}

// RegisterDefaultMetrics registers all default metrics
func (e *Evaluator) RegisterDefaultMetrics() {
	e.Register("psnr", NewPSNR())
	e.Register("mse", NewMSE())
	e.Register("variance_ratio", NewVarianceRatio())
	e.Register("sharpness_ratio", NewSharpness())
}

// Register registers a metric
func (e *Evaluator) Register(name string, metric Metric) {
	e.metrics[name] = metric
}

// Names returns the registered metric names, sorted
func (e *Evaluator) Names() []string {
	names := make([]string, 0, len(e.metrics))
	for name := range e.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Calculate calculates a specific metric
func (e *Evaluator) Calculate(name string, original, processed gocv.Mat) (float64, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return 0, fmt.Errorf("metric not found: %s", name)
	}

	return metric.Calculate(original, processed)
}

// CalculateAll calculates all registered metrics, skipping those that fail
func (e *Evaluator) CalculateAll(original, processed gocv.Mat) map[string]float64 {
	results := make(map[string]float64)

	for name, metric := range e.metrics {
		if value, err := metric.Calculate(original, processed); err == nil {
			results[name] = value
		}
	}

	return results
}

// Score is one metric result together with how to read it
type Score struct {
	Key            string
	Name           string
	Value          float64
	HigherIsBetter bool
}

// String renders the score for logs, e.g. "PSNR 31.20 (higher is better)"
func (s Score) String() string {
	direction := "lower is better"
	if s.HigherIsBetter {
		direction = "higher is better"
	}
	return fmt.Sprintf("%s %.2f (%s)", s.Name, s.Value, direction)
}

// Scores calculates every registered metric in key order, skipping those that fail
func (e *Evaluator) Scores(original, processed gocv.Mat) []Score {
	var scores []Score
	for _, key := range e.Names() {
		metric := e.metrics[key]
		value, err := metric.Calculate(original, processed)
		if err != nil {
			continue
		}
		scores = append(scores, Score{
			Key:            key,
			Name:           metric.GetName(),
			Value:          value,
			HigherIsBetter: metric.IsHigherBetter(),
		})
	}
	return scores
}

// CalculatePSNR calculates PSNR between two images
func (e *Evaluator) CalculatePSNR(original, processed gocv.Mat) (float64, error) {
	return e.Calculate("psnr", original, processed)
}
