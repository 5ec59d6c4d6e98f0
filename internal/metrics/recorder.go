package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects processing metrics in a private Prometheus registry.
// A command line run exports them with WriteTextfile for a node exporter
// textfile collector.
type Recorder struct {
	registry      *prometheus.Registry
	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	jobsTotal     *prometheus.CounterVec
	jobDuration   prometheus.Histogram
	pixelsTotal   prometheus.Counter
	activeJobs    prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rawenhance_stage_duration_seconds",
			Help:    "Duration of each enhancement stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rawenhance_stage_failures_total",
			Help: "Enhancement stages that returned an error.",
		}, []string{"stage"}),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rawenhance_jobs_total",
			Help: "Processed files by final status.",
		}, []string{"status"}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rawenhance_job_duration_seconds",
			Help:    "End-to-end duration of one file, decode to encode.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		pixelsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rawenhance_pixels_processed_total",
			Help: "Pixels written across successful jobs.",
		}),
		activeJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rawenhance_active_jobs",
			Help: "Files currently being processed.",
		}),
	}

	r.registry.MustRegister(
		r.stageDuration,
		r.stageFailures,
		r.jobsTotal,
		r.jobDuration,
		r.pixelsTotal,
		r.activeJobs,
	)
	return r
}

// ObserveStage implements core.StageObserver
func (r *Recorder) ObserveStage(stage string, duration time.Duration, err error) {
	r.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		r.stageFailures.WithLabelValues(stage).Inc()
	}
}

// JobStarted marks a file as in flight
func (r *Recorder) JobStarted() {
	r.activeJobs.Inc()
}

// JobFinished records the outcome of one file; status is "ok" or an error kind
func (r *Recorder) JobFinished(status string, duration time.Duration, pixels int) {
	r.activeJobs.Dec()
	r.jobsTotal.WithLabelValues(status).Inc()
	r.jobDuration.Observe(duration.Seconds())
	if pixels > 0 {
		r.pixelsTotal.Add(float64(pixels))
	}
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes all metrics in the Prometheus text format
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
