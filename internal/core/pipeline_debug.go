// Stage-level debugging for the enhancement pipeline
package core

import (
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// StageOperation is one executed stage as seen by the debugger
type StageOperation struct {
	Timestamp time.Time
	Stage     string
	Success   bool
	Duration  time.Duration
	Error     string
}

// PipelineDebugger logs every stage at debug level and keeps running
// per-stage timings. It is safe for concurrent use.
type PipelineDebugger struct {
	logger *logrus.Logger

	mu         sync.Mutex
	operations []StageOperation
	totals     map[string]*stageTotals
}

const maxRecentOperations = 64

func NewPipelineDebugger(logger *logrus.Logger) *PipelineDebugger {
	return &PipelineDebugger{
		logger:    logger,
		totals:    make(map[string]*stageTotals),
	}
}

// ObserveStage implements StageObserver
func (pd *PipelineDebugger) ObserveStage(stage string, duration time.Duration, err error) {
	op := StageOperation{
		Timestamp: time.Now(),
		Stage:     stage,
		Success:   err == nil,
		Duration:  duration,
	}
	if err != nil {
		op.Error = err.Error()
	}

	pd.mu.Lock()
	pd.operations = append(pd.operations, op)
	if len(pd.operations) > maxRecentOperations {
		pd.operations = pd.operations[len(pd.operations)-maxRecentOperations:]
	}
	totals, ok := pd.totals[stage]
	if !ok {
		totals = &stageTotals{}
		pd.totals[stage] = totals
	}
	totals.calls++
	totals.elapsed += duration
	if err != nil {
		totals.failures++
	}
	pd.mu.Unlock()

	entry := pd.logger.WithFields(logrus.Fields{
		"stage":       stage,
		"success":     op.Success,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Debug("Stage failed")
		return
	}
	entry.Debug("Stage complete")
}

// Recent returns the last executed stages, oldest first
func (pd *PipelineDebugger) Recent() []StageOperation {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	return append([]StageOperation{}, pd.operations...)
}

// Stats summarizes call counts, failures and mean duration per stage
func (pd *PipelineDebugger) Stats() map[string]interface{} {
	pd.mu.Lock()
	defer pd.mu.Unlock()

	stats := make(map[string]interface{}, len(pd.totals))
	for stage, totals := range pd.totals {
		stats[stage] = map[string]interface{}{
			"calls":        totals.calls,
			"failures":     totals.failures,
			"avg_duration": totals.average().String(),
		}
	}
	return stats
}

// LogSummary writes Stats and Go heap usage at debug level
func (pd *PipelineDebugger) LogSummary() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	pd.logger.WithFields(logrus.Fields{
		"stages":        pd.Stats(),
		"heap_alloc_mb": float64(m.Alloc) / 1024 / 1024,
		"sys_mb":        float64(m.Sys) / 1024 / 1024,
		"num_gc":        m.NumGC,
	}).Debug("Pipeline debug summary")
}

// stageTotals are running sums, so memory stays constant over long sessions
type stageTotals struct {
	calls    int
	failures int
	elapsed  time.Duration
}

func (t *stageTotals) average() time.Duration {
	if t.calls == 0 {
		return 0
	}
	return t.elapsed / time.Duration(t.calls)
}

// Observers fans stage outcomes out to several observers; nil entries are skipped
type Observers []StageObserver

func (o Observers) ObserveStage(stage string, duration time.Duration, err error) {
	for _, observer := range o {
		if observer != nil {
			observer.ObserveStage(stage, duration, err)
		}
	}
}
