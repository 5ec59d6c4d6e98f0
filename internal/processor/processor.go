// Orchestration: input check, decode, enhance, encode
package processor

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"raw-image-processor/internal/core"
	"raw-image-processor/internal/io"
	"raw-image-processor/internal/metrics"
	"raw-image-processor/internal/params"
)

// Request describes one file to process
type Request struct {
	InputPath  string
	OutputPath string
	Params     params.FilterParameters
}

// Result is what front-ends show to the user
type Result struct {
	OK         bool
	OutputPath string
	Status     string
	Kind       string
	Err        error
	Duration   time.Duration
}

// Processor runs single-file jobs. It keeps no per-job state, so one
// instance serves concurrent callers.
type Processor struct {
	decoder   io.Decoder
	encoder   io.Encoder
	pipeline  *core.Pipeline
	evaluator *metrics.Evaluator
	recorder  *metrics.Recorder
	debugger  *core.PipelineDebugger
	logger    *logrus.Logger
}

// Option configures a Processor
type Option func(*Processor)

// WithRecorder counts jobs and pixels in recorder
func WithRecorder(recorder *metrics.Recorder) Option {
	return func(p *Processor) {
		p.recorder = recorder
	}
}

// WithDebugger logs a stage summary after every Run
func WithDebugger(debugger *core.PipelineDebugger) Option {
	return func(p *Processor) {
		p.debugger = debugger
	}
}

// WithEvaluator overrides the metrics used for the debug quality report
func WithEvaluator(evaluator *metrics.Evaluator) Option {
	return func(p *Processor) {
		p.evaluator = evaluator
	}
}

func New(decoder io.Decoder, encoder io.Encoder, pipeline *core.Pipeline, logger *logrus.Logger, opts ...Option) *Processor {
	p := &Processor{
		decoder:   decoder,
		encoder:   encoder,
		pipeline:  pipeline,
		evaluator: metrics.NewEvaluator(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one job and returns the written path
func (p *Processor) Process(ctx context.Context, req Request) (string, error) {
	out, _, err := p.process(ctx, req)
	return out, err
}

// process also returns the number of pixels written
func (p *Processor) process(ctx context.Context, req Request) (string, int, error) {
	if _, err := os.Stat(req.InputPath); err != nil {
		return "", 0, newError(ErrInputMissing, req.InputPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0755); err != nil {
		return "", 0, newError(ErrEncode, req.OutputPath, errors.Wrap(err, "create output directory"))
	}

	raw, err := p.decoder.Decode(ctx, req.InputPath)
	if err != nil {
		return "", 0, newError(ErrDecode, req.InputPath, err)
	}
	defer raw.Close()
	raw.ToBGR()

	enhanced, err := p.pipeline.Enhance(ctx, raw, req.Params)
	if err != nil {
		return "", 0, newError(ErrPipeline, req.InputPath, err)
	}
	defer enhanced.Close()

	if p.logger.IsLevelEnabled(logrus.DebugLevel) {
		p.report(raw, enhanced)
	}

	if err := p.encoder.Encode(enhanced, req.OutputPath, req.Params.JPEGQuality); err != nil {
		return "", 0, newError(ErrEncode, req.OutputPath, err)
	}

	meta := enhanced.Metadata()
	return req.OutputPath, meta.Width * meta.Height, nil
}

// Run is Process for front-ends: failures, panics included, become a Result
func (p *Processor) Run(ctx context.Context, req Request) (res Result) {
	start := time.Now()
	fields := logrus.Fields{"input": req.InputPath, "output": req.OutputPath}

	if p.recorder != nil {
		p.recorder.JobStarted()
	}
	pixels := 0

	defer func() {
		if r := recover(); r != nil {
			res = Result{
				OutputPath: req.OutputPath,
				Err:        errors.Errorf("panic: %v", r),
			}
		}

		res.Duration = time.Since(start)
		res.Kind = Kind(res.Err)
		if res.Err != nil {
			res.OK = false
			res.Status = fmt.Sprintf("Error: %v", res.Err)
			p.logger.WithFields(fields).WithField("kind", res.Kind).
				WithError(res.Err).Error("Processing failed")
			pixels = 0
		} else {
			res.OK = true
			res.Status = fmt.Sprintf("Processing complete! Saved to: %s", res.OutputPath)
			p.logger.WithFields(fields).WithField("elapsed", res.Duration.String()).Info("Processing complete")
		}

		if p.recorder != nil {
			p.recorder.JobFinished(res.Kind, res.Duration, pixels)
		}
		if p.debugger != nil {
			p.debugger.LogSummary()
		}
	}()

	p.logger.WithFields(fields).Info("Processing started")

	out, n, err := p.process(ctx, req)
	res = Result{OutputPath: req.OutputPath, Err: err}
	if err == nil {
		res.OutputPath = out
		pixels = n
	}
	return res
}

func (p *Processor) report(before, after *core.Raster) {
	fields := logrus.Fields{}
	scores := p.evaluator.Scores(*before.Mat(), *after.Mat())
	summary := make([]string, 0, len(scores))
	for _, score := range scores {
		summary = append(summary, score.String())
		if math.IsInf(score.Value, 0) || math.IsNaN(score.Value) {
			// identical images; JSON cannot carry Inf
			fields[score.Key] = fmt.Sprint(score.Value)
			continue
		}
		fields[score.Key] = score.Value
	}
	fields["summary"] = strings.Join(summary, ", ")
	if s, err := metrics.Describe(*before.Mat()); err == nil {
		fields["variance_before"] = s.Variance
	}
	if s, err := metrics.Describe(*after.Mat()); err == nil {
		fields["variance_after"] = s.Variance
	}
	p.logger.WithFields(fields).Debug("Quality report")
}
