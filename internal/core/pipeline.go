// Enhancement pipeline: fixed ordered stages applied sequentially
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gocv.io/x/gocv"

	"raw-image-processor/internal/algorithms"
	"raw-image-processor/internal/params"
)

const tracerName = "raw-image-processor/internal/core"

// ProcessingStep is a stage together with whether it runs for a given call
type ProcessingStep struct {
	Stage   algorithms.Stage
	Enabled bool
}

// StageObserver receives the outcome of every executed stage
type StageObserver interface {
	ObserveStage(stage string, duration time.Duration, err error)
}

// Pipeline applies the enhancement stages in their fixed order.
// It holds no per-call state and is safe for concurrent use.
type Pipeline struct {
	stages   []algorithms.Stage
	logger   *logrus.Logger
	tracer   trace.Tracer
	observer StageObserver
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithObserver reports stage durations, e.g. to a metrics recorder
func WithObserver(observer StageObserver) Option {
	return func(p *Pipeline) {
		p.observer = observer
	}
}

// WithTracer overrides the global tracer
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = tracer
	}
}

func NewPipeline(logger *logrus.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		stages: algorithms.Stages(),
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan returns every stage with its enabled flag for the given parameters
func (p *Pipeline) Plan(fp params.FilterParameters) []ProcessingStep {
	steps := make([]ProcessingStep, len(p.stages))
	for i, stage := range p.stages {
		steps[i] = ProcessingStep{Stage: stage, Enabled: stage.Enabled(fp)}
	}
	return steps
}

// Enhance runs the pipeline on a copy of input and returns a new BGR raster.
// The caller keeps ownership of input. Any stage failure fails the whole call
// and no partial result is returned.
func (p *Pipeline) Enhance(ctx context.Context, input *Raster, fp params.FilterParameters) (*Raster, error) {
	if input == nil {
		return nil, fmt.Errorf("no input raster")
	}
	if err := fp.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.enhance")
	defer span.End()

	meta := input.Metadata()
	span.SetAttributes(
		attribute.Int("image.width", meta.Width),
		attribute.Int("image.height", meta.Height),
		attribute.String("image.order", meta.Order.String()),
	)

	current := input.Clone()
	current.ToBGR()

	for i, step := range p.Plan(fp) {
		select {
		case <-ctx.Done():
			current.Close()
			return nil, ctx.Err()
		default:
		}

		name := step.Stage.Name()
		if !step.Enabled {
			p.logger.WithFields(logrus.Fields{"step": i, "stage": name}).Debug("Skipping disabled stage")
			continue
		}

		result, err := p.runStage(ctx, step.Stage, *current.Mat(), fp)
		if err != nil {
			p.logger.WithFields(logrus.Fields{"step": i, "stage": name, "error": err}).Error("Pipeline stage failed")
			span.RecordError(err)
			span.SetStatus(codes.Error, "stage failed")
			result.Close()
			current.Close()
			return nil, fmt.Errorf("%s stage: %w", name, err)
		}

		current.Close()
		current = &Raster{mat: result, order: orderOf(result)}
		p.logger.WithFields(logrus.Fields{"step": i, "stage": name}).Debug("Stage completed")
	}

	return current, nil
}

func (p *Pipeline) runStage(ctx context.Context, stage algorithms.Stage, input gocv.Mat, fp params.FilterParameters) (result gocv.Mat, err error) {
	_, span := p.tracer.Start(ctx, "stage."+stage.Name())
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = gocv.NewMat()
			err = fmt.Errorf("stage panicked: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		if p.observer != nil {
			p.observer.ObserveStage(stage.Name(), time.Since(start), err)
		}
		span.End()
	}()

	return stage.Apply(input, fp)
}

func orderOf(mat gocv.Mat) ChannelOrder {
	if mat.Channels() == 1 {
		return OrderGray
	}
	return OrderBGR
}
