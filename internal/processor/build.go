package processor

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"raw-image-processor/internal/config"
	"raw-image-processor/internal/core"
	"raw-image-processor/internal/io"
	"raw-image-processor/internal/metrics"
)

// NewFromConfig wires the decoder, encoder and pipeline selected by cfg.
// recorder may be nil.
func NewFromConfig(cfg *config.Config, recorder *metrics.Recorder, logger *logrus.Logger) (*Processor, error) {
	decoder := io.NewImageLoader(logger, io.NewRawDecoder(cfg.Decoder, logger))

	var encoder io.Encoder
	switch cfg.Encoder.Backend {
	case config.EncoderOpenCV, "":
		encoder = io.NewOpenCVEncoder(logger)
	case config.EncoderVips:
		encoder = io.NewVipsEncoder(cfg.Encoder.StripMetadata, logger)
	default:
		return nil, errors.Errorf("unknown encoder backend %q", cfg.Encoder.Backend)
	}

	var observers core.Observers
	var opts []Option
	if recorder != nil {
		observers = append(observers, recorder)
		opts = append(opts, WithRecorder(recorder))
	}
	if logger.IsLevelEnabled(logrus.DebugLevel) {
		debugger := core.NewPipelineDebugger(logger)
		observers = append(observers, debugger)
		opts = append(opts, WithDebugger(debugger))
	}

	pipeline := core.NewPipeline(logger, core.WithObserver(observers))
	return New(decoder, encoder, pipeline, logger, opts...), nil
}
