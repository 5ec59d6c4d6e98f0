// rawenhance - command line and batch front-end

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"raw-image-processor/internal/batch"
	"raw-image-processor/internal/config"
	"raw-image-processor/internal/io"
	"raw-image-processor/internal/logging"
	"raw-image-processor/internal/metrics"
	"raw-image-processor/internal/params"
	"raw-image-processor/internal/processor"
	"raw-image-processor/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func usage() {
	formats := io.NewImageLoader(nil, &io.RawDecoder{}).GetSupportedFormats()
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: rawenhance [flags] -in FILE | -batch DIR\n\n")
	fmt.Fprintf(out, "Input formats: %s\n\n", strings.Join(formats, " "))
	flag.PrintDefaults()
}

func run() int {
	configPath := flag.String("config", "", "Path to YAML config file")
	writeConfig := flag.String("write-config", "", "Write the default config to this path and exit")
	debugMode := flag.Bool("debug", false, "Enable debug logging and the quality report")
	inputPath := flag.String("in", "", "Input RAW file")
	outputPath := flag.String("out", "", "Output JPEG (default: <input>_processed.jpg)")
	batchDir := flag.String("batch", "", "Process every RAW file in this directory")
	outputDir := flag.String("out-dir", "", "Output directory for batch mode (default: next to inputs)")
	workers := flag.Int("workers", 0, "Concurrent files in batch mode (default from config)")

	sliders := make(map[string]*float64, len(params.Sliders))
	for _, info := range params.Sliders {
		sliders[info.Name] = flag.Float64(info.Name, 0, fmt.Sprintf("%s [%g-%g]", info.Description, info.Min, info.Max))
	}
	flag.Usage = usage
	flag.Parse()

	if *writeConfig != "" {
		if err := config.CreateDefaultConfigFile(*writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "write config: %v\n", err)
			return 1
		}
		fmt.Printf("Default configuration written to %s\n", *writeConfig)
		return 0
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	logger := logging.New(*debugMode || cfg.Logging.Debug)

	if *inputPath == "" && *batchDir == "" {
		flag.Usage()
		return 2
	}

	// explicitly set slider flags override config defaults
	state := cfg.Defaults
	flag.Visit(func(f *flag.Flag) {
		if v, ok := sliders[f.Name]; ok {
			state, _ = state.With(f.Name, *v)
		}
	})
	state = state.Clamp()
	fp := params.Normalize(state)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracing(ctx, telemetry.TraceConfig{
		ServiceName:  "rawenhance",
		Exporter:     cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: cfg.Tracing.OTLPInsecure,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to set up tracing")
		return 1
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.WithError(err).Warn("Tracing shutdown failed")
		}
	}()
	defer io.ShutdownVips()

	recorder := metrics.NewRecorder()
	defer func() {
		if cfg.Metrics.Textfile == "" {
			return
		}
		if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.WithError(err).Warn("Failed to write metrics textfile")
		}
	}()

	proc, err := processor.NewFromConfig(cfg, recorder, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to build processor")
		return 1
	}

	logger.WithFields(logrus.Fields{
		"sliders": state,
		"params":  fp,
	}).Debug("Parameters resolved")

	if *batchDir != "" {
		n := cfg.Processing.Workers
		if *workers > 0 {
			n = *workers
		}
		summary, err := batch.Run(ctx, proc, *batchDir, batch.Options{
			Workers:   n,
			OutputDir: *outputDir,
			Suffix:    cfg.Processing.OutputSuffix,
			Params:    fp,
		}, logger)
		if err != nil {
			logger.WithError(err).Error("Batch aborted")
			return 1
		}
		for _, res := range summary.Results {
			fmt.Println(res.Status)
		}
		fmt.Printf("%d processed, %d failed in %s\n", summary.Succeeded, summary.Failed, summary.Duration)
		if summary.Failed > 0 {
			return 1
		}
		return 0
	}

	out := *outputPath
	if out == "" {
		out = io.DefaultOutputPath(*inputPath, cfg.Processing.OutputSuffix)
	}

	res := proc.Run(ctx, processor.Request{InputPath: *inputPath, OutputPath: out, Params: fp})
	fmt.Println(res.Status)
	if !res.OK {
		return 1
	}
	return 0
}
