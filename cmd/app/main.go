// RAW Image Processor - desktop form

package main

import (
	"context"
	"flag"
	"os"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"

	"raw-image-processor/internal/config"
	"raw-image-processor/internal/gui"
	"raw-image-processor/internal/io"
	"raw-image-processor/internal/logging"
	"raw-image-processor/internal/processor"
	"raw-image-processor/internal/telemetry"
)

const (
	AppID      = "io.github.raw-image-processor"
	AppVersion = "1.0.0"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logging.New(*debugMode).WithError(err).Fatal("Failed to load config")
	}
	debug := *debugMode || cfg.Logging.Debug

	logger := logging.New(debug)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": debug,
		"decoder":    cfg.Decoder.Command,
		"encoder":    cfg.Encoder.Backend,
	}).Info("Starting RAW Image Processor")

	shutdown, err := telemetry.SetupTracing(context.Background(), telemetry.TraceConfig{
		ServiceName:  "raw-image-processor",
		Exporter:     cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: cfg.Tracing.OTLPInsecure,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to set up tracing")
	}

	proc, err := processor.NewFromConfig(cfg, nil, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build processor")
	}

	myApp := app.NewWithID(AppID)
	myApp.SetIcon(theme.DocumentIcon())
	myApp.Settings().SetTheme(theme.DefaultTheme())

	mainApp := gui.NewApplication(myApp, proc, cfg.Defaults, cfg.Processing.OutputSuffix, logger)
	mainApp.ShowAndRun()

	if err := shutdown(context.Background()); err != nil {
		logger.WithError(err).Warn("Tracing shutdown failed")
	}
	io.ShutdownVips()

	logger.Info("Application shutting down gracefully")
	os.Exit(0)
}
