package telemetry

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestSetupTracingDisabled(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), TraceConfig{Exporter: "none"}, quietLogger())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupTracingUnsupported(t *testing.T) {
	_, err := SetupTracing(context.Background(), TraceConfig{Exporter: "jaeger"}, quietLogger())
	assert.Error(t, err)
}

func TestSetupTracingOTLPNeedsEndpoint(t *testing.T) {
	_, err := SetupTracing(context.Background(), TraceConfig{Exporter: "otlp"}, quietLogger())
	assert.Error(t, err)
}

func TestSetupTracingStdoutExportsSpans(t *testing.T) {
	previous := otel.GetTracerProvider()
	defer otel.SetTracerProvider(previous)

	var buf bytes.Buffer
	shutdown, err := SetupTracing(context.Background(), TraceConfig{
		ServiceName: "rawenhance-test",
		Exporter:    "stdout",
		Writer:      &buf,
	}, quietLogger())
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "stage.sharpen")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "stage.sharpen")
	assert.Contains(t, buf.String(), "rawenhance-test")
}
