package telemetry

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gptkit/internal/config"
)

func TestInitLogger(t *testing.T) {
	defaultLogger := slog.Default()
	t.Cleanup(func() { slog.SetDefault(defaultLogger) })

	path := filepath.Join(t.TempDir(), "logs", "gptkit.log")

	logger, closer, err := InitLogger(config.LogConfig{File: path, Level: "warn"})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "endpoint", "/completions")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "dropped")
	require.Contains(t, string(data), `"msg":"kept"`)
	require.Contains(t, string(data), `"endpoint":"/completions"`)
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	_, _, err := InitLogger(config.LogConfig{Level: "loud"})
	require.Error(t, err)
}

func TestInitTracerDisabled(t *testing.T) {
	tracer, cleanup, err := InitTracer(context.Background(), config.TraceConfig{})
	require.NoError(t, err)
	defer cleanup()

	_, span := tracer.Start(context.Background(), "noop")
	require.False(t, span.SpanContext().IsValid())
	span.End()
}

func TestInitTracerWritesSpans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.log")

	tracer, cleanup, err := InitTracer(context.Background(), config.TraceConfig{Enabled: true, File: path})
	require.NoError(t, err)

	_, span := tracer.Start(context.Background(), "openai.chat")
	span.End()
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), "openai.chat"))
	require.Contains(t, string(data), serviceName)
}

func TestInitMeterDisabled(t *testing.T) {
	meter, cleanup, err := InitMeter(context.Background(), config.MetricsConfig{})
	require.NoError(t, err)
	defer cleanup()

	counter, err := meter.Int64Counter("noop")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)
}

func TestInitMeterWritesOnShutdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.log")

	meter, cleanup, err := InitMeter(context.Background(), config.MetricsConfig{
		Enabled:  true,
		File:     path,
		Interval: time.Hour,
	})
	require.NoError(t, err)

	histogram, err := meter.Float64Histogram("openai.request.duration")
	require.NoError(t, err)
	histogram.Record(context.Background(), 0.25)
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "openai.request.duration")
}
