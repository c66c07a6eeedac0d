// Package telemetry sets up structured logging and OpenTelemetry tracing and metrics.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"gptkit/internal/config"
)

const (
	serviceName    = "gptkit"
	serviceVersion = "0.1.0"
)

// newRotatingFile returns a size-rotated log file writer, creating its directory.
func newRotatingFile(path string) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}, nil
}

// InitLogger initializes a JSON slog logger and makes it the default.
// It writes to a rotating file when cfg.File is set, otherwise to stderr.
// The returned closer releases the file.
func InitLogger(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	var out io.WriteCloser = nopCloser{os.Stderr}
	if cfg.File != "" {
		file, err := newRotatingFile(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		out = file
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return logger, out, nil
}

// InitTracer installs a tracer provider exporting spans to a rotating file.
// When tracing is disabled a no-op tracer is returned. The cleanup function
// flushes pending spans and closes the file.
func InitTracer(ctx context.Context, cfg config.TraceConfig) (trace.Tracer, func(), error) {
	if !cfg.Enabled {
		return noop.NewTracerProvider().Tracer(serviceName), func() {}, nil
	}

	res, err := newResource(ctx)
	if err != nil {
		return nil, nil, err
	}

	traceFile, err := newRotatingFile(cfg.File)
	if err != nil {
		return nil, nil, err
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(traceFile),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		traceFile.Close()
		return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown tracer provider", "error", err)
		}
		if err := traceFile.Close(); err != nil {
			slog.Error("failed to close trace file", "error", err)
		}
	}

	return tp.Tracer(serviceName), cleanup, nil
}

// InitMeter installs a meter provider that periodically exports to a rotating file.
// When metrics are disabled a no-op meter is returned. The cleanup function
// flushes pending measurements and closes the file.
func InitMeter(ctx context.Context, cfg config.MetricsConfig) (metric.Meter, func(), error) {
	if !cfg.Enabled {
		return metricnoop.NewMeterProvider().Meter(serviceName), func() {}, nil
	}

	res, err := newResource(ctx)
	if err != nil {
		return nil, nil, err
	}

	metricsFile, err := newRotatingFile(cfg.File)
	if err != nil {
		return nil, nil, err
	}

	exporter, err := stdoutmetric.New(
		stdoutmetric.WithWriter(metricsFile),
		stdoutmetric.WithPrettyPrint(),
	)
	if err != nil {
		metricsFile.Close()
		return nil, nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mp.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown meter provider", "error", err)
		}
		if err := metricsFile.Close(); err != nil {
			slog.Error("failed to close metrics file", "error", err)
		}
	}

	return mp.Meter(serviceName), cleanup, nil
}

func newResource(ctx context.Context) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
