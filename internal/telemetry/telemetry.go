// Package telemetry provides OpenTelemetry tracing over OTLP HTTP.
package telemetry

import (
	"context"
	"os"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	serviceName    = "wordrow"
	serviceVersion = "0.1.0"
)

// Setup initializes tracing with the OTLP HTTP exporter. It reads
// configuration from the standard OTEL_* environment variables:
//   - OTEL_EXPORTER_OTLP_ENDPOINT: collector endpoint
//   - OTEL_EXPORTER_OTLP_HEADERS: auth headers for the collector
//
// When no endpoint is configured the global provider stays a no-op and the
// returned shutdown does nothing, so the server runs fine without a
// collector. Call shutdown on application exit to flush spans.
func Setup(ctx context.Context) (shutdown func(context.Context) error, err error) {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return func(context.Context) error { return nil }, nil
	}

	// The exporter picks up OTEL_* env vars on its own
	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	// Build resource with service information. Created from scratch rather
	// than merged with Default() to avoid schema URL conflicts.
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
			attribute.String("host.name", getHostname()),
			attribute.String("os.type", runtime.GOOS),
			attribute.String("process.runtime.name", "go"),
			attribute.String("process.runtime.version", runtime.Version()),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Tracer returns a named tracer for the given component.
// Use this to create spans within different parts of the application.
func Tracer(name string) trace.Tracer {
	return otel.GetTracerProvider().Tracer("wordrow/" + name)
}

// NoopTracer returns a no-op tracer for use when telemetry is disabled.
func NoopTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("wordrow/noop")
}

// getHostname returns the system hostname, or "unknown" if it cannot be
// determined.
func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
