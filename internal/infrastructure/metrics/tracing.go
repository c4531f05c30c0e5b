package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const collectorDialTimeout = 2 * time.Second

type TracerOptions struct {
	ServiceName string
	Environment string
	Version     string
	// Endpoint is the host:port of an OTLP/HTTP collector.
	Endpoint string
}

// InitTracer installs a global tracer provider exporting ads-api spans to an
// OTLP/HTTP collector. It fails fast when the collector does not accept
// connections; without a provider, otel.Tracer returns no-op tracers.
func InitTracer(ctx context.Context, opts TracerOptions) (*sdktrace.TracerProvider, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("tracing endpoint is empty")
	}

	dialer := net.Dialer{Timeout: collectorDialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("OTLP collector at %s is not reachable: %w", opts.Endpoint, err)
	}
	_ = conn.Close()

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(opts.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(opts.ServiceName),
			semconv.ServiceVersionKey.String(opts.Version),
			semconv.DeploymentEnvironmentKey.String(opts.Environment),
		)),
	)

	otel.SetTracerProvider(tp)

	return tp, nil
}
