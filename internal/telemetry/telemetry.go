// Package telemetry wires OpenTelemetry tracing for the tribute binary and
// names the span, events and attributes a sequence records.
package telemetry

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	EndpointEnv = "TRIBUTE_OTEL_ENDPOINT"
	EnabledEnv  = "TRIBUTE_OTEL_ENABLED"

	ServiceName = "tribute"
	TracerName  = "tribute/sequence"
)

// Config describes the process being traced.
type Config struct {
	// Endpoint is the OTLP/HTTP collector URL. Empty disables tracing.
	Endpoint string
	// Host is the subcommand driving sequences: "play" or "serve".
	Host string
	// Script labels the timeline being played.
	Script string
	// Seed is the fixed random seed, or 0 when runs are not reproducible.
	Seed uint64
}

func (c Config) enabled() bool {
	return c.Endpoint != "" && !strings.EqualFold(os.Getenv(EnabledEnv), "false")
}

// Resource describes the tribute process every span is attributed to.
func Resource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(ServiceName)}
	if cfg.Host != "" {
		attrs = append(attrs, HostKey.String(cfg.Host))
	}
	if cfg.Script != "" {
		attrs = append(attrs, ScriptKey.String(cfg.Script))
	}
	if cfg.Seed != 0 {
		attrs = append(attrs, SeedKey.Int64(int64(cfg.Seed)))
	}
	return resource.New(ctx, resource.WithAttributes(attrs...))
}

// Setup installs a tracer provider exporting sequence spans over OTLP/HTTP.
//
// Tracing is opt-in: with an empty endpoint, or TRIBUTE_OTEL_ENABLED set to
// "false", Setup registers nothing and returns a no-op shutdown.
//
// The returned shutdown function flushes pending spans and should be
// deferred by the caller.
func Setup(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if !cfg.enabled() {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	if err != nil {
		return noop, err
	}
	res, err := Resource(ctx, cfg)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Tracer returns the tracer sequences record spans with.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
