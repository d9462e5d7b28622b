package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/solutiontech/gic/pkg/config"
)

const defaultCollector = "http://jaeger:14268/api/traces"

// InitTracer installs a global tracer provider exporting to Jaeger. When
// tracing is disabled the global no-op provider stays in place and the
// returned shutdown does nothing.
func InitTracer(cfg config.OpenTelemetryConfig, version string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	endpoint := cfg.Jaeger.Endpoint
	if endpoint == "" {
		endpoint = defaultCollector
	}
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(
		jaeger.WithEndpoint(endpoint),
	))
	if err != nil {
		return nil, err
	}

	attrs := []attribute.KeyValue{
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", version),
	}
	for k, v := range cfg.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}

	sampler := sdktrace.AlwaysSample()
	if p := cfg.Jaeger.SamplerParam; p > 0 && p < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(p))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attrs...)),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
