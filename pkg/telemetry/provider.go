// Package telemetry wires OpenTelemetry tracing and metrics for the
// pipeline. The provider shape — a TracerProvider and a MeterProvider set
// as process globals, one struct holding the tracer and meter, and a
// single Shutdown (which stops the TracerProvider only) —
// is grounded on the teacher's telemetry.OTelProvider
// (telemetry/otel.go), adapted to a selectable exporter (OTLP/gRPC,
// stdout, or none) instead of the teacher's fixed OTLP/HTTP endpoint,
// since a pipeline demo has no standing collector to export to by
// default.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Exporter selects where trace spans are sent.
type Exporter string

const (
	ExporterOTLP   Exporter = "otlp"
	ExporterStdout Exporter = "stdout"
	ExporterNone   Exporter = "none"
)

// Config configures provider construction.
type Config struct {
	ServiceName string
	Exporter    Exporter
	OTLPEndpoint string
}

// Provider owns the pipeline's tracer and meter.
type Provider struct {
	tracer        trace.Tracer
	meter         metric.Meter
	traceProvider *sdktrace.TracerProvider
}

// NewProvider builds a Provider per cfg. ExporterNone yields a tracer
// backed by the OTel SDK's no-op global default without starting any
// exporter.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "cognitive-pipeline"
	}

	if cfg.Exporter == ExporterNone || cfg.Exporter == "" {
		return &Provider{
			tracer: otel.Tracer(cfg.ServiceName),
			meter:  otel.Meter(cfg.ServiceName),
		}, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", cfg.ServiceName),
	))
	if err != nil {
		return nil, fmt.Errorf("building telemetry resource: %w", err)
	}

	var spanExporter sdktrace.SpanExporter
	switch cfg.Exporter {
	case ExporterOTLP:
		endpoint := cfg.OTLPEndpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		spanExporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
		}
	case ExporterStdout:
		spanExporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("creating stdout trace exporter: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown telemetry exporter %q", cfg.Exporter)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
	)
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return &Provider{
		tracer:        tp.Tracer(cfg.ServiceName),
		meter:         mp.Meter(cfg.ServiceName),
		traceProvider: tp,
	}, nil
}

// Tracer returns the provider's tracer.
func (p *Provider) Tracer() trace.Tracer { return p.tracer }

// Meter returns the provider's meter.
func (p *Provider) Meter() metric.Meter { return p.meter }

// Shutdown flushes and stops the provider's exporters, if any.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.traceProvider == nil {
		return nil
	}
	return p.traceProvider.Shutdown(ctx)
}

// StageSpan starts a span named after a pipeline stage (spec §5's stage
// name constants), used by pkg/pipeline around each stage transition.
func (p *Provider) StageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "pipeline."+stage)
}
