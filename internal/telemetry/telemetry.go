package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/truthscan-ai/truthscan"

// Analysis outcomes used as metric labels.
const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "analysis_failed"
	OutcomeMalformed = "malformed_response"
)

// Config controls telemetry setup.
type Config struct {
	Enabled  bool
	Endpoint string
	Protocol string // grpc | http
	Service  string
	Version  string
}

// Provider wires tracer/meter providers and exposes helpers.
type Provider struct {
	Enabled bool
	tracer  trace.Tracer
	meter   metric.Meter

	analysesCounter       metric.Int64Counter
	analysisDuration      metric.Float64Histogram
	shutdownTraceProvider func(context.Context) error
	shutdownMeterProvider func(context.Context) error
}

// NewProvider configures OTLP exporters and providers. When disabled, returns no-op providers.
func NewProvider(ctx context.Context, cfg Config, logger *slog.Logger) (*Provider, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !cfg.Enabled {
		return Noop(), nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	protocol := strings.ToLower(cfg.Protocol)
	logger.Info("telemetry enabled; periodic upload warnings are expected if no collector is listening",
		"protocol", protocol, "endpoint", cfg.Endpoint)

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.Service),
			attribute.String("service.version", cfg.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	var (
		spanExporter sdktrace.SpanExporter
		reader       sdkmetric.Reader
	)
	switch protocol {
	case "", "grpc":
		spanExporter, err = otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.Endpoint), otlptracegrpc.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("trace exporter: %w", err)
		}
		exp, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(cfg.Endpoint), otlpmetricgrpc.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("metric exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exp)
	case "http":
		spanExporter, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(cfg.Endpoint), otlptracehttp.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("trace exporter: %w", err)
		}
		exp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(cfg.Endpoint), otlpmetrichttp.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("metric exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exp)
	default:
		return nil, fmt.Errorf("unsupported telemetry protocol %q", cfg.Protocol)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)

	p := &Provider{
		Enabled:               true,
		tracer:                tp.Tracer(instrumentationName),
		meter:                 mp.Meter(instrumentationName),
		shutdownTraceProvider: tp.Shutdown,
		shutdownMeterProvider: mp.Shutdown,
	}
	p.initInstruments()
	return p, nil
}

// Noop returns a disabled provider.
func Noop() *Provider {
	p := &Provider{
		tracer: tracenoop.NewTracerProvider().Tracer(""),
		meter:  metricnoop.NewMeterProvider().Meter(""),
	}
	p.initInstruments()
	return p
}

// newWithProviders is used by tests to observe instruments through in-memory readers.
func newWithProviders(tp trace.TracerProvider, mp metric.MeterProvider) *Provider {
	p := &Provider{
		Enabled: true,
		tracer:  tp.Tracer(instrumentationName),
		meter:   mp.Meter(instrumentationName),
	}
	p.initInstruments()
	return p
}

func (p *Provider) initInstruments() {
	// Instruments are best-effort; a failed instrument falls back to a no-op one.
	var err error
	p.analysesCounter, err = p.meter.Int64Counter("truthscan_analyses_total",
		metric.WithDescription("Completed analyses by outcome and verdict."))
	if err != nil {
		p.analysesCounter, _ = metricnoop.NewMeterProvider().Meter("").Int64Counter("truthscan_analyses_total")
	}
	p.analysisDuration, err = p.meter.Float64Histogram("truthscan_analysis_duration_ms",
		metric.WithDescription("Wall time of one analysis, including the model call."),
		metric.WithUnit("ms"))
	if err != nil {
		p.analysisDuration, _ = metricnoop.NewMeterProvider().Meter("").Float64Histogram("truthscan_analysis_duration_ms")
	}
}

// Tracer returns the tracer.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil {
		return tracenoop.NewTracerProvider().Tracer("")
	}
	return p.tracer
}

// Meter returns the meter.
func (p *Provider) Meter() metric.Meter {
	if p == nil {
		return metricnoop.NewMeterProvider().Meter("")
	}
	return p.meter
}

// Shutdown flushes providers.
func (p *Provider) Shutdown(ctx context.Context) {
	if p == nil {
		return
	}
	if p.shutdownTraceProvider != nil {
		_ = p.shutdownTraceProvider(ctx)
	}
	if p.shutdownMeterProvider != nil {
		_ = p.shutdownMeterProvider(ctx)
	}
}

// RecordAnalysis emits the analysis counter and duration. verdict is empty for failures.
func (p *Provider) RecordAnalysis(ctx context.Context, outcome, verdict string, durMs float64) {
	if p == nil {
		return
	}
	attrs := metric.WithAttributes(SafeAttributes(map[string]any{
		"outcome": outcome,
		"verdict": verdict,
	})...)
	p.analysesCounter.Add(ctx, 1, attrs)
	p.analysisDuration.Record(ctx, durMs, attrs)
}
