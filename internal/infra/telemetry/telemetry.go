// Package telemetry builds the process-scoped OpenTelemetry providers.
//
// Setup is called once from main; the returned Telemetry is passed to the components that
// create spans and instruments. Nothing here registers global providers.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	mexporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/metric"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/detectors/gcp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Exporter names accepted in Config.
const (
	ExporterOTLP       = "otlp"
	ExporterPrometheus = "prometheus"
	ExporterGCP        = "gcp"
	ExporterNone       = "none"
)

// Config selects exporters and resource metadata.
type Config struct {
	ServiceName     string
	ServiceVersion  string
	TracesExporter  string  // otlp | none
	MetricsExporter string  // otlp | prometheus | gcp | none
	SampleRatio     float64 // 0.0 - 1.0, parent based
	// ProjectID is required by the gcp metrics exporter.
	ProjectID string
	// DetectGCP adds Cloud Run / GCE / GKE resource attributes.
	DetectGCP bool
}

// Telemetry owns the tracer and meter providers for the lifetime of the process.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Propagator     propagation.TextMapPropagator

	metricsHandler http.Handler
}

type setupOptions struct {
	spanProcessors []sdktrace.SpanProcessor
	readers        []sdkmetric.Reader
}

// Option customizes Setup.
type Option func(*setupOptions)

// WithSpanProcessor attaches an extra span processor, e.g. a tracetest.SpanRecorder.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *setupOptions) { o.spanProcessors = append(o.spanProcessors, sp) }
}

// WithMetricReader attaches an extra metric reader, e.g. a sdkmetric.ManualReader.
func WithMetricReader(r sdkmetric.Reader) Option {
	return func(o *setupOptions) { o.readers = append(o.readers, r) }
}

// Setup creates the providers. Callers must invoke Shutdown before exit to flush telemetry.
func Setup(ctx context.Context, cfg Config, opts ...Option) (*Telemetry, error) {
	var o setupOptions
	for _, opt := range opts {
		opt(&o)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.SampleRatio)),
	}
	switch cfg.TracesExporter {
	case "", ExporterOTLP:
		// OTEL_EXPORTER_OTLP_ENDPOINT / OTEL_EXPORTER_OTLP_TRACES_ENDPOINT are honored by the exporter.
		exp, err := otlptracehttp.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating trace exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
	case ExporterNone:
	default:
		return nil, fmt.Errorf("unsupported traces exporter %q", cfg.TracesExporter)
	}
	for _, sp := range o.spanProcessors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}

	t := &Telemetry{
		Propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	}

	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	switch cfg.MetricsExporter {
	case "", ExporterOTLP:
		exp, err := otlpmetrichttp.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating metric exporter: %w", err)
		}
		mpOpts = append(mpOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
	case ExporterPrometheus:
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		exp, err := otelprom.New(otelprom.WithRegisterer(reg))
		if err != nil {
			return nil, fmt.Errorf("creating prometheus exporter: %w", err)
		}
		mpOpts = append(mpOpts, sdkmetric.WithReader(exp))
		t.metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	case ExporterGCP:
		if cfg.ProjectID == "" {
			return nil, errors.New("gcp metrics exporter requires a project id")
		}
		exp, err := mexporter.New(mexporter.WithProjectID(cfg.ProjectID))
		if err != nil {
			return nil, fmt.Errorf("creating cloud monitoring exporter: %w", err)
		}
		mpOpts = append(mpOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
	case ExporterNone:
	default:
		return nil, fmt.Errorf("unsupported metrics exporter %q", cfg.MetricsExporter)
	}
	for _, r := range o.readers {
		mpOpts = append(mpOpts, sdkmetric.WithReader(r))
	}

	t.TracerProvider = sdktrace.NewTracerProvider(tpOpts...)
	t.MeterProvider = sdkmetric.NewMeterProvider(mpOpts...)

	slog.InfoContext(ctx, "telemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("traces_exporter", cfg.TracesExporter),
		slog.String("metrics_exporter", cfg.MetricsExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio),
	)
	return t, nil
}

// MetricsHandler serves the Prometheus registry, or nil when another exporter is in use.
func (t *Telemetry) MetricsHandler() http.Handler { return t.metricsHandler }

// Shutdown flushes pending spans and metrics and stops both providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if err := t.TracerProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracer provider: %w", err))
	}
	if err := t.MeterProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("meter provider: %w", err))
	}
	return errors.Join(errs...)
}

func newSampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1.0:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// newResource merges service metadata, OTEL_RESOURCE_ATTRIBUTES / OTEL_SERVICE_NAME and,
// optionally, GCP platform attributes. A partial resource is kept with a warning.
func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	attrs := []resource.Option{
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersion(cfg.ServiceVersion)))
	}
	attrs = append(attrs,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
	)
	if cfg.DetectGCP {
		attrs = append(attrs, resource.WithDetectors(gcp.NewDetector()))
	}

	res, err := resource.New(ctx, attrs...)
	if err != nil {
		if res == nil {
			return nil, fmt.Errorf("creating resource: %w", err)
		}
		slog.WarnContext(ctx, "telemetry: partial resource", slog.Any("error", err))
	}
	return res, nil
}
