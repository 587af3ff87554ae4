package apphttp

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/kawabatas/spanner-otel-app/internal/app/usecase"
	"github.com/kawabatas/spanner-otel-app/internal/httpx"
)

// Options carries the telemetry handles and switches for NewHandler.
// Nil providers fall back to no-op implementations.
type Options struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Propagator     propagation.TextMapPropagator
	Maintenance    bool
}

// NewHandler returns the full middleware chain around the singer routes. Every request gets
// a server span named by its path.
func NewHandler(svc *usecase.SingerService, opts Options) http.Handler {
	if opts.TracerProvider == nil {
		opts.TracerProvider = tracenoop.NewTracerProvider()
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = metricnoop.NewMeterProvider()
	}
	if opts.Propagator == nil {
		opts.Propagator = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
	}

	mux := http.NewServeMux()
	Register(mux, svc)

	var h http.Handler = rawPaths(mux)
	h = httpx.MaintenanceMiddleware(opts.Maintenance, h)
	h = httpx.RecoverMiddleware(h)
	h = httpx.LoggingMiddleware(h)
	h = httpx.SpanAttributes(h)
	return otelhttp.NewHandler(h, "singers-api",
		otelhttp.WithTracerProvider(opts.TracerProvider),
		otelhttp.WithMeterProvider(opts.MeterProvider),
		otelhttp.WithPropagators(opts.Propagator),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.URL.Path
		}),
	)
}
