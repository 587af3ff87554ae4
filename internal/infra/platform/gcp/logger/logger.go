package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// Cloud Logging special fields.
const (
	traceKey   = "logging.googleapis.com/trace"
	spanIDKey  = "logging.googleapis.com/spanId"
	sampledKey = "logging.googleapis.com/trace_sampled"
)

// New returns a JSON slog.Logger with keys aligned for Cloud Logging on stdout.
func New(level slog.Level, projectID string) *slog.Logger {
	return NewWithWriter(os.Stdout, level, projectID)
}

// NewWithWriter is New with an explicit destination.
// Records logged with a span in their context carry trace/spanId fields so Cloud Logging
// can join them with Cloud Trace.
func NewWithWriter(w io.Writer, level slog.Level, projectID string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.LevelKey:
				a.Key = "severity"
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == slog.LevelWarn {
					a.Value = slog.StringValue("WARNING")
				}
			case slog.TimeKey:
				a.Key = "timestamp"
			case slog.MessageKey:
				a.Key = "message"
			case slog.SourceKey:
				a.Key = "logging.googleapis.com/sourceLocation"
			}
			return a
		},
	})
	return slog.New(&traceHandler{Handler: h, projectID: projectID})
}

type traceHandler struct {
	slog.Handler
	projectID string
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		tid := sc.TraceID().String()
		if h.projectID != "" {
			tid = "projects/" + h.projectID + "/traces/" + tid
		}
		r.AddAttrs(
			slog.String(traceKey, tid),
			slog.String(spanIDKey, sc.SpanID().String()),
			slog.Bool(sampledKey, sc.IsSampled()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs), projectID: h.projectID}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name), projectID: h.projectID}
}
