package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m), buf.String())
	buf.Reset()
	return m
}

func TestNewWithWriter_Keys(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelDebug, "proj")

	log.Warn("careful", slog.Int("n", 3))
	m := decode(t, &buf)
	assert.Equal(t, "WARNING", m["severity"])
	assert.Equal(t, "careful", m["message"])
	assert.Contains(t, m, "timestamp")
	assert.Contains(t, m, "logging.googleapis.com/sourceLocation")
	assert.EqualValues(t, 3, m["n"])
	assert.NotContains(t, m, traceKey)

	log.Info("hello")
	assert.Equal(t, "INFO", decode(t, &buf)["severity"])
}

func TestNewWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelWarn, "")

	log.Info("dropped")
	assert.Zero(t, buf.Len())
}

func TestNewWithWriter_TraceFields(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	sc := span.SpanContext()

	var buf bytes.Buffer
	NewWithWriter(&buf, slog.LevelInfo, "proj").With("k", "v").InfoContext(ctx, "in span")
	m := decode(t, &buf)
	assert.Equal(t, "projects/proj/traces/"+sc.TraceID().String(), m[traceKey])
	assert.Equal(t, sc.SpanID().String(), m[spanIDKey])
	assert.Equal(t, true, m[sampledKey])
	assert.Equal(t, "v", m["k"])

	NewWithWriter(&buf, slog.LevelInfo, "").InfoContext(ctx, "no project")
	assert.Equal(t, sc.TraceID().String(), decode(t, &buf)[traceKey])
}
