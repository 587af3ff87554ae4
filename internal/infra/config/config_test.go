package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "LOG_PROVIDER", "LOG_LEVEL", "MAINTENANCE_MODE", "DB_DRIVER", "DB_MAX_CONNS",
	"GCP_PROJECT", "SPANNER_INSTANCE_ID", "SPANNER_DATABASE_ID",
	"SQLITE_SOURCE", "SQLITE_SNAPSHOT_DIR", "STORAGE_PROVIDER", "SQLITE_BUCKET", "DATABASE_URL",
	"OTEL_SERVICE_NAME", "OTEL_TRACES_EXPORTER", "OTEL_METRICS_EXPORTER", "OTEL_TRACES_SAMPLER_ARG", "METRICS_ADDR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestNewFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := NewFromEnv()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "spanner", cfg.DBDriver)
	assert.Equal(t, 10, cfg.DBMaxConns)
	assert.Equal(t, "go-spanner-demo", cfg.Telemetry.ServiceName)
	assert.Equal(t, "otlp", cfg.Telemetry.TracesExporter)
	assert.Equal(t, "otlp", cfg.Telemetry.MetricsExporter)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRatio)
	assert.Equal(t, ":9464", cfg.Telemetry.MetricsAddr)
	assert.False(t, cfg.SnapshotEnabled())
	assert.False(t, cfg.Maintenance())
}

func TestNewFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_MAX_CONNS", "-3")
	t.Setenv("OTEL_METRICS_EXPORTER", "Prometheus")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")
	t.Setenv("STORAGE_PROVIDER", "gcs")
	t.Setenv("SQLITE_BUCKET", "bkt")
	t.Setenv("MAINTENANCE_MODE", "on")

	cfg := NewFromEnv()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 10, cfg.DBMaxConns)
	assert.Equal(t, "prometheus", cfg.Telemetry.MetricsExporter)
	assert.Equal(t, 0.25, cfg.Telemetry.SampleRatio)
	assert.True(t, cfg.SnapshotEnabled())
	assert.True(t, cfg.Maintenance())
}

func TestValidate_MissingSpanner(t *testing.T) {
	clearEnv(t)
	t.Setenv("GCP_PROJECT", "my-project")

	err := NewFromEnv().Validate()
	require.ErrorIs(t, err, ErrMissingSpanner)
	assert.Contains(t, err.Error(), "SPANNER_INSTANCE_ID is not set")
	assert.Contains(t, err.Error(), "SPANNER_DATABASE_ID is not set")
	assert.NotContains(t, err.Error(), "GCP_PROJECT is not set")
}

func TestValidate_Spanner(t *testing.T) {
	clearEnv(t)
	t.Setenv("GCP_PROJECT", "p")
	t.Setenv("SPANNER_INSTANCE_ID", "i")
	t.Setenv("SPANNER_DATABASE_ID", "d")

	assert.NoError(t, NewFromEnv().Validate())
}

func TestValidate_SQLiteNeedsNoIDs(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "sqlite")

	assert.NoError(t, NewFromEnv().Validate())
}

func TestValidate_PostgresNeedsDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "postgres")

	err := NewFromEnv().Validate()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingSpanner)
	assert.Contains(t, err.Error(), "DATABASE_URL is not set")

	t.Setenv("DATABASE_URL", "postgres://localhost/singers")
	assert.NoError(t, NewFromEnv().Validate())
}

func TestValidate_Telemetry(t *testing.T) {
	tests := map[string]struct {
		key, value string
		want       string
	}{
		"traces exporter":  {"OTEL_TRACES_EXPORTER", "zipkin", "OTEL_TRACES_EXPORTER=zipkin violates oneof"},
		"metrics exporter": {"OTEL_METRICS_EXPORTER", "statsd", "OTEL_METRICS_EXPORTER=statsd violates oneof"},
		"sample ratio":     {"OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG=1.5 violates lte"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DB_DRIVER", "sqlite")
			t.Setenv(tt.key, tt.value)

			err := NewFromEnv().Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "mysql")

	assert.ErrorContains(t, NewFromEnv().Validate(), `unsupported DB_DRIVER "mysql"`)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Unsetenv("SPANNER_INSTANCE_ID"))
	t.Setenv("PORT", "7000")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SPANNER_INSTANCE_ID=from-file\nPORT=1234\n"), 0o600))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("SPANNER_INSTANCE_ID"))
	assert.Equal(t, "7000", os.Getenv("PORT"), "existing variables win")
}
