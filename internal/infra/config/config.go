package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// MissingSpannerMessage is logged verbatim when the Spanner ids are not configured.
const MissingSpannerMessage = "Please set the GCP_PROJECT, SPANNER_INSTANCE_ID, and SPANNER_DATABASE_ID environment variables."

// AppConfig は環境変数を読み取りアプリ全体に渡す設定です。
type AppConfig struct {
	Port            string // HTTP ポート（未設定時は 8080）
	LogProvider     string // gcp
	LogLevel        string // -4 | 0 | 4 | 8 or debug/info/warn/error
	MaintenanceMode string // on | off

	DBDriver   string // spanner (default) | sqlite | postgres
	DBMaxConns int    // sqlite/postgres の最大接続数（未設定時は 10）

	Spanner SpannerConfig

	SqliteSource      string // local | gcs
	SqliteSnapshotDir string // 終了時にローカルへスナップショットを書き出すディレクトリ
	StorageProvider   string // gcs | local(no-op)
	SqliteBucket      string // バケット名

	Postgres PostgresConfig

	Telemetry TelemetryConfig
}

// SpannerConfig identifies the Cloud Spanner database.
type SpannerConfig struct {
	ProjectID  string `env:"GCP_PROJECT" validate:"required"`
	InstanceID string `env:"SPANNER_INSTANCE_ID" validate:"required"`
	DatabaseID string `env:"SPANNER_DATABASE_ID" validate:"required"`
}

type PostgresConfig struct {
	DSN string `env:"DATABASE_URL" validate:"required"`
}

// TelemetryConfig mirrors the OTEL_* variables the service understands.
// Exporter endpoints (OTEL_EXPORTER_OTLP_*) are read by the exporters themselves.
type TelemetryConfig struct {
	ServiceName     string  `env:"OTEL_SERVICE_NAME" validate:"required"`
	TracesExporter  string  `env:"OTEL_TRACES_EXPORTER" validate:"oneof=otlp none"`
	MetricsExporter string  `env:"OTEL_METRICS_EXPORTER" validate:"oneof=otlp prometheus gcp none"`
	SampleRatio     float64 `env:"OTEL_TRACES_SAMPLER_ARG" validate:"gte=0,lte=1"`
	MetricsAddr     string  `env:"METRICS_ADDR"`
}

// LoadDotEnv reads .env files into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func NewFromEnv() AppConfig {
	return AppConfig{
		Port:            getenv("PORT", "8080"),
		LogProvider:     os.Getenv("LOG_PROVIDER"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		MaintenanceMode: os.Getenv("MAINTENANCE_MODE"),

		DBDriver:   getenv("DB_DRIVER", "spanner"),
		DBMaxConns: atoiDefault(os.Getenv("DB_MAX_CONNS"), 10),

		Spanner: SpannerConfig{
			ProjectID:  os.Getenv("GCP_PROJECT"),
			InstanceID: os.Getenv("SPANNER_INSTANCE_ID"),
			DatabaseID: os.Getenv("SPANNER_DATABASE_ID"),
		},

		SqliteSource:      os.Getenv("SQLITE_SOURCE"),
		SqliteSnapshotDir: os.Getenv("SQLITE_SNAPSHOT_DIR"),
		StorageProvider:   os.Getenv("STORAGE_PROVIDER"),
		SqliteBucket:      os.Getenv("SQLITE_BUCKET"),

		Postgres: PostgresConfig{DSN: os.Getenv("DATABASE_URL")},

		Telemetry: TelemetryConfig{
			ServiceName:     getenv("OTEL_SERVICE_NAME", "go-spanner-demo"),
			TracesExporter:  strings.ToLower(getenv("OTEL_TRACES_EXPORTER", "otlp")),
			MetricsExporter: strings.ToLower(getenv("OTEL_METRICS_EXPORTER", "otlp")),
			SampleRatio:     parseFloatDefault(os.Getenv("OTEL_TRACES_SAMPLER_ARG"), 1.0),
			MetricsAddr:     getenv("METRICS_ADDR", ":9464"),
		},
	}
}

// SnapshotEnabled はスナップショット同期を有効化すべきかの判定です。
func (c AppConfig) SnapshotEnabled() bool {
	return c.StorageProvider == "gcs" && c.SqliteBucket != ""
}

// Maintenance reports whether MAINTENANCE_MODE=on.
func (c AppConfig) Maintenance() bool { return c.MaintenanceMode == "on" }

// ErrMissingSpanner is wrapped by Validate when any Spanner id is unset.
var ErrMissingSpanner = errors.New(MissingSpannerMessage)

// Validate checks the settings the selected driver depends on.
// Field errors are reported by their environment variable names.
func (c AppConfig) Validate() error {
	v := newValidator()
	if err := v.Struct(c.Telemetry); err != nil {
		return fmt.Errorf("telemetry config: %w", describe(err))
	}
	switch c.DBDriver {
	case "spanner":
		if err := v.Struct(c.Spanner); err != nil {
			return fmt.Errorf("%w (%w)", ErrMissingSpanner, describe(err))
		}
	case "postgres":
		if err := v.Struct(c.Postgres); err != nil {
			return fmt.Errorf("postgres config: %w", describe(err))
		}
	case "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// describe flattens validator errors into "NAME: rule" pairs.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			parts = append(parts, fe.Field()+" is not set")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v violates %s", fe.Field(), fe.Value(), fe.Tag()))
	}
	return errors.New(strings.Join(parts, ", "))
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// 変換失敗時や 0 以下は既定値
func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseFloatDefault(s string, def float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}
