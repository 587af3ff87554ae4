package datastore

import (
	"context"
	"fmt"

	"github.com/kawabatas/spanner-otel-app/internal/domain/repository"
)

// Supported drivers.
const (
	DriverSpanner  = "spanner"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DataStore is an app-facing facade for all repositories.
type DataStore interface {
	Ping(ctx context.Context) error
	Close() error

	// 個別の実装
	Singers() repository.SingerRepository
}

// Config captures DB driver and DSN-like parameters.
type Config struct {
	Driver string // "spanner" (default) | "sqlite" | "postgres"

	// Spanner
	ProjectID  string
	InstanceID string
	DatabaseID string

	// SQLite
	Source   string // extra hint for path decisions (e.g., "gcs")
	Path     string // overrides the path derived from Source
	Seed     bool   // 空のテーブルにサンプルデータを投入する
	Strategy SnapshotStrategy

	// Postgres
	DSN string

	// MaxConns caps open connections for sqlite/postgres. Spanner sessions are left to the client.
	MaxConns int
}

// Open selects and opens a datastore by driver.
func Open(ctx context.Context, cfg Config) (DataStore, error) {
	switch cfg.Driver {
	case "", DriverSpanner:
		return openSpanner(ctx, cfg)
	case DriverSQLite:
		return openSQLite(ctx, cfg)
	case DriverPostgres:
		return openPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown datastore driver %q", cfg.Driver)
	}
}
