package datastore

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/kawabatas/spanner-otel-app/internal/domain/repository"
	sqlitedriver "github.com/kawabatas/spanner-otel-app/internal/infra/datastore/sqlite"
)

type sqliteStore struct {
	ctx      context.Context
	db       *sql.DB
	dbPath   string
	strategy SnapshotStrategy

	singer repository.SingerRepository
}

func (s *sqliteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *sqliteStore) Close() error {
	// 終了時のスナップショットは Strategy に委譲
	if s.strategy != nil {
		if err := s.strategy.OnShutdown(s.ctx, s.dbPath); err != nil {
			slog.ErrorContext(s.ctx, "snapshot shutdown failed", slog.Any("error", err))
		}
	}
	return s.db.Close()
}

func openSQLite(ctx context.Context, cfg Config) (DataStore, error) {
	dbPath := cfg.Path
	if dbPath == "" {
		dbPath = sqlitedriver.Path(cfg.Source)
	}
	// 起動時のスナップショットは Strategy に委譲
	if cfg.Strategy != nil {
		if err := cfg.Strategy.OnStartup(ctx, dbPath); err != nil {
			return nil, err
		}
	}
	db, err := sqlitedriver.OpenAndInit(ctx, dbPath, sqlitedriver.Options{Seed: cfg.Seed})
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
		db.SetMaxIdleConns(cfg.MaxConns)
	}
	slog.InfoContext(ctx, "datastore opened", slog.String("driver", DriverSQLite), slog.String("path", dbPath))
	return &sqliteStore{
		ctx:      ctx,
		db:       db,
		dbPath:   dbPath,
		strategy: cfg.Strategy,
		singer:   sqlitedriver.NewSingerRepo(db),
	}, nil
}

func (s *sqliteStore) Singers() repository.SingerRepository { return s.singer }
