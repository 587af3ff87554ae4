package datastore

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kawabatas/spanner-otel-app/internal/domain/repository"
	pgdriver "github.com/kawabatas/spanner-otel-app/internal/infra/datastore/postgres"
)

type postgresStore struct {
	pool   *pgxpool.Pool
	singer repository.SingerRepository
}

func (s *postgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *postgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *postgresStore) Singers() repository.SingerRepository { return s.singer }

func openPostgres(ctx context.Context, cfg Config) (DataStore, error) {
	pool, err := pgdriver.NewPool(ctx, cfg.DSN, cfg.MaxConns)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "datastore opened", slog.String("driver", DriverPostgres))
	return &postgresStore{pool: pool, singer: pgdriver.NewSingerRepo(pool)}, nil
}
