package datastore

import (
	"context"
	"log/slog"

	"cloud.google.com/go/spanner"

	"github.com/kawabatas/spanner-otel-app/internal/domain/repository"
	spannerdriver "github.com/kawabatas/spanner-otel-app/internal/infra/datastore/spanner"
)

type spannerStore struct {
	client *spanner.Client
	singer repository.SingerRepository
}

// Ping runs a trivial query; Spanner has no dedicated ping RPC.
func (s *spannerStore) Ping(ctx context.Context) error { return spannerdriver.Ping(ctx, s.client) }

func (s *spannerStore) Close() error {
	s.client.Close()
	return nil
}

func (s *spannerStore) Singers() repository.SingerRepository { return s.singer }

func openSpanner(ctx context.Context, cfg Config) (DataStore, error) {
	client, err := spannerdriver.NewClient(ctx, cfg.ProjectID, cfg.InstanceID, cfg.DatabaseID)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "datastore opened",
		slog.String("driver", DriverSpanner),
		slog.String("database", client.DatabaseName()),
	)
	return &spannerStore{
		client: client,
		singer: spannerdriver.NewSingerRepo(client),
	}, nil
}
