package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apphttp "github.com/kawabatas/spanner-otel-app/internal/app/http"
	"github.com/kawabatas/spanner-otel-app/internal/app/usecase"
	"github.com/kawabatas/spanner-otel-app/internal/infra/config"
	"github.com/kawabatas/spanner-otel-app/internal/infra/datastore"
	sqlitestrat "github.com/kawabatas/spanner-otel-app/internal/infra/datastore/sqlite"
	"github.com/kawabatas/spanner-otel-app/internal/infra/platform/logger"
	gcsstore "github.com/kawabatas/spanner-otel-app/internal/infra/storage/gcs"
	"github.com/kawabatas/spanner-otel-app/internal/infra/telemetry"
)

const serviceVersion = "1.0.0"

func main() { os.Exit(run()) }

// run returns the process exit code so deferred flushes execute before exit.
func run() int {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("dotenv load error", slog.Any("error", err))
		return 1
	}
	cfg := config.NewFromEnv()
	slog.SetDefault(logger.New(cfg.LogProvider, logger.ParseLevel(cfg.LogLevel), cfg.Spanner.ProjectID))

	// 必須設定が欠けていればリスナーを開く前に終了する
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingSpanner) {
			slog.Error(config.MissingSpannerMessage)
			return 1
		}
		slog.Error("invalid configuration", slog.Any("error", err))
		return 1
	}

	ctx := context.Background()

	slog.Info("initializing OpenTelemetry SDK")
	tel, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:     cfg.Telemetry.ServiceName,
		ServiceVersion:  serviceVersion,
		TracesExporter:  cfg.Telemetry.TracesExporter,
		MetricsExporter: cfg.Telemetry.MetricsExporter,
		SampleRatio:     cfg.Telemetry.SampleRatio,
		ProjectID:       cfg.Spanner.ProjectID,
		DetectGCP:       true,
	})
	if err != nil {
		slog.Error("telemetry setup error", slog.Any("error", err))
		return 1
	}
	// 終了時に必ず flush する
	defer func() {
		ctxFlush, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(ctxFlush); err != nil {
			slog.Error("telemetry shutdown error", slog.Any("error", err))
		}
	}()

	ds, err := datastore.Open(ctx, datastoreConfig(cfg))
	if err != nil {
		slog.Error("datastore open error", slog.Any("error", err))
		return 1
	}
	defer ds.Close()
	if err := pingDatastore(ctx, ds, 5*time.Second); err != nil {
		slog.Error("datastore ping error", slog.Any("error", err))
		return 1
	}

	svc, err := usecase.NewSingerService(ds.Singers(), tel.TracerProvider, tel.MeterProvider)
	if err != nil {
		slog.Error("singer service init error", slog.Any("error", err))
		return 1
	}

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: apphttp.NewHandler(svc, apphttp.Options{
			TracerProvider: tel.TracerProvider,
			MeterProvider:  tel.MeterProvider,
			Propagator:     tel.Propagator,
			Maintenance:    cfg.Maintenance(),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	servers := []*http.Server{srv}
	if h := tel.MetricsHandler(); h != nil {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", h)
		servers = append(servers, &http.Server{Addr: cfg.Telemetry.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second})
	}

	errCh := make(chan error, len(servers))
	for _, s := range servers {
		go func(s *http.Server) {
			slog.Info("server starting", slog.String("addr", s.Addr))
			if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
				return
			}
			slog.Info("server stopped accepting new conns", slog.String("addr", s.Addr))
		}(s)
	}

	// シャットダウン待受け
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	code := 0
	select {
	case <-sig:
	case err := <-errCh:
		slog.Error("server error", slog.Any("error", err))
		code = 1
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, s := range servers {
		if err := s.Shutdown(ctxShutdown); err != nil {
			slog.Error("shutdown error", slog.String("addr", s.Addr), slog.Any("error", err))
		}
	}
	slog.Info("graceful shutdown complete")
	return code
}

// pingDatastore checks connectivity before the listener binds.
func pingDatastore(ctx context.Context, ds datastore.DataStore, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := ds.Ping(ctx); err != nil {
		return fmt.Errorf("ping %T: %w", ds, err)
	}
	return nil
}

func datastoreConfig(cfg config.AppConfig) datastore.Config {
	dc := datastore.Config{
		Driver:     cfg.DBDriver,
		ProjectID:  cfg.Spanner.ProjectID,
		InstanceID: cfg.Spanner.InstanceID,
		DatabaseID: cfg.Spanner.DatabaseID,
		Source:     cfg.SqliteSource,
		Seed:       true,
		DSN:        cfg.Postgres.DSN,
		MaxConns:   cfg.DBMaxConns,
	}
	if cfg.DBDriver != datastore.DriverSQLite {
		return dc
	}
	// スナップショット戦略（SQLite のみ）を選択
	switch {
	case cfg.SnapshotEnabled():
		dc.Strategy = sqlitestrat.GCSSnapshotStrategy{ObjectStore: &gcsstore.Adapter{}, Bucket: cfg.SqliteBucket}
	case cfg.SqliteSnapshotDir != "":
		dc.Strategy = sqlitestrat.LocalSnapshotStrategy{OutputDir: cfg.SqliteSnapshotDir}
	default:
		dc.Strategy = datastore.NoopSnapshotStrategy{}
	}
	return dc
}
