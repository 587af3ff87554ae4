package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kawabatas/spanner-otel-app/internal/domain/model"
	"github.com/kawabatas/spanner-otel-app/internal/domain/repository"
)

const (
	instrumentationName    = "github.com/kawabatas/spanner-otel-app/internal/app/usecase"
	instrumentationVersion = "1.0.0"
	componentName          = "singer-service"
)

// Span names.
const (
	SpanGetSingerByID   = "get-singer-by-id"
	SpanGetAllSingers   = "get-all-singers"
	SpanGetRandomSinger = "get-random-singer"
)

// Span attribute keys.
const (
	AttrSingerID       = "app.singer_id"
	AttrSingerName     = "app.singer_name"
	AttrSingerCount    = "app.singer_count"
	AttrRandomSingerID = "app.random_singer_id"
)

// QueriesMetric counts statements issued against the Singers table. Every operation adds
// one per statement it runs, not only lookups by id.
const QueriesMetric = "spanner.queries"

// SingerService is the read-only facade over the Singers table. Each method runs in its own
// span and bumps the queries counter once per statement. Safe for concurrent use.
type SingerService struct {
	repo    repository.SingerRepository
	tracer  trace.Tracer
	queries metric.Int64Counter
	pick    func(n int) int
}

// Option customizes a SingerService.
type Option func(*SingerService)

// WithPicker replaces the uniform index picker used by GetRandom. pick(n) must return [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(s *SingerService) { s.pick = pick }
}

func NewSingerService(repo repository.SingerRepository, tp trace.TracerProvider, mp metric.MeterProvider, opts ...Option) (*SingerService, error) {
	queries, err := mp.Meter(instrumentationName).Int64Counter(QueriesMetric,
		metric.WithDescription("Counts the number of queries to the Singers table"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", QueriesMetric, err)
	}
	s := &SingerService{
		repo:    repo,
		tracer:  tp.Tracer(instrumentationName, trace.WithInstrumentationVersion(instrumentationVersion)),
		queries: queries,
		pick:    rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetByID returns repository.ErrNotFound when no singer has the id.
func (s *SingerService) GetByID(ctx context.Context, id int64) (model.Singer, error) {
	ctx, span := s.tracer.Start(ctx, SpanGetSingerByID, trace.WithAttributes(attribute.Int64(AttrSingerID, id)))
	defer span.End()

	s.countQuery(ctx, "get_by_id")
	singer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			recordError(span, err)
		}
		return model.Singer{}, err
	}
	span.SetAttributes(attribute.String(AttrSingerName, singer.FullName()))
	return singer, nil
}

// GetAll never returns a nil slice on success.
func (s *SingerService) GetAll(ctx context.Context) ([]model.Singer, error) {
	ctx, span := s.tracer.Start(ctx, SpanGetAllSingers)
	defer span.End()

	s.countQuery(ctx, "get_all")
	singers, err := s.repo.List(ctx)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	if singers == nil {
		singers = []model.Singer{}
	}
	span.SetAttributes(attribute.Int(AttrSingerCount, len(singers)))
	return singers, nil
}

// GetRandom picks one id uniformly from the table and loads it through GetByID.
// An empty table yields repository.ErrNotFound.
func (s *SingerService) GetRandom(ctx context.Context) (model.Singer, error) {
	ctx, span := s.tracer.Start(ctx, SpanGetRandomSinger)
	defer span.End()

	s.countQuery(ctx, "list_ids")
	ids, err := s.repo.ListIDs(ctx)
	if err != nil {
		recordError(span, err)
		return model.Singer{}, err
	}
	if len(ids) == 0 {
		return model.Singer{}, repository.ErrNotFound
	}

	id := ids[s.pick(len(ids))]
	span.SetAttributes(attribute.Int64(AttrRandomSingerID, id))
	return s.GetByID(ctx, id)
}

func (s *SingerService) countQuery(ctx context.Context, operation string) {
	s.queries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("component", componentName),
		attribute.String("operation", operation),
	))
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
