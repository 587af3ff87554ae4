package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kawabatas/spanner-otel-app/internal/domain/model"
	"github.com/kawabatas/spanner-otel-app/internal/domain/repository"
)

type SingerRepo struct{ pool *pgxpool.Pool }

var _ repository.SingerRepository = (*SingerRepo)(nil)

func NewSingerRepo(pool *pgxpool.Pool) *SingerRepo { return &SingerRepo{pool: pool} }

func (r *SingerRepo) FindByID(ctx context.Context, id int64) (model.Singer, error) {
	row := r.pool.QueryRow(ctx, `SELECT singer_id, first_name, last_name FROM singers WHERE singer_id = $1`, id)
	s, err := scanSinger(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Singer{}, repository.ErrNotFound
	}
	if err != nil {
		return model.Singer{}, fmt.Errorf("query singer %d: %w", id, err)
	}
	return s, nil
}

func (r *SingerRepo) List(ctx context.Context) ([]model.Singer, error) {
	rows, err := r.pool.Query(ctx, `SELECT singer_id, first_name, last_name FROM singers`)
	if err != nil {
		return nil, fmt.Errorf("query singers: %w", err)
	}
	defer rows.Close()

	out := []model.Singer{}
	for rows.Next() {
		s, err := scanSinger(rows)
		if err != nil {
			return nil, fmt.Errorf("scan singer: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SingerRepo) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT singer_id FROM singers`)
	if err != nil {
		return nil, fmt.Errorf("query singer ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan singer id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanSinger(row pgx.Row) (model.Singer, error) {
	var (
		s           model.Singer
		first, last pgtype.Text
	)
	if err := row.Scan(&s.ID, &first, &last); err != nil {
		return model.Singer{}, err
	}
	s.FirstName, s.LastName = first.String, last.String
	return s, nil
}
