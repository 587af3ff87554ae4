package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kawabatas/spanner-otel-app/internal/domain/model"
	"github.com/kawabatas/spanner-otel-app/internal/domain/repository"
)

type SingerRepo struct{ db *sql.DB }

var _ repository.SingerRepository = (*SingerRepo)(nil)

func NewSingerRepo(db *sql.DB) *SingerRepo { return &SingerRepo{db: db} }

func (r *SingerRepo) FindByID(ctx context.Context, id int64) (model.Singer, error) {
	var (
		s           model.Singer
		first, last sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
SELECT SingerId, FirstName, LastName
FROM Singers
WHERE SingerId = ?
`, id).Scan(&s.ID, &first, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Singer{}, repository.ErrNotFound
	}
	if err != nil {
		return model.Singer{}, fmt.Errorf("query singer %d: %w", id, err)
	}
	s.FirstName, s.LastName = first.String, last.String
	return s, nil
}

func (r *SingerRepo) List(ctx context.Context) ([]model.Singer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT SingerId, FirstName, LastName FROM Singers`)
	if err != nil {
		return nil, fmt.Errorf("query singers: %w", err)
	}
	defer rows.Close()
	out := []model.Singer{}
	for rows.Next() {
		var (
			s           model.Singer
			first, last sql.NullString
		)
		if err := rows.Scan(&s.ID, &first, &last); err != nil {
			return nil, err
		}
		s.FirstName, s.LastName = first.String, last.String
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SingerRepo) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT SingerId FROM Singers`)
	if err != nil {
		return nil, fmt.Errorf("query singer ids: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
