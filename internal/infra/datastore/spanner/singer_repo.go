package spanner

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"

	"github.com/kawabatas/spanner-otel-app/internal/domain/model"
	"github.com/kawabatas/spanner-otel-app/internal/domain/repository"
)

const (
	sqlSingerByID   = `SELECT SingerId, FirstName, LastName FROM Singers WHERE SingerId = @singerId`
	sqlAllSingers   = `SELECT SingerId, FirstName, LastName FROM Singers`
	sqlAllSingerIDs = `SELECT SingerId FROM Singers`
)

type SingerRepo struct{ client *spanner.Client }

var _ repository.SingerRepository = (*SingerRepo)(nil)

func NewSingerRepo(client *spanner.Client) *SingerRepo { return &SingerRepo{client: client} }

func singerByIDStatement(id int64) spanner.Statement {
	stmt := spanner.NewStatement(sqlSingerByID)
	stmt.Params["singerId"] = id
	return stmt
}

func (r *SingerRepo) FindByID(ctx context.Context, id int64) (model.Singer, error) {
	iter := r.client.Single().Query(ctx, singerByIDStatement(id))
	defer iter.Stop()

	row, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return model.Singer{}, repository.ErrNotFound
	}
	if err != nil {
		return model.Singer{}, fmt.Errorf("query singer %d: %w", id, err)
	}
	return decodeSinger(row)
}

func (r *SingerRepo) List(ctx context.Context) ([]model.Singer, error) {
	iter := r.client.Single().Query(ctx, spanner.NewStatement(sqlAllSingers))
	out := []model.Singer{}
	err := iter.Do(func(row *spanner.Row) error {
		s, err := decodeSinger(row)
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query singers: %w", err)
	}
	return out, nil
}

func (r *SingerRepo) ListIDs(ctx context.Context) ([]int64, error) {
	iter := r.client.Single().Query(ctx, spanner.NewStatement(sqlAllSingerIDs))
	var ids []int64
	err := iter.Do(func(row *spanner.Row) error {
		var id int64
		if err := row.ColumnByName("SingerId", &id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query singer ids: %w", err)
	}
	return ids, nil
}

// decodeSinger reads SingerId, FirstName, LastName in that order.
// FirstName/LastName are nullable in the sample schema; NULL decodes to "".
func decodeSinger(row *spanner.Row) (model.Singer, error) {
	var (
		id          int64
		first, last spanner.NullString
	)
	if err := row.Columns(&id, &first, &last); err != nil {
		return model.Singer{}, fmt.Errorf("decode singer row: %w", err)
	}
	return model.Singer{ID: id, FirstName: first.StringVal, LastName: last.StringVal}, nil
}
