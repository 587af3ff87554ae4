package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kawabatas/spanner-otel-app/internal/domain/model"
)

// fakeRow scans fixed values into the destinations scanSinger passes.
type fakeRow struct {
	id          int64
	first, last pgtype.Text
	err         error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != 3 {
		return fmt.Errorf("expected 3 destinations, got %d", len(dest))
	}
	*dest[0].(*int64) = r.id
	*dest[1].(*pgtype.Text) = r.first
	*dest[2].(*pgtype.Text) = r.last
	return nil
}

func TestScanSinger(t *testing.T) {
	got, err := scanSinger(fakeRow{
		id:    2,
		first: pgtype.Text{String: "Catalina", Valid: true},
		last:  pgtype.Text{String: "Smith", Valid: true},
	})
	require.NoError(t, err)
	assert.Equal(t, model.Singer{ID: 2, FirstName: "Catalina", LastName: "Smith"}, got)
}

func TestScanSinger_NullNames(t *testing.T) {
	got, err := scanSinger(fakeRow{id: 5, last: pgtype.Text{String: "Lomond", Valid: true}})
	require.NoError(t, err)
	assert.Equal(t, model.Singer{ID: 5, LastName: "Lomond"}, got)
}

func TestScanSinger_Error(t *testing.T) {
	boom := errors.New("conn reset")
	_, err := scanSinger(fakeRow{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestPoolSize(t *testing.T) {
	assert.Equal(t, int32(10), poolSize(10))
	assert.Equal(t, int32(math.MaxInt32), poolSize(math.MaxInt32))
	if math.MaxInt > math.MaxInt32 {
		assert.Equal(t, int32(math.MaxInt32), poolSize(math.MaxInt))
	}
}

func TestNewPool_BadDSN(t *testing.T) {
	_, err := NewPool(context.Background(), "postgres://%zz", 4)
	assert.ErrorContains(t, err, "parse config")
}
