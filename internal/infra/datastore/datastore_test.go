package datastore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStrategy struct{ startups, shutdowns int }

func (c *countingStrategy) OnStartup(context.Context, string) error  { c.startups++; return nil }
func (c *countingStrategy) OnShutdown(context.Context, string) error { c.shutdowns++; return nil }

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	strat := &countingStrategy{}
	ds, err := Open(ctx, Config{
		Driver:   DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "singers.sqlite"),
		Seed:     true,
		Strategy: strat,
		MaxConns: 4,
	})
	require.NoError(t, err)

	require.NoError(t, ds.Ping(ctx))
	ids, err := ds.Singers().ListIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 5)

	require.NoError(t, ds.Close())
	assert.Equal(t, 1, strat.startups)
	assert.Equal(t, 1, strat.shutdowns)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"})
	assert.ErrorContains(t, err, "mysql")
}

func TestOpen_SpannerRequiresIDs(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: DriverSpanner, ProjectID: "p"})
	assert.Error(t, err)
}

func TestOpen_PostgresBadDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: DriverPostgres, DSN: "postgres://%zz"})
	assert.Error(t, err)
}
