package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kawabatas/spanner-otel-app/internal/infra/storage/local"
	"github.com/kawabatas/spanner-otel-app/internal/util/clock"
)

func countSingers(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM Singers`).Scan(&n))
	return n
}

func TestSnapshotTo(t *testing.T) {
	_, path := openTestDB(t, Options{Seed: true})
	out := filepath.Join(t.TempDir(), "it's-a-snapshot.sqlite")

	require.NoError(t, SnapshotTo(context.Background(), path, out))
	assert.Equal(t, 5, countSingers(t, out))
}

func TestSnapshotTo_ExistingOutputFails(t *testing.T) {
	_, path := openTestDB(t, Options{Seed: true})
	out := filepath.Join(t.TempDir(), "snap.sqlite")
	require.NoError(t, SnapshotTo(context.Background(), path, out))

	assert.Error(t, SnapshotTo(context.Background(), path, out))
}

func TestLocalSnapshotStrategy(t *testing.T) {
	restore := clock.Set(clock.Fixed(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	defer restore()

	_, path := openTestDB(t, Options{Seed: true})
	dir := filepath.Join(t.TempDir(), "backups")
	s := LocalSnapshotStrategy{OutputDir: dir}

	require.NoError(t, s.OnStartup(context.Background(), path))
	require.NoError(t, s.OnShutdown(context.Background(), path))
	assert.Equal(t, 5, countSingers(t, filepath.Join(dir, "singers-snapshot-20240102-030405.sqlite")))
}

type recordingStore struct {
	downloads []string
	uploads   []string
	backups   []string
	uploadErr error
}

func (r *recordingStore) DownloadIfNeeded(_ context.Context, bucket, object, dest string) error {
	r.downloads = append(r.downloads, bucket+"/"+object+"->"+dest)
	return nil
}

func (r *recordingStore) UploadTwoPhaseWithBackup(_ context.Context, bucket, current, backup, localPath string) error {
	if _, err := os.Stat(localPath); err != nil {
		return err
	}
	r.uploads = append(r.uploads, bucket+"/"+current)
	r.backups = append(r.backups, backup)
	return r.uploadErr
}

func TestGCSSnapshotStrategy(t *testing.T) {
	restore := clock.Set(clock.Fixed(time.Date(2024, 6, 30, 23, 59, 58, 0, time.UTC)))
	defer restore()

	_, path := openTestDB(t, Options{Seed: true})
	store := &recordingStore{}
	tmp := t.TempDir()
	s := GCSSnapshotStrategy{ObjectStore: store, Bucket: "bkt", TmpDir: tmp}

	require.NoError(t, s.OnStartup(context.Background(), path))
	require.NoError(t, s.OnShutdown(context.Background(), path))

	assert.Equal(t, []string{"bkt/" + FileName + "->" + path}, store.downloads)
	assert.Equal(t, []string{"bkt/" + FileName}, store.uploads)
	assert.Equal(t, []string{"backups/2024-06-30/235958-" + FileName}, store.backups)

	left, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, left, "intermediate snapshot is removed")
}

func TestGCSSnapshotStrategy_UploadError(t *testing.T) {
	_, path := openTestDB(t, Options{Seed: true})
	boom := errors.New("permission denied")
	s := GCSSnapshotStrategy{ObjectStore: &recordingStore{uploadErr: boom}, Bucket: "bkt", TmpDir: t.TempDir()}

	assert.ErrorIs(t, s.OnShutdown(context.Background(), path), boom)
}

func TestGCSSnapshotStrategy_Disabled(t *testing.T) {
	for _, s := range []GCSSnapshotStrategy{
		{},
		{ObjectStore: local.Noop{}},
		{ObjectStore: local.Noop{}, Bucket: "bkt", TmpDir: t.TempDir()},
	} {
		assert.NoError(t, s.OnStartup(context.Background(), "unused"))
	}

	_, path := openTestDB(t, Options{Seed: true})
	s := GCSSnapshotStrategy{ObjectStore: local.Noop{}, Bucket: "bkt", TmpDir: t.TempDir()}
	assert.NoError(t, s.OnShutdown(context.Background(), path))
}
