package sqlite

import (
	"context"
	"os"
	"path/filepath"

	storageif "github.com/kawabatas/spanner-otel-app/internal/infra/storage"
	"github.com/kawabatas/spanner-otel-app/internal/util/clock"
)

// GCSSnapshotStrategy は SQLite のスナップショットを GCS（等のObjectStore）に同期する戦略です。
// - 起動時: FileName をローカルにダウンロード
// - 終了時: VACUUM INTO で一貫スナップショットを作成 → 二相アップロード + backups/ に保管
type GCSSnapshotStrategy struct {
	ObjectStore storageif.ObjectStore
	Bucket      string
	// TmpDir receives the intermediate snapshot file. Defaults to os.TempDir().
	TmpDir string
}

func (s GCSSnapshotStrategy) OnStartup(ctx context.Context, dbPath string) error {
	if s.ObjectStore == nil || s.Bucket == "" {
		return nil
	}
	return s.ObjectStore.DownloadIfNeeded(ctx, s.Bucket, FileName, dbPath)
}

func (s GCSSnapshotStrategy) OnShutdown(ctx context.Context, dbPath string) error {
	if s.ObjectStore == nil || s.Bucket == "" {
		return nil
	}
	dir := s.TmpDir
	if dir == "" {
		dir = os.TempDir()
	}
	snap := filepath.Join(dir, "singers-snapshot-"+clock.NowUTCFormatted("20060102-150405")+".sqlite")
	if err := SnapshotTo(ctx, dbPath, snap); err != nil {
		return err
	}
	defer os.Remove(snap)
	return s.ObjectStore.UploadTwoPhaseWithBackup(ctx, s.Bucket, FileName, BackupKey(), snap)
}

// BackupKey returns backups/yyyy-mm-dd/HHMMSS-<FileName> for the current clock.
func BackupKey() string {
	now := clock.UTCNow()
	return "backups/" + now.Format("2006-01-02") + "/" + now.Format("150405") + "-" + FileName
}
