package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"

	storageif "github.com/kawabatas/spanner-otel-app/internal/infra/storage"
	"github.com/kawabatas/spanner-otel-app/internal/util/clock"
)

// Adapter implements storage.ObjectStore on top of a GCS client.
// スナップショットは起動時と終了時にしか使わないため、クライアントは呼び出しごとに生成します。
type Adapter struct{}

var _ storageif.ObjectStore = (*Adapter)(nil)

// DownloadIfNeeded fetches object into dest. Creates an empty file if the object does not exist.
func (a *Adapter) DownloadIfNeeded(ctx context.Context, bucket, object, dest string) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("gcs: new client: %w", err)
	}
	defer client.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		slog.WarnContext(ctx, "datastore file is not found on GCS, creating an empty one",
			slog.String("bucket", bucket), slog.String("object", object))
		f, err := os.Create(dest)
		if err != nil {
			return err
		}
		return f.Close()
	}
	if err != nil {
		return fmt.Errorf("gcs: open %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("gcs: download %s/%s: %w", bucket, object, err)
	}
	return out.Close()
}

// UploadTwoPhaseWithBackup implements two-phase publish and versioned backup.
func (a *Adapter) UploadTwoPhaseWithBackup(ctx context.Context, bucket, currentObject, backupObject, localPath string) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("gcs: new client: %w", err)
	}
	defer client.Close()

	bkt := client.Bucket(bucket)
	tmp := bkt.Object(currentObject + ".tmp-" + clock.NowUTCFormatted("20060102-150405"))

	// 1. tmp オブジェクトへアップロード
	if err := upload(ctx, tmp, localPath); err != nil {
		return err
	}
	cleanup := func() {
		if err := tmp.Delete(ctx); err != nil {
			slog.WarnContext(ctx, "gcs: tmp object delete failed", slog.String("object", tmp.ObjectName()), slog.Any("error", err))
		}
	}

	// 2. tmp -> current
	if _, err := bkt.Object(currentObject).CopierFrom(tmp).Run(ctx); err != nil {
		cleanup()
		return fmt.Errorf("gcs: publish %s: %w", currentObject, err)
	}

	// 3. tmp -> backups/yyyy-mm-dd/HHMMSS-<base>
	if backupObject == "" {
		backupObject = "backups/" + clock.NowUTCFormatted("2006-01-02") + "/" + clock.NowUTCFormatted("150405") + "-" + filepath.Base(currentObject)
	}
	if _, err := bkt.Object(backupObject).CopierFrom(tmp).Run(ctx); err != nil {
		cleanup()
		return fmt.Errorf("gcs: backup %s: %w", backupObject, err)
	}

	// 4. tmp を削除
	return tmp.Delete(ctx)
}

func upload(ctx context.Context, obj *storage.ObjectHandle, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	wc := obj.NewWriter(ctx)
	if _, err := io.Copy(wc, f); err != nil {
		_ = wc.Close()
		return fmt.Errorf("gcs: upload %s: %w", obj.ObjectName(), err)
	}
	return wc.Close()
}
