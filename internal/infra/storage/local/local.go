package local

import (
	"context"

	storageif "github.com/kawabatas/spanner-otel-app/internal/infra/storage"
)

// Noop implements ObjectStore with no-ops for local usage.
type Noop struct{}

var _ storageif.ObjectStore = Noop{}

func (Noop) DownloadIfNeeded(ctx context.Context, bucket, object, dest string) error { return nil }
func (Noop) UploadTwoPhaseWithBackup(ctx context.Context, bucket, currentObject, backupObject, localPath string) error {
	return nil
}
