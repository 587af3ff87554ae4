package storage

import "context"

// ObjectStore abstracts a minimal object-storage API used for SQLite snapshots.
type ObjectStore interface {
	// DownloadIfNeeded copies object into dest. A missing object is not an error.
	DownloadIfNeeded(ctx context.Context, bucket, object, dest string) error
	// UploadTwoPhaseWithBackup uploads localPath to a tmp object, copies it to currentObject
	// and backupObject, then removes the tmp.
	UploadTwoPhaseWithBackup(ctx context.Context, bucket, currentObject, backupObject, localPath string) error
}
