package datastore

import "context"

// SnapshotStrategy hooks a file-backed store's lifecycle. Only the sqlite driver consults it;
// Spanner and Postgres keep their data server-side.
type SnapshotStrategy interface {
	OnStartup(ctx context.Context, dbPath string) error
	OnShutdown(ctx context.Context, dbPath string) error
}

// NoopSnapshotStrategy は何もしない実装です。
type NoopSnapshotStrategy struct{}

func (NoopSnapshotStrategy) OnStartup(context.Context, string) error  { return nil }
func (NoopSnapshotStrategy) OnShutdown(context.Context, string) error { return nil }
