package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const FileName = "singers.sqlite"

// Path decides DB file path for given source.
// - "gcs": use /tmp for Cloud Run ephemeral FS
// - otherwise: local ./tmp
func Path(source string) string {
	if source == "gcs" {
		return filepath.Join("/tmp", FileName)
	}
	_ = os.MkdirAll("./tmp", 0755)
	return filepath.Join("./tmp", FileName)
}

// PRAGMAの意味:
//
//	journal_mode=WAL: 同時実行性向上のためWALモードを有効化
//	synchronous=NORMAL: 性能と耐障害性のバランスを取る
//	busy_timeout: ロック競合時の自動リトライ待機時間（ms）
const busyTimeoutMs = 2000 // HTTPリクエストタイムアウト(2s)に合わせる

func dsnWithPragma(path string) string {
	return fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(%d)", path, busyTimeoutMs)
}

// Options controls schema initialization.
type Options struct {
	// Seed inserts the sample singers when the table is empty.
	Seed bool
}

func OpenAndInit(ctx context.Context, path string, opts Options) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsnWithPragma(path))
	if err != nil {
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if opts.Seed {
		if err := seed(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

// initSchema は Cloud Spanner のサンプル Singers テーブルと同じ列構成を作ります。
func initSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS Singers (
  SingerId  INTEGER PRIMARY KEY,
  FirstName TEXT,
  LastName  TEXT
);
`); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// seed はデータが空なら初期データを投入します。
func seed(ctx context.Context, db *sql.DB) error {
	var cnt int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM Singers`).Scan(&cnt); err != nil {
		return fmt.Errorf("count singers: %w", err)
	}
	if cnt > 0 {
		return nil
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO Singers(SingerId, FirstName, LastName) VALUES
		(1, 'Marc', 'Richards'),
		(2, 'Catalina', 'Smith'),
		(3, 'Alice', 'Trentor'),
		(4, 'Lea', 'Martin'),
		(5, 'David', 'Lomond')
	`); err != nil {
		return fmt.Errorf("seed singers: %w", err)
	}
	return nil
}

// SnapshotTo は VACUUM INTO で outPath に一貫したスナップショットを作成します。
// modernc.org/sqlite は Online Backup API を公開していないため VACUUM INTO を使います。
// SQLITE_BUSY の場合は短いバックオフで数回リトライします。outPath が既に存在すると失敗します。
func SnapshotTo(ctx context.Context, dbPath, outPath string) error {
	const (
		maxRetries  = 3
		baseBackoff = 200 * time.Millisecond
	)

	db, err := sql.Open("sqlite", dsnWithPragma(dbPath))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			slog.WarnContext(ctx, "snapshot: db close error", slog.Any("error", cerr))
		}
	}()

	// VACUUM INTO はパラメータ化できないので、引用符だけはエスケープする
	vacuumSQL := fmt.Sprintf(`VACUUM INTO '%s';`, strings.ReplaceAll(outPath, "'", "''"))

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		// WAL 肥大化対策
		_, _ = db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE);")
		_, err := db.ExecContext(ctx, vacuumSQL)
		if err == nil {
			slog.InfoContext(ctx, "snapshot: success", slog.String("out", outPath), slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err
		if !isBusyErr(err) {
			slog.ErrorContext(ctx, "snapshot: failed", slog.Int("attempt", attempt), slog.Any("error", err))
			return err
		}
		backoff := baseBackoff * time.Duration(attempt)
		slog.WarnContext(ctx, "snapshot: busy, retrying", slog.Int("attempt", attempt), slog.Duration("backoff", backoff))
		t := time.NewTimer(backoff)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
	return fmt.Errorf("snapshot: all retries failed: %w", lastErr)
}

// isBusyErr は SQLITE_BUSY（"database is locked"）系エラーを判定します。
func isBusyErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "SQLITE_BUSY") || strings.Contains(s, "database is locked")
}
