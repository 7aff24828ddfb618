// Package sqliteutil checks SQLite group databases before they are opened for
// real work, moving unreadable files aside so the session can start fresh.
package sqliteutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultPreflightTimeout = 2 * time.Second

// Report describes what Preflight found and did.
type Report struct {
	Healthy        bool
	Quarantined    bool
	QuarantinePath string // main database file only
	Elapsed        time.Duration
	CheckpointErr  error
	IntegrityErr   error
}

// Purpose: Run a bounded WAL checkpoint and quick_check on a database file.
// Key aspects: A missing file is healthy (it will be created). A damaged file
// and its -wal/-shm/-journal sidecars are renamed to <name>.bad-<timestamp>.
// Upstream: kvstore.OpenSQLite.
// Downstream: runCheckpoint, quickCheck, quarantine.
func Preflight(path string, timeout time.Duration, logf func(string, ...any)) (Report, error) {
	if logf == nil {
		logf = log.Printf
	}
	if timeout <= 0 {
		timeout = defaultPreflightTimeout
	}
	var rep Report
	if strings.TrimSpace(path) == "" {
		return rep, errors.New("sqliteutil: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return rep, fmt.Errorf("sqliteutil: ensure dir: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		rep.Healthy = true
		return rep, nil
	}

	start := time.Now()
	existing := collectExisting(path)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return rep, fmt.Errorf("sqliteutil: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, fmt.Sprintf("pragma busy_timeout=%d", timeout.Milliseconds())); err != nil {
		db.Close()
		return rep, fmt.Errorf("sqliteutil: busy_timeout: %w", err)
	}
	rep.CheckpointErr = runCheckpoint(ctx, db)
	rep.IntegrityErr = quickCheck(ctx, db)
	rep.Elapsed = time.Since(start)
	db.Close()

	if rep.CheckpointErr == nil && rep.IntegrityErr == nil {
		rep.Healthy = true
		return rep, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return rep, fmt.Errorf("sqliteutil: preflight of %s timed out after %s", path, timeout)
	}

	dest, err := quarantine(path, existing, logf)
	if err != nil {
		return rep, fmt.Errorf("sqliteutil: quarantine %s: %w (checkpoint=%v, quick_check=%v)", path, err, rep.CheckpointErr, rep.IntegrityErr)
	}
	rep.Quarantined = true
	rep.QuarantinePath = dest
	cause := rep.IntegrityErr
	if rep.CheckpointErr != nil {
		cause = rep.CheckpointErr
	}
	logf("sqlite preflight: %s unusable (%v); moved to %s after %s", path, cause, dest, rep.Elapsed)
	return rep, nil
}

func runCheckpoint(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, "pragma wal_checkpoint(TRUNCATE)")
	return err
}

func quickCheck(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, "pragma quick_check")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return err
		}
		if strings.TrimSpace(status) != "ok" {
			return fmt.Errorf("quick_check reported %q", status)
		}
	}
	return rows.Err()
}
