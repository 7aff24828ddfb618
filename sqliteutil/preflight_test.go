package sqliteutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func TestPreflightMissingFileIsHealthy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "groups.db")
	rep, err := Preflight(path, time.Second, func(string, ...any) {})
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	if !rep.Healthy || rep.Quarantined {
		t.Fatalf("expected healthy report, got %+v", rep)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Fatalf("expected parent dir to be created: %v", err)
	}
}

func TestPreflightHealthy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if _, err := db.Exec("create table kv (key text primary key, value text)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	db.Close()

	rep, err := Preflight(path, time.Second, nil)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	if !rep.Healthy || rep.Quarantined {
		t.Fatalf("expected healthy report, got %+v", rep)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected db to remain: %v", err)
	}
}

func TestPreflightQuarantinesCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.db")
	if err := os.WriteFile(path, []byte("not a sqlite database"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if err := os.WriteFile(path+"-journal", []byte("sidecar"), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}

	var logged []string
	rep, err := Preflight(path, time.Second, func(format string, args ...any) {
		logged = append(logged, format)
	})
	if err != nil {
		t.Fatalf("expected quarantine, got error: %v", err)
	}
	if rep.Healthy || !rep.Quarantined {
		t.Fatalf("expected quarantine, got %+v", rep)
	}
	if !strings.Contains(rep.QuarantinePath, ".bad-") {
		t.Fatalf("quarantine path not suffixed: %s", rep.QuarantinePath)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected original db to be renamed, stat err=%v", err)
	}
	if _, err := os.Stat(path + "-journal"); err == nil {
		t.Fatalf("expected sidecar to move with the db")
	}
	if len(logged) == 0 {
		t.Fatalf("expected quarantine to be logged")
	}
}
