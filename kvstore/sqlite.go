package kvstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"chanplan/sqliteutil"
)

const sqliteSchema = `create table if not exists kv (
	key   text primary key,
	value text not null
)`

// SQLite is a Store kept in a single SQLite file in WAL mode.
type SQLite struct {
	db *sql.DB

	mu     sync.Mutex
	closed bool
}

// Purpose: Open (or create) the SQLite-backed group store.
// Key aspects: Runs sqliteutil.Preflight first so a damaged file is moved
// aside instead of blocking startup; a single connection serializes writers.
// Upstream: main store wiring, tests.
// Downstream: sqliteutil.Preflight, modernc sqlite driver.
func OpenSQLite(path string, busyTimeout time.Duration, logf func(string, ...any)) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("kvstore: sqlite path is empty")
	}
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	if _, err := sqliteutil.Preflight(path, busyTimeout, logf); err != nil {
		return nil, fmt.Errorf("kvstore: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("kvstore: sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	pragmas := fmt.Sprintf("pragma journal_mode=WAL; pragma synchronous=NORMAL; pragma busy_timeout=%d", busyTimeout.Milliseconds())
	if _, err := db.Exec(pragmas); err != nil {
		db.Close()
		return nil, fmt.Errorf("kvstore: sqlite pragmas: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("kvstore: sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *SQLite) Get(key string) (string, bool, error) {
	if s.isClosed() {
		return "", false, ErrClosed
	}
	var value string
	err := s.db.QueryRow(`select value from kv where key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kvstore: sqlite get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLite) Keys(prefix string) ([]string, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	var (
		rows *sql.Rows
		err  error
	)
	upper := prefixUpperBound([]byte(prefix))
	switch {
	case prefix == "":
		rows, err = s.db.Query(`select key from kv order by key`)
	case upper == nil:
		rows, err = s.db.Query(`select key from kv where key >= ? order by key`, prefix)
	default:
		rows, err = s.db.Query(`select key from kv where key >= ? and key < ? order by key`, prefix, string(upper))
	}
	if err != nil {
		return nil, fmt.Errorf("kvstore: sqlite keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("kvstore: sqlite scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("kvstore: sqlite iterate keys: %w", err)
	}
	return keys, nil
}

// Apply runs ops inside one transaction; any failure rolls back the lot.
func (s *SQLite) Apply(ops []Op) error {
	if s.isClosed() {
		return ErrClosed
	}
	if len(ops) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("kvstore: sqlite begin: %w", err)
	}
	for _, op := range ops {
		switch op.Kind {
		case OpSet:
			_, err = tx.Exec(`insert into kv(key, value) values(?, ?)
				on conflict(key) do update set value = excluded.value`, op.Key, op.Value)
		case OpDelete:
			_, err = tx.Exec(`delete from kv where key = ?`, op.Key)
		default:
			err = fmt.Errorf("unknown op kind %d", op.Kind)
		}
		if err != nil {
			_ = tx.Rollback()
			return quotaError(fmt.Errorf("kvstore: sqlite apply %s: %w", op.Key, err), isSQLiteFull)
		}
	}
	if err := tx.Commit(); err != nil {
		return quotaError(fmt.Errorf("kvstore: sqlite commit: %w", err), isSQLiteFull)
	}
	return nil
}

// isSQLiteFull reports SQLITE_FULL (database or disk full), including its
// extended codes.
func isSQLiteFull(err error) bool {
	var serr *sqlite.Error
	return errors.As(err, &serr) && serr.Code()&0xff == sqlite3.SQLITE_FULL
}

func (s *SQLite) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.db.Close()
}
