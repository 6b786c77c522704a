package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/ingredients/pkg/ingredients/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled. Every pooled
// connection waits up to five seconds for a locked database.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	dsn, err := fileDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// fileDSN builds a file: URI for path. The path is percent-escaped so "?",
// "#" and "%" in file names are not read as URI syntax.
func fileDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p, RawQuery: "_pragma=busy_timeout(5000)"}
	return u.String(), nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS parses (
	key TEXT PRIMARY KEY,
	id TEXT NOT NULL,
	line TEXT NOT NULL,
	fingerprint TEXT,
	payload BLOB NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_parses_fingerprint ON parses(fingerprint);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (s *sqliteStore) GetParse(ctx context.Context, key string) (store.Record, bool, error) {
	const q = `SELECT id, key, line, fingerprint, payload, created_at FROM parses WHERE key = ?`

	var (
		r       store.Record
		fp      sql.NullString
		created string
	)
	err := s.db.QueryRowContext(ctx, q, key).Scan(&r.ID, &r.Key, &r.Line, &fp, &r.Payload, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Record{}, false, nil
	}
	if err != nil {
		return store.Record{}, false, fmt.Errorf("get parse %s: %w", key, err)
	}
	r.Fingerprint = fp.String
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		r.CreatedAt = t
	}
	return r, true, nil
}

func (s *sqliteStore) PutParse(ctx context.Context, r store.Record) error {
	if r.Key == "" {
		return fmt.Errorf("put parse: empty key")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	const stmt = `
INSERT INTO parses (key, id, line, fingerprint, payload, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	id=excluded.id,
	line=excluded.line,
	fingerprint=excluded.fingerprint,
	payload=excluded.payload,
	created_at=excluded.created_at;
`
	_, err := s.db.ExecContext(ctx, stmt,
		r.Key,
		r.ID,
		r.Line,
		r.Fingerprint,
		r.Payload,
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put parse %s: %w", r.Key, err)
	}
	return nil
}

func (s *sqliteStore) CountParses(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parses`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
