package persist

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // SQLite driver
)

var _ Backend = (*SQLite)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS annotations (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLite keeps one row per key in a single table.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path. An empty path
// defaults to $UserConfigDir/chart-annotator/annotations.db.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			configDir = filepath.Join(os.Getenv("HOME"), ".config")
		}
		path = filepath.Join(configDir, "chart-annotator", "annotations.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating database directory")
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	// single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating schema")
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM annotations WHERE key = ?`, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, errors.Wrapf(err, "selecting %s", key)
	}
	return payload, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO annotations (key, payload, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return errors.Wrapf(err, "upserting %s", key)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM annotations WHERE key = ?`, key); err != nil {
		return errors.Wrapf(err, "deleting %s", key)
	}
	return nil
}

func (s *SQLite) Keys(ctx context.Context, prefix string) ([]string, error) {
	// BINARY collation orders keys bytewise, so every key with the prefix
	// sits in one run starting at the prefix itself.
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM annotations WHERE key >= ? ORDER BY key`, prefix)
	if err != nil {
		return nil, errors.Wrap(err, "listing keys")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, errors.Wrap(err, "scanning key")
		}
		if !strings.HasPrefix(k, prefix) {
			break
		}
		keys = append(keys, k)
	}
	return keys, errors.Wrap(rows.Err(), "iterating keys")
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
