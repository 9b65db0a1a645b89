// Package kv provides the SQLite-backed key-value store used as the local
// persistent storage of the application.
package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"allowance-app-go/internal/kvstore"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS kv_entries (
	entry_key  TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Store persists entries in a single SQLite table.
type Store struct {
	sqlDB *sql.DB
	// SQLite allows one writer; serialising here avoids SQLITE_BUSY retries.
	writeMu sync.Mutex
}

// Open opens (or creates) the database file at path and ensures the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create kv schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	return getEntry(ctx, s.sqlDB, key)
}

func (s *Store) Update(ctx context.Context, fn func(kvstore.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&sqliteTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) Get(ctx context.Context, key string) ([]byte, error) {
	return getEntry(ctx, t.tx, key)
}

func (t *sqliteTx) Put(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO kv_entries (entry_key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(entry_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (t *sqliteTx) Delete(ctx context.Context, key string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM kv_entries WHERE entry_key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func getEntry(ctx context.Context, q queryer, key string) ([]byte, error) {
	var value []byte
	err := q.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE entry_key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, kvstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}
