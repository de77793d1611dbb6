// Package db provides the sqlite-backed snapshot store. Alarm state is
// persisted as whole-snapshot JSON blobs under three logical keys, matching
// the load/save semantics of a key-value store.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

// Snapshot keys. Each holds one JSON document: an array of alarms, an
// array of history records, and a settings object respectively.
const (
	KeyAlarms   = "alarms"
	KeyHistory  = "alarm_history"
	KeySettings = "alarm_settings"
)

type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("chmod db path: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// PutSnapshot stores one logical key's JSON payload.
func (s *Store) PutSnapshot(ctx context.Context, key, payload string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO snapshots(key, payload, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	payload=excluded.payload,
	updated_at=excluded.updated_at
`, key, payload, ts(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("put snapshot %s: %w", key, err)
	}
	return nil
}

// PutSnapshots stores all given keys atomically. A partially written
// snapshot is never observable.
func (s *Store) PutSnapshots(ctx context.Context, entries map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	now := ts(time.Now().UTC())
	for key, payload := range entries {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO snapshots(key, payload, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	payload=excluded.payload,
	updated_at=excluded.updated_at
`, key, payload, now); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("put snapshot %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot tx: %w", err)
	}
	return nil
}

// GetSnapshot loads one logical key's JSON payload. Returns ErrNotFound
// when the key has never been written.
func (s *Store) GetSnapshot(ctx context.Context, key string) (string, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get snapshot %s: %w", key, err)
	}
	return payload, nil
}

func ts(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
