package token

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteKV implements KV using the panel's local SQLite database.
//
// Values live in the kv_store table created by database.Bootstrap.
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV creates a SQLite-backed key-value store.
func NewSQLiteKV(db *sql.DB) *SQLiteKV {
	return &SQLiteKV{db: db}
}

// Get returns the value for key, with found=false if the key is absent.
func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv_store WHERE key = ?`, key,
	).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading kv slot: %w", err)
	}
	return value, true, nil
}

// Set stores the value under key, overwriting any existing value.
func (s *SQLiteKV) Set(ctx context.Context, key string, value []byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now,
	)
	if err != nil {
		return fmt.Errorf("writing kv slot: %w", err)
	}
	return nil
}
