// Package sqlite backs the state slot with a one-row kv table, for
// deployments that have no Redis to point at.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/mistakeknot/liveboard/internal/storage"
)

//go:embed schema.sql
var schema string

type Slot struct {
	db  *sql.DB
	key string
}

func New(path string) (*Slot, error) {
	if path == "" {
		return nil, fmt.Errorf("db path required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite is single-writer; one connection avoids SQLITE_BUSY storms.
	db.SetMaxOpenConns(1)
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Slot{db: db, key: storage.StateKey}, nil
}

func NewInMemory() (*Slot, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Slot{db: db, key: storage.StateKey}, nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Slot) Load(ctx context.Context) ([]byte, bool, error) {
	var value []byte
	err := RetryOnDBLock(func() error {
		return s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, s.key).Scan(&value)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", s.key, err)
	}
	return value, true, nil
}

func (s *Slot) Store(ctx context.Context, value []byte) error {
	err := RetryOnDBLock(func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO kv (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			s.key, value)
		return err
	})
	if err != nil {
		return fmt.Errorf("store %s: %w", s.key, err)
	}
	return nil
}

func (s *Slot) Close() error {
	return s.db.Close()
}
