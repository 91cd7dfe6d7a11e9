package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LoadBlob returns the blob stored under name, or ErrNotFound.
func (s *Store) LoadBlob(ctx context.Context, name string) (string, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM blobs WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load blob %s: %w", name, err)
	}
	return data, nil
}

// SaveBlob replaces the blob stored under name.
func (s *Store) SaveBlob(ctx context.Context, name, data string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (name, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, name, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save blob %s: %w", name, err)
	}
	return nil
}
