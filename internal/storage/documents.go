package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Well-known document names. Each holds one serialized list, read once at
// startup and rewritten in full on every mutation.
const (
	DocPantry    = "pantry"
	DocFavorites = "favorites"
	DocProfile   = "profile"
)

// DocumentStore persists named JSON documents to SQLite.
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Put serializes v and replaces the document stored under name.
func (s *DocumentStore) Put(ctx context.Context, name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal document %q: %w", name, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (name, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write document %q: %w", name, err)
	}
	return nil
}

// Get loads the document stored under name into v. It returns false when no
// document exists yet, which is not an error.
func (s *DocumentStore) Get(ctx context.Context, name string, v interface{}) (bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE name = ?`, name).Scan(&data)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read document %q: %w", name, err)
	}

	if err := json.Unmarshal([]byte(data), v); err != nil {
		return false, fmt.Errorf("failed to unmarshal document %q: %w", name, err)
	}
	return true, nil
}

// Delete removes the document stored under name, if any.
func (s *DocumentStore) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete document %q: %w", name, err)
	}
	return nil
}
