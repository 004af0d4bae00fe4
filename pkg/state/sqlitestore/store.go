// Package sqlitestore keeps wizard snapshots in a single SQLite table. It is
// the durable key-value storage behind the CLI: one row per Ref, the payload
// stored as the JSON text written by the Form State Store.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/google/uuid"

	"github.com/WhisperLooms/grant-harness/pkg/state"
)

//go:embed schema.sql
var schemaSQL string

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store implements state.Store[[]byte] on SQLite. It is safe for concurrent
// use.
type Store struct {
	db *sql.DB
}

var _ state.Store[[]byte] = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies the
// schema. Parent directories are created.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlitestore: create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}
	// A single connection keeps :memory: databases shared and serialises
	// writers on file databases.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context, ref state.Ref) ([]byte, state.Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return nil, state.Meta{}, false, err
	}
	var (
		payload    []byte
		snapshotID string
		updatedAt  string
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT payload, snapshot_id, updated_at FROM kv_snapshots WHERE ref = ?`, key,
	).Scan(&payload, &snapshotID, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, state.Meta{}, false, nil
	}
	if err != nil {
		return nil, state.Meta{}, false, fmt.Errorf("sqlitestore: load %s: %w", key, err)
	}
	at, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, state.Meta{}, false, fmt.Errorf("sqlitestore: load %s: updated_at: %w", key, err)
	}
	return payload, state.Meta{SnapshotID: snapshotID, UpdatedAt: at}, true, nil
}

// Save upserts the snapshot. A missing SnapshotID or UpdatedAt is filled in.
func (s *Store) Save(ctx context.Context, ref state.Ref, snapshot []byte, meta state.Meta) (state.Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return state.Meta{}, err
	}
	if meta.SnapshotID == "" {
		meta.SnapshotID = uuid.NewString()
	}
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = time.Now().UTC()
	}
	if snapshot == nil {
		snapshot = []byte{}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv_snapshots (ref, payload, snapshot_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(ref) DO UPDATE SET
			payload = excluded.payload,
			snapshot_id = excluded.snapshot_id,
			updated_at = excluded.updated_at`,
		key, snapshot, meta.SnapshotID, meta.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return state.Meta{}, fmt.Errorf("sqlitestore: save %s: %w", key, err)
	}
	return meta, nil
}

func (s *Store) Delete(ctx context.Context, ref state.Ref) error {
	key, err := ref.Identifier()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_snapshots WHERE ref = ?`, key); err != nil {
		return fmt.Errorf("sqlitestore: delete %s: %w", key, err)
	}
	return nil
}

// Keys lists the stored identifiers in order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ref FROM kv_snapshots ORDER BY ref`)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: keys: %w", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("sqlitestore: keys: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
