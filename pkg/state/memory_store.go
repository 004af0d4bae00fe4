package state

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps snapshots in a map keyed by Ref.Identifier. It is safe
// for concurrent use. Byte-slice snapshots are copied on the way in and out.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	records map[string]memoryRecord[T]
}

type memoryRecord[T any] struct {
	snapshot T
	meta     Meta
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{records: map[string]memoryRecord[T]{}}
}

func (s *MemoryStore[T]) Load(_ context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	key, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return zero, Meta{}, false, nil
	}
	return copySnapshot(record.snapshot), record.meta, true, nil
}

// Save stores snapshot. A missing SnapshotID or UpdatedAt is filled in.
func (s *MemoryStore[T]) Save(_ context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	meta = completeMeta(meta)

	s.mu.Lock()
	s.records[key] = memoryRecord[T]{snapshot: copySnapshot(snapshot), meta: meta}
	s.mu.Unlock()
	return meta, nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, ref Ref) error {
	key, err := ref.Identifier()
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored snapshots.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func copySnapshot[T any](snapshot T) T {
	if raw, ok := any(snapshot).([]byte); ok {
		return any(bytes.Clone(raw)).(T)
	}
	return snapshot
}

func completeMeta(meta Meta) Meta {
	if meta.SnapshotID == "" {
		meta.SnapshotID = uuid.NewString()
	}
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = time.Now().UTC()
	}
	return meta
}
