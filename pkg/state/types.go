package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidRef = errors.New("state: invalid ref")

// Ref names one durable snapshot. Namespace is optional and separates
// independent profiles sharing one backing store.
type Ref struct {
	Namespace string
	Key       string
}

// Identifier returns the canonical storage key: Key, or Namespace/Key.
func (r Ref) Identifier() (string, error) {
	key := strings.TrimSpace(r.Key)
	if key == "" {
		return "", fmt.Errorf("%w: key is required", ErrInvalidRef)
	}
	if strings.Contains(key, "/") {
		return "", fmt.Errorf("%w: key %q must not contain '/'", ErrInvalidRef, key)
	}
	ns := strings.Trim(strings.TrimSpace(r.Namespace), "/")
	if ns == "" {
		return key, nil
	}
	return ns + "/" + key, nil
}

// Meta is storage-owned metadata about a saved snapshot.
type Meta struct {
	SnapshotID string    `json:"snapshot_id,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// Store loads, saves and deletes one snapshot per Ref. Load reports ok=false
// for a missing snapshot; Delete of a missing snapshot is not an error.
type Store[T any] interface {
	Load(ctx context.Context, ref Ref) (snapshot T, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error)
	Delete(ctx context.Context, ref Ref) error
}

// Lifecycle is the hydration state of a FormStore.
type Lifecycle int

const (
	Uninitialized Lifecycle = iota
	Hydrated
	Ready
)

func (l Lifecycle) String() string {
	switch l {
	case Uninitialized:
		return "uninitialized"
	case Hydrated:
		return "hydrated"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("lifecycle(%d)", int(l))
	}
}
