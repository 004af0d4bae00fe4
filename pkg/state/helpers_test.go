package state_test

import (
	"context"
	"errors"

	wizard "github.com/WhisperLooms/grant-harness"
	"github.com/WhisperLooms/grant-harness/pkg/state"
)

func testSequencer(opts ...wizard.SequencerOption) *wizard.Sequencer {
	contact := wizard.MustSchema("contact", []wizard.Field{
		{Name: "name", Kind: wizard.KindString, Required: true, MaxLength: 80},
		{Name: "email", Kind: wizard.KindEmail, Required: true},
	}, nil)
	details := wizard.MustSchema("details", []wizard.Field{
		{Name: "employees", Kind: wizard.KindInteger, Required: true, Min: wizard.Bound(0)},
		{Name: "sameAddress", Kind: wizard.KindBool, Default: true},
	}, nil)
	review := wizard.MustSchema("review", []wizard.Field{
		{Name: "notes", Kind: wizard.KindString, MaxLength: 255},
	}, nil)
	return wizard.MustSequencer("test", []wizard.Step{
		{Name: "contact", Schema: contact},
		{Name: "details", Schema: details},
		{Name: "review", Schema: review},
	}, opts...)
}

// failingStore wraps a MemoryStore and fails selected operations.
type failingStore struct {
	*state.MemoryStore[[]byte]
	loadErr   error
	saveErr   error
	deleteErr error
	saves     int
}

func newFailingStore() *failingStore {
	return &failingStore{MemoryStore: state.NewMemoryStore[[]byte]()}
}

func (s *failingStore) Load(ctx context.Context, ref state.Ref) ([]byte, state.Meta, bool, error) {
	if s.loadErr != nil {
		return nil, state.Meta{}, false, s.loadErr
	}
	return s.MemoryStore.Load(ctx, ref)
}

func (s *failingStore) Save(ctx context.Context, ref state.Ref, snapshot []byte, meta state.Meta) (state.Meta, error) {
	s.saves++
	if s.saveErr != nil {
		return state.Meta{}, s.saveErr
	}
	return s.MemoryStore.Save(ctx, ref, snapshot, meta)
}

func (s *failingStore) Delete(ctx context.Context, ref state.Ref) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.MemoryStore.Delete(ctx, ref)
}

var errBackend = errors.New("backend unavailable")
