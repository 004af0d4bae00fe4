package state_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	wizard "github.com/WhisperLooms/grant-harness"
	"github.com/WhisperLooms/grant-harness/pkg/state"
)

func loadRaw(t *testing.T, store state.Store[[]byte], key string) (string, bool) {
	t.Helper()
	raw, _, ok, err := store.Load(context.Background(), state.Ref{Key: key})
	require.NoError(t, err)
	return string(raw), ok
}

func TestFormStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	fs := state.NewFormStore(testSequencer(), nil)

	assert.Equal(t, state.Uninitialized, fs.Lifecycle())
	assert.False(t, fs.Hydrated())

	fs.MarkReady()
	assert.Equal(t, state.Uninitialized, fs.Lifecycle(), "MarkReady before hydration must not skip a state")

	require.NoError(t, fs.Hydrate(ctx))
	assert.Equal(t, state.Hydrated, fs.Lifecycle())

	fs.MarkReady()
	assert.Equal(t, state.Ready, fs.Lifecycle())
	assert.True(t, fs.Hydrated())

	require.NoError(t, fs.Hydrate(ctx))
	assert.Equal(t, state.Ready, fs.Lifecycle(), "second Hydrate is a no-op")
}

func TestFormStoreNoWriteThroughBeforeHydration(t *testing.T) {
	ctx := context.Background()
	backing := newFailingStore()
	fs := state.NewFormStore(testSequencer(), backing)

	fs.SetStepData(ctx, 1, wizard.StepData{"name": "Ada"})
	fs.SetCurrentStep(ctx, 2)

	assert.Equal(t, 0, backing.saves)
	assert.Equal(t, 2, fs.CurrentStep())
}

func TestFormStoreHydrationReplacesPlaceholderState(t *testing.T) {
	ctx := context.Background()
	backing := state.NewMemoryStore[[]byte]()
	_, err := backing.Save(ctx, state.Ref{Key: "test_form"}, []byte(`{"step1_contact":{"name":"Ada","email":"ada@example.com"}}`), state.Meta{})
	require.NoError(t, err)
	_, err = backing.Save(ctx, state.Ref{Key: "test_current_step"}, []byte(`2`), state.Meta{})
	require.NoError(t, err)

	fs := state.NewFormStore(testSequencer(), backing)
	fs.SetStepData(ctx, 3, wizard.StepData{"notes": "placeholder"})

	require.NoError(t, fs.Hydrate(ctx))

	want := wizard.Record{1: {"name": "Ada", "email": "ada@example.com"}}
	if diff := cmp.Diff(want, fs.Record()); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, fs.CurrentStep())
	assert.NotEmpty(t, fs.Meta().SnapshotID)
}

func TestFormStoreWriteThroughRules(t *testing.T) {
	ctx := context.Background()
	backing := state.NewMemoryStore[[]byte]()
	fs := state.NewFormStore(testSequencer(), backing)
	require.NoError(t, fs.Hydrate(ctx))

	_, ok := loadRaw(t, backing, "test_form")
	assert.False(t, ok, "an empty record is not written automatically")
	pointer, ok := loadRaw(t, backing, "test_current_step")
	require.True(t, ok, "the pointer is written once hydrated")
	assert.Equal(t, "1", pointer)

	fs.SetStepData(ctx, 1, wizard.StepData{"name": "Ada", "email": "ada@example.com"})
	record, ok := loadRaw(t, backing, "test_form")
	require.True(t, ok)
	assert.JSONEq(t, `{"step1_contact":{"name":"Ada","email":"ada@example.com"}}`, record)

	fs.SetCurrentStep(ctx, 2)
	pointer, _ = loadRaw(t, backing, "test_current_step")
	assert.Equal(t, "2", pointer)
}

func TestFormStoreSetStepDataReplacesWholeStep(t *testing.T) {
	ctx := context.Background()
	fs := state.NewFormStore(testSequencer(), nil)
	require.NoError(t, fs.Hydrate(ctx))

	fs.SetStepData(ctx, 1, wizard.StepData{"name": "Ada", "email": "ada@example.com"})
	fs.SetStepData(ctx, 2, wizard.StepData{"employees": 4.0})
	fs.SetStepData(ctx, 1, wizard.StepData{"name": "Grace", "email": nil})

	step1, ok := fs.StepData(1)
	require.True(t, ok)
	assert.Equal(t, wizard.StepData{"name": "Grace"}, step1)
	step2, ok := fs.StepData(2)
	require.True(t, ok)
	assert.Equal(t, wizard.StepData{"employees": 4.0}, step2)

	step1["name"] = "mutated"
	again, _ := fs.StepData(1)
	assert.Equal(t, "Grace", again["name"], "StepData returns a copy")

	_, ok = fs.StepData(3)
	assert.False(t, ok)
}

func TestFormStoreIgnoresUnknownSteps(t *testing.T) {
	ctx := context.Background()
	fs := state.NewFormStore(testSequencer(), nil)
	require.NoError(t, fs.Hydrate(ctx))

	fs.SetStepData(ctx, 9, wizard.StepData{"x": 1.0})
	fs.SetCurrentStep(ctx, 0)

	assert.Empty(t, fs.Record())
	assert.Equal(t, 1, fs.CurrentStep())
}

func TestFormStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	record := wizard.Record{
		1: {"name": "Ada Lovelace", "email": "ada@example.com"},
		2: {"employees": 12.0, "sameAddress": false},
		3: {},
	}

	for _, layout := range []wizard.Layout{wizard.LayoutPerStep, wizard.LayoutFlat} {
		backing := state.NewMemoryStore[[]byte]()
		seq := testSequencer(wizard.WithLayout(layout))

		writer := state.NewFormStore(seq, backing)
		require.NoError(t, writer.Hydrate(ctx))
		for id, data := range record {
			writer.SetStepData(ctx, id, data)
		}
		writer.SetCurrentStep(ctx, 3)
		require.NoError(t, writer.SaveProgress(ctx))

		reader := state.NewFormStore(seq, backing)
		require.NoError(t, reader.Hydrate(ctx))

		want := record.Clone()
		wantStep := 3
		if layout == wizard.LayoutFlat {
			delete(want, 3)
			wantStep = 1
		}
		if diff := cmp.Diff(want, reader.Record()); diff != "" {
			t.Fatalf("layout %d: record mismatch (-want +got):\n%s", layout, diff)
		}
		assert.Equal(t, wantStep, reader.CurrentStep(), "layout %d", layout)
	}
}

func TestFormStoreFlatLayoutUsesSingleKey(t *testing.T) {
	ctx := context.Background()
	backing := state.NewMemoryStore[[]byte]()
	seq := testSequencer(wizard.WithLayout(wizard.LayoutFlat), wizard.WithStorageKeys("multistep_form_data", ""))
	fs := state.NewFormStore(seq, backing)
	require.NoError(t, fs.Hydrate(ctx))

	fs.SetStepData(ctx, 1, wizard.StepData{"name": "Ada", "email": "ada@example.com"})
	fs.SetStepData(ctx, 3, wizard.StepData{"notes": "great"})
	fs.SetCurrentStep(ctx, 3)

	raw, ok := loadRaw(t, backing, "multistep_form_data")
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"Ada","email":"ada@example.com","notes":"great"}`, raw)
	assert.Equal(t, 1, backing.Len(), "the flat layout never writes a pointer key")
}

func TestFormStoreClearResetsFully(t *testing.T) {
	ctx := context.Background()
	backing := state.NewMemoryStore[[]byte]()
	seq := testSequencer()
	fs := state.NewFormStore(seq, backing)
	require.NoError(t, fs.Hydrate(ctx))
	fs.SetStepData(ctx, 1, wizard.StepData{"name": "Ada", "email": "ada@example.com"})
	fs.SetStepData(ctx, 2, wizard.StepData{"employees": 3.0})
	fs.SetCurrentStep(ctx, 3)
	require.Equal(t, 2, backing.Len())

	require.NoError(t, fs.Clear(ctx))

	for id := 1; id <= seq.StepCount(); id++ {
		_, ok := fs.StepData(id)
		assert.False(t, ok, "step %d", id)
	}
	assert.Equal(t, 1, fs.CurrentStep())
	assert.Equal(t, 0, backing.Len())

	fresh := state.NewFormStore(seq, backing)
	require.NoError(t, fresh.Hydrate(ctx))
	assert.Empty(t, fresh.Record())
	assert.Equal(t, 1, fresh.CurrentStep())
}

func TestFormStoreDiscardsUnreadableSnapshot(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	backing := state.NewMemoryStore[[]byte]()
	_, _ = backing.Save(ctx, state.Ref{Key: "test_form"}, []byte(`{"step1_contact":`), state.Meta{})
	_, _ = backing.Save(ctx, state.Ref{Key: "test_current_step"}, []byte(`7`), state.Meta{})

	fs := state.NewFormStore(testSequencer(), backing, state.WithLogger(zap.New(core)))
	require.NoError(t, fs.Hydrate(ctx))

	assert.Empty(t, fs.Record())
	assert.Equal(t, 1, fs.CurrentStep())
	assert.Equal(t, 1, logs.FilterMessage("discarding unreadable record").Len())
	assert.Equal(t, 1, logs.FilterMessage("discarding out of range step pointer").Len())
}

func TestFormStoreDropsUnknownRecordKeys(t *testing.T) {
	ctx := context.Background()
	backing := state.NewMemoryStore[[]byte]()
	_, _ = backing.Save(ctx, state.Ref{Key: "test_form"}, []byte(`{"step1_contact":{"name":"Ada"},"step9_legacy":{"x":1}}`), state.Meta{})

	fs := state.NewFormStore(testSequencer(), backing)
	require.NoError(t, fs.Hydrate(ctx))

	assert.Equal(t, wizard.Record{1: {"name": "Ada"}}, fs.Record())
}

func TestFormStoreHydrateFailsOnBackendError(t *testing.T) {
	backing := newFailingStore()
	backing.loadErr = errBackend
	fs := state.NewFormStore(testSequencer(), backing)

	err := fs.Hydrate(context.Background())

	require.ErrorIs(t, err, errBackend)
	assert.Equal(t, state.Uninitialized, fs.Lifecycle())
}

func TestFormStoreWriteThroughIsBestEffort(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	backing := newFailingStore()
	fs := state.NewFormStore(testSequencer(), backing, state.WithLogger(zap.New(core)))
	require.NoError(t, fs.Hydrate(ctx))
	backing.saveErr = errBackend

	fs.SetStepData(ctx, 1, wizard.StepData{"name": "Ada"})
	fs.SetCurrentStep(ctx, 2)

	data, ok := fs.StepData(1)
	require.True(t, ok)
	assert.Equal(t, "Ada", data["name"])
	assert.Equal(t, 2, fs.CurrentStep())
	assert.Equal(t, 1, logs.FilterMessage("record write-through failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("pointer write-through failed").Len())

	err := fs.SaveProgress(ctx)
	assert.ErrorIs(t, err, errBackend, "an explicit save reports failures")
}

func TestFormStoreClearReportsDeleteFailure(t *testing.T) {
	ctx := context.Background()
	backing := newFailingStore()
	fs := state.NewFormStore(testSequencer(), backing)
	require.NoError(t, fs.Hydrate(ctx))
	fs.SetStepData(ctx, 1, wizard.StepData{"name": "Ada"})
	backing.deleteErr = errBackend

	err := fs.Clear(ctx)

	require.ErrorIs(t, err, errBackend)
	assert.Empty(t, fs.Record(), "memory is reset even when the backend fails")
}

func TestFormStoreNamespace(t *testing.T) {
	ctx := context.Background()
	backing := state.NewMemoryStore[[]byte]()
	fs := state.NewFormStore(testSequencer(), backing, state.WithNamespace("alice"))
	require.NoError(t, fs.Hydrate(ctx))
	fs.SetStepData(ctx, 1, wizard.StepData{"name": "Ada"})

	_, _, ok, err := backing.Load(ctx, state.Ref{Namespace: "alice", Key: "test_form"})
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok = loadRaw(t, backing, "test_form")
	assert.False(t, ok)
}

func TestFormStoreWritesUnderSequencerKeys(t *testing.T) {
	ctx := context.Background()
	backing := state.NewMemoryStore[[]byte]()
	seq := testSequencer(wizard.WithStorageKeys("grant_application", "grant_step"))
	store := state.NewFormStore(seq, backing, state.WithNamespace("alice"))
	require.NoError(t, store.Hydrate(ctx))

	assert.Equal(t, state.Ref{Namespace: "alice", Key: "grant_application"}, store.RecordRef())
	assert.Equal(t, state.Ref{Namespace: "alice", Key: "grant_step"}, store.StepRef())

	store.SetStepData(ctx, 1, wizard.StepData{"name": "Ada"})
	store.SetCurrentStep(ctx, 2)

	_, _, ok, err := backing.Load(ctx, store.RecordRef())
	require.NoError(t, err)
	assert.True(t, ok)
	raw, _, ok, err := backing.Load(ctx, store.StepRef())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2", string(raw))
	_, ok = loadRaw(t, backing, "test_form")
	assert.False(t, ok)
}
