package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	wizard "github.com/WhisperLooms/grant-harness"
	"github.com/WhisperLooms/grant-harness/internal/hydrate"
	"github.com/WhisperLooms/grant-harness/layering"
)

// FormStore is the Form State Store of one wizard session. It exclusively
// owns the Application Record and the Current Step Pointer; the backing Store
// is a write-through copy. A FormStore is not safe for concurrent use.
type FormStore struct {
	seq       *wizard.Sequencer
	store     Store[[]byte]
	namespace string
	logger    *zap.Logger

	lifecycle Lifecycle
	record    wizard.Record
	step      int
	meta      Meta
}

// FormStoreOption configures a FormStore.
type FormStoreOption func(*FormStore)

// WithNamespace prefixes both durable keys, e.g. with a profile name.
func WithNamespace(namespace string) FormStoreOption {
	return func(s *FormStore) {
		s.namespace = namespace
	}
}

// WithLogger sets the logger used to report best-effort write failures.
func WithLogger(logger *zap.Logger) FormStoreOption {
	return func(s *FormStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewFormStore returns an Uninitialized store with an empty record and the
// pointer on step 1. A nil store falls back to an in-memory one.
func NewFormStore(seq *wizard.Sequencer, store Store[[]byte], opts ...FormStoreOption) *FormStore {
	if store == nil {
		store = NewMemoryStore[[]byte]()
	}
	s := &FormStore{
		seq:    seq,
		store:  store,
		logger: zap.NewNop(),
		record: wizard.Record{},
		step:   1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = s.logger.Named("state").With(zap.String("wizard", seq.Name()))
	return s
}

// RecordRef is the durable location of the Application Record.
func (s *FormStore) RecordRef() Ref {
	return Ref{Namespace: s.namespace, Key: s.seq.RecordKey()}
}

// StepRef is the durable location of the Current Step Pointer. The flat
// layout does not persist it.
func (s *FormStore) StepRef() Ref {
	return Ref{Namespace: s.namespace, Key: s.seq.StepKey()}
}

func (s *FormStore) persistsPointer() bool {
	return s.seq.Layout() == wizard.LayoutPerStep
}

// Lifecycle returns the hydration state.
func (s *FormStore) Lifecycle() Lifecycle {
	return s.lifecycle
}

// Hydrated reports whether the durable snapshot has been loaded.
func (s *FormStore) Hydrated() bool {
	return s.lifecycle >= Hydrated
}

// Ready reports whether the consumer finished its post-hydration pass.
func (s *FormStore) Ready() bool {
	return s.lifecycle == Ready
}

// MarkReady moves a Hydrated store to Ready.
func (s *FormStore) MarkReady() {
	if s.lifecycle == Hydrated {
		s.lifecycle = Ready
	}
}

// Meta returns the metadata of the last record write or load.
func (s *FormStore) Meta() Meta {
	return s.meta
}

// Hydrate performs the one load from durable storage. An unreadable record
// or pointer is treated as absent. Only a failing backing store is returned
// as an error, and the store then stays Uninitialized. Later calls are no-ops.
func (s *FormStore) Hydrate(ctx context.Context) error {
	if s.lifecycle != Uninitialized {
		return nil
	}

	raw, meta, ok, err := s.store.Load(ctx, s.RecordRef())
	if err != nil {
		return fmt.Errorf("state: hydrate %s: %w", s.seq.RecordKey(), err)
	}
	record := wizard.Record{}
	if ok {
		decoded, err := s.decodeRecord(raw)
		if err != nil {
			s.logger.Warn("discarding unreadable record", zap.Error(err))
		} else {
			record = decoded
			s.meta = meta
		}
	}

	step := 1
	if s.persistsPointer() {
		raw, _, ok, err := s.store.Load(ctx, s.StepRef())
		if err != nil {
			return fmt.Errorf("state: hydrate %s: %w", s.seq.StepKey(), err)
		}
		if ok {
			step = s.decodePointer(raw)
		}
	}

	s.record = record
	s.step = step
	s.lifecycle = Hydrated
	s.logger.Debug("hydrated", zap.Int("steps", len(record)), zap.Int("current_step", step))

	if len(s.record) > 0 {
		s.writeRecord(ctx)
	}
	s.writePointer(ctx)
	return nil
}

// StepData returns a copy of the committed data of step id.
func (s *FormStore) StepData(id int) (wizard.StepData, bool) {
	data, ok := s.record[id]
	if !ok {
		return nil, false
	}
	return data.Clone(), true
}

// SetStepData replaces the whole data object of step id and writes the
// record through. Other steps are untouched.
func (s *FormStore) SetStepData(ctx context.Context, id int, data wizard.StepData) {
	if !s.seq.Contains(id) {
		s.logger.Error("ignoring data for unknown step", zap.Int("step", id))
		return
	}
	s.record[id] = data.Clone()
	if len(s.record[id]) == 0 {
		s.record[id] = wizard.StepData{}
	}
	if s.Hydrated() {
		s.writeRecord(ctx)
	}
}

// CurrentStep returns the pointer.
func (s *FormStore) CurrentStep() int {
	return s.step
}

// SetCurrentStep moves the pointer and writes it through.
func (s *FormStore) SetCurrentStep(ctx context.Context, id int) {
	if !s.seq.Contains(id) {
		s.logger.Error("ignoring pointer to unknown step", zap.Int("step", id))
		return
	}
	s.step = id
	if s.Hydrated() {
		s.writePointer(ctx)
	}
}

// Record returns a copy of the Application Record.
func (s *FormStore) Record() wizard.Record {
	return s.record.Clone()
}

// SaveProgress forces a write of the record and the pointer, empty or not.
func (s *FormStore) SaveProgress(ctx context.Context) error {
	var errs []error
	if err := s.saveRecord(ctx); err != nil {
		errs = append(errs, err)
	}
	if s.persistsPointer() {
		if err := s.savePointer(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear empties the record, resets the pointer to 1 and deletes the durable
// snapshot.
func (s *FormStore) Clear(ctx context.Context) error {
	s.record = wizard.Record{}
	s.step = 1
	s.meta = Meta{}

	var errs []error
	if err := s.store.Delete(ctx, s.RecordRef()); err != nil {
		errs = append(errs, fmt.Errorf("state: delete %s: %w", s.seq.RecordKey(), err))
	}
	if s.persistsPointer() {
		if err := s.store.Delete(ctx, s.StepRef()); err != nil {
			errs = append(errs, fmt.Errorf("state: delete %s: %w", s.seq.StepKey(), err))
		}
	}
	return errors.Join(errs...)
}

// writeRecord is the automatic write-through; an empty record is not
// written and failures are only logged.
func (s *FormStore) writeRecord(ctx context.Context) {
	if len(s.record) == 0 {
		return
	}
	if err := s.saveRecord(ctx); err != nil {
		s.logger.Warn("record write-through failed", zap.Error(err))
	}
}

func (s *FormStore) writePointer(ctx context.Context) {
	if !s.persistsPointer() {
		return
	}
	if err := s.savePointer(ctx); err != nil {
		s.logger.Warn("pointer write-through failed", zap.Error(err))
	}
}

func (s *FormStore) saveRecord(ctx context.Context) error {
	raw, err := s.encodeRecord()
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", s.seq.RecordKey(), err)
	}
	meta, err := s.store.Save(ctx, s.RecordRef(), raw, Meta{})
	if err != nil {
		return fmt.Errorf("state: save %s: %w", s.seq.RecordKey(), err)
	}
	s.meta = meta
	return nil
}

func (s *FormStore) savePointer(ctx context.Context) error {
	raw, err := json.Marshal(s.step)
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", s.seq.StepKey(), err)
	}
	if _, err := s.store.Save(ctx, s.StepRef(), raw, Meta{}); err != nil {
		return fmt.Errorf("state: save %s: %w", s.seq.StepKey(), err)
	}
	return nil
}

func (s *FormStore) encodeRecord() ([]byte, error) {
	if s.seq.Layout() == wizard.LayoutFlat {
		layers := make([]map[string]any, 0, len(s.record))
		for id := s.seq.StepCount(); id >= 1; id-- {
			if data, ok := s.record[id]; ok {
				layers = append(layers, data)
			}
		}
		return json.Marshal(layering.Merge(layers...))
	}

	out := make(map[string]wizard.StepData, len(s.record))
	for id, data := range s.record {
		key, err := s.seq.StorageKey(id)
		if err != nil {
			return nil, err
		}
		out[key] = data.Clone()
	}
	return json.Marshal(out)
}

func (s *FormStore) decodeRecord(raw []byte) (wizard.Record, error) {
	ctx := hydrate.Context{Wizard: s.seq.Name(), Key: s.seq.RecordKey()}

	if s.seq.Layout() == wizard.LayoutFlat {
		flat, err := hydrate.NewDecoder(hydrate.WithSnapshotHooks[wizard.StepData]()).DecodeJSON(ctx, raw)
		if err != nil {
			return nil, err
		}
		record := wizard.Record{}
		for _, step := range s.seq.Steps() {
			if picked := step.Schema.Pick(flat); len(picked) > 0 {
				record[step.ID] = picked
			}
		}
		return record, nil
	}

	byKey, err := hydrate.NewDecoder(hydrate.WithSnapshotHooks[map[string]wizard.StepData]()).DecodeJSON(ctx, raw)
	if err != nil {
		return nil, err
	}
	record := make(wizard.Record, len(byKey))
	for key, data := range byKey {
		id, ok := s.seq.StepForKey(key)
		if !ok {
			s.logger.Warn("dropping unknown record key", zap.String("key", key))
			continue
		}
		if data == nil {
			data = wizard.StepData{}
		}
		record[id] = data
	}
	return record, nil
}

func (s *FormStore) decodePointer(raw []byte) int {
	var step int
	if err := json.Unmarshal(raw, &step); err != nil {
		s.logger.Warn("discarding unreadable step pointer", zap.ByteString("raw", raw), zap.Error(err))
		return 1
	}
	if !s.seq.Contains(step) {
		s.logger.Warn("discarding out of range step pointer", zap.Int("step", step))
		return 1
	}
	return step
}
