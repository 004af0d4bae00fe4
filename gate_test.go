package wizard

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/WhisperLooms/grant-harness/pkg/activity"
)

// memoryFormStore is a minimal FormStore that counts durable writes.
type memoryFormStore struct {
	hydrated bool
	ready    bool
	record   Record
	step     int
	saves    int
	clears   int
	saveErr  error
}

func newMemoryFormStore() *memoryFormStore {
	return &memoryFormStore{hydrated: true, record: Record{}, step: 1}
}

func (s *memoryFormStore) Hydrated() bool { return s.hydrated }
func (s *memoryFormStore) MarkReady()     { s.ready = true }
func (s *memoryFormStore) StepData(id int) (StepData, bool) {
	data, ok := s.record[id]
	return data.Clone(), ok
}
func (s *memoryFormStore) SetStepData(_ context.Context, id int, data StepData) {
	s.record[id] = data
}
func (s *memoryFormStore) CurrentStep() int                        { return s.step }
func (s *memoryFormStore) SetCurrentStep(_ context.Context, id int) { s.step = id }
func (s *memoryFormStore) Record() Record                          { return s.record.Clone() }
func (s *memoryFormStore) SaveProgress(context.Context) error {
	s.saves++
	return s.saveErr
}
func (s *memoryFormStore) Clear(context.Context) error {
	s.clears++
	s.record = Record{}
	s.step = 1
	return nil
}

type gateFixture struct {
	gate    *Gate
	store   *memoryFormStore
	capture *activity.CaptureHook
	paths   []string
}

func newGateFixture(t *testing.T, opts ...GateOption) *gateFixture {
	t.Helper()
	f := &gateFixture{store: newMemoryFormStore(), capture: &activity.CaptureHook{}}
	opts = append([]GateOption{
		WithRouter(RouterFunc(func(path string) { f.paths = append(f.paths, path) })),
		WithActivity(activity.NewEmitter(activity.Hooks{f.capture}, activity.Config{Enabled: true})),
		WithSession("session-1", "actor-1"),
	}, opts...)
	f.gate = NewGate(MustSequencer("grant", threeSteps()), f.store, opts...)
	if err := f.gate.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	return f
}

func (f *gateFixture) edit(t *testing.T, values StepData) Result {
	t.Helper()
	res, err := f.gate.EditAll(values)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	return res
}

func TestGateOpenRequiresHydration(t *testing.T) {
	store := newMemoryFormStore()
	store.hydrated = false
	gate := NewGate(MustSequencer("grant", threeSteps()), store)

	if err := gate.Open(context.Background()); !errors.Is(err, ErrNotHydrated) {
		t.Fatalf("expected ErrNotHydrated, got %v", err)
	}
	if _, err := gate.Edit("name", "Ada"); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
	if store.ready {
		t.Fatalf("store must not be marked ready")
	}
}

func TestGateOpenResumesStoredStep(t *testing.T) {
	store := newMemoryFormStore()
	store.step = 2
	store.record[2] = StepData{"employees": 4.0}
	gate := NewGate(MustSequencer("grant", threeSteps()), store)

	if err := gate.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	if gate.Step() != 2 || !store.ready {
		t.Fatalf("expected step 2 and ready store, got %d / %v", gate.Step(), store.ready)
	}
	data := gate.Data()
	if data["employees"] != 4.0 || data["sameAddress"] != true {
		t.Fatalf("expected stored data over defaults, got %v", data)
	}
	if !gate.Valid() {
		t.Fatalf("post-hydration pass should mark the step valid, got %v", gate.Result().Errors)
	}
}

func TestGateOpenResetsOutOfRangePointer(t *testing.T) {
	store := newMemoryFormStore()
	store.step = 9
	gate := NewGate(MustSequencer("grant", threeSteps()), store)
	if err := gate.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	if gate.Step() != 1 || store.step != 1 {
		t.Fatalf("expected reset to step 1, got %d / %d", gate.Step(), store.step)
	}
}

func TestGateEditsStayLocalUntilAdvance(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)

	if res := f.edit(t, StepData{"name": ""}); res.Valid {
		t.Fatalf("empty name should be invalid")
	}
	if _, ok := f.store.StepData(1); ok {
		t.Fatalf("edits must not be committed")
	}
	var blocked *BlockedError
	if _, err := f.gate.Advance(ctx); !errors.As(err, &blocked) || blocked.Action != "advance" {
		t.Fatalf("expected BlockedError, got %v", err)
	}
	if f.gate.Step() != 1 || len(f.capture.Events()) != 0 {
		t.Fatalf("blocked advance must not move or emit")
	}

	f.edit(t, StepData{"name": "Ada"})
	to, err := f.gate.Advance(ctx)
	if err != nil || to != 2 {
		t.Fatalf("advance = %d, %v", to, err)
	}
	if data, _ := f.store.StepData(1); data["name"] != "Ada" {
		t.Fatalf("advance should commit step 1, got %v", data)
	}
	if f.store.step != 2 {
		t.Fatalf("pointer should move to 2, got %d", f.store.step)
	}
	if !slices.Equal(f.paths, []string{"/grant/step1", "/grant/step2"}) {
		t.Fatalf("unexpected routes %v", f.paths)
	}
	events := f.capture.Events()
	if len(events) != 1 || events[0].Verb != activity.VerbStepAdvanced || events[0].ObjectID != "session-1" || events[0].ActorID != "actor-1" {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestGateEditRemovesFieldOnNil(t *testing.T) {
	f := newGateFixture(t)
	f.edit(t, StepData{"name": "Ada"})
	res, err := f.gate.Edit("name", nil)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if _, ok := f.gate.Data()["name"]; ok || res.Valid {
		t.Fatalf("nil edit should remove the field, got %v", f.gate.Data())
	}
}

func TestGateRetreatDiscardsUncommittedEdits(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)

	if _, err := f.gate.Retreat(ctx); !errors.Is(err, ErrFirstStep) {
		t.Fatalf("expected ErrFirstStep, got %v", err)
	}
	f.edit(t, StepData{"name": "Ada"})
	if _, err := f.gate.Advance(ctx); err != nil {
		t.Fatalf("advance: %v", err)
	}
	f.edit(t, StepData{"employees": "-3"})
	if f.gate.Valid() {
		t.Fatalf("negative employees should be invalid")
	}

	to, err := f.gate.Retreat(ctx)
	if err != nil || to != 1 {
		t.Fatalf("retreat from invalid step = %d, %v", to, err)
	}
	if _, ok := f.store.StepData(2); ok {
		t.Fatalf("retreat must not commit step 2")
	}
	if f.gate.Data()["name"] != "Ada" {
		t.Fatalf("step 1 should reload committed data, got %v", f.gate.Data())
	}
	verbs := f.capture.Verbs()
	if verbs[len(verbs)-1] != activity.VerbStepRetreated {
		t.Fatalf("expected retreat event, got %v", verbs)
	}
}

func TestGateGoTo(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)

	var unknown *UnknownStepError
	if _, err := f.gate.GoTo(ctx, 4); !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownStepError, got %v", err)
	}

	f.edit(t, StepData{"name": "Ada"})
	step, err := f.gate.GoTo(ctx, 3)
	var blocked *BlockedError
	if !errors.As(err, &blocked) || step != 2 {
		t.Fatalf("forward jump should stop at invalid step 2, got %d / %v", step, err)
	}

	f.edit(t, StepData{"employees": 3.0})
	if step, err = f.gate.GoTo(ctx, 3); err != nil || step != 3 {
		t.Fatalf("goto 3 = %d, %v", step, err)
	}
	if step, err = f.gate.GoTo(ctx, 1); err != nil || step != 1 {
		t.Fatalf("goto 1 = %d, %v", step, err)
	}
	if step, err = f.gate.GoTo(ctx, 1); err != nil || step != 1 {
		t.Fatalf("goto current step = %d, %v", step, err)
	}
}

func TestGateSaveDraftCommitsInvalidData(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)

	f.edit(t, StepData{"name": ""})
	if err := f.gate.SaveDraft(ctx); err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if f.store.saves != 1 || f.gate.Step() != 1 {
		t.Fatalf("expected one forced save on step 1, got %d / %d", f.store.saves, f.gate.Step())
	}
	if _, ok := f.store.StepData(1); !ok {
		t.Fatalf("draft should be committed")
	}

	f.store.saveErr = errors.New("disk full")
	if err := f.gate.SaveDraft(ctx); err == nil {
		t.Fatalf("expected save error")
	}
	if !slices.Equal(f.capture.Verbs(), []string{activity.VerbDraftSaved}) {
		t.Fatalf("failed save must not emit, got %v", f.capture.Verbs())
	}
}

func TestGateSubmit(t *testing.T) {
	ctx := context.Background()
	var submitted Submission
	f := newGateFixture(t, WithSubmitter(SubmitterFunc(func(_ context.Context, s Submission) (Receipt, error) {
		submitted = s
		return Receipt{ID: "r-1"}, nil
	})))

	if _, err := f.gate.Submit(ctx); !errors.Is(err, ErrNotLastStep) {
		t.Fatalf("expected ErrNotLastStep, got %v", err)
	}
	f.edit(t, StepData{"name": "Ada"})
	f.gate.Advance(ctx)
	f.edit(t, StepData{"employees": 3.0})
	f.gate.Advance(ctx)
	if _, err := f.gate.Advance(ctx); !errors.Is(err, ErrLastStep) {
		t.Fatalf("expected ErrLastStep, got %v", err)
	}

	var blocked *BlockedError
	if _, err := f.gate.Submit(ctx); !errors.As(err, &blocked) || blocked.Action != "submit" {
		t.Fatalf("expected blocked submit, got %v", err)
	}

	f.edit(t, StepData{"agree": "yes"})
	receipt, err := f.gate.Submit(ctx)
	if err != nil || receipt.ID != "r-1" {
		t.Fatalf("submit = %+v, %v", receipt, err)
	}
	if submitted.SessionID != "session-1" || submitted.Wizard != "grant" || len(submitted.Record) != 3 {
		t.Fatalf("unexpected submission %+v", submitted)
	}
	if submitted.Record[3]["agree"] != true {
		t.Fatalf("last step should be committed before submit, got %v", submitted.Record[3])
	}
	if f.store.clears != 1 || f.gate.Step() != 1 || len(f.store.record) != 0 {
		t.Fatalf("submit should clear back to step 1")
	}
	verbs := f.capture.Verbs()
	if verbs[len(verbs)-1] != activity.VerbSubmitted {
		t.Fatalf("expected submitted event, got %v", verbs)
	}
}

func TestGateClear(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)
	f.edit(t, StepData{"name": "Ada"})
	f.gate.Advance(ctx)

	if err := f.gate.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if f.gate.Step() != 1 || len(f.gate.Data()) != 0 {
		t.Fatalf("expected empty step 1, got %d / %v", f.gate.Step(), f.gate.Data())
	}
	if f.paths[len(f.paths)-1] != "/grant/step1" {
		t.Fatalf("clear should route to step 1, got %v", f.paths)
	}
	if f.capture.Verbs()[1] != activity.VerbCleared {
		t.Fatalf("expected cleared event, got %v", f.capture.Verbs())
	}
}

func TestGateActivityFailuresDoNotBlock(t *testing.T) {
	ctx := context.Background()
	failing := &activity.CaptureHook{Err: errors.New("sink down")}
	f := newGateFixture(t, WithActivity(activity.NewEmitter(activity.Hooks{failing}, activity.Config{Enabled: true})))
	f.edit(t, StepData{"name": "Ada"})
	if _, err := f.gate.Advance(ctx); err != nil {
		t.Fatalf("hook failure must not fail advance: %v", err)
	}
	if len(failing.Events()) != 1 {
		t.Fatalf("expected event delivered to failing hook")
	}
}

func TestLocalSubmitterReceipt(t *testing.T) {
	receipt, err := LocalSubmitter{}.Submit(context.Background(), Submission{Wizard: "grant"})
	if err != nil || receipt.ID == "" || receipt.SubmittedAt.IsZero() {
		t.Fatalf("unexpected receipt %+v, %v", receipt, err)
	}
}

func TestGateEditRejectsUndeclaredFields(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)

	_, err := f.gate.EditAll(StepData{"name": "Ada", "nmae": "typo", "age": 3.0})
	var unknown *UnknownFieldError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownFieldError, got %v", err)
	}
	if unknown.Step != "contact" || !slices.Equal(unknown.Fields, []string{"age", "nmae"}) {
		t.Fatalf("unexpected error %+v", unknown)
	}
	if _, ok := f.gate.Data()["name"]; ok {
		t.Fatalf("a rejected edit must not apply any field, got %v", f.gate.Data())
	}

	f.edit(t, StepData{"name": "Ada"})
	if _, err := f.gate.Advance(ctx); err != nil {
		t.Fatalf("advance: %v", err)
	}
	committed, _ := f.store.StepData(1)
	if len(committed) != 1 || committed["name"] != "Ada" {
		t.Fatalf("expected only declared fields committed, got %v", committed)
	}
}

func TestGateCommitDropsUndeclaredStoredFields(t *testing.T) {
	ctx := context.Background()
	store := newMemoryFormStore()
	store.record[1] = StepData{"name": "Ada", "legacy": "x"}
	gate := NewGate(MustSequencer("grant", threeSteps()), store)
	if err := gate.Open(ctx); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := gate.SaveDraft(ctx); err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if _, ok := store.record[1]["legacy"]; ok {
		t.Fatalf("commit should keep only declared fields, got %v", store.record[1])
	}
}

func TestGateOpenFlatLayoutResumesAtFirstIncompleteStep(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   int
	}{
		{name: "empty record", record: Record{}, want: 1},
		{name: "first step incomplete", record: Record{1: {"name": ""}}, want: 1},
		{name: "first step done", record: Record{1: {"name": "Ada"}}, want: 2},
		{name: "second step invalid", record: Record{1: {"name": "Ada"}, 2: {"employees": -1.0}}, want: 2},
		{name: "two steps done", record: Record{1: {"name": "Ada"}, 2: {"employees": 3.0}}, want: 3},
		{name: "all done", record: Record{1: {"name": "Ada"}, 2: {"employees": 3.0}, 3: {"agree": true}}, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryFormStore()
			store.record = tt.record
			seq := MustSequencer("grant", threeSteps(), WithLayout(LayoutFlat))
			gate := NewGate(seq, store)
			if err := gate.Open(context.Background()); err != nil {
				t.Fatalf("open: %v", err)
			}
			if gate.Step() != tt.want || store.step != tt.want {
				t.Fatalf("expected step %d, got gate %d / store %d", tt.want, gate.Step(), store.step)
			}
		})
	}
}
