package wizard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/WhisperLooms/grant-harness/layering"
	"github.com/WhisperLooms/grant-harness/pkg/activity"
)

// FormStore is the view of the Form State Store the gate reads and writes.
// pkg/state.FormStore implements it.
type FormStore interface {
	Hydrated() bool
	MarkReady()
	StepData(id int) (StepData, bool)
	SetStepData(ctx context.Context, id int, data StepData)
	CurrentStep() int
	SetCurrentStep(ctx context.Context, id int)
	Record() Record
	SaveProgress(ctx context.Context) error
	Clear(ctx context.Context) error
}

// Router performs the route change requested after a successful transition.
type Router interface {
	Navigate(path string)
}

// RouterFunc adapts a function to Router.
type RouterFunc func(path string)

// Navigate implements Router.
func (f RouterFunc) Navigate(path string) {
	if f != nil {
		f(path)
	}
}

// Gate is the Navigation Gate. It owns the in-progress data of the visible
// step and only commits it to the store on Advance, SaveDraft and Submit.
// A Gate serves one session and is not safe for concurrent use.
type Gate struct {
	seq       *Sequencer
	store     FormStore
	router    Router
	submitter Submitter
	emitter   *activity.Emitter
	logger    *zap.Logger
	sessionID string
	actorID   string

	open   bool
	step   int
	data   StepData
	result Result
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithRouter sets the router notified after each transition.
func WithRouter(router Router) GateOption {
	return func(g *Gate) {
		g.router = router
	}
}

// WithSubmitter replaces the local acknowledgment used by Submit.
func WithSubmitter(submitter Submitter) GateOption {
	return func(g *Gate) {
		if submitter != nil {
			g.submitter = submitter
		}
	}
}

// WithActivity emits wizard lifecycle events through emitter.
func WithActivity(emitter *activity.Emitter) GateOption {
	return func(g *Gate) {
		g.emitter = emitter
	}
}

// WithGateLogger sets the logger used for transition diagnostics.
func WithGateLogger(logger *zap.Logger) GateOption {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithSession sets the session and actor identifiers attached to events.
func WithSession(sessionID, actorID string) GateOption {
	return func(g *Gate) {
		if sessionID != "" {
			g.sessionID = sessionID
		}
		g.actorID = actorID
	}
}

// NewGate wires a gate to its sequencer and store. Call Open once the store
// has hydrated.
func NewGate(seq *Sequencer, store FormStore, opts ...GateOption) *Gate {
	g := &Gate{
		seq:       seq,
		store:     store,
		submitter: LocalSubmitter{},
		logger:    zap.NewNop(),
		sessionID: uuid.NewString(),
		step:      1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	g.logger = g.logger.With(zap.String("wizard", seq.Name()), zap.String("session", g.sessionID))
	return g
}

// Open loads the stored step, runs the post-hydration validation pass and
// marks the store ready. It fails with ErrNotHydrated until the store has
// loaded its durable snapshot. Wizards with LayoutFlat keep no pointer and
// resume at the first step that is missing or incomplete.
func (g *Gate) Open(ctx context.Context) error {
	if !g.store.Hydrated() {
		return ErrNotHydrated
	}
	step := g.store.CurrentStep()
	if g.seq.Layout() == LayoutFlat {
		step = g.resumeStep()
		g.store.SetCurrentStep(ctx, step)
	}
	if !g.seq.Contains(step) {
		g.logger.Warn("stored step out of range, restarting at step 1", zap.Int("step", step))
		step = 1
		g.store.SetCurrentStep(ctx, step)
	}
	g.load(step)
	g.store.MarkReady()
	g.open = true
	g.route()
	return nil
}

// Step returns the visible step id.
func (g *Gate) Step() int {
	return g.step
}

// Data returns a copy of the in-progress data of the visible step.
func (g *Gate) Data() StepData {
	return g.data.Clone()
}

// Result returns the latest validation result of the visible step.
func (g *Gate) Result() Result {
	return g.result
}

// Valid reports whether the visible step is in its Valid sub-state.
func (g *Gate) Valid() bool {
	return g.result.Valid
}

// SessionID returns the identifier attached to emitted events.
func (g *Gate) SessionID() string {
	return g.sessionID
}

// Edit sets one in-progress field and re-validates. A nil value removes the
// field. Nothing is written to the store.
func (g *Gate) Edit(field string, value any) (Result, error) {
	return g.EditAll(StepData{field: value})
}

// EditAll applies several in-progress edits at once and re-validates.
func (g *Gate) EditAll(values StepData) (Result, error) {
	if !g.open {
		return Result{}, ErrNotOpen
	}
	schema := g.schema()
	if unknown := schema.unknownFields(values); len(unknown) > 0 {
		return g.result, &UnknownFieldError{Step: schema.Name(), Fields: unknown}
	}
	next := g.data.Clone()
	coerced := schema.Coerce(values)
	for field := range values {
		if value, ok := coerced[field]; ok {
			next[field] = value
		} else {
			delete(next, field)
		}
	}
	g.data = next
	g.result = schema.Validate(g.data)
	return g.result, nil
}

// Advance commits the visible step and moves to the next one. It is only
// fireable from a Valid step; otherwise it returns a *BlockedError.
func (g *Gate) Advance(ctx context.Context) (int, error) {
	if !g.open {
		return g.step, ErrNotOpen
	}
	if g.step == g.seq.StepCount() {
		return g.step, ErrLastStep
	}
	g.result = g.schema().Validate(g.data)
	if !g.result.Valid {
		g.logger.Debug("advance blocked", zap.Int("step", g.step), zap.Int("invalid_fields", len(g.result.Errors)))
		return g.step, &BlockedError{Step: g.step, Action: "advance", Result: g.result}
	}
	from := g.step
	g.store.SetStepData(ctx, from, g.schema().Pick(g.data))
	to := g.seq.NextStep(from)
	g.store.SetCurrentStep(ctx, to)
	g.moveTo(to)
	g.emit(ctx, activity.BuildStepAdvancedEvent, from, to)
	return to, nil
}

// Retreat moves to the previous step regardless of validity. Uncommitted
// edits of the visible step are dropped.
func (g *Gate) Retreat(ctx context.Context) (int, error) {
	if !g.open {
		return g.step, ErrNotOpen
	}
	if g.step == 1 {
		return g.step, ErrFirstStep
	}
	from := g.step
	to := g.seq.PreviousStep(from)
	g.store.SetCurrentStep(ctx, to)
	g.moveTo(to)
	g.emit(ctx, activity.BuildStepRetreatedEvent, from, to)
	return to, nil
}

// GoTo navigates directly to id. Backward jumps behave like Retreat; forward
// jumps advance one step at a time and stop at the first invalid step.
func (g *Gate) GoTo(ctx context.Context, id int) (int, error) {
	if !g.open {
		return g.step, ErrNotOpen
	}
	if err := g.seq.check(id); err != nil {
		return g.step, err
	}
	if id < g.step {
		from := g.step
		g.store.SetCurrentStep(ctx, id)
		g.moveTo(id)
		g.emit(ctx, activity.BuildStepRetreatedEvent, from, id)
		return id, nil
	}
	for g.step < id {
		if _, err := g.Advance(ctx); err != nil {
			return g.step, err
		}
	}
	return g.step, nil
}

// SaveDraft commits the visible step as-is, valid or not, and forces a
// durable write. The step pointer is unchanged.
func (g *Gate) SaveDraft(ctx context.Context) error {
	if !g.open {
		return ErrNotOpen
	}
	g.store.SetStepData(ctx, g.step, g.schema().Pick(g.data))
	if err := g.store.SaveProgress(ctx); err != nil {
		return fmt.Errorf("wizard: save draft: %w", err)
	}
	g.emit(ctx, activity.BuildDraftSavedEvent, g.step, g.step)
	return nil
}

// Submit commits the last step, forces a save, hands the record to the
// Submitter and then clears the store back to step 1.
func (g *Gate) Submit(ctx context.Context) (Receipt, error) {
	if !g.open {
		return Receipt{}, ErrNotOpen
	}
	if g.step != g.seq.StepCount() {
		return Receipt{}, ErrNotLastStep
	}
	g.result = g.schema().Validate(g.data)
	if !g.result.Valid {
		return Receipt{}, &BlockedError{Step: g.step, Action: "submit", Result: g.result}
	}
	g.store.SetStepData(ctx, g.step, g.schema().Pick(g.data))
	if err := g.store.SaveProgress(ctx); err != nil {
		return Receipt{}, fmt.Errorf("wizard: save before submit: %w", err)
	}
	receipt, err := g.submitter.Submit(ctx, Submission{
		Wizard:      g.seq.Name(),
		SessionID:   g.sessionID,
		Record:      g.store.Record(),
		SubmittedAt: time.Now(),
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("wizard: submit: %w", err)
	}
	from := g.step
	g.emit(ctx, activity.BuildSubmittedEvent, from, from)
	if err := g.store.Clear(ctx); err != nil {
		return receipt, fmt.Errorf("wizard: clear after submit: %w", err)
	}
	g.moveTo(1)
	return receipt, nil
}

// Clear erases the record and the durable snapshot and returns to step 1.
func (g *Gate) Clear(ctx context.Context) error {
	if !g.open {
		return ErrNotOpen
	}
	from := g.step
	if err := g.store.Clear(ctx); err != nil {
		return fmt.Errorf("wizard: clear: %w", err)
	}
	g.moveTo(1)
	g.emit(ctx, activity.BuildClearedEvent, from, 1)
	return nil
}

// resumeStep is the first step without stored data or whose stored data
// does not validate, or the last step when every step is complete.
func (g *Gate) resumeStep() int {
	for _, step := range g.seq.Steps() {
		stored, ok := g.store.StepData(step.ID)
		if !ok {
			return step.ID
		}
		if !step.Schema.Validate(StepData(layering.Merge(stored, step.Schema.Default()))).Valid {
			return step.ID
		}
	}
	return g.seq.StepCount()
}

func (g *Gate) schema() *Schema {
	step, _ := g.seq.Step(g.step)
	return step.Schema
}

// load computes the initial sub-state of step id: stored data over the
// schema defaults, validated.
func (g *Gate) load(id int) {
	g.step = id
	schema := g.schema()
	stored, _ := g.store.StepData(id)
	g.data = StepData(layering.Merge(stored, schema.Default()))
	g.result = schema.Validate(g.data)
}

func (g *Gate) moveTo(id int) {
	g.load(id)
	g.route()
}

func (g *Gate) route() {
	if g.router == nil {
		return
	}
	path, err := g.seq.StepPath(g.step)
	if err != nil {
		return
	}
	g.router.Navigate(path)
}

type eventBuilder func(activity.WizardEventInput) activity.Event

func (g *Gate) emit(ctx context.Context, build eventBuilder, from, to int) {
	if !g.emitter.Enabled() {
		return
	}
	step, _ := g.seq.Step(to)
	event := build(activity.WizardEventInput{
		ActorID:   g.actorID,
		SessionID: g.sessionID,
		Wizard:    g.seq.Name(),
		FromStep:  from,
		ToStep:    to,
		StepName:  step.Name,
	})
	if err := g.emitter.Emit(ctx, event); err != nil {
		g.logger.Warn("activity hook failed", zap.String("verb", event.Verb), zap.Error(err))
	}
}
