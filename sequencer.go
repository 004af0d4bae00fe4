package wizard

import (
	"fmt"
	"strings"
)

// Layout selects how a wizard's record is laid out in durable storage.
type Layout int

const (
	// LayoutPerStep stores the record as one object keyed by step storage
	// key, plus a separate key for the current step pointer.
	LayoutPerStep Layout = iota
	// LayoutFlat stores every step's fields merged into one flat object under
	// a single key; the pointer is not persisted.
	LayoutFlat
)

// Step is one page of a wizard.
type Step struct {
	ID     int
	Name   string
	Title  string
	Schema *Schema
}

// Sequencer is the fixed ordered list of steps of one wizard. It holds no
// mutable state.
type Sequencer struct {
	name      string
	basePath  string
	recordKey string
	stepKey   string
	layout    Layout
	steps     []Step
}

// SequencerOption configures a Sequencer.
type SequencerOption func(*Sequencer)

// WithBasePath sets the route prefix used by StepPath.
func WithBasePath(path string) SequencerOption {
	return func(s *Sequencer) {
		s.basePath = strings.TrimRight(path, "/")
	}
}

// WithStorageKeys overrides the durable keys for the record and the pointer.
func WithStorageKeys(recordKey, stepKey string) SequencerOption {
	return func(s *Sequencer) {
		if recordKey != "" {
			s.recordKey = recordKey
		}
		if stepKey != "" {
			s.stepKey = stepKey
		}
	}
}

// WithLayout selects the storage layout.
func WithLayout(layout Layout) SequencerOption {
	return func(s *Sequencer) {
		s.layout = layout
	}
}

// NewSequencer builds a sequencer. Steps are renumbered 1..N in the order
// given; every step needs a name and a schema.
func NewSequencer(name string, steps []Step, opts ...SequencerOption) (*Sequencer, error) {
	if name == "" {
		return nil, fmt.Errorf("wizard: sequencer name is required")
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("wizard: sequencer %q has no steps", name)
	}
	s := &Sequencer{
		name:      name,
		basePath:  "/" + name,
		recordKey: name + "_form",
		stepKey:   name + "_current_step",
		steps:     make([]Step, len(steps)),
	}
	seen := map[string]bool{}
	for i, step := range steps {
		if step.Name == "" || step.Schema == nil {
			return nil, fmt.Errorf("wizard: sequencer %q step %d needs a name and a schema", name, i+1)
		}
		if seen[step.Name] {
			return nil, fmt.Errorf("wizard: sequencer %q has duplicate step %q", name, step.Name)
		}
		seen[step.Name] = true
		step.ID = i + 1
		s.steps[i] = step
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// MustSequencer is NewSequencer for package-level declarations.
func MustSequencer(name string, steps []Step, opts ...SequencerOption) *Sequencer {
	s, err := NewSequencer(name, steps, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Sequencer) Name() string      { return s.name }
func (s *Sequencer) RecordKey() string { return s.recordKey }
func (s *Sequencer) StepKey() string   { return s.stepKey }
func (s *Sequencer) Layout() Layout    { return s.layout }

// StepCount returns N.
func (s *Sequencer) StepCount() int {
	return len(s.steps)
}

// Steps returns a copy of the step list.
func (s *Sequencer) Steps() []Step {
	return append([]Step(nil), s.steps...)
}

// Step returns the step with id.
func (s *Sequencer) Step(id int) (Step, error) {
	if err := s.check(id); err != nil {
		return Step{}, err
	}
	return s.steps[id-1], nil
}

// SchemaFor returns the schema of step id.
func (s *Sequencer) SchemaFor(id int) (*Schema, error) {
	step, err := s.Step(id)
	if err != nil {
		return nil, err
	}
	return step.Schema, nil
}

// StorageKey returns the record key of step id, e.g. "step5_budget".
func (s *Sequencer) StorageKey(id int) (string, error) {
	step, err := s.Step(id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("step%d_%s", step.ID, step.Name), nil
}

// StepForKey resolves a record key produced by StorageKey.
func (s *Sequencer) StepForKey(key string) (int, bool) {
	for _, step := range s.steps {
		if key == fmt.Sprintf("step%d_%s", step.ID, step.Name) {
			return step.ID, true
		}
	}
	return 0, false
}

// StepPath returns the route of step id, e.g. "/igp-commercialisation/step3".
func (s *Sequencer) StepPath(id int) (string, error) {
	if err := s.check(id); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/step%d", s.basePath, id), nil
}

// NextStep returns current+1 capped at N.
func (s *Sequencer) NextStep(current int) int {
	return min(current+1, len(s.steps))
}

// PreviousStep returns current-1 floored at 1.
func (s *Sequencer) PreviousStep(current int) int {
	return max(current-1, 1)
}

// Contains reports whether id is in [1, N].
func (s *Sequencer) Contains(id int) bool {
	return id >= 1 && id <= len(s.steps)
}

func (s *Sequencer) check(id int) error {
	if !s.Contains(id) {
		return &UnknownStepError{Wizard: s.name, Step: id, Count: len(s.steps)}
	}
	return nil
}
