package wizard

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoEvaluator = errors.New("wizard: evaluator not configured")
	// ErrNotHydrated is returned when the gate is opened before its store has
	// loaded the durable snapshot.
	ErrNotHydrated = errors.New("wizard: form store not hydrated")
	// ErrNotOpen is returned by gate transitions before Open succeeded.
	ErrNotOpen = errors.New("wizard: gate not open")
	// ErrFirstStep is returned by Retreat on step 1.
	ErrFirstStep = errors.New("wizard: already on the first step")
	// ErrLastStep is returned by Advance on the last step; use Submit.
	ErrLastStep = errors.New("wizard: already on the last step")
	// ErrNotLastStep is returned by Submit before the last step.
	ErrNotLastStep = errors.New("wizard: submit is only available on the last step")
)

// UnknownStepError reports a step id outside [1, N]. Normal navigation never
// produces one; it indicates a programming error in the caller.
type UnknownStepError struct {
	Wizard string
	Step   int
	Count  int
}

func (e *UnknownStepError) Error() string {
	return fmt.Sprintf("wizard: %s has no step %d (valid range 1..%d)", e.Wizard, e.Step, e.Count)
}

// BlockedError is returned when a transition needs a valid step and the step
// (or an earlier one, for forward jumps) does not validate.
type BlockedError struct {
	Step   int
	Action string
	Result Result
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("wizard: %s blocked, step %d has %d invalid field(s)", e.Action, e.Step, len(e.Result.Errors))
}

// Unwrap exposes the joined validation errors.
func (e *BlockedError) Unwrap() error {
	return e.Result.Err()
}

// UnknownFieldError is returned by Gate.Edit and Gate.EditAll for field names
// the visible step does not declare. No edit is applied.
type UnknownFieldError struct {
	Step   string
	Fields []string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("wizard: step %s has no field(s) %s", e.Step, strings.Join(e.Fields, ", "))
}
