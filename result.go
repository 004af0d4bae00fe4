package wizard

import (
	"errors"
	"fmt"
)

// FieldValidationError reports a single field that failed its own rule.
// It is carried inside a Result and rendered inline, never returned by Validate.
type FieldValidationError struct {
	Field   string
	Rule    string
	Message string
}

func (e FieldValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CrossFieldConstraintError reports a failed cross-field constraint, attached
// to the constraint's target field. Err is set when the expression could not
// be evaluated.
type CrossFieldConstraintError struct {
	Constraint string
	Field      string
	Message    string
	Err        error
}

func (e CrossFieldConstraintError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Field, e.Message, e.Constraint, e.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Constraint)
}

func (e CrossFieldConstraintError) Unwrap() error {
	return e.Err
}

// Result is the outcome of validating one step. Errors holds the first
// message per field; field rule failures take precedence over constraints.
type Result struct {
	Valid            bool
	Errors           map[string]string
	FieldErrors      []FieldValidationError
	ConstraintErrors []CrossFieldConstraintError
}

func newResult() Result {
	return Result{Valid: true, Errors: map[string]string{}}
}

func (r *Result) addField(err FieldValidationError) {
	r.Valid = false
	r.FieldErrors = append(r.FieldErrors, err)
	if _, exists := r.Errors[err.Field]; !exists {
		r.Errors[err.Field] = err.Message
	}
}

func (r *Result) addConstraint(err CrossFieldConstraintError) {
	r.Valid = false
	r.ConstraintErrors = append(r.ConstraintErrors, err)
	if _, exists := r.Errors[err.Field]; !exists {
		r.Errors[err.Field] = err.Message
	}
}

// HasFieldError reports whether field failed one of its own rules.
func (r Result) HasFieldError(field string) bool {
	for _, err := range r.FieldErrors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Violated reports whether the named constraint failed.
func (r Result) Violated(constraint string) bool {
	for _, err := range r.ConstraintErrors {
		if err.Constraint == constraint {
			return true
		}
	}
	return false
}

// Err joins every violation into one error, or returns nil when valid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	errs := make([]error, 0, len(r.FieldErrors)+len(r.ConstraintErrors))
	for _, err := range r.FieldErrors {
		errs = append(errs, err)
	}
	for _, err := range r.ConstraintErrors {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
