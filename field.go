package wizard

import (
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// Kind identifies how a field value is coerced and checked.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBool    Kind = "bool"
	KindEnum    Kind = "enum"
	KindDate    Kind = "date"
	KindEmail   Kind = "email"
	KindURL     Kind = "url"
)

// DateLayout is the accepted format for KindDate values.
const DateLayout = "2006-01-02"

// Rule names reported in FieldValidationError.Rule.
const (
	RuleRequired  = "required"
	RuleType      = "type"
	RuleMinLength = "min_length"
	RuleMaxLength = "max_length"
	RuleMin       = "min"
	RuleMax       = "max"
	RuleInteger   = "integer"
	RulePattern   = "pattern"
	RuleEmail     = "email"
	RuleURL       = "url"
	RuleDate      = "date"
	RuleEnum      = "enum"
	RuleAccepted  = "accepted"
)

// Condition makes a field required only while another field of the same
// step holds Equals.
type Condition struct {
	Field  string
	Equals any
}

func (c Condition) holds(data StepData) bool {
	value, ok := data[c.Field]
	if !ok {
		return false
	}
	return valuesEqual(value, c.Equals)
}

// Field declares the shape and validity rules of one step field. Zero
// MinLength/MaxLength and nil Min/Max mean unbounded.
type Field struct {
	Name         string
	Label        string
	Kind         Kind
	Required     bool
	RequiredWhen *Condition
	MinLength    int
	MaxLength    int
	Min          *float64
	Max          *float64
	Pattern      string
	PatternHint  string
	Options      []string
	MustBeTrue   bool
	Default      any
	Description  string
}

// Bound returns a pointer to v for use as Field.Min or Field.Max.
func Bound(v float64) *float64 {
	return &v
}

// When builds a Condition for Field.RequiredWhen.
func When(field string, equals any) *Condition {
	return &Condition{Field: field, Equals: equals}
}

func (f Field) label() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

func (f Field) textual() bool {
	switch f.Kind {
	case KindString, KindEnum, KindDate, KindEmail, KindURL:
		return true
	}
	return false
}

// active reports whether the field takes part in validation for data.
func (f Field) active(data StepData) bool {
	return f.RequiredWhen == nil || f.RequiredWhen.holds(data)
}

func (f Field) required() bool {
	return f.Required || f.RequiredWhen != nil
}

// coerce converts textual input to the field's kind. Values that cannot be
// converted are returned unchanged so check rejects them. The second result
// is false when the value should be dropped.
func (f Field) coerce(value any) (any, bool) {
	if value == nil {
		return nil, false
	}
	switch f.Kind {
	case KindNumber, KindInteger:
		if n, ok := toFloat(value); ok {
			return n, true
		}
		if text, ok := value.(string); ok {
			if strings.TrimSpace(text) == "" {
				return nil, false
			}
			if n, ok := parseNumber(text); ok {
				return n, true
			}
		}
	case KindBool:
		if text, ok := value.(string); ok {
			if strings.TrimSpace(text) == "" {
				return nil, false
			}
			if b, ok := parseBool(text); ok {
				return b, true
			}
		}
	}
	return value, true
}

// check validates value against f. present is false when the key is missing.
func (f Field) check(value any, present bool, pattern *regexp.Regexp) *FieldValidationError {
	if !present || value == nil || (f.textual() && value == "") {
		if f.required() {
			return f.fail(RuleRequired, fmt.Sprintf("%s is required", f.label()))
		}
		return nil
	}

	switch f.Kind {
	case KindBool:
		b, ok := value.(bool)
		if !ok {
			return f.fail(RuleType, fmt.Sprintf("%s must be true or false", f.label()))
		}
		if f.MustBeTrue && !b {
			return f.fail(RuleAccepted, fmt.Sprintf("%s must be accepted", f.label()))
		}
		return nil
	case KindNumber, KindInteger:
		n, ok := toFloat(value)
		if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
			return f.fail(RuleType, fmt.Sprintf("%s must be a number", f.label()))
		}
		if f.Kind == KindInteger && n != math.Trunc(n) {
			return f.fail(RuleInteger, fmt.Sprintf("%s must be a whole number", f.label()))
		}
		if f.Min != nil && n < *f.Min {
			return f.fail(RuleMin, fmt.Sprintf("%s must be at least %s", f.label(), FormatValue(*f.Min)))
		}
		if f.Max != nil && n > *f.Max {
			return f.fail(RuleMax, fmt.Sprintf("%s must be at most %s", f.label(), FormatValue(*f.Max)))
		}
		return nil
	}

	text, ok := value.(string)
	if !ok {
		return f.fail(RuleType, fmt.Sprintf("%s must be text", f.label()))
	}
	length := utf8.RuneCountInString(text)
	if f.MinLength > 0 && length < f.MinLength {
		return f.fail(RuleMinLength, fmt.Sprintf("%s must be at least %d characters", f.label(), f.MinLength))
	}
	if f.MaxLength > 0 && length > f.MaxLength {
		return f.fail(RuleMaxLength, fmt.Sprintf("%s must be at most %d characters", f.label(), f.MaxLength))
	}

	switch f.Kind {
	case KindEnum:
		if !slices.Contains(f.Options, text) {
			return f.fail(RuleEnum, fmt.Sprintf("%s must be one of: %s", f.label(), strings.Join(f.Options, ", ")))
		}
	case KindEmail:
		addr, err := mail.ParseAddress(text)
		if err != nil || addr.Address != text {
			return f.fail(RuleEmail, fmt.Sprintf("%s must be a valid email address", f.label()))
		}
	case KindURL:
		u, err := url.ParseRequestURI(text)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return f.fail(RuleURL, fmt.Sprintf("%s must be a valid URL", f.label()))
		}
	case KindDate:
		if _, err := time.Parse(DateLayout, text); err != nil {
			return f.fail(RuleDate, fmt.Sprintf("%s must be a date (YYYY-MM-DD)", f.label()))
		}
	}

	if pattern != nil && !pattern.MatchString(text) {
		hint := f.PatternHint
		if hint == "" {
			hint = "has an invalid format"
		}
		return f.fail(RulePattern, fmt.Sprintf("%s %s", f.label(), hint))
	}
	return nil
}

func (f Field) fail(rule, message string) *FieldValidationError {
	return &FieldValidationError{Field: f.Name, Rule: rule, Message: message}
}
