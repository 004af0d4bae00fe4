package wizard

import (
	"fmt"
	"regexp"
)

// Schema is the validation contract for one step: its fields in display
// order and its declarative cross-field constraints. Validate is pure and
// safe to call on every keystroke.
type Schema struct {
	name        string
	fields      []Field
	index       map[string]int
	patterns    map[string]*regexp.Regexp
	constraints []compiledConstraint
	cfg         schemaConfig
	evaluator   Evaluator
	args        map[string]any
}

// NewSchema checks the declarations and compiles every constraint expression.
func NewSchema(name string, fields []Field, constraints []Constraint, opts ...Option) (*Schema, error) {
	cfg := applyOptions(opts)
	s := &Schema{
		name:     name,
		fields:   append([]Field(nil), fields...),
		index:    make(map[string]int, len(fields)),
		patterns: map[string]*regexp.Regexp{},
		cfg:      cfg,
		args:     cfg.argsOrDefault(),
	}

	for i, field := range s.fields {
		if field.Name == "" {
			return nil, fmt.Errorf("wizard: schema %q: field %d has no name", name, i)
		}
		if _, dup := s.index[field.Name]; dup {
			return nil, fmt.Errorf("wizard: schema %q: duplicate field %q", name, field.Name)
		}
		if field.Kind == KindEnum && len(field.Options) == 0 {
			return nil, fmt.Errorf("wizard: schema %q: enum field %q has no options", name, field.Name)
		}
		if field.Pattern != "" {
			re, err := regexp.Compile(field.Pattern)
			if err != nil {
				return nil, fmt.Errorf("wizard: schema %q: field %q pattern: %w", name, field.Name, err)
			}
			s.patterns[field.Name] = re
		}
		s.index[field.Name] = i
	}
	for _, field := range s.fields {
		if field.RequiredWhen == nil {
			continue
		}
		if _, ok := s.index[field.RequiredWhen.Field]; !ok {
			return nil, fmt.Errorf("wizard: schema %q: field %q depends on unknown field %q", name, field.Name, field.RequiredWhen.Field)
		}
	}

	if len(constraints) > 0 {
		evaluator, err := s.resolveEvaluator()
		if err != nil {
			return nil, err
		}
		s.evaluator = evaluator
	}
	for _, c := range constraints {
		if c.Name == "" || c.Expr == "" {
			return nil, fmt.Errorf("wizard: schema %q: constraint needs a name and an expression", name)
		}
		for _, input := range c.Inputs {
			if _, ok := s.index[input]; !ok {
				return nil, fmt.Errorf("wizard: schema %q: constraint %q reads unknown field %q", name, c.Name, input)
			}
		}
		if _, ok := s.index[c.Target]; !ok {
			return nil, fmt.Errorf("wizard: schema %q: constraint %q targets unknown field %q", name, c.Name, c.Target)
		}
		rule, err := s.evaluator.Compile(c.Expr)
		if err != nil {
			return nil, fmt.Errorf("wizard: schema %q: constraint %q: %w", name, c.Name, err)
		}
		s.constraints = append(s.constraints, compiledConstraint{Constraint: c, rule: rule})
	}
	return s, nil
}

// MustSchema is NewSchema for package-level declarations; it panics on error.
func MustSchema(name string, fields []Field, constraints []Constraint, opts ...Option) *Schema {
	s, err := NewSchema(name, fields, constraints, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) resolveEvaluator() (Evaluator, error) {
	if s.cfg.evaluator != nil {
		return s.cfg.evaluator, nil
	}
	registry := s.cfg.functions
	if registry == nil {
		registry = DefaultFunctions()
	}
	evaluator, err := NewEvaluatorByName(EngineExpr, s.cfg.programCache, registry)
	if err != nil {
		return nil, err
	}
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	return evaluator, nil
}

// Name returns the schema name.
func (s *Schema) Name() string {
	return s.name
}

// Fields returns the field declarations in display order.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Field returns the declaration for name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Constraints returns the cross-field constraints in evaluation order.
func (s *Schema) Constraints() []Constraint {
	out := make([]Constraint, 0, len(s.constraints))
	for _, c := range s.constraints {
		out = append(out, c.Constraint)
	}
	return out
}

// Args returns the values exposed to constraint expressions as args.
func (s *Schema) Args() map[string]any {
	out := make(map[string]any, len(s.args))
	for key, value := range s.args {
		out[key] = value
	}
	return out
}

// Default returns the canonical empty value for this step.
func (s *Schema) Default() StepData {
	out := StepData{}
	for _, field := range s.fields {
		if field.Default != nil {
			out[field.Name] = field.Default
		}
	}
	return out
}

// Pick returns the subset of data that belongs to this schema.
func (s *Schema) Pick(data StepData) StepData {
	out := StepData{}
	for _, field := range s.fields {
		if value, ok := data[field.Name]; ok && value != nil {
			out[field.Name] = value
		}
	}
	return out
}

// unknownFields lists the keys of data the schema does not declare, sorted.
func (s *Schema) unknownFields(data StepData) []string {
	var unknown []string
	for _, key := range data.Keys() {
		if _, ok := s.Field(key); !ok {
			unknown = append(unknown, key)
		}
	}
	return unknown
}

// Coerce returns a copy of data with each known field converted to its
// kind. Unknown keys are kept; values that do not convert are kept for
// Validate to reject; blank numbers and booleans are dropped.
func (s *Schema) Coerce(data StepData) StepData {
	out := make(StepData, len(data))
	for key, value := range data {
		field, ok := s.Field(key)
		if !ok {
			if value != nil {
				out[key] = value
			}
			continue
		}
		if coerced, keep := field.coerce(value); keep {
			out[key] = coerced
		}
	}
	return out
}

// Validate checks data against every field rule and then every constraint
// whose inputs are all present and individually valid.
func (s *Schema) Validate(data StepData) Result {
	res := newResult()
	for _, field := range s.fields {
		if !field.active(data) {
			continue
		}
		value, present := data[field.Name]
		if err := field.check(value, present, s.patterns[field.Name]); err != nil {
			res.addField(*err)
		}
	}
	for _, c := range s.constraints {
		if !c.ready(data, res) {
			continue
		}
		if err := s.evaluateConstraint(c, data); err != nil {
			res.addConstraint(*err)
		}
	}
	return res
}
