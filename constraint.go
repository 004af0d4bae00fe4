package wizard

import (
	"fmt"
	"time"
)

// Constraint is a named cross-field rule. Expr must evaluate to a boolean
// over the Inputs fields (plus args, now and step); a false result or an
// evaluation error attaches Message to Target.
type Constraint struct {
	Name    string
	Inputs  []string
	Expr    string
	Target  string
	Message string
}

type compiledConstraint struct {
	Constraint
	rule CompiledRule
}

// ready reports whether every input is present and passed its field rules;
// otherwise the per-field errors already describe the problem.
func (c compiledConstraint) ready(data StepData, res Result) bool {
	for _, input := range c.Inputs {
		value, ok := data[input]
		if !ok || value == nil || value == "" {
			return false
		}
		if res.HasFieldError(input) {
			return false
		}
	}
	return true
}

func (c compiledConstraint) snapshot(data StepData) map[string]any {
	out := make(map[string]any, len(c.Inputs))
	for _, input := range c.Inputs {
		value := data[input]
		if n, ok := toFloat(value); ok {
			value = n
		}
		out[input] = value
	}
	return out
}

func (s *Schema) evaluateConstraint(c compiledConstraint, data StepData) *CrossFieldConstraintError {
	ctx := RuleContext{
		Snapshot: c.snapshot(data),
		Args:     s.args,
		Step:     s.name,
	}
	start := time.Now()
	value, err := c.rule.Evaluate(ctx)
	s.cfg.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:     evaluatorEngineName(s.evaluator),
		Step:       s.name,
		Constraint: c.Name,
		Expr:       c.Expr,
		Result:     value,
		Duration:   time.Since(start),
		Err:        err,
	})
	if err != nil {
		return &CrossFieldConstraintError{
			Constraint: c.Name,
			Field:      c.Target,
			Message:    c.Message,
			Err:        wrapEvaluationError(evaluatorEngineName(s.evaluator), c.Expr, s.name, err),
		}
	}
	passed, ok := value.(bool)
	if !ok {
		return &CrossFieldConstraintError{
			Constraint: c.Name,
			Field:      c.Target,
			Message:    c.Message,
			Err:        fmt.Errorf("wizard: constraint %q returned %T, want bool", c.Name, value),
		}
	}
	if !passed {
		return &CrossFieldConstraintError{
			Constraint: c.Name,
			Field:      c.Target,
			Message:    c.Message,
		}
	}
	return nil
}
