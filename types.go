package wizard

import (
	"sort"
	"time"
)

// StepData holds the values of one step keyed by field name. Values are
// strings, float64 numbers or bools; a missing key means the field is absent.
type StepData map[string]any

// Clone returns a shallow copy of d with nil values dropped.
func (d StepData) Clone() StepData {
	if d == nil {
		return nil
	}
	out := make(StepData, len(d))
	for key, value := range d {
		if value == nil {
			continue
		}
		out[key] = value
	}
	return out
}

// Keys returns the field names present in d sorted alphabetically.
func (d StepData) Keys() []string {
	keys := make([]string, 0, len(d))
	for key := range d {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Record is the sparse Application Record: step id to that step's data.
type Record map[int]StepData

// Clone returns a copy of r whose step objects are detached from r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for id, data := range r {
		out[id] = data.Clone()
	}
	return out
}

// Response stores a typed result produced by an evaluator.
type Response[T any] struct {
	Value T
}

// RuleContext carries inputs needed when evaluating a constraint expression.
type RuleContext struct {
	Snapshot any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Step     string
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) stepLabel() string {
	if ctx.Step != "" {
		return ctx.Step
	}
	return "unknown"
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}
