package wizard

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

// Function represents a callable registered against evaluators.
type Function func(args ...any) (any, error)

// FunctionRegistry stores custom functions keyed by lower-cased name.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// DefaultFunctions returns a registry holding the helpers used by the
// built-in constraint sets:
//
//	within(value, target, tolerance) -> |value-target| <= tolerance*|target|
//	share(part, whole)               -> part/whole, 0 when whole is 0
func DefaultFunctions() *FunctionRegistry {
	registry := NewFunctionRegistry()
	_ = registry.Register("within", withinFunction)
	_ = registry.Register("share", shareFunction)
	return registry
}

// Register stores fn under name guarding against duplicates.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("wizard: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("wizard: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("wizard: function %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]Function, len(r.functions)),
	}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("wizard: function registry is nil")
	}
	r.mu.RLock()
	fn := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("wizard: function %q not registered", name)
	}
	return fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithFunctionRegistry configures a schema to use registry.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *schemaConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for the schema.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *schemaConfig) {
		if cfg.functions == nil {
			cfg.functions = DefaultFunctions()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

func withinFunction(args ...any) (any, error) {
	nums, err := floatArgs("within", 3, args)
	if err != nil {
		return nil, err
	}
	value, target, tolerance := nums[0], nums[1], nums[2]
	return math.Abs(value-target) <= tolerance*math.Abs(target), nil
}

func shareFunction(args ...any) (any, error) {
	nums, err := floatArgs("share", 2, args)
	if err != nil {
		return nil, err
	}
	if nums[1] == 0 {
		return 0.0, nil
	}
	return nums[0] / nums[1], nil
}

func floatArgs(name string, want int, args []any) ([]float64, error) {
	if len(args) != want {
		return nil, fmt.Errorf("wizard: %s expects %d arguments, got %d", name, want, len(args))
	}
	out := make([]float64, want)
	for i, arg := range args {
		value, ok := toFloat(arg)
		if !ok {
			return nil, fmt.Errorf("wizard: %s argument %d is %T, want number", name, i+1, arg)
		}
		out[i] = value
	}
	return out, nil
}
