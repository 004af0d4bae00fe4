package wizard

// Option configures how a Schema evaluates its cross-field constraints.
type Option func(*schemaConfig)

type schemaConfig struct {
	evaluator    Evaluator
	programCache ProgramCache
	functions    *FunctionRegistry
	logger       EvaluatorLogger
	args         map[string]any
}

func applyOptions(opts []Option) schemaConfig {
	cfg := schemaConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithEvaluator configures the evaluator used for constraint expressions.
// The expr-lang evaluator is used when none is configured.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *schemaConfig) {
		cfg.evaluator = e
	}
}

// WithArg exposes value to constraint expressions as args.<name>.
func WithArg(name string, value any) Option {
	return func(cfg *schemaConfig) {
		if name == "" {
			return
		}
		if cfg.args == nil {
			cfg.args = map[string]any{}
		}
		cfg.args[name] = value
	}
}

// WithTolerance sets args.tolerance, the relative band used when comparing a
// sum of items against a declared total.
func WithTolerance(tolerance float64) Option {
	return WithArg(ArgTolerance, tolerance)
}

// ArgTolerance is the args key read by tolerance constraints.
const ArgTolerance = "tolerance"

// DefaultTolerance is the relative band applied when no tolerance is configured.
const DefaultTolerance = 0.01

func (cfg schemaConfig) argsOrDefault() map[string]any {
	args := make(map[string]any, len(cfg.args)+1)
	args[ArgTolerance] = DefaultTolerance
	for key, value := range cfg.args {
		args[key] = value
	}
	return args
}

func (cfg schemaConfig) evaluatorLogger() EvaluatorLogger {
	if cfg.logger != nil {
		return cfg.logger
	}
	return noopEvaluatorLogger{}
}
