package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	wizard "github.com/WhisperLooms/grant-harness"
	"github.com/WhisperLooms/grant-harness/forms/demo"
	"github.com/WhisperLooms/grant-harness/forms/igp"
	"github.com/WhisperLooms/grant-harness/internal/config"
	"github.com/WhisperLooms/grant-harness/internal/logging"
	"github.com/WhisperLooms/grant-harness/pkg/activity"
	"github.com/WhisperLooms/grant-harness/pkg/state"
	"github.com/WhisperLooms/grant-harness/pkg/state/sqlitestore"
)

// wizardFactory builds a sequencer with the given schema options.
type wizardFactory func(opts ...wizard.Option) (*wizard.Sequencer, error)

var wizards = map[string]wizardFactory{
	igp.Name:  igp.New,
	demo.Name: demo.New,
}

func wizardNames() []string {
	names := make([]string, 0, len(wizards))
	for name := range wizards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// buildSequencer resolves the configured wizard and evaluation engine.
func buildSequencer(cfg config.Config, logger *zap.Logger) (*wizard.Sequencer, error) {
	factory, ok := wizards[cfg.Wizard]
	if !ok {
		return nil, usagef("unknown wizard %q (available: %v)", cfg.Wizard, wizardNames())
	}
	evaluator, err := wizard.NewEvaluatorByName(cfg.Engine, wizard.NewMapProgramCache(), wizard.DefaultFunctions())
	if err != nil {
		return nil, &usageError{err: err}
	}
	return factory(
		wizard.WithEvaluator(evaluator),
		wizard.WithTolerance(cfg.Tolerance),
		wizard.WithEvaluatorLogger(logging.EvaluatorLogger(logger)),
	)
}

// session is one opened wizard: its durable backend, form store and gate.
type session struct {
	seq     *wizard.Sequencer
	store   *state.FormStore
	gate    *wizard.Gate
	backend state.Store[[]byte]
	closer  io.Closer
	path    string
}

func openSession(ctx context.Context, cfg config.Config, logger *zap.Logger) (*session, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	seq, err := buildSequencer(cfg, logger)
	if err != nil {
		return nil, err
	}

	s := &session{seq: seq}
	switch cfg.Storage {
	case config.StorageMemory:
		s.backend = state.NewMemoryStore[[]byte]()
	default:
		db, err := sqlitestore.Open(ctx, cfg.DatabasePath())
		if err != nil {
			return nil, fmt.Errorf("open progress database: %w", err)
		}
		s.backend = db
		s.closer = db
	}

	s.store = state.NewFormStore(seq, s.backend,
		state.WithNamespace(cfg.Namespace),
		state.WithLogger(logger),
	)
	if err := s.store.Hydrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	emitter := activity.NewEmitter(activity.Hooks{logging.ActivityHook(logger)}, activity.Config{
		Enabled: cfg.Activity.Enabled,
		Channel: cfg.Activity.Channel,
	})
	s.gate = wizard.NewGate(seq, s.store,
		wizard.WithSession(sessionID(cfg), ""),
		wizard.WithRouter(wizard.RouterFunc(func(path string) { s.path = path })),
		wizard.WithActivity(emitter),
		wizard.WithGateLogger(logger),
	)
	if err := s.gate.Open(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// sessionID is stable per namespace and wizard, so events from separate
// invocations of the same application share one session.
func sessionID(cfg config.Config) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("grant-harness:"+cfg.Namespace+"/"+cfg.Wizard)).String()
}

func (s *session) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

func (s *session) step() wizard.Step {
	step, _ := s.seq.Step(s.gate.Step())
	return step
}
