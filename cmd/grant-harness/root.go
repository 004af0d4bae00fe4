package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	wizard "github.com/WhisperLooms/grant-harness"
	"github.com/WhisperLooms/grant-harness/internal/config"
	"github.com/WhisperLooms/grant-harness/internal/logging"
)

// app holds what PersistentPreRunE builds for the subcommands.
type app struct {
	configDir string
	jsonOut   bool

	v       *viper.Viper
	cfg     config.Config
	logger  *zap.Logger
	session *session
}

// run executes the command line in args and always releases the session,
// including when the command fails.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{v: config.New()}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {

	root := &cobra.Command{
		Use:   "grant-harness",
		Short: "Fill in multi-step grant applications from the terminal",
		Long: `grant-harness walks through a multi-step grant application one event at a
time. Progress is saved after every successful step and restored on the next
invocation, so an application can be completed over several sessions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationNoSession] == "true" {
				return a.load(cmd, false)
			}
			return a.load(cmd, true)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/grant-harness or ~/.grant-harness)")
	flags.String("wizard", "", "wizard to open: igp or demo")
	flags.String("storage", "", "progress storage: sqlite or memory")
	flags.String("data-dir", "", "directory for the sqlite database")
	flags.String("engine", "", "constraint engine: expr, cel or js")
	flags.Float64("tolerance", 0, "relative tolerance for budget totals")
	flags.String("namespace", "", "profile name prefixed to storage keys")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.BoolVar(&a.jsonOut, "json", false, "print machine-readable JSON")
	for key, flag := range map[string]string{
		config.KeyWizard:    "wizard",
		config.KeyStorage:   "storage",
		config.KeyDataDir:   "data-dir",
		config.KeyEngine:    "engine",
		config.KeyTolerance: "tolerance",
		config.KeyNamespace: "namespace",
		config.KeyLogLevel:  "log-level",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		newStepsCmd(a),
		newStatusCmd(a),
		newShowCmd(a),
		newValidateCmd(a),
		newSaveCmd(a),
		newNextCmd(a),
		newBackCmd(a),
		newGotoCmd(a),
		newSubmitCmd(a),
		newClearCmd(a),
		newSchemaCmd(a),
	)
	return root
}

// annotationNoSession marks commands that only need configuration.
const annotationNoSession = "no-session"

func (a *app) load(cmd *cobra.Command, open bool) error {
	dir := a.configDir
	if dir == "" {
		var err error
		if dir, err = config.DefaultDir(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(a.v, dir)
	if err != nil {
		return &usageError{err: err}
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return &usageError{err: err}
	}
	a.logger = logger.With(zap.String("wizard", cfg.Wizard))

	if !open {
		return nil
	}
	s, err := openSession(cmd.Context(), cfg, a.logger)
	if err != nil {
		return err
	}
	a.session = s
	return nil
}

func (a *app) close() error {
	var err error
	if a.session != nil {
		err = a.session.Close()
		a.session = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}

func (a *app) out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}

// usageError marks failures caused by the user's input rather than the
// environment.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var usage *usageError
	var blocked *wizard.BlockedError
	var unknown *wizard.UnknownStepError
	var field *wizard.UnknownFieldError
	switch {
	case errors.As(err, &usage), errors.As(err, &blocked), errors.As(err, &unknown), errors.As(err, &field),
		errors.Is(err, wizard.ErrFirstStep), errors.Is(err, wizard.ErrLastStep), errors.Is(err, wizard.ErrNotLastStep):
		return exitUserError
	default:
		return exitSysError
	}
}

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}
