// Package logging builds the zap loggers used by the CLI and adapts them to
// the wizard's evaluator and activity hooks.
package logging

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	wizard "github.com/WhisperLooms/grant-harness"
	"github.com/WhisperLooms/grant-harness/pkg/activity"
)

// New builds a console logger writing to stderr at level ("debug", "info",
// "warn", "error").
func New(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = lvl > zapcore.DebugLevel
	cfg.Sampling = nil
	return cfg.Build()
}

// EvaluatorLogger reports every constraint evaluation at debug level and
// failed evaluations at warn.
func EvaluatorLogger(logger *zap.Logger) wizard.EvaluatorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("constraints")
	return wizard.EvaluatorLoggerFunc(func(event wizard.EvaluatorLogEvent) {
		fields := []zap.Field{
			zap.String("engine", event.Engine),
			zap.String("step", event.Step),
			zap.String("constraint", event.Constraint),
			zap.Duration("duration", event.Duration),
		}
		if event.Err != nil {
			logger.Warn("constraint evaluation failed", append(fields, zap.String("expr", event.Expr), zap.Error(event.Err))...)
			return
		}
		logger.Debug("constraint evaluated", append(fields, zap.Any("result", event.Result))...)
	})
}

// ActivityHook writes wizard events to logger at info level.
func ActivityHook(logger *zap.Logger) activity.ActivityHook {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("activity")
	return activity.HookFunc(func(_ context.Context, event activity.Event) error {
		logger.Info(event.Verb,
			zap.String("session", event.SessionID),
			zap.String("actor", event.ActorID),
			zap.String("channel", event.Channel),
			zap.Any("metadata", event.Metadata),
			zap.Time("occurred_at", event.OccurredAt),
		)
		return nil
	})
}
