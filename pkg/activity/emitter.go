package activity

import (
	"context"
	"strings"
)

// DefaultChannel is applied to events that do not name a channel.
const DefaultChannel = "wizard"

// Config controls whether events are emitted and on which channel.
type Config struct {
	Enabled bool
	Channel string
}

// Emitter applies Config defaults before handing events to its hooks.
// A nil *Emitter is valid and never emits.
type Emitter struct {
	hooks   Hooks
	enabled bool
	channel string
}

// NewEmitter builds an emitter. Nil hooks are dropped; an emitter without
// hooks is disabled regardless of cfg.Enabled.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	kept := make(Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			kept = append(kept, hook)
		}
	}
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	return &Emitter{
		hooks:   kept,
		enabled: cfg.Enabled && len(kept) > 0,
		channel: channel,
	}
}

// Enabled reports whether Emit would reach any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled
}

// Emit delivers event to every hook.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}
