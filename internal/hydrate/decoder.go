// Package hydrate turns persisted or user-supplied payloads back into typed
// wizard values. Payloads pass through pre-hooks (shape normalisation), are
// decoded into T, then through post-hooks (checks and fix-ups).
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Context identifies where a payload came from.
type Context struct {
	Wizard string
	Key    string
}

func (c Context) String() string {
	if c.Wizard == "" {
		return c.Key
	}
	return c.Wizard + "/" + c.Key
}

// PreHook rewrites the raw payload before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook adjusts or checks the decoded value.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces the default JSON round trip.
type CustomDecoder[T any] func(Context, map[string]any) (T, error)

// DecoderOption configures a Decoder.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts loosely typed payloads into T.
type Decoder[T any] struct {
	preHooks  []PreHook
	postHooks []PostHook[T]
	custom    CustomDecoder[T]
}

// WithPreHook appends hook to the pre-decode chain.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook appends hook to the post-decode chain.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithCustomDecoder replaces the default decoding path.
func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.custom = decoder
	}
}

// WithSnapshotHooks installs DropNulls and NormalizeNumbers, the chain used
// for every persisted record.
func WithSnapshotHooks[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, DropNulls, NormalizeNumbers)
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// DecodeJSON parses raw as a JSON object and decodes it.
func (d *Decoder[T]) DecodeJSON(ctx Context, raw []byte) (T, error) {
	var zero T
	var payload map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return zero, fmt.Errorf("hydrate: parse %s: %w", ctx, err)
	}
	if payload == nil {
		return zero, fmt.Errorf("hydrate: %s is not a JSON object", ctx)
	}
	return d.Decode(ctx, payload)
}

// Decode applies the hooks and decodes payload into T. payload is not
// modified.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var zero T
	if payload == nil {
		return zero, fmt.Errorf("hydrate: payload is nil for %s", ctx)
	}

	current := deepCopy(payload).(map[string]any)
	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: pre-hook for %s failed: %w", ctx, err)
		}
		if next != nil {
			current = next
		}
	}

	var (
		result T
		err    error
	)
	if d.custom != nil {
		result, err = d.custom(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: custom decoder for %s failed: %w", ctx, err)
		}
	} else {
		buffer, err := json.Marshal(current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: marshal %s: %w", ctx, err)
		}
		if err := json.Unmarshal(buffer, &result); err != nil {
			return zero, fmt.Errorf("hydrate: decode %s: %w", ctx, err)
		}
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for %s failed: %w", ctx, err)
		}
	}
	return result, nil
}

func deepCopy(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return value
	}
}
