package activity

import (
	"context"
	"sync"
)

// CaptureHook keeps every event it receives. Tests and the CLI's --trace
// flag use it.
type CaptureHook struct {
	Err error

	mu     sync.Mutex
	events []Event
}

// Notify records event and returns h.Err.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, NormalizeEvent(event))
	return h.Err
}

// Events returns a copy of the recorded events.
func (h *CaptureHook) Events() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.events...)
}

// Verbs returns the verbs of the recorded events in order.
func (h *CaptureHook) Verbs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.events))
	for i, event := range h.events {
		out[i] = event.Verb
	}
	return out
}
