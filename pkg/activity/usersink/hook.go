// Package usersink forwards wizard activity to a go-users ActivitySink so
// application progress shows up in the same audit trail as account activity.
package usersink

import (
	"context"
	"strings"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/WhisperLooms/grant-harness/pkg/activity"
)

// Hook is an activity.ActivityHook backed by a go-users sink.
type Hook struct {
	Sink usertypes.ActivitySink
}

// Notify converts event into an ActivityRecord. The applicant is recorded as
// both actor and user; the session id travels in Data.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	event = activity.NormalizeEvent(event)
	if !event.Valid() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	data := activity.CloneMetadata(event.Metadata)
	if event.SessionID != "" {
		if data == nil {
			data = map[string]any{}
		}
		data["session_id"] = event.SessionID
	}
	actor := parseUUID(event.ActorID)
	return h.Sink.Log(ctx, usertypes.ActivityRecord{
		ActorID:    actor,
		UserID:     actor,
		TenantID:   parseUUID(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       data,
		OccurredAt: event.OccurredAt,
	})
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
