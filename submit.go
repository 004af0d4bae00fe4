package wizard

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Submission is the complete record handed to a Submitter.
type Submission struct {
	Wizard      string
	SessionID   string
	Record      Record
	SubmittedAt time.Time
}

// Receipt acknowledges a submission.
type Receipt struct {
	ID          string
	Message     string
	SubmittedAt time.Time
}

// Submitter delivers a completed application. The only implementation today
// is LocalSubmitter; an HTTP submitter would plug in here.
type Submitter interface {
	Submit(ctx context.Context, submission Submission) (Receipt, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, submission Submission) (Receipt, error)

// Submit implements Submitter.
func (f SubmitterFunc) Submit(ctx context.Context, submission Submission) (Receipt, error) {
	return f(ctx, submission)
}

// LocalSubmitter acknowledges a submission locally without any network effect.
type LocalSubmitter struct{}

// Submit returns a receipt with a fresh id.
func (LocalSubmitter) Submit(_ context.Context, submission Submission) (Receipt, error) {
	at := submission.SubmittedAt
	if at.IsZero() {
		at = time.Now()
	}
	return Receipt{
		ID:          uuid.NewString(),
		Message:     "Application received. It has been recorded locally and has not been sent to the program office.",
		SubmittedAt: at,
	}, nil
}
