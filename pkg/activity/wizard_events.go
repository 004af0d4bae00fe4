package activity

import "time"

const (
	VerbStepAdvanced  = "wizard.step.advanced"
	VerbStepRetreated = "wizard.step.retreated"
	VerbDraftSaved    = "wizard.draft.saved"
	VerbSubmitted     = "wizard.submitted"
	VerbCleared       = "wizard.cleared"

	// ObjectTypeSession is the object type of every wizard event; the object
	// id is the session id.
	ObjectTypeSession = "wizard.session"
)

// WizardEventInput carries the fields shared by wizard lifecycle events.
type WizardEventInput struct {
	ActorID    string
	TenantID   string
	SessionID  string
	Wizard     string
	FromStep   int
	ToStep     int
	StepName   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildStepAdvancedEvent describes a successful Advance.
func BuildStepAdvancedEvent(input WizardEventInput) Event {
	return buildWizardEvent(VerbStepAdvanced, input)
}

// BuildStepRetreatedEvent describes a Retreat or a backward jump.
func BuildStepRetreatedEvent(input WizardEventInput) Event {
	return buildWizardEvent(VerbStepRetreated, input)
}

// BuildDraftSavedEvent describes an explicit draft save.
func BuildDraftSavedEvent(input WizardEventInput) Event {
	return buildWizardEvent(VerbDraftSaved, input)
}

// BuildSubmittedEvent describes a completed submission.
func BuildSubmittedEvent(input WizardEventInput) Event {
	return buildWizardEvent(VerbSubmitted, input)
}

// BuildClearedEvent describes a reset of the record.
func BuildClearedEvent(input WizardEventInput) Event {
	return buildWizardEvent(VerbCleared, input)
}

func buildWizardEvent(verb string, input WizardEventInput) Event {
	metadata := CloneMetadata(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["wizard"] = input.Wizard
	metadata["from_step"] = input.FromStep
	metadata["to_step"] = input.ToStep
	if input.StepName != "" {
		metadata["step_name"] = input.StepName
	}

	return Event{
		Verb:       verb,
		ActorID:    input.ActorID,
		TenantID:   input.TenantID,
		SessionID:  input.SessionID,
		ObjectType: ObjectTypeSession,
		ObjectID:   input.SessionID,
		Channel:    input.Channel,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
