// Package igp declares the Industry Growth Program commercialisation grant
// wizard: seven steps, per-step storage under two fixed keys.
package igp

import (
	wizard "github.com/WhisperLooms/grant-harness"
)

const (
	Name      = "igp"
	BasePath  = "/applications/igp-commercialisation"
	RecordKey = "igp_commercialisation_form"
	StepKey   = "igp_current_step"
)

// Step ids.
const (
	StepEligibility = iota + 1
	StepOrganization
	StepBusiness
	StepProject
	StepBudget
	StepAssessment
	StepContact
)

// Minimum and maximum dollar amounts of the budget step.
const (
	MinTotalExpenditure = 200_000
	MinGrant            = 100_000
	MaxGrant            = 5_000_000
)

// Caps on single budget categories, as fractions. The on-cost cap is a
// share of labour costs, the others of total eligible expenditure.
const (
	MaxOnCostShare  = 0.30
	MaxTravelShare  = 0.10
	MaxCapitalShare = 0.25
)

// New builds the wizard. opts apply to every step schema, so an evaluator,
// tolerance or logger configured here is shared by all constraints.
func New(opts ...wizard.Option) (*wizard.Sequencer, error) {
	type builder struct {
		name  string
		title string
		build func(...wizard.Option) (*wizard.Schema, error)
	}
	builders := []builder{
		{"eligibility", "Eligibility Check", EligibilitySchema},
		{"organization", "Organization Details", OrganizationSchema},
		{"business", "Business Information", BusinessSchema},
		{"project", "Project Overview", ProjectSchema},
		{"budget", "Project Budget", BudgetSchema},
		{"assessment", "Assessment Criteria", AssessmentSchema},
		{"contact", "Contact Details & Declaration", ContactSchema},
	}

	steps := make([]wizard.Step, 0, len(builders))
	for _, b := range builders {
		schema, err := b.build(opts...)
		if err != nil {
			return nil, err
		}
		steps = append(steps, wizard.Step{Name: b.name, Title: b.title, Schema: schema})
	}
	return wizard.NewSequencer(Name, steps,
		wizard.WithBasePath(BasePath),
		wizard.WithStorageKeys(RecordKey, StepKey),
		wizard.WithLayout(wizard.LayoutPerStep),
	)
}

// MustNew is New with default options; it panics on error.
func MustNew(opts ...wizard.Option) *wizard.Sequencer {
	seq, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return seq
}
