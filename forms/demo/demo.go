// Package demo is a three-step sample wizard stored flat under one key.
package demo

import (
	wizard "github.com/WhisperLooms/grant-harness"
)

const (
	Name      = "demo"
	BasePath  = "/form"
	RecordKey = "multistep_form_data"
)

// New builds the sample wizard.
func New(opts ...wizard.Option) (*wizard.Sequencer, error) {
	identity, err := wizard.NewSchema("identity", []wizard.Field{
		{Name: "name", Label: "Name", Kind: wizard.KindString, Required: true, MaxLength: 100},
		{Name: "email", Label: "Email", Kind: wizard.KindEmail, Required: true},
	}, nil, opts...)
	if err != nil {
		return nil, err
	}
	profile, err := wizard.NewSchema("profile", []wizard.Field{
		{Name: "githubUrl", Label: "GitHub URL", Kind: wizard.KindURL, Required: true},
	}, nil, opts...)
	if err != nil {
		return nil, err
	}
	feedback, err := wizard.NewSchema("feedback", []wizard.Field{
		{Name: "feedback", Label: "Feedback", Kind: wizard.KindString, MaxLength: 255},
	}, nil, opts...)
	if err != nil {
		return nil, err
	}

	return wizard.NewSequencer(Name, []wizard.Step{
		{Name: "identity", Title: "About you", Schema: identity},
		{Name: "profile", Title: "Profile", Schema: profile},
		{Name: "feedback", Title: "Feedback", Schema: feedback},
	},
		wizard.WithBasePath(BasePath),
		wizard.WithStorageKeys(RecordKey, ""),
		wizard.WithLayout(wizard.LayoutFlat),
	)
}
