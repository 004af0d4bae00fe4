// Package openapi describes a wizard as an OpenAPI 3 document: one component
// per step schema, one PUT path per step route and a submit operation taking
// the whole Application Record. Field rules map onto JSON Schema keywords;
// conditional requirements and cross-field constraints travel as
// x-required-when and x-constraints extensions.
package openapi

import (
	wizard "github.com/WhisperLooms/grant-harness"
)

// Generator renders OpenAPI documents for wizards.
type Generator struct {
	config generatorConfig
}

// NewGenerator constructs a generator.
func NewGenerator(opts ...GeneratorOption) Generator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return Generator{config: cfg}
}

// Generate builds the document for seq.
func (g Generator) Generate(seq *wizard.Sequencer) (map[string]any, error) {
	return newOpenAPIDocumentBuilder(g.config, seq).build()
}

// Generate is NewGenerator(opts...).Generate(seq).
func Generate(seq *wizard.Sequencer, opts ...GeneratorOption) (map[string]any, error) {
	return NewGenerator(opts...).Generate(seq)
}
