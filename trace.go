package wizard

import (
	"encoding/json"

	"github.com/WhisperLooms/grant-harness/layering"
)

// Layer names reported by Trace, strongest first.
const (
	LayerEdit    = "edit"
	LayerStored  = "stored"
	LayerDefault = "default"
)

// Trace records which layer produced the effective value of one field of
// the visible step.
type Trace struct {
	Step   int          `json:"step"`
	Field  string       `json:"field"`
	Value  any          `json:"value"`
	Layers []Provenance `json:"layers"`
}

// Provenance is one layer's contribution to a traced field.
type Provenance struct {
	Layer string `json:"layer"`
	Value any    `json:"value,omitempty"`
	Found bool   `json:"found"`
}

// ToJSON serialises the trace for logging or CLI output.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON decodes a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

// Trace explains where the in-progress value of field comes from: an
// uncommitted edit, the committed record, or the schema default.
func (g *Gate) Trace(field string) (Trace, error) {
	if !g.open {
		return Trace{}, ErrNotOpen
	}
	stored, _ := g.store.StepData(g.step)
	defaults := g.schema().Default()
	loaded := layering.Merge(stored, defaults)

	current, present := g.data[field]
	base, based := loaded[field]
	edit := Provenance{Layer: LayerEdit}
	if present != based || (present && !valuesEqual(current, base)) {
		edit = Provenance{Layer: LayerEdit, Value: current, Found: present}
	}
	storedValue, inStore := stored[field]
	defaultValue, inDefault := defaults[field]

	return Trace{
		Step:  g.step,
		Field: field,
		Value: current,
		Layers: []Provenance{
			edit,
			{Layer: LayerStored, Value: storedValue, Found: inStore},
			{Layer: LayerDefault, Value: defaultValue, Found: inDefault},
		},
	}, nil
}

// Source returns the strongest layer that holds a value, or "" when the
// field is unset.
func (t Trace) Source() string {
	if t.Value == nil {
		return ""
	}
	for _, layer := range t.Layers {
		if layer.Found {
			return layer.Layer
		}
	}
	return ""
}
