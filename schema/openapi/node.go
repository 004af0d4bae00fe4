package openapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	wizard "github.com/WhisperLooms/grant-harness"
)

type schemaNode struct {
	Type        string
	Format      string
	Title       string
	Description string
	Properties  map[string]*schemaNode
	Required    []string
	Enum        []any
	Default     any
	Minimum     *float64
	Maximum     *float64
	MinLength   *int
	MaxLength   *int
	Pattern     string
	extensions  map[string]any
}

func newObjectNode() *schemaNode {
	return &schemaNode{
		Type:       "object",
		Properties: map[string]*schemaNode{},
	}
}

// fieldNode maps a field declaration onto JSON Schema keywords. Conditional
// requirements are not expressible there and travel as extensions on the
// owning step instead.
func fieldNode(field wizard.Field) *schemaNode {
	node := &schemaNode{
		Title:       field.Label,
		Description: field.Description,
		Default:     field.Default,
		Minimum:     field.Min,
		Maximum:     field.Max,
		Pattern:     field.Pattern,
	}
	switch field.Kind {
	case wizard.KindNumber:
		node.Type = "number"
	case wizard.KindInteger:
		node.Type = "integer"
	case wizard.KindBool:
		node.Type = "boolean"
		if field.MustBeTrue {
			node.Enum = []any{true}
		}
	case wizard.KindEnum:
		node.Type = "string"
		for _, option := range field.Options {
			node.Enum = append(node.Enum, option)
		}
	case wizard.KindDate:
		node.Type, node.Format = "string", "date"
	case wizard.KindEmail:
		node.Type, node.Format = "string", "email"
	case wizard.KindURL:
		node.Type, node.Format = "string", "uri"
	default:
		node.Type = "string"
	}
	if field.MinLength > 0 {
		node.MinLength = intPtr(field.MinLength)
	}
	if field.MaxLength > 0 {
		node.MaxLength = intPtr(field.MaxLength)
	}
	return node
}

func stepNode(step wizard.Step) *schemaNode {
	node := newObjectNode()
	node.Title = step.Title
	conditional := map[string]any{}
	for _, field := range step.Schema.Fields() {
		node.Properties[field.Name] = fieldNode(field)
		if field.Required {
			node.Required = append(node.Required, field.Name)
		}
		if field.RequiredWhen != nil {
			conditional[field.Name] = map[string]any{
				"field":  field.RequiredWhen.Field,
				"equals": field.RequiredWhen.Equals,
			}
		}
	}
	if len(conditional) > 0 {
		node.extension("x-required-when", conditional)
	}
	if constraints := step.Schema.Constraints(); len(constraints) > 0 {
		out := make([]any, 0, len(constraints))
		for _, c := range constraints {
			out = append(out, map[string]any{
				"name":    c.Name,
				"expr":    c.Expr,
				"inputs":  append([]string(nil), c.Inputs...),
				"target":  c.Target,
				"message": c.Message,
			})
		}
		node.extension("x-constraints", out)
	}
	return node
}

func (n *schemaNode) extension(key string, value any) {
	if n.extensions == nil {
		n.extensions = map[string]any{}
	}
	n.extensions[key] = value
}

func (n *schemaNode) baseMap() map[string]any {
	result := map[string]any{}
	if n.Type != "" {
		result["type"] = n.Type
	}
	if n.Format != "" {
		result["format"] = n.Format
	}
	if n.Title != "" {
		result["title"] = n.Title
	}
	if n.Description != "" {
		result["description"] = n.Description
	}
	if n.Default != nil {
		result["default"] = n.Default
	}
	if len(n.Enum) > 0 {
		result["enum"] = n.Enum
	}
	if n.Minimum != nil {
		result["minimum"] = *n.Minimum
	}
	if n.Maximum != nil {
		result["maximum"] = *n.Maximum
	}
	if n.MinLength != nil {
		result["minLength"] = *n.MinLength
	}
	if n.MaxLength != nil {
		result["maxLength"] = *n.MaxLength
	}
	if n.Pattern != "" {
		result["pattern"] = n.Pattern
	}
	for _, key := range sortedKeys(n.extensions) {
		result[key] = n.extensions[key]
	}
	return result
}

func (n *schemaNode) inlineOpenAPI() map[string]any {
	result := n.baseMap()
	if len(n.Properties) > 0 || n.Type == "object" {
		props := make(map[string]any, len(n.Properties))
		for _, name := range sortedKeys(n.Properties) {
			props[name] = n.Properties[name].inlineOpenAPI()
		}
		result["properties"] = props
	}
	if len(n.Required) > 0 {
		names := append([]string{}, n.Required...)
		sort.Strings(names)
		result["required"] = names
	}
	return result
}

// Digest identifies structurally identical nodes so repeated shapes can be
// published once under components.
func (n *schemaNode) Digest() string {
	if n == nil {
		return ""
	}
	payload, err := json.Marshal(n.inlineOpenAPI())
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func intPtr(v int) *int {
	return &v
}

// shape is n without its per-field annotations, used to detect reusable
// value types.
func (n *schemaNode) shape() *schemaNode {
	clone := *n
	clone.Title = ""
	clone.Description = ""
	clone.Default = nil
	return &clone
}

// shareable reports whether n is a candidate for a shared component.
func (n *schemaNode) shareable() bool {
	return len(n.Enum) > 1
}
