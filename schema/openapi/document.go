package openapi

import (
	"fmt"
	"sort"
	"strings"

	wizard "github.com/WhisperLooms/grant-harness"
)

type openAPIDocumentBuilder struct {
	config   generatorConfig
	registry *componentRegistry
	seq      *wizard.Sequencer
}

func newOpenAPIDocumentBuilder(config generatorConfig, seq *wizard.Sequencer) *openAPIDocumentBuilder {
	return &openAPIDocumentBuilder{
		config:   config,
		registry: newComponentRegistry(),
		seq:      seq,
	}
}

func (b *openAPIDocumentBuilder) build() (map[string]any, error) {
	if b.seq == nil {
		return nil, fmt.Errorf("openapi: sequencer cannot be nil")
	}

	steps := b.seq.Steps()
	nodes := make([]*schemaNode, len(steps))
	for i, step := range steps {
		nodes[i] = stepNode(step)
		for _, prop := range nodes[i].Properties {
			if prop.shareable() {
				b.registry.observe(prop.shape())
			}
		}
	}

	paths := map[string]any{}
	stepRefs := make([]string, len(steps))
	for i, step := range steps {
		stepRefs[i] = b.registry.publish(stepComponentName(step), b.stepSchema(nodes[i]))
		path, err := b.seq.StepPath(step.ID)
		if err != nil {
			return nil, err
		}
		paths[path] = map[string]any{
			"put": b.operation(fmt.Sprintf("saveStep%d", step.ID), fmt.Sprintf("Save step %d: %s", step.ID, step.Title), stepRefs[i]),
		}
	}

	recordRef := b.registry.publish("ApplicationRecord", b.recordSchema(steps, stepRefs))
	submitPath := strings.TrimSuffix(strings.TrimSuffix(mustPath(b.seq, 1), "/step1"), "/") + "/submit"
	paths[submitPath] = map[string]any{
		"post": b.operation("submitApplication", "Submit the completed application", recordRef),
	}

	title := b.config.info.Title
	if title == "" {
		title = b.seq.Name()
	}
	info := map[string]any{
		"title":   title,
		"version": b.config.info.Version,
	}
	if b.config.info.Description != "" {
		info["description"] = b.config.info.Description
	}

	document := map[string]any{
		"openapi": b.config.openAPIVersion,
		"info":    info,
		"paths":   paths,
		"x-wizard": map[string]any{
			"name":       b.seq.Name(),
			"steps":      b.seq.StepCount(),
			"record_key": b.seq.RecordKey(),
			"step_key":   b.seq.StepKey(),
			"layout":     layoutName(b.seq.Layout()),
		},
	}
	if components := b.registry.componentsMap(); components != nil {
		document["components"] = map[string]any{
			"schemas": components,
		}
	}

	if err := validateDocument(document); err != nil {
		return nil, err
	}
	return document, nil
}

// stepSchema renders a step object, replacing shared value types with an
// allOf reference so the field title survives next to the $ref.
func (b *openAPIDocumentBuilder) stepSchema(node *schemaNode) map[string]any {
	result := node.inlineOpenAPI()
	props, _ := result["properties"].(map[string]any)
	for _, name := range sortedKeys(node.Properties) {
		prop := node.Properties[name]
		if !prop.shareable() {
			continue
		}
		ref := b.registry.reference(name, prop.shape())
		if ref == "" {
			continue
		}
		wrapped := map[string]any{"allOf": []any{map[string]any{"$ref": ref}}}
		if prop.Title != "" {
			wrapped["title"] = prop.Title
		}
		if prop.Description != "" {
			wrapped["description"] = prop.Description
		}
		if prop.Default != nil {
			wrapped["default"] = prop.Default
		}
		props[name] = wrapped
	}
	return result
}

func (b *openAPIDocumentBuilder) recordSchema(steps []wizard.Step, refs []string) map[string]any {
	if b.seq.Layout() == wizard.LayoutFlat {
		all := make([]any, len(refs))
		for i, ref := range refs {
			all[i] = map[string]any{"$ref": ref}
		}
		return map[string]any{"allOf": all}
	}
	props := make(map[string]any, len(steps))
	for i, step := range steps {
		key, _ := b.seq.StorageKey(step.ID)
		props[key] = map[string]any{"$ref": refs[i]}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

func (b *openAPIDocumentBuilder) operation(id, summary, ref string) map[string]any {
	statuses := make([]string, 0, len(b.config.responses))
	for status := range b.config.responses {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	responses := make(map[string]any, len(statuses))
	for _, status := range statuses {
		responses[status] = map[string]any{
			"description": b.config.responses[status].Description,
		}
	}
	return map[string]any{
		"operationId": id,
		"summary":     summary,
		"requestBody": map[string]any{
			"required": true,
			"content": map[string]any{
				b.config.contentType: map[string]any{
					"schema": map[string]any{"$ref": ref},
				},
			},
		},
		"responses": responses,
	}
}

func stepComponentName(step wizard.Step) string {
	return fmt.Sprintf("Step%d_%s", step.ID, step.Name)
}

func layoutName(layout wizard.Layout) string {
	if layout == wizard.LayoutFlat {
		return "flat"
	}
	return "per_step"
}

func mustPath(seq *wizard.Sequencer, id int) string {
	path, _ := seq.StepPath(id)
	return path
}

func validateDocument(document map[string]any) error {
	if document == nil {
		return fmt.Errorf("openapi: document cannot be nil")
	}
	openapi, _ := document["openapi"].(string)
	if openapi == "" {
		return fmt.Errorf("openapi: document missing version string")
	}
	info, _ := document["info"].(map[string]any)
	if info == nil {
		return fmt.Errorf("openapi: document missing info section")
	}
	if title, _ := info["title"].(string); title == "" {
		return fmt.Errorf("openapi: info.title must be set")
	}
	if version, _ := info["version"].(string); version == "" {
		return fmt.Errorf("openapi: info.version must be set")
	}
	paths, _ := document["paths"].(map[string]any)
	if len(paths) == 0 {
		return fmt.Errorf("openapi: document must define at least one path")
	}
	for pathKey, pathValue := range paths {
		pathItem, _ := pathValue.(map[string]any)
		if len(pathItem) == 0 {
			return fmt.Errorf("openapi: path %q missing operations", pathKey)
		}
		for method, operationValue := range pathItem {
			operation, _ := operationValue.(map[string]any)
			if operation == nil {
				return fmt.Errorf("openapi: operation %s %s invalid payload", method, pathKey)
			}
			if _, ok := operation["operationId"].(string); !ok {
				return fmt.Errorf("openapi: operation %s %s missing operationId", method, pathKey)
			}
			if _, ok := operation["requestBody"].(map[string]any); !ok {
				return fmt.Errorf("openapi: operation %s %s missing requestBody", method, pathKey)
			}
			if _, ok := operation["responses"].(map[string]any); !ok {
				return fmt.Errorf("openapi: operation %s %s missing responses", method, pathKey)
			}
		}
	}
	return nil
}
