package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	wizard "github.com/WhisperLooms/grant-harness"
	"github.com/WhisperLooms/grant-harness/internal/hydrate"
)

// parseAssignments turns field=value arguments into edits. An empty value
// removes the field. Values stay strings; the schema coerces them.
func parseAssignments(args []string) (wizard.StepData, error) {
	edits := wizard.StepData{}
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, usagef("expected field=value, got %q", arg)
		}
		if value == "" {
			edits[field] = nil
			continue
		}
		edits[field] = value
	}
	return edits, nil
}

// readEditsFile loads a YAML mapping of field values for the current step.
// Explicit nulls remove fields, like an empty field= argument.
func readEditsFile(path, wizardName string) (wizard.StepData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &usageError{err: fmt.Errorf("read %s: %w", path, err)}
	}
	var payload map[string]any
	if err := yaml.Unmarshal(raw, &payload); err != nil {
		return nil, usagef("parse %s: %v", path, err)
	}
	if payload == nil {
		return wizard.StepData{}, nil
	}

	nulls := make([]string, 0)
	for field, value := range payload {
		if value == nil {
			nulls = append(nulls, field)
		}
	}

	decoder := hydrate.NewDecoder[wizard.StepData](
		hydrate.WithPreHook[wizard.StepData](hydrate.DropNulls),
		hydrate.WithPreHook[wizard.StepData](datesToText),
		hydrate.WithPreHook[wizard.StepData](hydrate.NormalizeNumbers),
	)
	edits, err := decoder.Decode(hydrate.Context{Wizard: wizardName, Key: path}, payload)
	if err != nil {
		return nil, &usageError{err: err}
	}
	if edits == nil {
		edits = wizard.StepData{}
	}
	for _, field := range nulls {
		edits[field] = nil
	}
	return edits, nil
}

// datesToText renders YAML timestamps in the date field format.
func datesToText(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	for key, value := range payload {
		if t, ok := value.(time.Time); ok {
			payload[key] = t.Format(wizard.DateLayout)
		}
	}
	return payload, nil
}

// collectEdits merges --file values with field=value arguments; arguments
// win.
func collectEdits(file, wizardName string, args []string) (wizard.StepData, error) {
	edits := wizard.StepData{}
	if file != "" {
		fromFile, err := readEditsFile(file, wizardName)
		if err != nil {
			return nil, err
		}
		for field, value := range fromFile {
			edits[field] = value
		}
	}
	fromArgs, err := parseAssignments(args)
	if err != nil {
		return nil, err
	}
	for field, value := range fromArgs {
		edits[field] = value
	}
	return edits, nil
}
