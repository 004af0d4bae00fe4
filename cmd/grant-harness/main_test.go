package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wizard "github.com/WhisperLooms/grant-harness"
	"github.com/WhisperLooms/grant-harness/forms/igp"
)

var eligibility = []string{
	"entityType=company_incorporated_australia",
	"receivedAdvisoryReport=yes",
	"advisoryApplicationNumber=IGP-ADV-0042",
	"isNonTaxExempt=yes",
	"isGSTRegistered=yes",
	"hasInnovativeProductInNRF=yes",
	"annualTurnoverUnder20M=yes",
	"hasIPOwnership=yes",
	"canProvideFundingEvidence=yes",
}

type harness struct {
	dir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{dir: t.TempDir()}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config-dir", h.dir, "--log-level", "error"}, args...)
	err := run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func TestFirstRunWritesDefaultConfig(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "status")

	_, err := os.Stat(filepath.Join(h.dir, "config.yaml"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(h.dir, "grant-harness.db"))
	require.NoError(t, err)
}

func TestStepsListsWizardSteps(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun(t, "steps")

	assert.Contains(t, out, "> 1. Eligibility Check")
	assert.Contains(t, out, "  5. Project Budget")
	assert.Contains(t, out, "  7. Contact Details & Declaration")
}

func TestNextIsBlockedUntilTheStepIsValid(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "next", "entityType=company_incorporated_australia")
	require.Error(t, err)

	var blocked *wizard.BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, igp.StepEligibility, blocked.Step)
	assert.Equal(t, exitUserError, exitCode(err))
	assert.Contains(t, out, "status: incomplete")
	assert.Contains(t, out, "isGSTRegistered")
}

func TestProgressSurvivesBetweenInvocations(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun(t, append([]string{"next"}, eligibility...)...)
	assert.Contains(t, out, "step 2 of 7")
	assert.Contains(t, out, "route: /applications/igp-commercialisation/step2")

	out = h.mustRun(t, "--json", "status")
	var view stepView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, igp.StepOrganization, view.Step)
	assert.Equal(t, "organization", view.Name)
	assert.False(t, view.Valid)

	out = h.mustRun(t, "--json", "show", "1")
	var saved map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &saved))
	assert.Equal(t, "IGP-ADV-0042", saved["advisoryApplicationNumber"])

	h.mustRun(t, "back")
	out = h.mustRun(t, "status")
	assert.Contains(t, out, "step 1 of 7")
	assert.Contains(t, out, "status: valid")
}

func TestValidateDoesNotSave(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun(t, append([]string{"validate"}, eligibility...)...)
	assert.Contains(t, out, "status: valid")

	out = h.mustRun(t, "status")
	assert.Contains(t, out, "status: incomplete")
}

func TestSaveKeepsIncompleteDraft(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "save", "entityType=company_incorporated_australia", "receivedAdvisoryReport=no")

	out := h.mustRun(t, "--json", "show")
	var saved map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &saved))
	assert.Equal(t, "company_incorporated_australia", saved["entityType"])
	assert.Equal(t, "no", saved["receivedAdvisoryReport"])

	out = h.mustRun(t, "show", "--trace", "entityType")
	assert.Contains(t, out, "entityType = company_incorporated_australia (from stored)")
}

func TestEditsFromYAMLFile(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, append([]string{"next"}, eligibility...)...)

	file := filepath.Join(t.TempDir(), "organization.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`abn: "51824753556"
legalEntityName: Harbour Robotics Pty Ltd
businessStreetAddress: 12 Wharf Street
businessSuburb: Pyrmont
businessState: NSW
businessPostcode: "2009"
postalAddressSameAsBusiness: true
mostRecentYearTurnover: 4200000
mostRecentYearTotalAssets: 1800000
existedCompleteFinancialYear: "no"
numberOfEmployees: 18
numberOfContractors: 3
indigenousOwnership: "no"
`), 0o644))

	out := h.mustRun(t, "next", "--file", file)
	assert.Contains(t, out, "step 3 of 7")

	out = h.mustRun(t, "--json", "show", "organization")
	var saved map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &saved))
	assert.Equal(t, 18.0, saved["numberOfEmployees"])
	assert.Equal(t, true, saved["postalAddressSameAsBusiness"])
}

func TestGotoForwardStopsAtFirstIncompleteStep(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "goto", "4")
	require.Error(t, err)

	out := h.mustRun(t, "status")
	assert.Contains(t, out, "step 1 of 7")

	_, err = h.run(t, "goto", "9")
	var unknown *wizard.UnknownStepError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestBackOnFirstStepFails(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "back")
	require.ErrorIs(t, err, wizard.ErrFirstStep)
}

func TestClearDropsProgress(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, append([]string{"next"}, eligibility...)...)
	assert.Contains(t, h.mustRun(t, "steps"), "1. Eligibility Check (saved)")

	out := h.mustRun(t, "clear")
	assert.Contains(t, out, "Progress cleared.")
	assert.Contains(t, out, "step 1 of 7")

	assert.NotContains(t, h.mustRun(t, "steps"), "(saved)")
}

func TestSubmitIsRefusedBeforeTheLastStep(t *testing.T) {
	h := newHarness(t)
	base := []string{"--wizard", "demo", "--storage", "memory"}

	_, err := h.run(t, append(base, "submit")...)
	require.ErrorIs(t, err, wizard.ErrNotLastStep)

	_, err = os.Stat(filepath.Join(h.dir, "grant-harness.db"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestUnknownWizardIsAUsageError(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "--wizard", "nope", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown wizard "nope"`)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestSchemaPrintsOpenAPIDocument(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun(t, "--wizard", "demo", "schema", "--format", "json")

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/form/step1")
	assert.Contains(t, paths, "/form/submit")

	out = h.mustRun(t, "--wizard", "demo", "schema")
	assert.Contains(t, out, "openapi:")
	assert.Contains(t, out, "/form/step2:")
}

func TestParseAssignments(t *testing.T) {
	edits, err := parseAssignments([]string{"name=Ada", "feedback=", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, wizard.StepData{"name": "Ada", "feedback": nil, "note": "a=b"}, edits)

	_, err = parseAssignments([]string{"novalue"})
	require.Error(t, err)
}

func TestMoneyFormatting(t *testing.T) {
	assert.Equal(t, "3,000,000", money(3_000_000))
	assert.Equal(t, "999", money(999))
	assert.Equal(t, "-1,250", money(-1250))
}

func TestMisspelledFieldIsRejected(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, append([]string{"next", "entitytype=typo"}, eligibility...)...)
	require.Error(t, err)

	var unknown *wizard.UnknownFieldError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"entitytype"}, unknown.Fields)
	assert.Equal(t, exitUserError, exitCode(err))

	out := h.mustRun(t, "status")
	assert.Contains(t, out, "step 1 of 7")
	assert.NotContains(t, h.mustRun(t, "steps"), "(saved)")
}

func TestDemoWizardCompletesAcrossInvocations(t *testing.T) {
	h := newHarness(t)
	demo := func(args ...string) string {
		t.Helper()
		return h.mustRun(t, append([]string{"--wizard", "demo"}, args...)...)
	}

	out := demo("next", "name=Ada", "email=ada@example.com")
	assert.Contains(t, out, "step 2 of 3")
	assert.Contains(t, demo("status"), "step 2 of 3")

	out = demo("next", "githubUrl=https://github.com/ada")
	assert.Contains(t, out, "step 3 of 3")
	assert.Contains(t, out, "route: /form/step3")
	assert.Contains(t, demo("status"), "step 3 of 3")

	out = demo("submit", "feedback=great")
	assert.Contains(t, out, "Application received.")

	out = demo("status")
	assert.Contains(t, out, "step 1 of 3")
	assert.Contains(t, out, "status: incomplete")
}
