package igp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	wizard "github.com/WhisperLooms/grant-harness"
)

func TestSummarize(t *testing.T) {
	summary := Summarize(validBudget())

	assert.Equal(t, 3000000.0, summary.CalculatedTotal)
	assert.Equal(t, 3000000.0, summary.TotalEligibleExpenditure)
	assert.Zero(t, summary.Difference)
	assert.True(t, summary.HasPercentage)
	assert.InDelta(t, 66.666, summary.GrantPercentage, 0.001)
}

func TestSummarizeWithoutTotal(t *testing.T) {
	summary := Summarize(wizard.StepData{"labourCosts": 1000.0, "grantAmountSought": 500.0})

	assert.Equal(t, 1000.0, summary.CalculatedTotal)
	assert.False(t, summary.HasPercentage)
	assert.Zero(t, summary.GrantPercentage)
	assert.Equal(t, -1000.0, summary.Difference)
}
