package igp

import (
	wizard "github.com/WhisperLooms/grant-harness"
)

// BudgetSummary is the funding summary shown beside the budget step.
// Missing figures count as zero.
type BudgetSummary struct {
	CalculatedTotal          float64
	TotalEligibleExpenditure float64
	GrantAmountSought        float64
	// GrantPercentage is grant/total*100; HasPercentage is false when the
	// total is zero.
	GrantPercentage float64
	HasPercentage   bool
	// Difference is declared total minus the calculated total.
	Difference float64
}

// Summarize derives the funding summary from budget step data.
func Summarize(data wizard.StepData) BudgetSummary {
	number := func(field string) float64 {
		if n, ok := data[field].(float64); ok {
			return n
		}
		return 0
	}
	var summary BudgetSummary
	for _, field := range CostCategories {
		summary.CalculatedTotal += number(field)
	}
	summary.TotalEligibleExpenditure = number("totalEligibleExpenditure")
	summary.GrantAmountSought = number("grantAmountSought")
	summary.Difference = summary.TotalEligibleExpenditure - summary.CalculatedTotal
	if summary.TotalEligibleExpenditure > 0 {
		summary.GrantPercentage = summary.GrantAmountSought / summary.TotalEligibleExpenditure * 100
		summary.HasPercentage = true
	}
	return summary
}
