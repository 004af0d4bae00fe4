package igp

import (
	"strings"

	wizard "github.com/WhisperLooms/grant-harness"
)

func prose(n int) string {
	return strings.Repeat("x", n)
}

func validBudget() wizard.StepData {
	return wizard.StepData{
		"labourCosts":               800000.0,
		"labourOnCosts":             200000.0,
		"contractCosts":             600000.0,
		"capitalisedExpenditure":    400000.0,
		"travelCosts":               100000.0,
		"otherCosts":                900000.0,
		"totalEligibleExpenditure":  3000000.0,
		"grantAmountSought":         2000000.0,
		"applicantCashContribution": 1000000.0,
	}
}

// validApplication returns data that passes every step.
func validApplication() map[int]wizard.StepData {
	return map[int]wizard.StepData{
		StepEligibility: {
			"entityType":                "company_incorporated_australia",
			"receivedAdvisoryReport":    "yes",
			"advisoryApplicationNumber": "IGP-ADV-0042",
			"isNonTaxExempt":            "yes",
			"isGSTRegistered":           "yes",
			"hasInnovativeProductInNRF": "yes",
			"annualTurnoverUnder20M":    "yes",
			"hasIPOwnership":            "yes",
			"canProvideFundingEvidence": "yes",
		},
		StepOrganization: {
			"abn":                          "51824753556",
			"legalEntityName":              "Harbour Robotics Pty Ltd",
			"businessStreetAddress":        "12 Wharf Street",
			"businessSuburb":               "Pyrmont",
			"businessState":                "NSW",
			"businessPostcode":             "2009",
			"postalAddressSameAsBusiness":  true,
			"mostRecentYearTurnover":       4200000.0,
			"mostRecentYearTotalAssets":    1800000.0,
			"existedCompleteFinancialYear": "no",
			"numberOfEmployees":            18.0,
			"numberOfContractors":          3.0,
			"indigenousOwnership":          "no",
		},
		StepBusiness: {
			"businessDescription":  prose(80),
			"companyWebsite":       "https://harbour-robotics.example",
			"hasHoldingCompany":    "no",
			"year1Revenue":         3100000.0,
			"year1GrossProfit":     900000.0,
			"year1NetProfit":       -120000.0,
			"year2Revenue":         3600000.0,
			"year2GrossProfit":     1100000.0,
			"year2NetProfit":       40000.0,
			"year3Revenue":         4200000.0,
			"year3GrossProfit":     1400000.0,
			"year3NetProfit":       210000.0,
			"womenOwnershipStatus": "no",
		},
		StepProject: {
			"projectTitle":               "Autonomous hull inspection drones",
			"projectBriefDescription":    prose(120),
			"projectDetailedDescription": prose(400),
			"projectExpectedOutcomes":    prose(150),
			"commercializationStage":     "pilot",
			"nrfPriorityArea":            "defense",
			"projectStartDate":           "2026-01-01",
			"projectEndDate":             "2027-06-30",
			"projectDurationMonths":      18.0,
			"projectLocationState":       "NSW",
			"projectLocationSuburb":      "Pyrmont",
		},
		StepBudget: validBudget(),
		StepAssessment: {
			"criterion1Response": prose(300),
			"criterion2Response": prose(300),
			"criterion3Response": prose(300),
			"criterion4Response": prose(300),
		},
		StepContact: {
			"contactName":           "Sam Okafor",
			"contactPosition":       "Managing Director",
			"contactEmail":          "sam@harbour-robotics.example",
			"contactPhone":          "0412 345 678",
			"bankAccountName":       "Harbour Robotics Pty Ltd",
			"bankBsb":               "062000",
			"bankAccountNumber":     "12345678",
			"hasConflictOfInterest": "no",
			"privacyAgreement":      true,
			"applicantDeclaration":  true,
			"authorizedOfficerName": "Sam Okafor",
		},
	}
}
