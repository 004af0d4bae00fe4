package igp

import (
	wizard "github.com/WhisperLooms/grant-harness"
)

var (
	yesNo = []string{"yes", "no"}

	// States lists the Australian states and territories.
	States = []string{"NSW", "VIC", "QLD", "SA", "WA", "TAS", "NT", "ACT"}

	EntityTypes = []string{
		"company_incorporated_australia",
		"cooperative",
		"incorporated_trustee",
	}

	IndigenousOwnership = []string{
		"yes_50_percent_or_more",
		"yes_less_than_50_percent",
		"no",
	}

	WomenOwnership = []string{
		"yes_women_owned_50_percent_or_more",
		"yes_women_led",
		"no",
	}

	CommercialisationStages = []string{
		"proof_of_concept",
		"prototype",
		"pilot",
		"ready_for_market",
		"early_market_entry",
	}

	NRFPriorityAreas = []string{
		"resources",
		"agriculture_food",
		"transport",
		"medical_science",
		"renewables_low_emissions",
		"defense",
		"enabling_capabilities",
	}
)

const (
	abnPattern      = `^\d{11}$`
	postcodePattern = `^\d{4}$`
	bsbPattern      = `^\d{6}$`
	accountPattern  = `^\d{6,10}$`
	phonePattern    = `^\+?[0-9 ()-]{8,20}$`
)

func yesNoField(name, label string) wizard.Field {
	return wizard.Field{Name: name, Label: label, Kind: wizard.KindEnum, Options: yesNo, Required: true}
}

func money(name, label string, required bool) wizard.Field {
	return wizard.Field{Name: name, Label: label, Kind: wizard.KindNumber, Required: required, Min: wizard.Bound(0)}
}

func text(name, label string, minLen, maxLen int) wizard.Field {
	return wizard.Field{Name: name, Label: label, Kind: wizard.KindString, Required: true, MinLength: minLen, MaxLength: maxLen}
}

// EligibilitySchema is step 1. The advisory application number is only
// required when an advisory report was received.
func EligibilitySchema(opts ...wizard.Option) (*wizard.Schema, error) {
	return wizard.NewSchema("eligibility", []wizard.Field{
		{Name: "entityType", Label: "Entity type", Kind: wizard.KindEnum, Options: EntityTypes, Required: true},
		yesNoField("receivedAdvisoryReport", "Received an Industry Growth Program Advisory Services report"),
		{
			Name:         "advisoryApplicationNumber",
			Label:        "Advisory Service Application Number",
			Kind:         wizard.KindString,
			RequiredWhen: wizard.When("receivedAdvisoryReport", "yes"),
			MinLength:    1,
			MaxLength:    50,
		},
		yesNoField("isNonTaxExempt", "Non-tax-exempt status"),
		yesNoField("isGSTRegistered", "GST registration"),
		yesNoField("hasInnovativeProductInNRF", "Innovative product in an NRF priority area"),
		yesNoField("annualTurnoverUnder20M", "Annual turnover under $20 million"),
		yesNoField("hasIPOwnership", "IP ownership"),
		yesNoField("canProvideFundingEvidence", "Co-funding evidence"),
	}, nil, opts...)
}

// OrganizationSchema is step 2. Postal fields become required when the
// postal address differs; previous-year figures when a complete financial
// year exists.
func OrganizationSchema(opts ...wizard.Option) (*wizard.Schema, error) {
	postal := wizard.When("postalAddressSameAsBusiness", false)
	previousYear := wizard.When("existedCompleteFinancialYear", "yes")
	return wizard.NewSchema("organization", []wizard.Field{
		{Name: "abn", Label: "Australian Business Number (ABN)", Kind: wizard.KindString, Required: true, Pattern: abnPattern, PatternHint: "must be 11 digits"},
		text("legalEntityName", "Legal Entity Name", 2, 200),
		{Name: "tradingName", Label: "Trading Name", Kind: wizard.KindString, MaxLength: 200},
		text("businessStreetAddress", "Street Address", 5, 200),
		text("businessSuburb", "Suburb", 2, 100),
		{Name: "businessState", Label: "State", Kind: wizard.KindEnum, Options: States, Required: true},
		{Name: "businessPostcode", Label: "Postcode", Kind: wizard.KindString, Required: true, Pattern: postcodePattern, PatternHint: "must be 4 digits"},
		{Name: "postalAddressSameAsBusiness", Label: "Postal address is the same as business address", Kind: wizard.KindBool, Default: true},
		{Name: "postalStreetAddress", Label: "Postal Street Address", Kind: wizard.KindString, RequiredWhen: postal, MinLength: 5, MaxLength: 200},
		{Name: "postalSuburb", Label: "Postal Suburb", Kind: wizard.KindString, RequiredWhen: postal, MinLength: 2, MaxLength: 100},
		{Name: "postalState", Label: "Postal State", Kind: wizard.KindEnum, Options: States, RequiredWhen: postal},
		{Name: "postalPostcode", Label: "Postal Postcode", Kind: wizard.KindString, RequiredWhen: postal, Pattern: postcodePattern, PatternHint: "must be 4 digits"},
		money("mostRecentYearTurnover", "Most Recent Year Turnover ($)", true),
		money("mostRecentYearTotalAssets", "Most Recent Year Total Assets ($)", true),
		yesNoField("existedCompleteFinancialYear", "Existed for a complete financial year"),
		{Name: "previousYearTurnover", Label: "Previous Year Turnover ($)", Kind: wizard.KindNumber, RequiredWhen: previousYear, Min: wizard.Bound(0)},
		{Name: "previousYearTotalAssets", Label: "Previous Year Total Assets ($)", Kind: wizard.KindNumber, RequiredWhen: previousYear, Min: wizard.Bound(0)},
		{Name: "numberOfEmployees", Label: "Number of Employees", Kind: wizard.KindInteger, Required: true, Min: wizard.Bound(0)},
		{Name: "numberOfContractors", Label: "Number of Contractors", Kind: wizard.KindInteger, Required: true, Min: wizard.Bound(0)},
		{Name: "indigenousOwnership", Label: "Indigenous ownership", Kind: wizard.KindEnum, Options: IndigenousOwnership, Required: true},
	}, nil, opts...)
}

// BusinessSchema is step 3. Net profit may be negative.
func BusinessSchema(opts ...wizard.Option) (*wizard.Schema, error) {
	holding := wizard.When("hasHoldingCompany", "yes")
	fields := []wizard.Field{
		text("businessDescription", "Business Description", 50, 500),
		{Name: "companyWebsite", Label: "Company Website", Kind: wizard.KindURL},
		{Name: "companyVideo", Label: "Company Video URL", Kind: wizard.KindURL},
		yesNoField("hasHoldingCompany", "Holding company"),
		{Name: "holdingCompanyName", Label: "Holding Company Name", Kind: wizard.KindString, RequiredWhen: holding, MinLength: 2, MaxLength: 200},
		{Name: "holdingCompanyAbn", Label: "Holding Company ABN", Kind: wizard.KindString, RequiredWhen: holding, Pattern: abnPattern, PatternHint: "must be 11 digits"},
	}
	for _, year := range []string{"year1", "year2", "year3"} {
		fields = append(fields,
			money(year+"Revenue", "Revenue ($)", true),
			money(year+"GrossProfit", "Gross Profit ($)", true),
			wizard.Field{Name: year + "NetProfit", Label: "Net Profit ($)", Kind: wizard.KindNumber, Required: true},
		)
	}
	fields = append(fields, wizard.Field{
		Name: "womenOwnershipStatus", Label: "Women ownership", Kind: wizard.KindEnum, Options: WomenOwnership, Required: true,
	})
	return wizard.NewSchema("business", fields, nil, opts...)
}

// ProjectSchema is step 4.
func ProjectSchema(opts ...wizard.Option) (*wizard.Schema, error) {
	return wizard.NewSchema("project", []wizard.Field{
		text("projectTitle", "Project Title", 10, 100),
		text("projectBriefDescription", "Project Brief Description", 50, 200),
		text("projectDetailedDescription", "Project Detailed Description", 200, 2000),
		text("projectExpectedOutcomes", "Expected Outcomes", 100, 1000),
		{Name: "commercializationStage", Label: "Commercialisation Stage", Kind: wizard.KindEnum, Options: CommercialisationStages, Required: true},
		{Name: "nrfPriorityArea", Label: "NRF Priority Area", Kind: wizard.KindEnum, Options: NRFPriorityAreas, Required: true},
		{Name: "projectStartDate", Label: "Project Start Date", Kind: wizard.KindDate, Required: true},
		{Name: "projectEndDate", Label: "Project End Date", Kind: wizard.KindDate, Required: true},
		{Name: "projectDurationMonths", Label: "Project Duration (Months)", Kind: wizard.KindInteger, Required: true, Min: wizard.Bound(12), Max: wizard.Bound(24), Default: 12.0},
		{Name: "projectLocationState", Label: "State/Territory", Kind: wizard.KindEnum, Options: States, Required: true},
		text("projectLocationSuburb", "Suburb/Town", 2, 100),
	}, []wizard.Constraint{
		{
			Name:    "project_dates_ordered",
			Inputs:  []string{"projectStartDate", "projectEndDate"},
			Expr:    "projectEndDate > projectStartDate",
			Target:  "projectEndDate",
			Message: "Project end date must be after the start date",
		},
	}, opts...)
}

// Budget constraint names.
const (
	ConstraintCategoriesSum = "categories_sum_to_total"
	ConstraintOnCostCap     = "on_costs_cap"
	ConstraintTravelCap     = "travel_cap"
	ConstraintCapitalCap    = "capitalised_cap"
	ConstraintGrantWithin   = "grant_within_total"
)

// CostCategories are the six itemised budget fields, in display order.
var CostCategories = []string{
	"labourCosts",
	"labourOnCosts",
	"contractCosts",
	"capitalisedExpenditure",
	"travelCosts",
	"otherCosts",
}

// Args read by the budget cap constraints. BudgetSchema sets them from the
// Max*Share constants; callers may override them with wizard.WithArg.
const (
	ArgMaxOnCostShare  = "maxOnCostShare"
	ArgMaxTravelShare  = "maxTravelShare"
	ArgMaxCapitalShare = "maxCapitalShare"
)

// BudgetSchema is step 5. The categories must sum to the declared total
// within args.tolerance; see wizard.WithTolerance.
func BudgetSchema(opts ...wizard.Option) (*wizard.Schema, error) {
	opts = append([]wizard.Option{
		wizard.WithArg(ArgMaxOnCostShare, MaxOnCostShare),
		wizard.WithArg(ArgMaxTravelShare, MaxTravelShare),
		wizard.WithArg(ArgMaxCapitalShare, MaxCapitalShare),
	}, opts...)
	return wizard.NewSchema("budget", []wizard.Field{
		money("labourCosts", "Labour Costs ($)", true),
		money("labourOnCosts", "Labour On-Costs ($)", true),
		money("contractCosts", "Contract Costs ($)", true),
		money("capitalisedExpenditure", "Capitalised Expenditure ($)", true),
		money("travelCosts", "Travel Costs ($)", true),
		money("otherCosts", "Other Eligible Costs ($)", true),
		{Name: "totalEligibleExpenditure", Label: "Total Eligible Expenditure ($)", Kind: wizard.KindNumber, Required: true, Min: wizard.Bound(MinTotalExpenditure)},
		{Name: "grantAmountSought", Label: "Grant Amount Sought ($)", Kind: wizard.KindNumber, Required: true, Min: wizard.Bound(MinGrant), Max: wizard.Bound(MaxGrant)},
		money("applicantCashContribution", "Applicant Cash Contribution ($)", true),
		money("otherGovernmentFunding", "Other Government Funding ($)", false),
	}, []wizard.Constraint{
		{
			Name:    ConstraintCategoriesSum,
			Inputs:  append(append([]string(nil), CostCategories...), "totalEligibleExpenditure"),
			Expr:    "within(labourCosts + labourOnCosts + contractCosts + capitalisedExpenditure + travelCosts + otherCosts, totalEligibleExpenditure, args.tolerance)",
			Target:  "totalEligibleExpenditure",
			Message: "Total eligible expenditure must equal the sum of the cost categories",
		},
		{
			Name:    ConstraintOnCostCap,
			Inputs:  []string{"labourOnCosts", "labourCosts"},
			Expr:    "labourOnCosts <= args.maxOnCostShare * labourCosts",
			Target:  "labourOnCosts",
			Message: "Labour on-costs cannot exceed 30% of labour costs",
		},
		{
			Name:    ConstraintTravelCap,
			Inputs:  []string{"travelCosts", "totalEligibleExpenditure"},
			Expr:    "share(travelCosts, totalEligibleExpenditure) <= args.maxTravelShare",
			Target:  "travelCosts",
			Message: "Travel costs cannot exceed 10% of total expenditure",
		},
		{
			Name:    ConstraintCapitalCap,
			Inputs:  []string{"capitalisedExpenditure", "totalEligibleExpenditure"},
			Expr:    "share(capitalisedExpenditure, totalEligibleExpenditure) <= args.maxCapitalShare",
			Target:  "capitalisedExpenditure",
			Message: "Capitalised expenditure cannot exceed 25% of total expenditure",
		},
		{
			Name:    ConstraintGrantWithin,
			Inputs:  []string{"grantAmountSought", "totalEligibleExpenditure"},
			Expr:    "grantAmountSought <= totalEligibleExpenditure",
			Target:  "grantAmountSought",
			Message: "Grant amount cannot exceed total eligible expenditure",
		},
	}, opts...)
}

// AssessmentSchema is step 6: one response per merit criterion.
func AssessmentSchema(opts ...wizard.Option) (*wizard.Schema, error) {
	return wizard.NewSchema("assessment", []wizard.Field{
		text("criterion1Response", "Criterion 1: Alignment with NRF Priorities", 200, 5000),
		text("criterion2Response", "Criterion 2: Capacity to Deliver the Project", 200, 5000),
		text("criterion3Response", "Criterion 3: Market Opportunity and Commercialisation Potential", 200, 5000),
		text("criterion4Response", "Criterion 4: Economic, Social and Environmental Benefits", 200, 5000),
	}, nil, opts...)
}

// ContactSchema is step 7. Both declarations must be accepted.
func ContactSchema(opts ...wizard.Option) (*wizard.Schema, error) {
	return wizard.NewSchema("contact", []wizard.Field{
		text("contactName", "Contact Name", 2, 100),
		text("contactPosition", "Position/Title", 2, 100),
		{Name: "contactEmail", Label: "Email Address", Kind: wizard.KindEmail, Required: true},
		{Name: "contactPhone", Label: "Phone Number", Kind: wizard.KindString, Required: true, Pattern: phonePattern, PatternHint: "must be a valid phone number"},
		text("bankAccountName", "Account Name", 2, 100),
		{Name: "bankBsb", Label: "BSB", Kind: wizard.KindString, Required: true, Pattern: bsbPattern, PatternHint: "must be 6 digits"},
		{Name: "bankAccountNumber", Label: "Account Number", Kind: wizard.KindString, Required: true, Pattern: accountPattern, PatternHint: "must be 6 to 10 digits"},
		yesNoField("hasConflictOfInterest", "Conflict of interest"),
		{Name: "conflictOfInterestDetails", Label: "Conflict of Interest Details", Kind: wizard.KindString, RequiredWhen: wizard.When("hasConflictOfInterest", "yes"), MinLength: 20, MaxLength: 2000},
		{Name: "privacyAgreement", Label: "Privacy agreement", Kind: wizard.KindBool, Required: true, MustBeTrue: true},
		{Name: "applicantDeclaration", Label: "Applicant declaration", Kind: wizard.KindBool, Required: true, MustBeTrue: true},
		text("authorizedOfficerName", "Authorized Officer Name", 2, 100),
	}, nil, opts...)
}
