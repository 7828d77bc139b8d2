package tax

// Assumptions echoes the resolved parameters and derived intermediates so
// callers can show exactly what the estimate assumed.
type Assumptions struct {
	TaxYear                 string  `json:"tax_year"`
	VATableSpendRatio       float64 `json:"vatable_spend_ratio"`
	VATRate                 float64 `json:"vat_rate"`
	NIMainRate              float64 `json:"ni_main_rate"`
	NIUpperRate             float64 `json:"ni_upper_rate"`
	AdjustedIncome          float64 `json:"adjusted_income_gbp"`
	AdjustedPartnerIncome   float64 `json:"adjusted_partner_income_gbp"`
	PensionSalarySac        float64 `json:"pension_salary_sacrifice_gbp"`
	PensionReliefSource     float64 `json:"pension_relief_at_source_gbp"`
	GiftAid                 float64 `json:"gift_aid_gbp"`
	OtherPreTaxDeduction    float64 `json:"other_pre_tax_deductions_gbp"`
	CouncilTaxBand          string  `json:"council_tax_band"`
	CouncilName             string  `json:"council_name"`
	PostcodeLookupRegion    string  `json:"postcode_lookup_region"`
	CouncilTaxRegionUsed    string  `json:"council_tax_region_used"`
	Nation                  string  `json:"uk_nation_for_income_tax"`
	EmploymentType          string  `json:"employment_type"`
	StudentLoanPlan         string  `json:"student_loan_plan"`
	PolicySimulationActive  string  `json:"policy_simulation_active"`
	MarriageAllowanceCredit float64 `json:"marriage_allowance_credit_gbp"`
}

// HouseholdSummary describes the household the estimate covered.
type HouseholdSummary struct {
	HouseholdIncome     float64 `json:"household_income_gbp"`
	PartnerAnnualIncome float64 `json:"partner_annual_income_gbp"`
	HouseholdAdults     int     `json:"household_adults"`
	MarriageTransfer    bool    `json:"marriage_allowance_transfer"`
}

// Comparison reports the same household's liability under another tax year.
type Comparison struct {
	CompareTaxYear         string  `json:"compare_tax_year"`
	TotalEstimatedTax      float64 `json:"total_estimated_tax_gbp"`
	DeltaVsSelected        float64 `json:"delta_vs_selected_gbp"`
	DeltaVsSelectedPercent float64 `json:"delta_vs_selected_percent"`
}

// Range brackets the estimate's uncertainty.
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Result is a full household tax estimate. Monetary fields are rounded to
// the cent; EffectiveTaxRate is a plain unrounded ratio.
type Result struct {
	AnnualIncome         float64          `json:"annual_income_gbp"`
	IncomeTax            float64          `json:"income_tax_gbp"`
	NationalInsurance    float64          `json:"national_insurance_gbp"`
	VATEstimate          float64          `json:"vat_estimate_gbp"`
	CouncilTaxEstimate   float64          `json:"council_tax_estimate_gbp"`
	StudentLoanRepayment float64          `json:"student_loan_repayment_gbp"`
	SavingsTax           float64          `json:"savings_tax_gbp"`
	DividendTax          float64          `json:"dividend_tax_gbp"`
	TotalEstimatedTax    float64          `json:"total_estimated_tax_gbp"`
	EffectiveTaxRate     float64          `json:"effective_tax_rate"`
	Assumptions          Assumptions      `json:"assumptions"`
	HouseholdSummary     HouseholdSummary `json:"household_summary"`
	HistoricalComparison *Comparison      `json:"historical_comparison,omitempty"`
	TakeHome             float64          `json:"take_home_gbp"`
	UncertaintyRange     Range            `json:"uncertainty_range_gbp"`
}
