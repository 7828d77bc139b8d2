// Package tax estimates a household's UK personal tax liability for a tax
// year: income tax (rest-of-UK and Scottish variants), National Insurance,
// and the supplementary levies (VAT on spending, council tax, savings and
// dividend tax, student loan repayments).
package tax

import "github.com/robmcelhinney/where-your-taxes-go/internal/rates"

// Employment type values. Anything unrecognized computes as employed.
const (
	Employed     = "employed"
	SelfEmployed = "self_employed"
	Mixed        = "mixed"
)

// Income tax nation values. Anything other than NationScotland computes
// with the rest-of-UK bands.
const (
	NationEnglandNI = "england_ni"
	NationWales     = "wales"
	NationScotland  = "scotland"
)

// Request is the single input record for an estimate. All fields except
// AnnualIncome are optional; zero values take documented defaults and no
// field can make the estimate fail.
type Request struct {
	AnnualIncome         float64          `json:"annual_income_gbp"`
	Region               string           `json:"region"`
	TaxYear              string           `json:"tax_year"`
	CompareTaxYear       string           `json:"compare_tax_year"`
	VATableSpendRatio    *float64         `json:"vatable_spend_ratio"`
	PensionSalarySac     float64          `json:"pension_salary_sacrifice_gbp"`
	PensionReliefSource  float64          `json:"pension_relief_at_source_gbp"`
	GiftAid              float64          `json:"gift_aid_gbp"`
	OtherPreTaxDeduction float64          `json:"other_pre_tax_deductions_gbp"`
	PartnerAnnualIncome  float64          `json:"partner_annual_income_gbp"`
	MarriageTransfer     bool             `json:"marriage_allowance_transfer"`
	CouncilTaxBand       string           `json:"council_tax_band"`
	Postcode             string           `json:"postcode"`
	CouncilName          string           `json:"council_name"`
	CouncilTaxOverride   *float64         `json:"council_tax_annual_override_gbp"`
	Nation               string           `json:"uk_nation_for_income_tax"`
	EmploymentType       string           `json:"employment_type"`
	SavingsInterest      float64          `json:"savings_interest_gbp"`
	DividendIncome       float64          `json:"dividend_income_gbp"`
	StudentLoanPlan      string           `json:"student_loan_plan"`
	PolicyOverrides      *rates.Overrides `json:"policy_overrides"`
}

// Request defaults.
const (
	DefaultRegion     = "England"
	DefaultVATRatio   = 0.6
	defaultBand       = "auto"
	defaultPlan       = "none"
	noComparison      = "none"
	defaultNation     = NationEnglandNI
	defaultEmployment = Employed
)

// normalized returns a copy with defaults applied and numeric amounts
// floored at zero. Unrecognized enum values are left as-is; the calculators
// treat them as the standard branch for that axis.
func (r Request) normalized() Request {
	if r.Region == "" {
		r.Region = DefaultRegion
	}
	if r.TaxYear == "" {
		r.TaxYear = rates.LatestYear
	}
	if r.CompareTaxYear == "" {
		r.CompareTaxYear = noComparison
	}
	if r.VATableSpendRatio == nil {
		ratio := DefaultVATRatio
		r.VATableSpendRatio = &ratio
	} else {
		ratio := clamp(*r.VATableSpendRatio, 0, 1)
		r.VATableSpendRatio = &ratio
	}
	if r.CouncilTaxBand == "" {
		r.CouncilTaxBand = defaultBand
	}
	if r.Nation == "" {
		r.Nation = defaultNation
	}
	if r.EmploymentType == "" {
		r.EmploymentType = defaultEmployment
	}
	if r.StudentLoanPlan == "" {
		r.StudentLoanPlan = defaultPlan
	}
	r.AnnualIncome = max(0, r.AnnualIncome)
	r.PensionSalarySac = max(0, r.PensionSalarySac)
	r.PensionReliefSource = max(0, r.PensionReliefSource)
	r.GiftAid = max(0, r.GiftAid)
	r.OtherPreTaxDeduction = max(0, r.OtherPreTaxDeduction)
	r.PartnerAnnualIncome = max(0, r.PartnerAnnualIncome)
	r.SavingsInterest = max(0, r.SavingsInterest)
	r.DividendIncome = max(0, r.DividendIncome)
	if r.CouncilTaxOverride != nil && *r.CouncilTaxOverride < 0 {
		zero := 0.0
		r.CouncilTaxOverride = &zero
	}
	return r
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
