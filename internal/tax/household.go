package tax

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/robmcelhinney/where-your-taxes-go/internal/rates"
	"github.com/robmcelhinney/where-your-taxes-go/pkg/postcode"
)

// MarriageAllowanceCredit caps the transferable-allowance tax credit.
const MarriageAllowanceCredit = 252.0

// Uncertainty band parameters: VAT ratio ±0.10 and council tax ±10%.
const (
	vatRatioSpread   = 0.10
	councilTaxSpread = 0.10
)

// Estimator turns a Request into a Result. It is stateless apart from the
// injected postcode lookup; independent estimates may run concurrently.
type Estimator struct {
	lookup postcode.Lookup // nil disables postcode resolution
}

// NewEstimator creates an Estimator. lookup may be nil.
func NewEstimator(lookup postcode.Lookup) *Estimator {
	return &Estimator{lookup: lookup}
}

// Estimate computes the household estimate for req. No request field can
// make it fail: invalid values fall back to documented defaults.
func (e *Estimator) Estimate(ctx context.Context, req Request) *Result {
	req = req.normalized()
	res := e.estimate(ctx, req)

	if req.CompareTaxYear != noComparison && req.CompareTaxYear != req.TaxYear {
		compareReq := req
		compareReq.TaxYear = req.CompareTaxYear
		compareReq.CompareTaxYear = noComparison
		compare := e.estimate(ctx, compareReq)

		delta := round2(compare.TotalEstimatedTax - res.TotalEstimatedTax)
		deltaPct := 0.0
		if res.TotalEstimatedTax != 0 {
			deltaPct = roundN(delta/res.TotalEstimatedTax*100, 4)
		}
		res.HistoricalComparison = &Comparison{
			CompareTaxYear:         req.CompareTaxYear,
			TotalEstimatedTax:      compare.TotalEstimatedTax,
			DeltaVsSelected:        delta,
			DeltaVsSelectedPercent: deltaPct,
		}
	}
	return res
}

// estimate runs one year's computation; it never recurses into a further
// comparison.
func (e *Estimator) estimate(ctx context.Context, req Request) *Result {
	table := rates.ForYear(req.TaxYear, req.PolicyOverrides)
	spendRatio := *req.VATableSpendRatio

	adjusted := math.Max(0, req.AnnualIncome-req.PensionSalarySac-req.OtherPreTaxDeduction)
	adjustedPartner := req.PartnerAnnualIncome
	bandExtension := req.PensionReliefSource + req.GiftAid

	primaryIncomeTax := IncomeTax(adjusted, table, bandExtension)
	if req.Nation == NationScotland {
		primaryIncomeTax = IncomeTaxScotland(adjusted, table)
	}
	primaryNI := NIEmployed(adjusted, table)
	if req.EmploymentType == SelfEmployed || req.EmploymentType == Mixed {
		primaryNI = NISelfEmployed(adjusted)
	}

	// Partner always computes as standard jurisdiction, employed, no reliefs.
	partnerIncomeTax := IncomeTax(adjustedPartner, table, 0)
	partnerNI := NIEmployed(adjustedPartner, table)

	var marriageCredit float64
	if req.MarriageTransfer && adjustedPartner > 0 {
		lower := math.Min(adjusted, adjustedPartner)
		higher := math.Max(adjusted, adjustedPartner)
		if lower <= table.PersonalAllowance && higher <= table.HigherRateThreshold {
			marriageCredit = math.Min(MarriageAllowanceCredit, math.Max(primaryIncomeTax, partnerIncomeTax))
			// The credit comes off the larger liability; ties go to primary.
			if primaryIncomeTax >= partnerIncomeTax {
				primaryIncomeTax = round2(primaryIncomeTax - marriageCredit)
			} else {
				partnerIncomeTax = round2(partnerIncomeTax - marriageCredit)
			}
		}
	}

	householdIncomeTax := round2(primaryIncomeTax + partnerIncomeTax)
	householdNI := round2(primaryNI + partnerNI)
	grossHousehold := req.AnnualIncome + req.PartnerAnnualIncome
	adjustedHousehold := adjusted + adjustedPartner

	vat := VAT(adjustedHousehold, householdIncomeTax, householdNI, spendRatio, table)

	place := e.resolvePostcode(ctx, req.Postcode)
	councilName := req.CouncilName
	var lookupRegion string
	if place != nil {
		if councilName == "" {
			councilName = place.CouncilName
		}
		lookupRegion = place.Region
	}
	councilRegion := lookupRegion
	if councilRegion == "" {
		councilRegion = req.Region
	}

	var council float64
	if req.CouncilTaxOverride != nil {
		council = round2(*req.CouncilTaxOverride)
	} else {
		council = CouncilTax(councilRegion, req.CouncilTaxBand)
	}

	savingsTax := SavingsTax(adjusted, req.SavingsInterest)
	dividendTax := DividendTax(adjusted, req.DividendIncome)
	studentLoan := StudentLoan(adjusted, req.StudentLoanPlan)

	total := round2(householdIncomeTax + householdNI + vat + council + savingsTax + dividendTax + studentLoan)
	var effective float64
	if grossHousehold != 0 {
		effective = total / grossHousehold
	}
	takeHome := round2(grossHousehold - total)

	// Range: VAT ratio ±0.10 clamped to [0,1], council ±10% unless the
	// caller supplied an explicit amount, all other components held fixed.
	vatLow := VAT(adjustedHousehold, householdIncomeTax, householdNI, clamp(spendRatio-vatRatioSpread, 0, 1), table)
	vatHigh := VAT(adjustedHousehold, householdIncomeTax, householdNI, clamp(spendRatio+vatRatioSpread, 0, 1), table)
	councilLow, councilHigh := council, council
	if req.CouncilTaxOverride == nil {
		councilLow = round2(council * (1 - councilTaxSpread))
		councilHigh = round2(council * (1 + councilTaxSpread))
	}
	totalLow := round2(householdIncomeTax + householdNI + vatLow + councilLow + savingsTax + dividendTax + studentLoan)
	totalHigh := round2(householdIncomeTax + householdNI + vatHigh + councilHigh + savingsTax + dividendTax + studentLoan)

	adults := 1
	if req.PartnerAnnualIncome > 0 {
		adults = 2
	}
	policyActive := "no"
	if req.PolicyOverrides != nil {
		policyActive = "yes"
	}

	return &Result{
		AnnualIncome:         round2(req.AnnualIncome),
		IncomeTax:            householdIncomeTax,
		NationalInsurance:    householdNI,
		VATEstimate:          vat,
		CouncilTaxEstimate:   council,
		StudentLoanRepayment: studentLoan,
		SavingsTax:           savingsTax,
		DividendTax:          dividendTax,
		TotalEstimatedTax:    total,
		EffectiveTaxRate:     effective,
		Assumptions: Assumptions{
			TaxYear:                 req.TaxYear,
			VATableSpendRatio:       spendRatio,
			VATRate:                 table.VATRate,
			NIMainRate:              table.NIMainRate,
			NIUpperRate:             table.NIUpperRate,
			AdjustedIncome:          round2(adjusted),
			AdjustedPartnerIncome:   round2(adjustedPartner),
			PensionSalarySac:        req.PensionSalarySac,
			PensionReliefSource:     req.PensionReliefSource,
			GiftAid:                 req.GiftAid,
			OtherPreTaxDeduction:    req.OtherPreTaxDeduction,
			CouncilTaxBand:          req.CouncilTaxBand,
			CouncilName:             councilName,
			PostcodeLookupRegion:    lookupRegion,
			CouncilTaxRegionUsed:    councilRegion,
			Nation:                  req.Nation,
			EmploymentType:          req.EmploymentType,
			StudentLoanPlan:         req.StudentLoanPlan,
			PolicySimulationActive:  policyActive,
			MarriageAllowanceCredit: marriageCredit,
		},
		HouseholdSummary: HouseholdSummary{
			HouseholdIncome:     round2(grossHousehold),
			PartnerAnnualIncome: round2(req.PartnerAnnualIncome),
			HouseholdAdults:     adults,
			MarriageTransfer:    req.MarriageTransfer,
		},
		TakeHome:         takeHome,
		UncertaintyRange: Range{Low: totalLow, High: totalHigh},
	}
}

// resolvePostcode is a soft lookup: any failure degrades to "no match".
func (e *Estimator) resolvePostcode(ctx context.Context, pc string) *postcode.Place {
	if e.lookup == nil || pc == "" {
		return nil
	}
	place, err := e.lookup.Lookup(ctx, pc)
	if err != nil {
		zap.L().Debug("postcode lookup failed, proceeding without it",
			zap.String("postcode", pc),
			zap.Error(err),
		)
		return nil
	}
	return place
}

// roundN rounds half away from zero to n decimal places.
func roundN(v float64, n int) float64 {
	pow := math.Pow(10, float64(n))
	return math.Round(v*pow) / pow
}
