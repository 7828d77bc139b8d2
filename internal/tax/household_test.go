package tax

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robmcelhinney/where-your-taxes-go/internal/rates"
	"github.com/robmcelhinney/where-your-taxes-go/pkg/postcode"
)

type stubLookup struct {
	place *postcode.Place
	err   error
	calls int
}

func (s *stubLookup) Lookup(ctx context.Context, pc string) (*postcode.Place, error) {
	s.calls++
	return s.place, s.err
}

func TestEstimate_SingleEarnerDefaults(t *testing.T) {
	e := NewEstimator(nil)
	res := e.Estimate(context.Background(), Request{AnnualIncome: 39000})
	require.NotNil(t, res)

	assert.Equal(t, 5286.00, res.IncomeTax)
	assert.Equal(t, 2114.40, res.NationalInsurance)
	// Disposable 31_599.60 at the default 0.6 ratio.
	assert.Equal(t, 3159.96, res.VATEstimate)
	// England Band D average.
	assert.Equal(t, 2280.0, res.CouncilTaxEstimate)
	assert.Equal(t, 0.0, res.StudentLoanRepayment)
	assert.Equal(t, 12840.36, res.TotalEstimatedTax)
	assert.Equal(t, 26159.64, res.TakeHome)
	assert.InDelta(t, 12840.36/39000, res.EffectiveTaxRate, 1e-12)

	assert.Equal(t, "2025-26", res.Assumptions.TaxYear)
	assert.Equal(t, 0.6, res.Assumptions.VATableSpendRatio)
	assert.Equal(t, "no", res.Assumptions.PolicySimulationActive)
	assert.Equal(t, 1, res.HouseholdSummary.HouseholdAdults)
	assert.Nil(t, res.HistoricalComparison)
}

func TestEstimate_UncertaintyBandBracketsTotal(t *testing.T) {
	e := NewEstimator(nil)
	res := e.Estimate(context.Background(), Request{AnnualIncome: 39000})

	assert.LessOrEqual(t, res.UncertaintyRange.Low, res.TotalEstimatedTax)
	assert.GreaterOrEqual(t, res.UncertaintyRange.High, res.TotalEstimatedTax)
	// VAT ratio 0.5 and council -10%.
	assert.Equal(t, 12085.70, res.UncertaintyRange.Low)
	// VAT ratio 0.7 and council +10%.
	assert.Equal(t, 13595.02, res.UncertaintyRange.High)
}

func TestEstimate_TotalMonotonicInIncome(t *testing.T) {
	e := NewEstimator(nil)
	prev := 0.0
	for _, income := range []float64{0, 10000, 25000, 39000, 60000, 110000, 150000, 250000} {
		res := e.Estimate(context.Background(), Request{AnnualIncome: income})
		assert.GreaterOrEqual(t, res.TotalEstimatedTax, prev, "income %v", income)
		prev = res.TotalEstimatedTax
	}
}

func TestEstimate_ScotlandUsesScottishLadder(t *testing.T) {
	e := NewEstimator(nil)
	table := rates.ForYear("2025-26", nil)

	res := e.Estimate(context.Background(), Request{AnnualIncome: 60000, Nation: NationScotland})
	assert.Equal(t, IncomeTaxScotland(60000, table), res.IncomeTax)

	// Wales computes with the rest-of-UK bands.
	welsh := e.Estimate(context.Background(), Request{AnnualIncome: 60000, Nation: NationWales})
	assert.Equal(t, IncomeTax(60000, table, 0), welsh.IncomeTax)
}

func TestEstimate_SelfEmployedNI(t *testing.T) {
	e := NewEstimator(nil)

	res := e.Estimate(context.Background(), Request{AnnualIncome: 39000, EmploymentType: SelfEmployed})
	assert.Equal(t, NISelfEmployed(39000), res.NationalInsurance)

	mixed := e.Estimate(context.Background(), Request{AnnualIncome: 39000, EmploymentType: Mixed})
	assert.Equal(t, res.NationalInsurance, mixed.NationalInsurance)
}

func TestEstimate_MarriageAllowanceTransfer(t *testing.T) {
	e := NewEstimator(nil)
	res := e.Estimate(context.Background(), Request{
		AnnualIncome:        30000,
		PartnerAnnualIncome: 10000,
		MarriageTransfer:    true,
	})

	// Partner under the allowance, primary under the higher threshold:
	// the full 252 credit comes off the primary liability.
	assert.Equal(t, 252.0, res.Assumptions.MarriageAllowanceCredit)
	assert.Equal(t, 3234.00, res.IncomeTax)
	assert.Equal(t, 2, res.HouseholdSummary.HouseholdAdults)
	assert.True(t, res.HouseholdSummary.MarriageTransfer)
}

func TestEstimate_MarriageTransferIneligible(t *testing.T) {
	e := NewEstimator(nil)

	// Both partners over the allowance: no credit.
	res := e.Estimate(context.Background(), Request{
		AnnualIncome:        30000,
		PartnerAnnualIncome: 20000,
		MarriageTransfer:    true,
	})
	assert.Equal(t, 0.0, res.Assumptions.MarriageAllowanceCredit)

	// No partner income: no credit either.
	solo := e.Estimate(context.Background(), Request{
		AnnualIncome:     30000,
		MarriageTransfer: true,
	})
	assert.Equal(t, 0.0, solo.Assumptions.MarriageAllowanceCredit)
}

func TestEstimate_HistoricalComparison(t *testing.T) {
	e := NewEstimator(nil)
	res := e.Estimate(context.Background(), Request{
		AnnualIncome:   39000,
		TaxYear:        "2025-26",
		CompareTaxYear: "2023-24",
	})
	require.NotNil(t, res.HistoricalComparison)

	// 2023-24 NI at 12% raises NI by 1_057.20 and lowers VAT by 105.72.
	assert.Equal(t, "2023-24", res.HistoricalComparison.CompareTaxYear)
	assert.Equal(t, 13791.84, res.HistoricalComparison.TotalEstimatedTax)
	assert.Equal(t, 951.48, res.HistoricalComparison.DeltaVsSelected)
	assert.Greater(t, res.HistoricalComparison.DeltaVsSelectedPercent, 0.0)
}

func TestEstimate_ComparisonSkippedForSameYear(t *testing.T) {
	e := NewEstimator(nil)
	res := e.Estimate(context.Background(), Request{
		AnnualIncome:   39000,
		TaxYear:        "2025-26",
		CompareTaxYear: "2025-26",
	})
	assert.Nil(t, res.HistoricalComparison)
}

func TestEstimate_PostcodeRegionWinsOverRequestRegion(t *testing.T) {
	lookup := &stubLookup{place: &postcode.Place{
		Postcode:    "G1 1XQ",
		CouncilName: "Glasgow City",
		Region:      "Scotland",
	}}
	e := NewEstimator(lookup)

	res := e.Estimate(context.Background(), Request{
		AnnualIncome: 39000,
		Region:       "London",
		Postcode:     "G1 1XQ",
	})
	assert.Equal(t, 1, lookup.calls)
	assert.Equal(t, "Scotland", res.Assumptions.PostcodeLookupRegion)
	assert.Equal(t, "Scotland", res.Assumptions.CouncilTaxRegionUsed)
	assert.Equal(t, "Glasgow City", res.Assumptions.CouncilName)
	assert.Equal(t, 1590.0, res.CouncilTaxEstimate)
}

func TestEstimate_PostcodeLookupFailureDegrades(t *testing.T) {
	lookup := &stubLookup{err: errors.New("upstream down")}
	e := NewEstimator(lookup)

	res := e.Estimate(context.Background(), Request{
		AnnualIncome: 39000,
		Region:       "London",
		Postcode:     "G1 1XQ",
	})
	assert.Equal(t, "", res.Assumptions.PostcodeLookupRegion)
	assert.Equal(t, "London", res.Assumptions.CouncilTaxRegionUsed)
	assert.Equal(t, 2170.0, res.CouncilTaxEstimate)
}

func TestEstimate_CouncilTaxOverridePinsRange(t *testing.T) {
	override := 1500.0
	e := NewEstimator(nil)
	res := e.Estimate(context.Background(), Request{
		AnnualIncome:       39000,
		CouncilTaxOverride: &override,
	})
	assert.Equal(t, 1500.0, res.CouncilTaxEstimate)

	// With the council amount pinned, the band only moves with the VAT
	// ratio: ±10 points on 31_599.60 disposable is ±526.66 of VAT.
	assert.InDelta(t, res.TotalEstimatedTax-526.66, res.UncertaintyRange.Low, 1e-9)
	assert.InDelta(t, res.TotalEstimatedTax+526.66, res.UncertaintyRange.High, 1e-9)
}

func TestEstimate_ExplicitZeroVATRatio(t *testing.T) {
	zero := 0.0
	e := NewEstimator(nil)
	res := e.Estimate(context.Background(), Request{
		AnnualIncome:      39000,
		VATableSpendRatio: &zero,
	})
	assert.Equal(t, 0.0, res.VATEstimate)
	assert.Equal(t, 0.0, res.Assumptions.VATableSpendRatio)
}

func TestEstimate_PolicyOverrideFlagged(t *testing.T) {
	vat := 0.25
	e := NewEstimator(nil)
	res := e.Estimate(context.Background(), Request{
		AnnualIncome:    39000,
		PolicyOverrides: &rates.Overrides{VATRate: &vat},
	})
	assert.Equal(t, "yes", res.Assumptions.PolicySimulationActive)
	assert.Equal(t, 0.25, res.Assumptions.VATRate)
}

func TestEstimate_ZeroIncome(t *testing.T) {
	e := NewEstimator(nil)
	res := e.Estimate(context.Background(), Request{})

	assert.Equal(t, 0.0, res.IncomeTax)
	assert.Equal(t, 0.0, res.NationalInsurance)
	assert.Equal(t, 0.0, res.EffectiveTaxRate)
	// Council tax still applies.
	assert.Equal(t, 2280.0, res.CouncilTaxEstimate)
}
