package tax

import (
	"math"
	"strings"

	"github.com/robmcelhinney/where-your-taxes-go/internal/rates"
)

// VAT estimates the VAT embedded in a household's spending: disposable
// income times the VAT-able spend ratio, with the VAT component extracted
// from the (VAT-inclusive) spend rather than added on top.
func VAT(income, incomeTax, ni, spendRatio float64, t rates.Table) float64 {
	disposable := math.Max(0, income-incomeTax-ni)
	vatableSpend := disposable * spendRatio
	return round2(vatableSpend * (t.VATRate / (1 + t.VATRate)))
}

// Average annual Band D equivalents by region, lowercase keys.
var councilTaxByRegion = map[string]float64{
	"north east":               2345,
	"north west":               2280,
	"yorkshire and the humber": 2240,
	"east midlands":            2310,
	"west midlands":            2290,
	"east of england":          2440,
	"london":                   2170,
	"south east":               2435,
	"south west":               2445,
	"england":                  2280,
	"wales":                    2200,
	"scotland":                 1590,
	"northern ireland":         1250,
}

// Band multipliers relative to Band D (ninths).
var councilTaxBandMultiplier = map[string]float64{
	"A": 6.0 / 9.0,
	"B": 7.0 / 9.0,
	"C": 8.0 / 9.0,
	"D": 1.0,
	"E": 11.0 / 9.0,
	"F": 13.0 / 9.0,
	"G": 15.0 / 9.0,
	"H": 18.0 / 9.0,
}

// CouncilTax estimates annual council tax from a region name
// (case-insensitive, England average when unmatched) and a band. Band
// "auto" or an unknown band returns the regional base unmodified.
func CouncilTax(region, band string) float64 {
	base, ok := councilTaxByRegion[strings.ToLower(strings.TrimSpace(region))]
	if !ok {
		base = councilTaxByRegion["england"]
	}
	b := strings.ToUpper(strings.TrimSpace(band))
	if b == "AUTO" {
		return base
	}
	mult, ok := councilTaxBandMultiplier[b]
	if !ok {
		return base
	}
	return round2(base * mult)
}

// SavingsTax taxes savings interest above the personal savings allowance.
// Allowance and rate depend on which income-tax band the earner's income
// falls into.
func SavingsTax(income, savingsInterest float64) float64 {
	if savingsInterest <= 0 {
		return 0
	}
	var allowance, rate float64
	switch {
	case income <= 50270:
		allowance, rate = 1000, 0.20
	case income <= 125140:
		allowance, rate = 500, 0.40
	default:
		allowance, rate = 0, 0.45
	}
	return round2(math.Max(0, savingsInterest-allowance) * rate)
}

// DividendTax taxes dividend income above the flat £500 allowance, at a
// rate selected by the same income bands as SavingsTax.
func DividendTax(income, dividendIncome float64) float64 {
	if dividendIncome <= 0 {
		return 0
	}
	taxable := math.Max(0, dividendIncome-500)
	var rate float64
	switch {
	case income <= 50270:
		rate = 0.0875
	case income <= 125140:
		rate = 0.3375
	default:
		rate = 0.3935
	}
	return round2(taxable * rate)
}

// Student loan plans: repayment threshold and marginal rate.
var studentLoanPlans = map[string]struct {
	threshold float64
	rate      float64
}{
	"1":        {24990, 0.09},
	"2":        {27295, 0.09},
	"4":        {31395, 0.09},
	"5":        {25000, 0.09},
	"postgrad": {21000, 0.06},
}

// StudentLoan computes the annual repayment for a plan; "none" or an
// unknown plan repays nothing.
func StudentLoan(income float64, plan string) float64 {
	p, ok := studentLoanPlans[plan]
	if !ok {
		return 0
	}
	return round2(math.Max(0, income-p.threshold) * p.rate)
}
