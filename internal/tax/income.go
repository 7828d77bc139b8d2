package tax

import (
	"math"

	"github.com/robmcelhinney/where-your-taxes-go/internal/rates"
)

// taperFloor is the income above which the personal allowance tapers away
// at £1 per £2 of income.
const taperFloor = 100000.0

// round2 rounds to the cent, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// taperedAllowance applies the personal allowance taper.
func taperedAllowance(income float64, allowance float64) float64 {
	reduction := math.Max(0, income-taperFloor) / 2
	return math.Max(0, allowance-reduction)
}

// IncomeTax computes rest-of-UK income tax on an annual income.
// bandExtension widens the basic-rate band: it models relief-at-source
// pension contributions and gift aid, which extend the basic/higher
// boundary rather than reducing taxable income.
func IncomeTax(income float64, t rates.Table, bandExtension float64) float64 {
	allowance := taperedAllowance(income, t.PersonalAllowance)
	taxable := math.Max(0, income-allowance)

	basicBand := math.Max(0, t.BasicRateLimit+bandExtension)
	basicTaxable := math.Min(taxable, basicBand)
	higherWidth := math.Max(0, t.HigherRateThreshold-allowance-basicBand)
	higherTaxable := math.Min(math.Max(0, taxable-basicBand), higherWidth)
	additionalTaxable := math.Max(0, taxable-basicTaxable-higherTaxable)

	return round2(basicTaxable*t.BasicRate +
		higherTaxable*t.HigherRate +
		additionalTaxable*t.AdditionalRate)
}

// scotBands is the simplified Scottish non-savings ladder. Widths are fixed
// constants: neither tax-year tables nor policy overrides move them.
var scotBands = []struct {
	width float64
	rate  float64
}{
	{2306, 0.19},
	{11685, 0.20},
	{17101, 0.21},
	{31851, 0.42},
}

const scotTopRate = 0.47

// IncomeTaxScotland computes Scottish income tax. The personal allowance
// (and its taper) comes from the year table; the band ladder does not.
func IncomeTaxScotland(income float64, t rates.Table) float64 {
	allowance := taperedAllowance(income, t.PersonalAllowance)
	remaining := math.Max(0, income-allowance)

	var total float64
	for _, b := range scotBands {
		take := math.Min(remaining, b.width)
		if take <= 0 {
			break
		}
		total += take * b.rate
		remaining -= take
	}
	if remaining > 0 {
		total += remaining * scotTopRate
	}
	return round2(total)
}
