// Package rates supplies the per-tax-year parameter tables used by the tax
// calculators, with field-wise policy overrides.
package rates

// Table holds the fixed fiscal parameters for one tax year. Amounts are
// annual GBP, rates are fractions.
type Table struct {
	PersonalAllowance    float64
	BasicRateLimit       float64 // width of the basic band, not a threshold
	HigherRateThreshold  float64
	BasicRate            float64
	HigherRate           float64
	AdditionalRate       float64
	NIPrimaryThreshold   float64
	NIUpperEarningsLimit float64
	NIMainRate           float64
	NIUpperRate          float64
	VATRate              float64
}

// Overrides is a typed policy patch. A nil field keeps the year's value.
type Overrides struct {
	PersonalAllowance *float64 `json:"personal_allowance"`
	BasicRate         *float64 `json:"basic_rate"`
	HigherRate        *float64 `json:"higher_rate"`
	AdditionalRate    *float64 `json:"additional_rate"`
	NIMainRate        *float64 `json:"ni_main_rate"`
	NIUpperRate       *float64 `json:"ni_upper_rate"`
	VATRate           *float64 `json:"vat_rate"`
}

// LatestYear is the fallback for unrecognized tax year keys.
const LatestYear = "2025-26"

func defaults() Table {
	return Table{
		PersonalAllowance:    12570,
		BasicRateLimit:       37700,
		HigherRateThreshold:  125140,
		BasicRate:            0.20,
		HigherRate:           0.40,
		AdditionalRate:       0.45,
		NIPrimaryThreshold:   12570,
		NIUpperEarningsLimit: 50270,
		NIMainRate:           0.08,
		NIUpperRate:          0.02,
		VATRate:              0.20,
	}
}

// Annualized approximations; only the NI main rate moved across these years.
var byYear = map[string]Table{
	"2023-24": withNIMainRate(defaults(), 0.12),
	"2024-25": defaults(),
	"2025-26": defaults(),
}

func withNIMainRate(t Table, r float64) Table {
	t.NIMainRate = r
	return t
}

// ForYear returns the parameter table for taxYear with o applied on top.
// Unknown years fall back to LatestYear; it never fails.
func ForYear(taxYear string, o *Overrides) Table {
	t, ok := byYear[taxYear]
	if !ok {
		t = byYear[LatestYear]
	}
	if o == nil {
		return t
	}
	if o.PersonalAllowance != nil {
		t.PersonalAllowance = *o.PersonalAllowance
	}
	if o.BasicRate != nil {
		t.BasicRate = *o.BasicRate
	}
	if o.HigherRate != nil {
		t.HigherRate = *o.HigherRate
	}
	if o.AdditionalRate != nil {
		t.AdditionalRate = *o.AdditionalRate
	}
	if o.NIMainRate != nil {
		t.NIMainRate = *o.NIMainRate
	}
	if o.NIUpperRate != nil {
		t.NIUpperRate = *o.NIUpperRate
	}
	if o.VATRate != nil {
		t.VATRate = *o.VATRate
	}
	return t
}

// Years lists the known tax year keys.
func Years() []string {
	return []string{"2023-24", "2024-25", "2025-26"}
}
