package tax

import (
	"math"

	"github.com/robmcelhinney/where-your-taxes-go/internal/rates"
)

// NIEmployed computes Class 1 employee National Insurance from the year
// table's thresholds and rates.
func NIEmployed(income float64, t rates.Table) float64 {
	if income <= t.NIPrimaryThreshold {
		return 0
	}
	if income <= t.NIUpperEarningsLimit {
		return round2((income - t.NIPrimaryThreshold) * t.NIMainRate)
	}
	main := (t.NIUpperEarningsLimit - t.NIPrimaryThreshold) * t.NIMainRate
	upper := (income - t.NIUpperEarningsLimit) * t.NIUpperRate
	return round2(main + upper)
}

// Simplified Class 2 + Class 4 model. These thresholds and rates are fixed
// constants, independent of the selected tax year's table.
const (
	class2Charge      = 179.40
	class2IncomeFloor = 12570.0
	class4LowerLimit  = 12570.0
	class4UpperLimit  = 50270.0
	class4MainRate    = 0.06
	class4UpperRate   = 0.02
)

// NISelfEmployed computes National Insurance for self-employed (and mixed)
// earners.
func NISelfEmployed(income float64) float64 {
	var class2 float64
	if income >= class2IncomeFloor {
		class2 = class2Charge
	}
	class4Main := math.Max(0, math.Min(income, class4UpperLimit)-class4LowerLimit) * class4MainRate
	class4Upper := math.Max(0, income-class4UpperLimit) * class4UpperRate
	return round2(class2 + class4Main + class4Upper)
}
