// Package dataset loads the static national reference dataset (government
// spending by function, regional revenue and expenditure, optional
// precomputed balances/flows, and the official borrowing figure) from a
// local CSV bundle or a remote JSON bundle.
package dataset

import (
	"context"

	"github.com/rotisserie/eris"
)

// Geography and metric keys used by the ONS-derived files.
const (
	UKGeographyCode     = "K02000001"
	MetricTotalReceipts = "total_current_receipts_excl_north_sea_oil_gas"

	// Latest vintages carried in the bundled reference data.
	DefaultSpendingYear = "2024-25"
	DefaultRevenueYear  = "2022 to 2023"
)

// MetricRow is one regional revenue or expenditure observation (£m).
type MetricRow struct {
	Year          string
	GeographyCode string
	GeographyName string
	Metric        string
	AmountM       float64
}

// SpendingRow is one functional (COFOG) spending observation (£m).
type SpendingRow struct {
	Year          string
	RowType       string // "function" or "sub_function"
	FunctionLabel string
	AmountM       float64
}

// BalanceRow is a precomputed regional net fiscal balance (£m).
type BalanceRow struct {
	Year          string
	GeographyCode string
	GeographyName string
	ContributionM float64
	SpendingM     float64
	NetBalanceM   float64
}

// FlowRow is a precomputed directed redistribution edge (£m).
type FlowRow struct {
	Year        string
	Origin      string
	Destination string
	ValueM      float64
}

// Borrowing is the official PSNB ex figure, when the dataset carries one.
type Borrowing struct {
	AmountB         float64
	ReleasePeriod   string
	ReferencePeriod string
	SourceURL       string
}

// Reference is the full reference dataset, immutable once loaded.
type Reference struct {
	Revenue     []MetricRow
	Expenditure []MetricRow
	Spending    []SpendingRow
	Balances    []BalanceRow // optional fast path; empty means compute
	Flows       []FlowRow    // optional fast path; empty means compute
	Borrowing   *Borrowing   // nil when no official figure is available
}

// Provider supplies the reference dataset. Implementations must be safe
// for concurrent use; a failure here is the only hard failure in the
// system.
type Provider interface {
	Reference(ctx context.Context) (*Reference, error)
}

// TotalRevenueM returns the UK-wide total receipts (£m) for the given
// revenue year label.
func (r *Reference) TotalRevenueM(year string) (float64, error) {
	for _, row := range r.Revenue {
		if row.Year == year && row.GeographyCode == UKGeographyCode && row.Metric == MetricTotalReceipts {
			return row.AmountM, nil
		}
	}
	return 0, eris.Errorf("dataset: no UK revenue row for year %q", year)
}
