// Package allocation distributes a computed tax liability pro rata across
// national spending categories and regional fiscal balances.
package allocation

import (
	"context"
	"math"
	"sort"

	"github.com/robmcelhinney/where-your-taxes-go/internal/dataset"
)

// Entry is one government-service-function row of a user's allocation.
type Entry struct {
	FunctionLabel         string  `json:"function_label"`
	SpendingM             float64 `json:"spending_amount_m_gbp"`
	Contribution          float64 `json:"user_contribution_gbp"`
	ShareOfUserTaxPercent float64 `json:"share_of_user_tax_percent"`
}

// Breakdown is the top-N spending allocation for one user.
type Breakdown struct {
	TotalRevenueM      float64 `json:"total_uk_tax_revenue_m_gbp"`
	UserTotalTax       float64 `json:"user_total_tax_gbp"`
	UserShareOfRevenue float64 `json:"user_share_of_total_revenue"`
	SpendingYear       string  `json:"spending_year"`
	RevenueYear        string  `json:"revenue_year"`
	Services           []Entry `json:"services"`
}

// Impact is one page of the full per-service allocation.
type Impact struct {
	TotalRevenueM      float64 `json:"total_uk_tax_revenue_m_gbp"`
	UserTotalTax       float64 `json:"user_total_tax_gbp"`
	UserShareOfRevenue float64 `json:"user_share_of_total_revenue"`
	SpendingYear       string  `json:"spending_year"`
	RevenueYear        string  `json:"revenue_year"`
	Page               int     `json:"page"`
	PageSize           int     `json:"page_size"`
	TotalItems         int     `json:"total_items"`
	Services           []Entry `json:"services"`
}

// Balance is one region's net fiscal position (£m). Positive net balance
// means the region is a net contributor.
type Balance struct {
	GeographyCode string  `json:"geography_code"`
	GeographyName string  `json:"geography_name"`
	ContributionM float64 `json:"contribution_m_gbp"`
	SpendingM     float64 `json:"spending_m_gbp"`
	NetBalanceM   float64 `json:"net_balance_m_gbp"`
}

// Flow is a directed donor-to-recipient redistribution edge (£m).
type Flow struct {
	OriginRegion      string  `json:"origin_region"`
	DestinationRegion string  `json:"destination_region"`
	ValueM            float64 `json:"value_m_gbp"`
}

// Borrowing method tags.
const (
	BorrowingOfficial = "official_psnb_ex"
	BorrowingImplied  = "implied_gap_from_regional_dataset"
)

// Flows is the regional picture: full balances, one page of flows, and the
// national borrowing figure with its provenance.
type Flows struct {
	Year                     string    `json:"year"`
	Page                     int       `json:"page"`
	PageSize                 int       `json:"page_size"`
	TotalItems               int       `json:"total_items"`
	BorrowingB               *float64  `json:"official_borrowing_b_gbp"`
	BorrowingYearLabel       *string   `json:"official_borrowing_year_label"`
	BorrowingReleasePeriod   *string   `json:"official_borrowing_release_period"`
	BorrowingReferencePeriod *string   `json:"official_borrowing_reference_period"`
	BorrowingMethod          string    `json:"borrowing_method"`
	Balances                 []Balance `json:"balances"`
	Flows                    []Flow    `json:"flows"`
}

// The twelve ITL1 regions and nations that carry a fiscal balance.
var targetCodes = map[string]bool{
	"E12000001": true, "E12000002": true, "E12000003": true,
	"E12000004": true, "E12000005": true, "E12000006": true,
	"E12000007": true, "E12000008": true, "E12000009": true,
	"W92000004": true, "S92000003": true, "N92000002": true,
}

// Engine derives allocations from an injected reference dataset provider.
type Engine struct {
	ds dataset.Provider
}

// New creates an Engine.
func New(ds dataset.Provider) *Engine {
	return &Engine{ds: ds}
}

// Paginate returns the 1-based page slice and the total item count.
// Out-of-range pages yield an empty slice, never an error.
func Paginate[T any](items []T, page, pageSize int) ([]T, int) {
	total := len(items)
	if page < 1 || pageSize < 1 {
		return nil, total
	}
	start := (page - 1) * pageSize
	if start >= total {
		return nil, total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return items[start:end], total
}

// serviceContributions computes the full sorted allocation across spending
// categories. The user's share of national revenue scales each category's
// spend into a personal contribution.
func (e *Engine) serviceContributions(ref *dataset.Reference, userTax float64, revenueYear, spendingYear string) (totalRevenueM, share float64, entries []Entry, err error) {
	totalRevenueM, err = ref.TotalRevenueM(revenueYear)
	if err != nil {
		return 0, 0, nil, err
	}
	share = (userTax / 1e6) / totalRevenueM

	for _, row := range ref.Spending {
		if row.Year != spendingYear || row.RowType != "sub_function" {
			continue
		}
		contribution := row.AmountM * share * 1e6
		sharePct := 0.0
		if userTax != 0 {
			sharePct = roundN(contribution/userTax*100, 4)
		}
		entries = append(entries, Entry{
			FunctionLabel:         row.FunctionLabel,
			SpendingM:             round2(row.AmountM),
			Contribution:          round2(contribution),
			ShareOfUserTaxPercent: sharePct,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Contribution > entries[j].Contribution
	})
	return round2(totalRevenueM), roundN(share, 10), entries, nil
}

// Breakdown returns the top-N allocation entries for a user's total tax.
func (e *Engine) Breakdown(ctx context.Context, userTax float64, revenueYear, spendingYear string, topN int) (*Breakdown, error) {
	imp, err := e.Impact(ctx, userTax, revenueYear, spendingYear, 1, topN)
	if err != nil {
		return nil, err
	}
	return &Breakdown{
		TotalRevenueM:      imp.TotalRevenueM,
		UserTotalTax:       imp.UserTotalTax,
		UserShareOfRevenue: imp.UserShareOfRevenue,
		SpendingYear:       imp.SpendingYear,
		RevenueYear:        imp.RevenueYear,
		Services:           imp.Services,
	}, nil
}

// Impact returns one page of the full sorted allocation.
func (e *Engine) Impact(ctx context.Context, userTax float64, revenueYear, spendingYear string, page, pageSize int) (*Impact, error) {
	ref, err := e.ds.Reference(ctx)
	if err != nil {
		return nil, err
	}
	totalRevenueM, share, entries, err := e.serviceContributions(ref, userTax, revenueYear, spendingYear)
	if err != nil {
		return nil, err
	}
	pageItems, totalItems := Paginate(entries, page, pageSize)
	return &Impact{
		TotalRevenueM:      totalRevenueM,
		UserTotalTax:       round2(userTax),
		UserShareOfRevenue: share,
		SpendingYear:       spendingYear,
		RevenueYear:        revenueYear,
		Page:               page,
		PageSize:           pageSize,
		TotalItems:         totalItems,
		Services:           pageItems,
	}, nil
}

// RegionalFlows returns the full balances, one page of flows in dataset
// order, and the borrowing figure (official when available, otherwise the
// implied gap between regional spending and revenue).
func (e *Engine) RegionalFlows(ctx context.Context, year string, page, pageSize int) (*Flows, error) {
	ref, err := e.ds.Reference(ctx)
	if err != nil {
		return nil, err
	}

	balances := e.balances(ref, year)
	flows := e.flows(ref, balances, year)
	pageFlows, totalItems := Paginate(flows, page, pageSize)

	out := &Flows{
		Year:       year,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		Balances:   balances,
		Flows:      pageFlows,
	}
	if b := ref.Borrowing; b != nil {
		amount := b.AmountB
		out.BorrowingB = &amount
		out.BorrowingYearLabel = &b.ReferencePeriod
		out.BorrowingReleasePeriod = &b.ReleasePeriod
		out.BorrowingReferencePeriod = &b.ReferencePeriod
		out.BorrowingMethod = BorrowingOfficial
	} else {
		implied := impliedGapB(balances)
		out.BorrowingB = &implied
		out.BorrowingMethod = BorrowingImplied
	}
	return out, nil
}

// balances prefers the dataset's precomputed rows and otherwise derives
// net positions from the raw revenue and expenditure observations.
func (e *Engine) balances(ref *dataset.Reference, year string) []Balance {
	var out []Balance
	for _, b := range ref.Balances {
		if b.Year != year {
			continue
		}
		out = append(out, Balance{
			GeographyCode: b.GeographyCode,
			GeographyName: b.GeographyName,
			ContributionM: b.ContributionM,
			SpendingM:     b.SpendingM,
			NetBalanceM:   b.NetBalanceM,
		})
	}
	if len(out) > 0 {
		return out
	}

	spendByCode := make(map[string]float64)
	for _, row := range ref.Expenditure {
		if row.Year == year && targetCodes[row.GeographyCode] {
			spendByCode[row.GeographyCode] = row.AmountM
		}
	}
	for _, row := range ref.Revenue {
		if row.Year != year || !targetCodes[row.GeographyCode] {
			continue
		}
		spending := spendByCode[row.GeographyCode]
		out = append(out, Balance{
			GeographyCode: row.GeographyCode,
			GeographyName: row.GeographyName,
			ContributionM: round2(row.AmountM),
			SpendingM:     round2(spending),
			NetBalanceM:   round2(row.AmountM - spending),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GeographyName < out[j].GeographyName
	})
	return out
}

// flows prefers precomputed edges and otherwise redistributes donor
// surpluses across recipient deficits in proportion to both weights.
func (e *Engine) flows(ref *dataset.Reference, balances []Balance, year string) []Flow {
	var out []Flow
	for _, f := range ref.Flows {
		if f.Year != year {
			continue
		}
		out = append(out, Flow{
			OriginRegion:      f.Origin,
			DestinationRegion: f.Destination,
			ValueM:            f.ValueM,
		})
	}
	if len(out) > 0 {
		return out
	}
	return ComputeFlows(balances)
}

// ComputeFlows derives the donor-to-recipient redistribution edges from
// net balances. Edges below £0.01m are dropped.
func ComputeFlows(balances []Balance) []Flow {
	var donors, recipients []Balance
	for _, b := range balances {
		switch {
		case b.NetBalanceM > 0:
			donors = append(donors, b)
		case b.NetBalanceM < 0:
			recipients = append(recipients, b)
		}
	}

	var totalSurplus, totalDeficit float64
	for _, d := range donors {
		totalSurplus += d.NetBalanceM
	}
	for _, r := range recipients {
		totalDeficit += -r.NetBalanceM
	}
	if totalSurplus <= 0 || totalDeficit <= 0 {
		return nil
	}

	transferTotal := math.Min(totalSurplus, totalDeficit)
	var flows []Flow
	for _, d := range donors {
		donorTransfer := transferTotal * (d.NetBalanceM / totalSurplus)
		for _, r := range recipients {
			value := donorTransfer * (-r.NetBalanceM / totalDeficit)
			if value < 0.01 {
				continue
			}
			flows = append(flows, Flow{
				OriginRegion:      d.GeographyName,
				DestinationRegion: r.GeographyName,
				ValueM:            roundN(value, 4),
			})
		}
	}
	sort.SliceStable(flows, func(i, j int) bool {
		return flows[i].ValueM > flows[j].ValueM
	})
	return flows
}

// impliedGapB is the borrowing fallback: total regional spending minus
// total regional revenue, floored at zero, in £bn.
func impliedGapB(balances []Balance) float64 {
	var gapM float64
	for _, b := range balances {
		gapM += b.SpendingM - b.ContributionM
	}
	if gapM < 0 {
		gapM = 0
	}
	return roundN(gapM/1000, 2)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundN(v float64, n int) float64 {
	pow := math.Pow(10, float64(n))
	return math.Round(v*pow) / pow
}
