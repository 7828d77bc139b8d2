// Package export assembles the journalist bundle: a single document
// combining a household's tax estimate with its spending allocation and
// the regional fiscal picture, plus delimited renderings of the tables.
package export

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/robmcelhinney/where-your-taxes-go/internal/allocation"
	"github.com/robmcelhinney/where-your-taxes-go/internal/dataset"
	"github.com/robmcelhinney/where-your-taxes-go/internal/tax"
)

const (
	breakdownTopN  = 12
	impactPageSize = 100
	flowsPageSize  = 200
)

// Bundle is the full export document. The delimited tables ride along as
// strings so a journalist can paste them straight into a spreadsheet.
type Bundle struct {
	ExportedAtUTC string                `json:"exported_at_utc"`
	Tax           *tax.Result           `json:"tax"`
	Breakdown     *allocation.Breakdown `json:"spending_breakdown"`
	Impact        *allocation.Impact    `json:"services_impact"`
	RegionalFlows *allocation.Flows     `json:"regional_flows"`
	ServicesTable string                `json:"services_csv"`
	BalancesTable string                `json:"regional_balances_csv"`
}

// Exporter builds bundles from the estimator and allocation engine.
type Exporter struct {
	estimator *tax.Estimator
	engine    *allocation.Engine
	now       func() time.Time
}

// New creates an Exporter.
func New(estimator *tax.Estimator, engine *allocation.Engine) *Exporter {
	return &Exporter{
		estimator: estimator,
		engine:    engine,
		now:       time.Now,
	}
}

// Bundle runs the estimate once and fans out the three allocation views
// concurrently.
func (x *Exporter) Bundle(ctx context.Context, req tax.Request) (*Bundle, error) {
	result := x.estimator.Estimate(ctx, req)
	userTax := result.TotalEstimatedTax

	out := &Bundle{
		ExportedAtUTC: x.now().UTC().Format(time.RFC3339),
		Tax:           result,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := x.engine.Breakdown(ctx, userTax, dataset.DefaultRevenueYear, dataset.DefaultSpendingYear, breakdownTopN)
		if err != nil {
			return err
		}
		out.Breakdown = b
		return nil
	})
	g.Go(func() error {
		imp, err := x.engine.Impact(ctx, userTax, dataset.DefaultRevenueYear, dataset.DefaultSpendingYear, 1, impactPageSize)
		if err != nil {
			return err
		}
		out.Impact = imp
		return nil
	})
	g.Go(func() error {
		f, err := x.engine.RegionalFlows(ctx, dataset.DefaultRevenueYear, 1, flowsPageSize)
		if err != nil {
			return err
		}
		out.RegionalFlows = f
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var services, balances strings.Builder
	if err := ServicesCSV(&services, out.Impact.Services, ","); err != nil {
		return nil, err
	}
	if err := BalancesCSV(&balances, out.RegionalFlows.Balances, ","); err != nil {
		return nil, err
	}
	out.ServicesTable = services.String()
	out.BalancesTable = balances.String()
	return out, nil
}
