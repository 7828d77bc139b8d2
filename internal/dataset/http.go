package dataset

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// HTTPOptions configures the remote bundle provider.
type HTTPOptions struct {
	URL        string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
}

// HTTPProvider fetches the reference dataset as a JSON bundle from a
// remote service, with retry and exponential backoff.
type HTTPProvider struct {
	opts   HTTPOptions
	client *http.Client
}

// NewHTTPProvider creates an HTTPProvider for the given bundle URL.
func NewHTTPProvider(opts HTTPOptions) *HTTPProvider {
	if opts.UserAgent == "" {
		opts.UserAgent = "where-your-taxes-go/0.1"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	return &HTTPProvider{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
	}
}

// bundle is the remote JSON schema, the same shape the web frontend
// consumes.
type bundle struct {
	RevenueYear  string  `json:"revenue_year"`
	SpendingYear string  `json:"spending_year"`
	TotalRevenue float64 `json:"total_uk_revenue_m_gbp"`
	Services     []struct {
		FunctionLabel string  `json:"function_label"`
		SpendingM     float64 `json:"spending_amount_m_gbp"`
	} `json:"services"`
	Balances []struct {
		GeographyCode string  `json:"geography_code"`
		GeographyName string  `json:"geography_name"`
		ContributionM float64 `json:"contribution_m_gbp"`
		SpendingM     float64 `json:"spending_m_gbp"`
		NetBalanceM   float64 `json:"net_balance_m_gbp"`
	} `json:"balances"`
	Flows []struct {
		Origin      string  `json:"origin_region"`
		Destination string  `json:"destination_region"`
		ValueM      float64 `json:"value_m_gbp"`
	} `json:"flows"`
	Borrowing *struct {
		AmountB         float64 `json:"amount_b_gbp"`
		ReleasePeriod   string  `json:"release_period"`
		ReferencePeriod string  `json:"reference_period"`
		SourceURL       string  `json:"source_url"`
	} `json:"official_borrowing"`
}

// Reference implements Provider.
func (p *HTTPProvider) Reference(ctx context.Context) (*Reference, error) {
	body, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}

	var b bundle
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, eris.Wrap(err, "dataset: parse remote bundle")
	}

	ref := &Reference{
		Revenue: []MetricRow{{
			Year:          b.RevenueYear,
			GeographyCode: UKGeographyCode,
			GeographyName: "United Kingdom",
			Metric:        MetricTotalReceipts,
			AmountM:       b.TotalRevenue,
		}},
	}
	for _, s := range b.Services {
		ref.Spending = append(ref.Spending, SpendingRow{
			Year:          b.SpendingYear,
			RowType:       "sub_function",
			FunctionLabel: s.FunctionLabel,
			AmountM:       s.SpendingM,
		})
	}
	for _, bal := range b.Balances {
		ref.Balances = append(ref.Balances, BalanceRow{
			Year:          b.RevenueYear,
			GeographyCode: bal.GeographyCode,
			GeographyName: bal.GeographyName,
			ContributionM: bal.ContributionM,
			SpendingM:     bal.SpendingM,
			NetBalanceM:   bal.NetBalanceM,
		})
	}
	for _, f := range b.Flows {
		ref.Flows = append(ref.Flows, FlowRow{
			Year:        b.RevenueYear,
			Origin:      f.Origin,
			Destination: f.Destination,
			ValueM:      f.ValueM,
		})
	}
	if b.Borrowing != nil {
		ref.Borrowing = &Borrowing{
			AmountB:         b.Borrowing.AmountB,
			ReleasePeriod:   b.Borrowing.ReleasePeriod,
			ReferencePeriod: b.Borrowing.ReferencePeriod,
			SourceURL:       b.Borrowing.SourceURL,
		}
	}
	return ref, nil
}

func (p *HTTPProvider) fetch(ctx context.Context) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < p.opts.MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.opts.URL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "dataset: build bundle request")
		}
		req.Header.Set("User-Agent", p.opts.UserAgent)

		resp, err := p.client.Do(req)
		if err != nil {
			lastErr = err
			zap.L().Warn("dataset bundle fetch failed, retrying",
				zap.String("url", p.opts.URL),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("dataset: http %d from %s", resp.StatusCode, p.opts.URL)
			backoff(ctx, attempt)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, eris.Errorf("dataset: unexpected status %d from %s", resp.StatusCode, p.opts.URL)
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, eris.Wrap(err, "dataset: read bundle body")
		}
		return body, nil
	}
	return nil, eris.Wrap(lastErr, "dataset: all retries exhausted")
}

func backoff(ctx context.Context, attempt int) {
	base := time.Second
	maxBackoff := 15 * time.Second
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	d += time.Duration(rand.Int63n(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
