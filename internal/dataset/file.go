package dataset

import (
	"context"
	"embed"
	"encoding/csv"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Processed bundle file names, matching the upstream data pipeline output.
const (
	fileSpending    = "functional_spending_2024_25.csv"
	fileRevenue     = "ons_regional_revenue_fye2023.csv"
	fileExpenditure = "ons_regional_expenditure_fye2023.csv"
	fileBalances    = "regional_balances_2022_2023.csv"
	fileFlows       = "flows_2022_2023.csv"
	fileBorrowing   = "official_uk_borrowing.csv"
)

//go:embed bundle/*.csv
var embeddedBundle embed.FS

// FileProvider loads the reference dataset from a processed CSV bundle.
type FileProvider struct {
	fsys fs.FS
}

// NewFileProvider reads the bundle from dir.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{fsys: os.DirFS(dir)}
}

// Embedded returns a provider backed by the bundle compiled into the
// binary, so the tool runs with no external data directory.
func Embedded() *FileProvider {
	sub, err := fs.Sub(embeddedBundle, "bundle")
	if err != nil {
		// embed paths are fixed at compile time; Sub cannot fail here.
		panic(err)
	}
	return &FileProvider{fsys: sub}
}

// Reference implements Provider. Revenue, expenditure and spending files
// are required; balances, flows and borrowing are optional fast paths.
func (p *FileProvider) Reference(ctx context.Context) (*Reference, error) {
	ref := &Reference{}

	revRows, err := readRecords(p.fsys, fileRevenue)
	if err != nil {
		return nil, err
	}
	ref.Revenue, err = parseMetricRows(revRows, fileRevenue)
	if err != nil {
		return nil, err
	}

	expRows, err := readRecords(p.fsys, fileExpenditure)
	if err != nil {
		return nil, err
	}
	ref.Expenditure, err = parseMetricRows(expRows, fileExpenditure)
	if err != nil {
		return nil, err
	}

	spendRows, err := readRecords(p.fsys, fileSpending)
	if err != nil {
		return nil, err
	}
	for _, r := range spendRows {
		amount, err := parseAmount(r["amount_m_gbp"], fileSpending)
		if err != nil {
			return nil, err
		}
		ref.Spending = append(ref.Spending, SpendingRow{
			Year:          r["year"],
			RowType:       r["row_type"],
			FunctionLabel: r["function_label"],
			AmountM:       amount,
		})
	}

	balRows, err := readOptional(p.fsys, fileBalances)
	if err != nil {
		return nil, err
	}
	for _, r := range balRows {
		contribution, err := parseAmount(r["contribution_m_gbp"], fileBalances)
		if err != nil {
			return nil, err
		}
		spending, err := parseAmount(r["spending_m_gbp"], fileBalances)
		if err != nil {
			return nil, err
		}
		net, err := parseAmount(r["net_balance_m_gbp"], fileBalances)
		if err != nil {
			return nil, err
		}
		ref.Balances = append(ref.Balances, BalanceRow{
			Year:          r["year"],
			GeographyCode: r["geography_code"],
			GeographyName: r["geography_name"],
			ContributionM: contribution,
			SpendingM:     spending,
			NetBalanceM:   net,
		})
	}

	flowRows, err := readOptional(p.fsys, fileFlows)
	if err != nil {
		return nil, err
	}
	for _, r := range flowRows {
		value, err := parseAmount(r["value_m_gbp"], fileFlows)
		if err != nil {
			return nil, err
		}
		ref.Flows = append(ref.Flows, FlowRow{
			Year:        r["year"],
			Origin:      r["origin_region"],
			Destination: r["destination_region"],
			ValueM:      value,
		})
	}

	borrowRows, err := readOptional(p.fsys, fileBorrowing)
	if err != nil {
		return nil, err
	}
	if len(borrowRows) > 0 {
		b, err := parseBorrowing(borrowRows[0])
		if err != nil {
			return nil, err
		}
		ref.Borrowing = b
	}

	zap.L().Debug("reference dataset loaded",
		zap.Int("revenue_rows", len(ref.Revenue)),
		zap.Int("expenditure_rows", len(ref.Expenditure)),
		zap.Int("spending_rows", len(ref.Spending)),
		zap.Bool("official_borrowing", ref.Borrowing != nil),
	)
	return ref, nil
}

func parseMetricRows(rows []map[string]string, name string) ([]MetricRow, error) {
	out := make([]MetricRow, 0, len(rows))
	for _, r := range rows {
		amount, err := parseAmount(r["amount_m_gbp"], name)
		if err != nil {
			return nil, err
		}
		out = append(out, MetricRow{
			Year:          r["year"],
			GeographyCode: r["geography_code"],
			GeographyName: r["geography_name"],
			Metric:        r["metric"],
			AmountM:       amount,
		})
	}
	return out, nil
}

func parseBorrowing(row map[string]string) (*Borrowing, error) {
	amount, err := parseAmount(row["amount_b_gbp"], fileBorrowing)
	if err != nil {
		return nil, err
	}
	release := strings.TrimSpace(row["release_period"])
	reference := strings.TrimSpace(row["reference_period"])
	// Older bundle schemas carried year_label/source_url only.
	if reference == "" {
		reference = strings.TrimSpace(row["year_label"])
	}
	sourceURL := row["source_url"]
	if release == "" && sourceURL != "" {
		parts := strings.Split(strings.TrimRight(sourceURL, "/"), "/")
		release = parts[len(parts)-1]
	}
	if release == "" {
		release = "Unknown release"
	}
	if reference == "" {
		reference = "Unknown reference period"
	}
	return &Borrowing{
		AmountB:         amount,
		ReleasePeriod:   release,
		ReferencePeriod: reference,
		SourceURL:       sourceURL,
	}, nil
}

func parseAmount(s, file string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, eris.Wrapf(err, "dataset: parse amount in %s", file)
	}
	return v, nil
}

// readRecords reads a required CSV file into header-keyed rows.
func readRecords(fsys fs.FS, name string) ([]map[string]string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", name)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read header of %s", name)
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: read row of %s", name)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
}

// readOptional is readRecords for files that may legitimately be absent.
func readOptional(fsys fs.FS, name string) ([]map[string]string, error) {
	if _, err := fs.Stat(fsys, name); err != nil {
		return nil, nil
	}
	return readRecords(fsys, name)
}
