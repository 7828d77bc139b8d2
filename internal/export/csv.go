package export

import (
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/robmcelhinney/where-your-taxes-go/internal/allocation"
)

// Fields are quoted only when they contain the delimiter, with embedded
// quotes doubled. Lines end with a bare newline.
func writeDelimited(w io.Writer, rows [][]string, delimiter string) error {
	var sb strings.Builder
	for _, row := range rows {
		for i, field := range row {
			if i > 0 {
				sb.WriteString(delimiter)
			}
			if strings.Contains(field, delimiter) {
				sb.WriteString(`"` + strings.ReplaceAll(field, `"`, `""`) + `"`)
			} else {
				sb.WriteString(field)
			}
		}
		sb.WriteString("\n")
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return eris.Wrap(err, "export: write delimited output")
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ServicesCSV writes the per-service allocation table.
func ServicesCSV(w io.Writer, entries []allocation.Entry, delimiter string) error {
	rows := [][]string{{
		"function_label",
		"spending_amount_m_gbp",
		"user_contribution_gbp",
		"share_of_user_tax_percent",
	}}
	for _, e := range entries {
		rows = append(rows, []string{
			e.FunctionLabel,
			formatFloat(e.SpendingM),
			formatFloat(e.Contribution),
			formatFloat(e.ShareOfUserTaxPercent),
		})
	}
	return writeDelimited(w, rows, delimiter)
}

// BalancesCSV writes the regional fiscal balances table.
func BalancesCSV(w io.Writer, balances []allocation.Balance, delimiter string) error {
	rows := [][]string{{
		"geography_code",
		"geography_name",
		"contribution_m_gbp",
		"spending_m_gbp",
		"net_balance_m_gbp",
	}}
	for _, b := range balances {
		rows = append(rows, []string{
			b.GeographyCode,
			b.GeographyName,
			formatFloat(b.ContributionM),
			formatFloat(b.SpendingM),
			formatFloat(b.NetBalanceM),
		})
	}
	return writeDelimited(w, rows, delimiter)
}
