package export

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robmcelhinney/where-your-taxes-go/internal/allocation"
)

func TestServicesCSV_QuotesOnlyOnDelimiter(t *testing.T) {
	var sb strings.Builder
	err := ServicesCSV(&sb, []allocation.Entry{
		{FunctionLabel: "Medical services", SpendingM: 192300, Contribution: 2414.51, ShareOfUserTaxPercent: 18.8034},
		{FunctionLabel: "Recreation, culture and religion", SpendingM: 8300, Contribution: 104.21, ShareOfUserTaxPercent: 0.8115},
	}, ",")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "function_label,spending_amount_m_gbp,user_contribution_gbp,share_of_user_tax_percent", lines[0])
	assert.Equal(t, "Medical services,192300,2414.51,18.8034", lines[1])
	// Only the label containing the delimiter gets quoted.
	assert.Equal(t, `"Recreation, culture and religion",8300,104.21,0.8115`, lines[2])
}

func TestServicesCSV_AlternateDelimiterSkipsQuoting(t *testing.T) {
	var sb strings.Builder
	err := ServicesCSV(&sb, []allocation.Entry{
		{FunctionLabel: "Recreation, culture and religion", SpendingM: 8300, Contribution: 104.21, ShareOfUserTaxPercent: 0.8115},
	}, ";")
	require.NoError(t, err)

	// The comma in the label is harmless under a semicolon delimiter.
	assert.Contains(t, sb.String(), "Recreation, culture and religion;8300;104.21;0.8115\n")
}

func TestServicesCSV_RoundTripsThroughStandardReader(t *testing.T) {
	var sb strings.Builder
	err := ServicesCSV(&sb, []allocation.Entry{
		{FunctionLabel: "Recreation, culture and religion", SpendingM: 8300, Contribution: 104.21, ShareOfUserTaxPercent: 0.8115},
	}, ",")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(sb.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Recreation, culture and religion", records[1][0])
}

func TestBalancesCSV_ColumnsAndFormatting(t *testing.T) {
	var sb strings.Builder
	err := BalancesCSV(&sb, []allocation.Balance{
		{GeographyCode: "E12000007", GeographyName: "London",
			ContributionM: 198100, SpendingM: 161900, NetBalanceM: 36200},
		{GeographyCode: "W92000004", GeographyName: "Wales",
			ContributionM: 31100, SpendingM: 57400, NetBalanceM: -26300},
	}, ",")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "geography_code,geography_name,contribution_m_gbp,spending_m_gbp,net_balance_m_gbp", lines[0])
	assert.Equal(t, "E12000007,London,198100,161900,36200", lines[1])
	assert.Equal(t, "W92000004,Wales,31100,57400,-26300", lines[2])
}

func TestWriteDelimited_DoublesEmbeddedQuotes(t *testing.T) {
	var sb strings.Builder
	err := writeDelimited(&sb, [][]string{{`say "hi", ok`, "2"}}, ",")
	require.NoError(t, err)
	assert.Equal(t, `"say ""hi"", ok",2`+"\n", sb.String())
}
