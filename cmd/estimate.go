package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/robmcelhinney/where-your-taxes-go/internal/tax"
)

var (
	estimateRequestFile string
	estimateIncome      float64
	estimateRegion      string
	estimateTaxYear     string
	estimateNation      string
	estimatePostcode    string
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate household tax for a single request",
	Long:  "Reads a request from --request (JSON file) or builds one from flags, prints the estimate as JSON to stdout.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var req tax.Request
		if estimateRequestFile != "" {
			body, err := os.ReadFile(estimateRequestFile)
			if err != nil {
				return eris.Wrap(err, "read request file")
			}
			if err := json.Unmarshal(body, &req); err != nil {
				return eris.Wrap(err, "parse request file")
			}
		} else {
			req = tax.Request{
				AnnualIncome: estimateIncome,
				Region:       estimateRegion,
				TaxYear:      estimateTaxYear,
				Nation:       estimateNation,
				Postcode:     estimatePostcode,
			}
		}

		env, err := initEnv()
		if err != nil {
			return err
		}

		result := env.Estimator.Estimate(ctx, req)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return eris.Wrap(err, "encode result")
		}
		return nil
	},
}

func init() {
	estimateCmd.Flags().StringVar(&estimateRequestFile, "request", "", "path to a JSON request file")
	estimateCmd.Flags().Float64Var(&estimateIncome, "income", 0, "annual income (GBP)")
	estimateCmd.Flags().StringVar(&estimateRegion, "region", "", "region for council tax")
	estimateCmd.Flags().StringVar(&estimateTaxYear, "tax-year", "", "tax year, e.g. 2025-26")
	estimateCmd.Flags().StringVar(&estimateNation, "nation", "", "nation for income tax (england_ni, wales, scotland)")
	estimateCmd.Flags().StringVar(&estimatePostcode, "postcode", "", "postcode for council lookup")
	rootCmd.AddCommand(estimateCmd)
}
