package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robmcelhinney/where-your-taxes-go/internal/export"
	"github.com/robmcelhinney/where-your-taxes-go/internal/tax"
)

var (
	exportRequestFile string
	exportOut         string
	exportCSVDir      string
	exportDelimiter   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the journalist bundle for a request",
	Long:  "Runs the full estimate plus allocations and writes the bundle as JSON, with optional delimited tables alongside.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var req tax.Request
		if exportRequestFile != "" {
			body, err := os.ReadFile(exportRequestFile)
			if err != nil {
				return eris.Wrap(err, "read request file")
			}
			if err := json.Unmarshal(body, &req); err != nil {
				return eris.Wrap(err, "parse request file")
			}
		}

		env, err := initEnv()
		if err != nil {
			return err
		}
		if err := env.Dataset.Warm(ctx); err != nil {
			return eris.Wrap(err, "warm reference dataset")
		}

		bundle, err := env.Exporter.Bundle(ctx, req)
		if err != nil {
			return eris.Wrap(err, "build bundle")
		}

		body, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return eris.Wrap(err, "encode bundle")
		}
		if err := os.WriteFile(exportOut, append(body, '\n'), 0o644); err != nil {
			return eris.Wrap(err, "write bundle")
		}
		zap.L().Info("bundle written", zap.String("path", exportOut))

		if exportCSVDir == "" {
			return nil
		}
		if err := os.MkdirAll(exportCSVDir, 0o755); err != nil {
			return eris.Wrap(err, "create csv dir")
		}

		servicesPath := filepath.Join(exportCSVDir, "services.csv")
		f, err := os.Create(servicesPath)
		if err != nil {
			return eris.Wrap(err, "create services csv")
		}
		if err := export.ServicesCSV(f, bundle.Impact.Services, exportDelimiter); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrap(err, "close services csv")
		}

		balancesPath := filepath.Join(exportCSVDir, "balances.csv")
		f, err = os.Create(balancesPath)
		if err != nil {
			return eris.Wrap(err, "create balances csv")
		}
		if err := export.BalancesCSV(f, bundle.RegionalFlows.Balances, exportDelimiter); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrap(err, "close balances csv")
		}

		zap.L().Info("tables written",
			zap.String("services", servicesPath),
			zap.String("balances", balancesPath),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportRequestFile, "request", "", "path to a JSON request file")
	exportCmd.Flags().StringVar(&exportOut, "out", "export.json", "output path for the bundle")
	exportCmd.Flags().StringVar(&exportCSVDir, "csv-dir", "", "also write delimited tables into this directory")
	exportCmd.Flags().StringVar(&exportDelimiter, "delimiter", ",", "field delimiter for the tables")
	rootCmd.AddCommand(exportCmd)
}
