package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robmcelhinney/where-your-taxes-go/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "where-your-taxes-go",
	Short: "UK household tax estimation and spending allocation",
	Long:  "Estimates a household's UK tax liability, allocates it across government spending categories, and maps regional fiscal balances and flows.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := cfg.Validate(); err != nil {
			return err
		}

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
