package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/setorlab/choromap/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "choromap",
	Short: "Census-sector choropleth classification tool",
	Long: "Loads census sector geometry and point-of-interest extracts, aggregates counts per sector, " +
		"and classifies densities under equal-interval, quantile, and Jenks natural breaks for choropleth display.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

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
