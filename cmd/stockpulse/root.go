package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCMD = &cobra.Command{
	Use:   "stockpulse",
	Short: "Stock daily-bar pipeline and analytics API",
	Long: `StockPulse fetches daily price bars for a curated set of tickers,
enriches them with returns, moving averages and volatility, caches them
in a database and serves summaries and comparisons over HTTP.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCMD.Execute(); err != nil {
		log.Printf("[FATAL] %v", err)
		os.Exit(1)
	}
}

func init() {
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCMD.PersistentFlags().StringVar(&configPath, "config", defaultPath, "path to the YAML config file")

	rootCMD.AddCommand(serveCMD, fetchCMD, warmCMD)
}
