package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"StockPulse/internal/model"
)

var fetchDays int

var fetchCMD = &cobra.Command{
	Use:   "fetch TICKER",
	Short: "Fetch one ticker's enriched series and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if fetchDays < 1 || fetchDays > a.cfg.Data.MaxDays {
			return fmt.Errorf("--days must be between 1 and %d", a.cfg.Data.MaxDays)
		}
		res, err := a.series.Get(ctx, args[0], fetchDays)
		if err != nil {
			return err
		}

		out := struct {
			Symbol   string              `json:"symbol"`
			Source   string              `json:"source"`
			Inserted int                 `json:"inserted"`
			Data     []model.EnrichedBar `json:"data"`
		}{res.Ticker, res.Source.String(), res.Inserted, res.Bars}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	fetchCMD.Flags().IntVar(&fetchDays, "days", 30, "number of trading days to return")
}
