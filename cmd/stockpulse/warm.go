package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var warmCMD = &cobra.Command{
	Use:   "warm",
	Short: "Refresh every catalog ticker once and print the digest",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Fprintln(cmd.OutOrStdout(), a.newScheduler(ctx).RunWarmNow())
		return nil
	},
}
