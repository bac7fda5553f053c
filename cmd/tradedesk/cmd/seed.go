package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/betbot/tradedesk/pkg/shutdown"
)

var seedBotsCmd = &cobra.Command{
	Use:   "seed-bots",
	Short: "Create the sample bots for every user that has none",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		sm := shutdown.NewManager()
		defer sm.Shutdown(context.Background())

		a, err := newApp(ctx, cfg, sm)
		if err != nil {
			return err
		}
		n, err := a.bots.SeedDemo(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users\n", n)
		return nil
	},
}
