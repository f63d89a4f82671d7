package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/inbox-agent/internal/triage"
)

const pingTimeout = 30 * time.Second

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the connection to the model service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		inv, err := newClient(secrets())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
		defer cancel()

		start := time.Now()
		reply, err := triage.Ping(ctx, inv)
		if err != nil {
			return fmt.Errorf("%s unreachable: %w", cfg.AI.Provider, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s replied %q in %s\n",
			cfg.AI.Provider, strings.TrimSpace(reply), time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
