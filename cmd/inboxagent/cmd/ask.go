package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/inbox-agent/internal/triage"
)

var askCmd = &cobra.Command{
	Use:   "ask QUESTION...",
	Short: "Ask a question about the inbox",
	Long: `Answer a question using a digest of every email's sender, subject,
category and action items.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		return withService(cmd.Context(), func(ctx context.Context, svc *triage.Service) error {
			answer, err := svc.Ask(ctx, question)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
