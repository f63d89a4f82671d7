package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/inbox-agent/internal/triage"
)

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Categorize every uncategorised email",
	Long: `Send every email without a category to the model and store the result.

Emails the model cannot categorize are marked Uncategorised.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		return withService(cmd.Context(), func(ctx context.Context, svc *triage.Service) error {
			res, err := svc.AutoTag(ctx, func(done, total int) {
				fmt.Fprintf(out, "\rTagging %d/%d", done, total)
			})
			if err != nil {
				return err
			}
			if res.Total == 0 {
				fmt.Fprintln(out, "All emails are already tagged!")
				return nil
			}
			fmt.Fprintf(out, "\nTagged %d emails", res.Tagged)
			if res.Fallback > 0 {
				fmt.Fprintf(out, " (%d left Uncategorised)", res.Fallback)
			}
			fmt.Fprintln(out)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(triageCmd)
}
