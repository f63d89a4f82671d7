package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/inbox-agent/internal/triage"
)

// Values accepted by process --only.
const (
	onlyCategory = "category"
	onlyActions  = "actions"
	onlyDraft    = "draft"
)

var processOnly string

var processCmd = &cobra.Command{
	Use:   "process ID",
	Short: "Generate category, action items and a reply draft for an email",
	Long: `Generate the insights for one email and store them.

Without --only, all three are produced by a single model call. Use --only
category, --only actions or --only draft to regenerate one of them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		out := cmd.OutOrStdout()

		return withService(cmd.Context(), func(ctx context.Context, svc *triage.Service) error {
			switch processOnly {
			case "":
				c, err := svc.Process(ctx, id)
				if err != nil {
					return err
				}
				if c.Failed() {
					return fmt.Errorf("%s: %s", c.Category, c.DraftReply)
				}
				printSection(out, "Category", c.Category)
				printSection(out, "Action items", c.ActionItems)
				printSection(out, "Draft reply", c.DraftReply)
			case onlyCategory:
				label, err := svc.Categorize(ctx, id)
				if err != nil {
					return err
				}
				printSection(out, "Category", label)
			case onlyActions:
				actions, err := svc.ExtractActions(ctx, id)
				if err != nil {
					return err
				}
				printSection(out, "Action items", actions)
			case onlyDraft:
				draft, err := svc.DraftReply(ctx, id)
				if err != nil {
					return err
				}
				printSection(out, "Draft reply", draft)
			default:
				return fmt.Errorf("--only must be %s, %s or %s; got %q",
					onlyCategory, onlyActions, onlyDraft, processOnly)
			}
			return nil
		})
	},
}

var refineCmd = &cobra.Command{
	Use:   "refine ID FEEDBACK...",
	Short: "Rewrite an email's reply draft using feedback",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		feedback := strings.Join(args[1:], " ")
		return withService(cmd.Context(), func(ctx context.Context, svc *triage.Service) error {
			draft, err := svc.RefineReply(ctx, args[0], feedback)
			if err != nil {
				return err
			}
			printSection(cmd.OutOrStdout(), "Draft reply", draft)
			return nil
		})
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule ID",
	Short: "Put an email's action items on the calendar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd.Context(), func(ctx context.Context, svc *triage.Service) error {
			if err := svc.Schedule(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Added to Calendar!")
			return nil
		})
	},
}

func printSection(w io.Writer, title, body string) {
	fmt.Fprintf(w, "%s:\n%s\n\n", title, strings.TrimSpace(body))
}

func init() {
	processCmd.Flags().StringVar(&processOnly, "only", "", "regenerate only category, actions or draft")
	rootCmd.AddCommand(processCmd, refineCmd, scheduleCmd)
}
