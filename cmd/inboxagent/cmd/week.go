package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nhle/inbox-agent/internal/calendar"
	"github.com/nhle/inbox-agent/internal/llm"
	"github.com/nhle/inbox-agent/internal/store"
)

const snippetLen = 40

var weekDeadlines int

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show the 7-day plan of scheduled emails",
	Long: `Lay out scheduled emails over the seven days starting today and list the
approaching deadlines. No model call is made.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.SQLiteStore) error {
			svc := newService(st, llm.NewSwitch(nil))

			deadlines, err := svc.Deadlines(cmd.Context(), weekDeadlines)
			if err != nil {
				return err
			}
			week, err := svc.Week(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printDeadlines(out, deadlines)
			printWeek(out, week)
			return nil
		})
	},
}

func printDeadlines(w io.Writer, entries []calendar.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No Pending Actions")
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintln(w, "Approaching Deadlines")
	for i, e := range entries {
		fmt.Fprintf(w, "%d. %s: %s...\n", i+1, e.Sender, calendar.Snippet(e.AnchorText, snippetLen))
	}
	fmt.Fprintln(w)
}

func printWeek(w io.Writer, week calendar.Week) {
	for _, d := range week.Days {
		fmt.Fprintln(w, d.Date.Format("Mon 02 Jan"))
		if len(d.Entries) == 0 {
			fmt.Fprintln(w, "  No tasks")
		}
		for _, e := range d.Entries {
			printEntry(w, e)
		}
	}
	printBucket(w, "Later", week.Later)
	printBucket(w, "No date found", week.Unscheduled)
}

func printBucket(w io.Writer, title string, entries []calendar.Entry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(w, "%s (%d)\n", title, len(entries))
	for _, e := range entries {
		printEntry(w, e)
	}
}

func printEntry(w io.Writer, e calendar.Entry) {
	fmt.Fprintf(w, "  %s: %s\n", e.Sender, calendar.Snippet(e.AnchorText, snippetLen))
}

func init() {
	weekCmd.Flags().IntVar(&weekDeadlines, "deadlines", 0, "number of deadlines to list (default 5)")
	rootCmd.AddCommand(weekCmd)
}
