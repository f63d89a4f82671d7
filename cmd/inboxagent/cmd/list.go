package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nhle/inbox-agent/internal/store"
)

var (
	listCategories []string
	listSearch     string
	listUnread     bool
	listLimit      int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List emails, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := store.EmailFilter{
			Categories: listCategories,
			UnreadOnly: listUnread,
			Limit:      listLimit,
		}
		if listSearch != "" {
			f.Query = store.Ptr(listSearch)
		}

		return withStore(func(st *store.SQLiteStore) error {
			emails, err := st.GetEmails(cmd.Context(), f)
			if err != nil {
				return err
			}
			if len(emails) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No emails.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tRECEIVED\tFROM\tSUBJECT\tCATEGORY")
			for _, e := range emails {
				mark := " "
				if !e.IsRead {
					mark = "*"
				}
				fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\t%s\n",
					mark, e.ID, e.ReceivedAt.Format("Jan 02 15:04"), e.Sender, e.Subject, e.Label())
			}
			return w.Flush()
		})
	},
}

func init() {
	listCmd.Flags().StringSliceVar(&listCategories, "category", nil, "only these categories")
	listCmd.Flags().StringVar(&listSearch, "search", "", "match sender, subject or body")
	listCmd.Flags().BoolVar(&listUnread, "unread", false, "only unread emails")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum number of emails")
	rootCmd.AddCommand(listCmd)
}
