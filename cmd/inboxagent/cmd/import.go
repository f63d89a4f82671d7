package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nhle/inbox-agent/internal/source/eml"
	"github.com/nhle/inbox-agent/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import PATH...",
	Short: "Import .eml files into the inbox",
	Long: `Import RFC 5322 messages from .eml files or directories of them.

Messages already in the inbox are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.SQLiteStore) error {
			im := eml.NewImporter(st, logger.Named("eml"))
			out := cmd.OutOrStdout()

			for _, path := range args {
				res, err := im.Import(cmd.Context(), path)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %d imported, %d duplicate, %d failed\n",
					path, res.Imported, res.Duplicate, len(res.Failed))

				failed := make([]string, 0, len(res.Failed))
				for name := range res.Failed {
					failed = append(failed, name)
				}
				sort.Strings(failed)
				for _, name := range failed {
					fmt.Fprintf(out, "  %s: %v\n", name, res.Failed[name])
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
