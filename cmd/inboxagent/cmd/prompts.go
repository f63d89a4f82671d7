package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/inbox-agent/internal/prompt"
	"github.com/nhle/inbox-agent/internal/store"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Manage the categorize, extract and reply prompts",
}

// --- prompts export ---

var promptsExportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Write the current prompts as a TOML pack",
	Long:  `Write the current prompts as a TOML pack to FILE, or to stdout when FILE is omitted.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.SQLiteStore) error {
			set, err := prompt.NewManager(st, logger.Named("prompt")).Load(cmd.Context())
			if err != nil {
				return err
			}

			if len(args) == 0 {
				return prompt.ExportTOML(cmd.OutOrStdout(), set)
			}

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating %s: %w", args[0], err)
			}
			if err := prompt.ExportTOML(f, set); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Prompts exported to %s\n", args[0])
			return nil
		})
	},
}

// --- prompts import ---

var promptsImportCmd = &cobra.Command{
	Use:   "import [FILE]",
	Short: "Load prompts from a TOML pack",
	Long: `Load prompts from a TOML pack in FILE, or from stdin when FILE is omitted.

Prompts missing from the pack are reset to their defaults.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()
			r = f
		}

		set, err := prompt.ImportTOML(r)
		if err != nil {
			return err
		}

		return withStore(func(st *store.SQLiteStore) error {
			if err := prompt.NewManager(st, logger.Named("prompt")).Save(cmd.Context(), set); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Prompts saved. Categories: %v\n", set.CategoryTemplate().Categories)
			return nil
		})
	},
}

// --- prompts restore ---

var promptsRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the default prompts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.SQLiteStore) error {
			if err := prompt.NewManager(st, logger.Named("prompt")).Restore(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Default prompts restored")
			return nil
		})
	},
}

func init() {
	promptsCmd.AddCommand(promptsExportCmd, promptsImportCmd, promptsRestoreCmd)
	rootCmd.AddCommand(promptsCmd)
}
