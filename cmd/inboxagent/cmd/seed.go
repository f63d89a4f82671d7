package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/inbox-agent/internal/model"
	"github.com/nhle/inbox-agent/internal/prompt"
	"github.com/nhle/inbox-agent/internal/seed"
	"github.com/nhle/inbox-agent/internal/store"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the inbox with mock emails",
	Long: `Clear every email, load a mock inbox and restore the default prompts.

By default the built-in mock inbox is loaded. Use --file to load a YAML
fixture instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		emails, err := loadFixture(seedFile)
		if err != nil {
			return err
		}

		return withStore(func(st *store.SQLiteStore) error {
			prompts := prompt.NewManager(st, logger.Named("prompt"))
			if err := seed.Reset(cmd.Context(), st, prompts, emails); err != nil {
				return fmt.Errorf("seeding inbox: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d emails into %s\n", len(emails), cfg.Database)
			return nil
		})
	},
}

func loadFixture(path string) ([]model.Email, error) {
	if path == "" {
		return seed.MockEmails(time.Local)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fixture: %w", err)
	}
	defer f.Close()
	return seed.Load(f, time.Local)
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "YAML fixture to load instead of the built-in inbox")
	rootCmd.AddCommand(seedCmd)
}
