package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/inbox-agent/internal/llm"
	"github.com/nhle/inbox-agent/internal/model"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

// --- config init ---

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current configuration to the config file",
	Long: `Write the effective configuration (defaults plus any overrides) to the
config file so it can be edited. An existing file is kept unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgFile); err == nil && !configForce {
			return fmt.Errorf("config file %s already exists; use --force to overwrite", cfgFile)
		}
		if err := model.SaveConfig(cfgFile, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", cfgFile)
		return nil
	},
}

// --- config provider ---

var configProviderCmd = &cobra.Command{
	Use:   "provider NAME",
	Short: "Select the model provider (gemini or anthropic)",
	Long: `Select the model provider. The model name is cleared when the provider
changes so the provider's default model is used.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.ToLower(args[0])
		if name != llm.ProviderGemini && name != llm.ProviderAnthropic {
			return errors.New("provider must be gemini or anthropic")
		}
		if name != cfg.AI.Provider {
			cfg.AI.Provider = name
			cfg.AI.Model = ""
			cfg.AI.Endpoint = ""
		}
		if err := model.SaveConfig(cfgFile, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Provider set to %s\n", name)
		return nil
	},
}

// --- config path ---

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file and database paths",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "config:   %s\ndatabase: %s\n", cfgFile, cfg.Database)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configInitCmd, configProviderCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}
