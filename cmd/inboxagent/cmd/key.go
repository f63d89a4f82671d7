package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/inbox-agent/internal/credential"
)

var (
	keyProvider string
	keyStdin    bool
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage model API keys",
	Long: `Manage the API keys used to reach the model service.

Keys are stored in the OS keyring (macOS Keychain, Secret Service, Windows
Credential Manager) or an encrypted file when none is available. A key in
the provider's environment variable always takes precedence.`,
}

// --- key set ---

var keySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store an API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := providerFlag()

		var key string
		if keyStdin {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading key from stdin: %w", err)
			}
			key = line
		} else {
			err := huh.NewInput().
				Title(fmt.Sprintf("%s API key", provider)).
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("key is required")
					}
					return nil
				}).
				Value(&key).
				Run()
			if err != nil {
				return err
			}
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return errors.New("empty API key")
		}

		s, err := openSecrets()
		if err != nil {
			return err
		}
		if err := s.Set(credential.KeyName(provider), key); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "API key for %s stored\n", provider)
		return nil
	},
}

// --- key delete ---

var keyDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove a stored API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := providerFlag()
		s, err := openSecrets()
		if err != nil {
			return err
		}
		if err := s.Delete(credential.KeyName(provider)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "API key for %s removed\n", provider)
		return nil
	},
}

// --- key status ---

var keyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the API key comes from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := providerFlag()
		env := credential.EnvVar(provider)
		out := cmd.OutOrStdout()

		if strings.TrimSpace(os.Getenv(env)) != "" {
			fmt.Fprintf(out, "%s: from %s\n", provider, env)
			return nil
		}
		if s := secrets(); s != nil {
			if v, err := s.Get(credential.KeyName(provider)); err == nil && v != "" {
				fmt.Fprintf(out, "%s: from keyring\n", provider)
				return nil
			}
		}
		fmt.Fprintf(out, "%s: not configured (set %s or run `inboxagent key set`)\n", provider, env)
		return nil
	},
}

func providerFlag() string {
	if keyProvider != "" {
		return strings.ToLower(keyProvider)
	}
	return cfg.AI.Provider
}

func init() {
	keyCmd.PersistentFlags().StringVar(&keyProvider, "provider", "", "model provider (default from config)")
	keySetCmd.Flags().BoolVar(&keyStdin, "stdin", false, "read the key from stdin")
	keyCmd.AddCommand(keySetCmd, keyDeleteCmd, keyStatusCmd)
	rootCmd.AddCommand(keyCmd)
}
