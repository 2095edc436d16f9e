package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/weitblick/internal/keystore"
	"github.com/ppiankov/weitblick/internal/model"
)

// keysCmd represents the keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage provider API keys",
	Long: `Manage the API keys used to call the LLM providers.

Keys are stored in $HOME/.weitblick/keys.yaml (mode 0600). The environment
variables GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY and
DEEPSEEK_API_KEY take precedence over stored keys. Keys that do not have
the provider's expected shape are rejected.`,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openKeyStore()
		if err != nil {
			return err
		}

		stored, err := store.Load()
		if err != nil {
			return err
		}
		effective := keystore.Overlay(stored, os.Getenv)

		out := cmd.OutOrStdout()
		for _, id := range model.AllProviders {
			switch {
			case effective[id] != stored[id]:
				fmt.Fprintf(out, "%-18s %s (from %s)\n", id.Label(), keystore.Mask(effective[id]), keystore.EnvVar(id))
			case stored.Present(id):
				fmt.Fprintf(out, "%-18s %s\n", id.Label(), keystore.Mask(stored[id]))
			default:
				fmt.Fprintf(out, "%-18s not configured\n", id.Label())
			}
		}
		return nil
	},
}

var keysSetCmd = &cobra.Command{
	Use:   "set <provider> <key>",
	Short: "Store an API key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := model.ParseProviderID(args[0])
		if err != nil {
			return err
		}
		store, err := openKeyStore()
		if err != nil {
			return err
		}
		if err := store.Set(id, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Stored %s key in %s\n", id.Label(), store.Path())
		return nil
	},
}

var keysRemoveCmd = &cobra.Command{
	Use:   "remove <provider>",
	Short: "Delete a stored API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := model.ParseProviderID(args[0])
		if err != nil {
			return err
		}
		store, err := openKeyStore()
		if err != nil {
			return err
		}
		if err := store.Remove(id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s key\n", id.Label())
		return nil
	},
}

func openKeyStore() (*keystore.FileStore, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return keystore.NewFileStore(cfg.Keys.File), nil
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysSetCmd)
	keysCmd.AddCommand(keysRemoveCmd)
}
