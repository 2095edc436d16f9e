package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/weitblick/internal/model"
)

// Version is overridden at build time with -ldflags
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "weitblick",
	Short: "Weitblick - explore an idea through five philosophical lenses",
	Long: `Weitblick takes a short idea, classifies it, and asks every configured
LLM provider (Gemini, OpenAI, Anthropic, DeepSeek) to analyse it from the
perspectives of Kant, Heidegger, Hegel, Nagarjuna and empirical science.

Perspectives can be expanded level by level and condensed into a
quintessence. The guide command instead walks an idea through four
guided phases, from core hypothesis to resilience check. Without any API key the tool still works and fills every
node with static text.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of Weitblick.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "weitblick %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.weitblick/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	registerDefaults(viper.GetViper(), model.DefaultConfig())

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in the application directory
		viper.AddConfigPath(model.HomeDir())
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match WEITBLICK_*
	viper.SetEnvPrefix("WEITBLICK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults makes every configuration key known to viper, which
// AutomaticEnv needs for Unmarshal to see environment overrides
func registerDefaults(v *viper.Viper, cfg *model.Config) {
	for _, id := range model.AllProviders {
		endpoint, _ := cfg.Providers.Endpoint(id)
		v.SetDefault("providers."+string(id)+".base_url", endpoint.BaseURL)
		v.SetDefault("providers."+string(id)+".model", endpoint.Model)
	}

	v.SetDefault("analysis.timeout", cfg.Analysis.Timeout)
	v.SetDefault("analysis.concurrency", cfg.Analysis.Concurrency)
	v.SetDefault("analysis.strategy", cfg.Analysis.Strategy)
	v.SetDefault("analysis.structure", cfg.Analysis.Structure)
	v.SetDefault("analysis.min_quintessence_siblings", cfg.Analysis.MinQuintessenceSiblings)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)
	v.SetDefault("cache.disk", cfg.Cache.Disk)
	v.SetDefault("cache.dir", cfg.Cache.Dir)

	v.SetDefault("keys.file", cfg.Keys.File)

	v.SetDefault("http.http_proxy", cfg.HTTP.HTTPProxy)
	v.SetDefault("http.https_proxy", cfg.HTTP.HTTPSProxy)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

// loadConfig unmarshals and validates the effective configuration
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}

	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	cfg.Keys.File = expandHome(cfg.Keys.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandHome resolves a leading ~ in user supplied paths
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
