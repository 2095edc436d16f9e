package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/weitblick/internal/cache"
	"github.com/ppiankov/weitblick/internal/model"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the provider response cache",
	Long:  `Inspect or empty the cache of provider responses.`,
}

// cacheClearCmd represents the cache clear command
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached provider response",
	Long: `Clear removes all cached provider responses. Only the disk cache
(cache.disk: true) outlives a single run; the in-memory cache is always
empty when a command starts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		return clearCache(cmd.OutOrStdout(), cfg.Cache)
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func clearCache(out io.Writer, cfg model.CacheConfig) error {
	c := cache.New(cfg)
	if c == nil {
		fmt.Fprintln(out, "Cache is disabled (cache.enabled: false); nothing to clear.")
		return nil
	}
	if err := c.Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	if cfg.Disk {
		fmt.Fprintf(out, "✓ Cleared cache in %s\n", cfg.Dir)
	} else {
		fmt.Fprintln(out, "✓ Cleared in-memory cache (no disk cache configured)")
	}
	return nil
}
