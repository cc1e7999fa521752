package cli

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/slotfit/pkg/cache"
	"github.com/matzehuels/slotfit/pkg/config"
)

// cacheCommand manages the local measurement and plan cache. Redis entries
// are left to their TTL.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the measurement and plan cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "info",
			Short: "Show the cache backend, directory and size",
			Args:  cobra.NoArgs,
			RunE:  c.withCache(printCacheInfo),
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove all cached measurements and plans",
			Args:  cobra.NoArgs,
			RunE:  c.withCache(clearCache),
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the cache directory path",
			Args:  cobra.NoArgs,
			RunE: c.withCache(func(cfg config.Cache, dir string) error {
				fmt.Println(dir)
				return nil
			}),
		},
	)
	return cmd
}

// withCache loads the configuration and hands the cache settings and the
// local directory to fn.
func (c *CLI) withCache(fn func(cfg config.Cache, dir string) error) func(*cobra.Command, []string) error {
	return func(*cobra.Command, []string) error {
		cfg, err := c.loadConfig()
		if err != nil {
			return err
		}
		dir := cfg.Cache.Dir
		if dir == "" {
			dir = cache.DefaultDir()
		}
		return fn(cfg.Cache, dir)
	}
}

func printCacheInfo(cfg config.Cache, dir string) error {
	printKeyValue("Backend", cfg.Backend)
	printKeyValue("TTL", cfg.TTL.String())
	if cfg.Backend == config.BackendRedis {
		printDetail("entries live in redis; the directory below holds only local runs")
	}
	printKeyValue("Directory", dir)

	if !dirExists(dir) {
		printKeyValue("Entries", "0")
		return nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return fmt.Errorf("open cache dir: %w", err)
	}
	entries, size, err := fc.Usage()
	if err != nil {
		return err
	}
	printKeyValue("Entries", fmt.Sprintf("%d (%.1f KiB)", entries, float64(size)/1024))
	return nil
}

func clearCache(cfg config.Cache, dir string) error {
	if cfg.Backend == config.BackendRedis {
		printWarning("redis entries expire after their TTL; clearing the local file cache only")
	}
	if !dirExists(dir) {
		printInfo("Cache is empty")
		return nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return fmt.Errorf("open cache dir: %w", err)
	}
	n, err := fc.Clear()
	if err != nil {
		return err
	}
	printSuccess("Cleared %d cached entries", n)
	printDetail("Directory: %s", dir)
	return nil
}

func dirExists(dir string) bool {
	_, err := os.Stat(dir)
	return !stderrors.Is(err, fs.ErrNotExist)
}
