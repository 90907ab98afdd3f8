package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hiweave/pkg/cache"
	"github.com/matzehuels/hiweave/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached hierarchies and rendered images",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var redisAddr string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if redisAddr != "" {
				cfg.Cache.Backend = config.BackendRedis
				cfg.Cache.RedisAddr = redisAddr
			}

			switch cfg.Cache.Backend {
			case config.BackendNone:
				c.printInfo("Caching is disabled")
				return nil
			case config.BackendRedis:
				rc, err := cache.NewRedisCache(cmd.Context(), cache.RedisConfig{Addr: cfg.Cache.RedisAddr})
				if err != nil {
					return fmt.Errorf("connect redis: %w", err)
				}
				defer rc.Close()
				n, err := rc.Clear(cmd.Context(), redisKeyPrefix+"*")
				if err != nil {
					return err
				}
				c.printSuccess("Cleared %d cached entries", n)
				c.printDetail("Redis: %s", cfg.Cache.RedisAddr)
				return nil
			}

			dir, err := cacheDir(cfg.Cache)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				c.printInfo("Cache is empty")
				return nil
			}
			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			n, err := fc.Clear()
			if err != nil {
				return err
			}
			c.printSuccess("Cleared %d cached entries", n)
			c.printDetail("Directory: %s", dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&redisAddr, "redis", "", "clear the Redis cache at ADDR")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			dir, err := cacheDir(cfg.Cache)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			c.println(dir)
			return nil
		},
	}
}
