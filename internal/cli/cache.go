package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gastrodon/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the query response cache",
		Long: `Manage the query response cache.

Responses from remote endpoints are cached when the config file has a [cache]
section naming a backend (file, redis or mongo).`,
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheOptions returns the configured cache, defaulting to the file
// backend in the XDG cache directory.
func (c *CLI) cacheOptions() (cache.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return cache.Config{}, err
	}
	opts := cfg.Cache.Options()
	if opts.Backend == "" {
		opts.Backend = cache.BackendFile
	}
	if opts.Backend == cache.BackendFile && opts.Dir == "" {
		dir, err := cacheDir()
		if err != nil {
			return cache.Config{}, fmt.Errorf("get cache dir: %w", err)
		}
		opts.Dir = dir
	}
	return opts, nil
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.cacheOptions()
			if err != nil {
				return err
			}
			if opts.Backend == cache.BackendNone {
				printInfo("Caching is disabled")
				return nil
			}

			store, err := cache.Open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			printSuccess("Cleared the %s cache", opts.Backend)
			printDetail("%s", describeCache(opts))
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where cached responses are stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.cacheOptions()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Out, describeCache(opts))
			return nil
		},
	}
}

func describeCache(opts cache.Config) string {
	switch opts.Backend {
	case cache.BackendRedis:
		return fmt.Sprintf("redis://%s/%d", opts.RedisAddr, opts.RedisDB)
	case cache.BackendMongo:
		db, coll := opts.MongoDatabase, opts.MongoCollection
		if db == "" {
			db = appName
		}
		if coll == "" {
			coll = "responses"
		}
		return fmt.Sprintf("%s (%s.%s)", opts.MongoURI, db, coll)
	case cache.BackendNone:
		return "disabled"
	}
	return opts.Dir
}
