package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gastrodon/pkg/buildinfo"
	"github.com/matzehuels/gastrodon/pkg/cache"
	"github.com/matzehuels/gastrodon/pkg/config"
	"github.com/matzehuels/gastrodon/pkg/endpoint"
	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "gastrodon"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output; status lines and logs go to the logger.
	Out io.Writer

	target targetFlags
}

// targetFlags select what a command talks to. At most one of endpoint,
// url and data may be set; none means the configured default endpoint.
type targetFlags struct {
	configPath string
	endpoint   string
	url        string
	data       []string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level. At debug level the query, cache
// and HTTP hooks report to the logger as well.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		hooks := observability.NewLogHooks(c.Logger)
		observability.SetQueryHooks(hooks)
		observability.SetCacheHooks(hooks)
		observability.SetHTTPHooks(hooks)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Gastrodon runs SPARQL queries against remote endpoints and local RDF files",
		Long: `Gastrodon is a SPARQL convenience tool. It injects the prefixes a query uses,
substitutes --bind values into query text, and turns results into tables.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.target.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/gastrodon/config.toml)")
	pf.StringVarP(&c.target.endpoint, "endpoint", "e", "", "endpoint profile from the config file")
	pf.StringVar(&c.target.url, "url", "", "SPARQL endpoint URL")
	pf.StringSliceVar(&c.target.data, "data", nil, "RDF files to query locally (repeatable)")
	pf.BoolVar(&c.target.noCache, "no-cache", false, "bypass the response cache")
	root.MarkFlagsMutuallyExclusive("endpoint", "url", "data")
	_ = root.RegisterFlagCompletionFunc("endpoint", c.completeEndpoints)

	// Register all subcommands
	root.AddCommand(c.selectCommand())
	root.AddCommand(c.askCommand())
	root.AddCommand(c.constructCommand())
	root.AddCommand(c.updateCommand())
	root.AddCommand(c.peelCommand())
	root.AddCommand(c.decollectCommand())
	root.AddCommand(c.describeCommand())
	root.AddCommand(c.sampleCommand())
	root.AddCommand(c.namespacesCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Target Factory
// =============================================================================

// loadConfig reads the --config file, or the default one if present.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.target.configPath)
}

// profile turns the target flags into an endpoint profile.
func (c *CLI) profile(cfg *config.Config) (config.Endpoint, error) {
	switch {
	case c.target.url != "":
		if err := errors.ValidateURL(c.target.url); err != nil {
			return config.Endpoint{}, err
		}
		return config.Endpoint{URL: c.target.url}, nil
	case len(c.target.data) > 0:
		return config.Endpoint{Data: c.target.data}, nil
	}
	return cfg.Endpoint(c.target.endpoint)
}

// open connects to the selected target. The returned close function
// releases the response cache.
func (c *CLI) open(ctx context.Context) (endpoint.Querier, func(), error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	e, err := c.profile(cfg)
	if err != nil {
		return nil, nil, err
	}

	var store cache.Cache
	if !e.IsLocal() {
		if store, err = c.newCache(ctx, cfg); err != nil {
			return nil, nil, err
		}
	}
	closeFn := func() {
		if store != nil {
			_ = store.Close()
		}
	}

	q, err := cfg.Connect(e, store, c.Logger)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return q, closeFn, nil
}

// newCache opens the configured response cache. Caching is off unless the
// config names a backend.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	opts := cfg.Cache.Options()
	if c.target.noCache || opts.Backend == "" || opts.Backend == cache.BackendNone {
		return nil, nil
	}
	if opts.Backend == cache.BackendFile && opts.Dir == "" {
		dir, err := cacheDir()
		if err != nil {
			return nil, err
		}
		opts.Dir = dir
	}
	return cache.Open(ctx, opts)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/gastrodon/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
