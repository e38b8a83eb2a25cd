// Package config loads the gastrodon configuration file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/gastrodon/config.toml, or
// ~/.config/gastrodon/config.toml when XDG_CONFIG_HOME is unset:
//
//	default_endpoint = "dbpedia"
//
//	[prefixes]
//	foaf = "http://xmlns.com/foaf/0.1/"
//
//	[endpoints.dbpedia]
//	url = "https://dbpedia.org/sparql"
//	default_graph = "http://dbpedia.org"
//	base_uri = "http://dbpedia.org/resource/"
//	prefixes_file = "~/dbpedia-prefixes.ttl"
//
//	[endpoints.dbpedia.prefixes]
//	dbo = "http://dbpedia.org/ontology/"
//
//	[endpoints.virtuoso]
//	url = "http://localhost:8890/sparql"
//	raw = true
//
//	[endpoints.notes]
//	data = ["notes.ttl"]
//
//	[cache]
//	backend = "redis"
//	ttl = "24h"
//	redis_addr = "localhost:6379"
//
// An endpoint profile either names a remote service with url or a set of
// local data files with data. A remote profile with raw = true sends query
// text unchanged, without prefix injection or a local syntax check.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gastrodon/pkg/cache"
	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/rdf"
)

const appName = "gastrodon"

// Config is the content of the configuration file.
type Config struct {
	DefaultEndpoint string              `toml:"default_endpoint"`
	Prefixes        map[string]string   `toml:"prefixes"`
	Endpoints       map[string]Endpoint `toml:"endpoints"`
	Cache           Cache               `toml:"cache"`

	// Path is the file the configuration was read from, if any.
	Path string `toml:"-"`
}

// Endpoint is one [endpoints.<name>] profile.
type Endpoint struct {
	URL          string            `toml:"url"`
	UpdateURL    string            `toml:"update_url"`
	DefaultGraph string            `toml:"default_graph"`
	BaseURI      string            `toml:"base_uri"`
	Auth         string            `toml:"auth"`
	User         string            `toml:"user"`
	Password     string            `toml:"password"`
	PrefixesFile string            `toml:"prefixes_file"`
	Prefixes     map[string]string `toml:"prefixes"`
	Data         []string          `toml:"data"`
	Timeout      Duration          `toml:"timeout"`
	// Raw sends queries as written, for services with syntax extensions
	// such as Virtuoso's bif: functions.
	Raw bool `toml:"raw"`
}

// IsLocal reports whether the profile loads data files instead of querying a
// remote service.
func (e Endpoint) IsLocal() bool { return e.URL == "" && len(e.Data) > 0 }

// Cache is the [cache] section.
type Cache struct {
	Backend         string   `toml:"backend"`
	TTL             Duration `toml:"ttl"`
	Dir             string   `toml:"dir"`
	RedisAddr       string   `toml:"redis_addr"`
	RedisDB         int      `toml:"redis_db"`
	MongoURI        string   `toml:"mongo_uri"`
	MongoDatabase   string   `toml:"mongo_database"`
	MongoCollection string   `toml:"mongo_collection"`
}

// Options converts the section into cache options.
func (c Cache) Options() cache.Config {
	return cache.Config{
		Backend:         c.Backend,
		TTL:             c.TTL.Duration,
		Dir:             expandHome(c.Dir),
		RedisAddr:       c.RedisAddr,
		RedisDB:         c.RedisDB,
		MongoURI:        c.MongoURI,
		MongoDatabase:   c.MongoDatabase,
		MongoCollection: c.MongoCollection,
	}
}

// Duration is a time.Duration written as a string such as "90s" or "24h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultPath returns the configuration file path using the XDG convention.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads and validates the configuration at path. An empty path means
// [DefaultPath]; a missing file at the default path yields an empty
// configuration, while a missing explicit path is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return &Config{}, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if explicit {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s not found", path)
		}
		return &Config{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	cfg, err := Parse(string(data))
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes and validates configuration text.
func Parse(text string) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section and names the first offending key.
func (c *Config) Validate() error {
	if err := validatePrefixes("prefixes", c.Prefixes); err != nil {
		return err
	}

	for _, name := range c.EndpointNames() {
		e := c.Endpoints[name]
		key := "endpoints." + name
		switch {
		case e.URL == "" && len(e.Data) == 0:
			return invalid(key, nil, "needs url or data")
		case e.URL != "" && len(e.Data) > 0:
			return invalid(key, nil, "cannot have both url and data")
		case e.Raw && e.URL == "":
			return invalid(key+".raw", nil, "only applies to remote endpoints")
		}
		if e.URL != "" {
			if err := errors.ValidateURL(e.URL); err != nil {
				return invalid(key+".url", err, "invalid URL")
			}
		}
		if e.UpdateURL != "" {
			if err := errors.ValidateURL(e.UpdateURL); err != nil {
				return invalid(key+".update_url", err, "invalid URL")
			}
		}
		switch strings.ToLower(e.Auth) {
		case "":
		case "basic":
			if e.User == "" {
				return invalid(key+".user", nil, "basic auth needs a user")
			}
		default:
			return invalid(key+".auth", nil, "unsupported auth scheme %q", e.Auth)
		}
		if e.Timeout.Duration < 0 {
			return invalid(key+".timeout", nil, "must not be negative")
		}
		if err := validatePrefixes(key+".prefixes", e.Prefixes); err != nil {
			return err
		}
	}

	if c.DefaultEndpoint != "" {
		if _, ok := c.Endpoints[c.DefaultEndpoint]; !ok {
			return invalid("default_endpoint", nil, "no endpoint named %q", c.DefaultEndpoint)
		}
	}

	switch c.Cache.Backend {
	case "", cache.BackendFile, cache.BackendNone:
	case cache.BackendRedis:
		if c.Cache.RedisAddr == "" {
			return invalid("cache.redis_addr", nil, "required for the redis backend")
		}
	case cache.BackendMongo:
		if c.Cache.MongoURI == "" {
			return invalid("cache.mongo_uri", nil, "required for the mongo backend")
		}
	default:
		return invalid("cache.backend", nil, "unknown backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return invalid("cache.ttl", nil, "must not be negative")
	}
	return nil
}

func validatePrefixes(key string, m map[string]string) error {
	for _, p := range sortedKeys(m) {
		if err := errors.ValidatePrefix(p); err != nil {
			return invalid(key+"."+p, err, "invalid prefix")
		}
		if err := errors.ValidateNamespace(m[p]); err != nil {
			return invalid(key+"."+p, err, "invalid namespace")
		}
	}
	return nil
}

func invalid(key string, cause error, format string, args ...any) error {
	e := errors.New(errors.ErrCodeInvalidConfig, format, args...)
	e.Message = key + ": " + e.Message
	e.Cause = cause
	return e
}

// EndpointNames returns the profile names in sorted order.
func (c *Config) EndpointNames() []string {
	return sortedKeys(c.Endpoints)
}

// Endpoint returns the named profile. An empty name selects the default
// endpoint.
func (c *Config) Endpoint(name string) (Endpoint, error) {
	if name == "" {
		name = c.DefaultEndpoint
	}
	if name == "" {
		return Endpoint{}, errors.New(errors.ErrCodeInvalidInput, "no endpoint given and no default_endpoint configured")
	}
	e, ok := c.Endpoints[name]
	if !ok {
		return Endpoint{}, errors.New(errors.ErrCodeNotFound, "no endpoint named %q in %s", name, c.describePath())
	}
	return e, nil
}

func (c *Config) describePath() string {
	if c.Path == "" {
		return "the configuration"
	}
	return c.Path
}

// Namespaces builds the prefix table for a profile: the standard prefixes,
// then the global [prefixes], then the prefixes declared in the profile's
// prefixes_file, then the profile's own prefixes. Later bindings win.
func (c *Config) Namespaces(e Endpoint) (*rdf.Namespaces, error) {
	ns := rdf.DefaultNamespaces()
	for p, iri := range c.Prefixes {
		ns.Bind(p, iri)
	}
	if e.PrefixesFile != "" {
		g, err := rdf.ReadFile(expandHome(e.PrefixesFile))
		if err != nil {
			return nil, err
		}
		for p, iri := range g.Namespaces().Map() {
			ns.Bind(p, iri)
		}
	}
	for p, iri := range e.Prefixes {
		ns.Bind(p, iri)
	}
	return ns, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
