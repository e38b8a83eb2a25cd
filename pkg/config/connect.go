package config

import (
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gastrodon/pkg/cache"
	"github.com/matzehuels/gastrodon/pkg/endpoint"
	"github.com/matzehuels/gastrodon/pkg/httputil"
)

// Connect opens the endpoint described by profile e. Remote endpoints use
// store for their response cache; store may be nil.
func (c *Config) Connect(e Endpoint, store cache.Cache, logger *log.Logger) (endpoint.Querier, error) {
	ns, err := c.Namespaces(e)
	if err != nil {
		return nil, err
	}
	opts := endpoint.Options{Prefixes: ns, BaseURI: e.BaseURI, Raw: e.Raw, Logger: logger}

	if e.IsLocal() {
		paths := make([]string, len(e.Data))
		for i, p := range e.Data {
			paths[i] = expandHome(p)
		}
		l, err := endpoint.Load(opts, paths...)
		if err != nil {
			return nil, err
		}
		return l, nil
	}

	httpOpts := httputil.Options{
		UpdateURL: e.UpdateURL,
		Auth:      e.Auth,
		User:      e.User,
		Password:  e.Password,
		Cache:     store,
		TTL:       c.Cache.TTL.Duration,
		Logger:    logger,
	}
	if e.User != "" {
		httpOpts.Keyer = cache.NewScopedKeyer(nil, "user:"+e.User+":")
	}
	if e.DefaultGraph != "" {
		httpOpts.DefaultGraphs = []string{e.DefaultGraph}
	}
	if e.Timeout.Duration > 0 {
		httpOpts.HTTPClient = &http.Client{Timeout: e.Timeout.Duration}
	}
	r, err := endpoint.NewRemote(e.URL, endpoint.RemoteOptions{Options: opts, HTTP: httpOpts})
	if err != nil {
		return nil, err
	}
	return r, nil
}
