package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gastrodon/pkg/buildinfo"
	"github.com/matzehuels/gastrodon/pkg/cache"
	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/observability"
)

const (
	httpTimeout = 60 * time.Second

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 8 << 10
)

// StatusError is a non-2xx response from the endpoint.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return "endpoint returned " + e.Status
	}
	return fmt.Sprintf("endpoint returned %s: %s", e.Status, e.Body)
}

// Options configures a Client. The zero value is usable.
type Options struct {
	// UpdateURL receives updates; defaults to the query URL.
	UpdateURL string
	// DefaultGraphs are sent with every request.
	DefaultGraphs []string

	// Auth is "" (none) or "basic".
	Auth     string
	User     string
	Password string

	HTTPClient *http.Client
	Retry      *Policy
	Headers    map[string]string

	Cache cache.Cache
	Keyer cache.Keyer
	TTL   time.Duration

	Logger *log.Logger
}

// Response is a raw endpoint response.
type Response struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	Cached      bool   `json:"-"`
}

// MediaType returns the content type without parameters.
func (r *Response) MediaType() string {
	mt, _, _ := strings.Cut(r.ContentType, ";")
	return strings.TrimSpace(strings.ToLower(mt))
}

// Client speaks the SPARQL 1.1 Protocol to one endpoint.
type Client struct {
	http      *http.Client
	queryURL  string
	updateURL string
	graphs    []string
	user      string
	password  string
	retry     Policy
	headers   map[string]string
	cache     cache.Cache
	keyer     cache.Keyer
	ttl       time.Duration
	logger    *log.Logger
}

// NewClient validates the endpoint URLs and the auth scheme.
func NewClient(endpoint string, opts Options) (*Client, error) {
	if err := errors.ValidateURL(endpoint); err != nil {
		return nil, err
	}
	updateURL := endpoint
	if opts.UpdateURL != "" {
		if err := errors.ValidateURL(opts.UpdateURL); err != nil {
			return nil, err
		}
		updateURL = opts.UpdateURL
	}
	switch strings.ToLower(opts.Auth) {
	case "":
	case "basic":
		if opts.User == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "basic auth needs a user")
		}
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "auth scheme %q is not supported", opts.Auth)
	}

	c := &Client{
		http:      opts.HTTPClient,
		queryURL:  endpoint,
		updateURL: updateURL,
		graphs:    opts.DefaultGraphs,
		user:      opts.User,
		password:  opts.Password,
		retry:     DefaultPolicy,
		headers:   opts.Headers,
		cache:     opts.Cache,
		keyer:     opts.Keyer,
		ttl:       opts.TTL,
		logger:    opts.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: httpTimeout}
	}
	if opts.Retry != nil {
		c.retry = *opts.Retry
	}
	if c.cache == nil {
		c.cache = cache.NewNullCache()
	}
	if c.keyer == nil {
		c.keyer = cache.NewDefaultKeyer()
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c, nil
}

// URL returns the query endpoint.
func (c *Client) URL() string { return c.queryURL }

// Query posts a query and returns the response body. Responses are served
// from and stored in the cache when one is configured.
func (c *Client) Query(ctx context.Context, query, accept string) (*Response, error) {
	key := c.keyer.QueryKey(c.queryURL, c.graphs, accept, query)
	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		var resp Response
		if json.Unmarshal(data, &resp) == nil {
			observability.Cache().OnCacheHit(ctx, "query")
			c.logger.Debug("cache hit", "endpoint", c.queryURL)
			resp.Cached = true
			return &resp, nil
		}
	} else if err != nil {
		c.logger.Warn("cache read failed", "err", err)
	}
	observability.Cache().OnCacheMiss(ctx, "query")

	form := url.Values{"query": {query}}
	for _, g := range c.graphs {
		form.Add("default-graph-uri", g)
	}
	resp, err := c.post(ctx, c.queryURL, form, accept)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(resp); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "query", len(data))
		}
	}
	return resp, nil
}

// Update posts an update. Updates are never cached.
func (c *Client) Update(ctx context.Context, update string) error {
	form := url.Values{"update": {update}}
	for _, g := range c.graphs {
		form.Add("using-graph-uri", g)
	}
	_, err := c.post(ctx, c.updateURL, form, "*/*")
	return err
}

func (c *Client) post(ctx context.Context, endpoint string, form url.Values, accept string) (*Response, error) {
	var out *Response
	err := Retry(ctx, c.retry, func() error {
		resp, err := c.do(ctx, endpoint, form, accept)
		if err != nil {
			return err
		}
		out = resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, endpoint string, form url.Values, accept string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request for %s", endpoint)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", "gastrodon/"+buildinfo.Version)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	host, path := req.URL.Host, req.URL.Path
	observability.HTTP().OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "request to %s cancelled", endpoint)
		}
		return nil, &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "request to %s failed", endpoint)}
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))
	c.logger.Debug("response", "status", resp.StatusCode, "endpoint", endpoint, "elapsed", time.Since(start).Round(time.Millisecond))

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read response from %s", endpoint)}
	}
	return &Response{ContentType: resp.Header.Get("Content-Type"), Body: body}, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	serr := &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(body))}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &RetryableError{Err: &rateLimited{RateLimitedError: errors.RateLimitedError{RetryAfter: retryAfter}, status: serr}}
	case resp.StatusCode >= 500:
		return &RetryableError{Err: serr}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.Wrap(errors.ErrCodeUnauthorized, serr, "endpoint refused credentials")
	}
	return serr
}

// rateLimited keeps the response next to the rate-limit details.
type rateLimited struct {
	errors.RateLimitedError
	status *StatusError
}

func (e *rateLimited) Unwrap() []error {
	return []error{&e.RateLimitedError, e.status}
}
