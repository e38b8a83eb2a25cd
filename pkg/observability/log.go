package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports every event at debug level on a logger.
// It implements QueryHooks, CacheHooks and HTTPHooks.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger}
}

func (h *LogHooks) OnQueryStart(_ context.Context, form, target string) {
	h.logger.Debug("query started", "form", form, "endpoint", target)
}

func (h *LogHooks) OnQueryComplete(_ context.Context, form, target string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("query failed", "form", form, "endpoint", target, "elapsed", d.Round(time.Millisecond), "err", err)
		return
	}
	h.logger.Debug("query done", "form", form, "endpoint", target, "size", size, "elapsed", d.Round(time.Millisecond))
}

func (h *LogHooks) OnPrefixesInjected(_ context.Context, prefixes []string) {
	h.logger.Debug("injected prefixes", "prefixes", prefixes)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "elapsed", d.Round(time.Millisecond))
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}

var (
	_ QueryHooks = (*LogHooks)(nil)
	_ CacheHooks = (*LogHooks)(nil)
	_ HTTPHooks  = (*LogHooks)(nil)
)
