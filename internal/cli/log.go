// Package cli implements the gastrodon command-line interface.
//
// Commands run SPARQL against a target chosen with --endpoint (a profile
// from the config file), --url (an ad-hoc remote endpoint) or --data (RDF
// files loaded into memory). Without any of them the config file's
// default_endpoint is used.
//
// # Commands
//
//   - select, ask, construct, update: run query text given inline, as
//     @file, or as - for stdin
//   - peel, decollect, describe, sample: built-in queries about one resource
//   - namespaces: the target's prefix table
//   - browse: page through SELECT results interactively
//   - serve: expose RDF files over the SPARQL protocol
//   - cache: manage the response cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports every query, cache lookup and HTTP request. Loggers are passed
// through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger with "HH:MM:SS.ms" timestamps that writes to
// w and filters messages at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the elapsed time of an operation when it completes.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, rounded to the millisecond, and any
// extra key-value pairs at debug level.
// Example output: "DEBU select rows=42 took=1.234s"
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "took", time.Since(p.start).Round(time.Millisecond))
	p.logger.Debug(msg, keyvals...)
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default() when
// none is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
