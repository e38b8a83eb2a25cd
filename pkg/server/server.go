// Package server exposes a local graph over the SPARQL 1.1 Protocol.
//
// Routes:
//
//	GET  /sparql?query=...       query
//	POST /sparql                 query or update (form-encoded, or a raw
//	                             application/sparql-query or
//	                             application/sparql-update body)
//	POST /update                 update
//	GET  /health                 liveness and version (JSON)
//
// SELECT and ASK answers are SPARQL JSON results. CONSTRUCT and DESCRIBE
// answers are N-Triples, Turtle or JSON-LD depending on the Accept header.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/gastrodon/pkg/buildinfo"
	"github.com/matzehuels/gastrodon/pkg/endpoint"
	"github.com/matzehuels/gastrodon/pkg/errors"
)

const (
	mediaSPARQLQuery  = "application/sparql-query"
	mediaSPARQLUpdate = "application/sparql-update"
	mediaForm         = "application/x-www-form-urlencoded"

	// maxBody bounds request bodies.
	maxBody = 8 << 20
)

// Options configures a Server.
type Options struct {
	// Addr is the listen address, ":3030" when empty.
	Addr string

	// ReadOnly rejects updates with 403.
	ReadOnly bool

	// Timeout bounds each request. Zero means one minute.
	Timeout time.Duration

	Logger *log.Logger
}

// Server serves one [endpoint.Local].
type Server struct {
	local  *endpoint.Local
	opts   Options
	logger *log.Logger
	router chi.Router
}

// New builds the router for l.
func New(l *endpoint.Local, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":3030"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Server{local: l, opts: opts, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.Timeout))
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)
	r.Get("/sparql", s.handleQuery)
	r.Post("/sparql", s.handlePost)
	r.Post("/update", s.handleUpdate)
	s.router = r
	return s
}

// Handler returns the HTTP handler, for embedding or tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "listen on %s", s.opts.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("serving SPARQL", "addr", ln.Addr().String(), "triples", s.local.Graph().Len())
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(errors.ErrCodeNetwork, err, "serve")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("query")
	if q == "" {
		s.fail(w, errors.New(errors.ErrCodeInvalidInput, "missing query parameter"))
		return
	}
	s.query(w, r, q)
}

// handlePost dispatches on the body: a query or an update.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	kind, text, err := readBody(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if kind == "update" {
		s.update(w, r, text)
		return
	}
	s.query(w, r, text)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	kind, text, err := readBody(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if kind != "update" {
		s.fail(w, errors.New(errors.ErrCodeInvalidInput, "missing update"))
		return
	}
	s.update(w, r, text)
}

func (s *Server) query(w http.ResponseWriter, r *http.Request, text string) {
	res, err := s.local.Eval(r.Context(), text)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := writeResults(w, r.Header.Get("Accept"), res); err != nil {
		s.fail(w, err)
	}
}

func (s *Server) update(w http.ResponseWriter, r *http.Request, text string) {
	if s.opts.ReadOnly {
		s.fail(w, errors.New(errors.ErrCodeUnauthorized, "this endpoint is read-only"))
		return
	}
	if err := s.local.Exec(r.Context(), text); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readBody extracts the operation from a POST body. kind is "query" or
// "update".
func readBody(w http.ResponseWriter, r *http.Request) (kind, text string, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	ct := r.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.TrimSpace(strings.ToLower(ct))
	switch ct {
	case mediaSPARQLQuery, mediaSPARQLUpdate:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return "", "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
		}
		if ct == mediaSPARQLUpdate {
			return "update", string(data), nil
		}
		return "query", string(data), nil
	case mediaForm, "":
		if err := r.ParseForm(); err != nil {
			return "", "", errors.Wrap(errors.ErrCodeInvalidInput, err, "parse form")
		}
		if u := r.PostForm.Get("update"); u != "" {
			return "update", u, nil
		}
		if q := r.Form.Get("query"); q != "" {
			return "query", q, nil
		}
		return "", "", errors.New(errors.ErrCodeInvalidInput, "missing query or update")
	}
	return "", "", errors.New(errors.ErrCodeInvalidMediaType, "unsupported content type %q", ct)
}

// fail writes err as plain text. Pre-rendered query errors are sent in full.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	body := strings.Join(errors.Lines(err), "\n")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body+"\n")
}

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidQuery, errors.ErrCodeInvalidSubstitution:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidMediaType:
		return http.StatusUnsupportedMediaType
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errors.ErrCodeInvalidFormat:
		return http.StatusNotAcceptable
	case errors.ErrCodeUnauthorized:
		return http.StatusForbidden
	case errors.ErrCodeTimeout:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
