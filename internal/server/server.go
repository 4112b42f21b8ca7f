// Package server exposes the conversion pipeline over HTTP.
//
// # Routes
//
//	GET  /healthz       build information
//	POST /v1/convert    archive body in, one rendered artifact out
//	POST /v1/inspect    archive body in, JSON summary out
//	POST /v1/scene      archive body in, DOT or SVG scene diagram out
//
// Convert accepts the query parameters format, batch, orientation,
// primitive, half_width, refresh and source; orientation=oriented is only
// accepted together with primitive=lines. Its response carries the number
// of skipped items in X-Quill-Errors and the geometry cache status in
// X-Quill-Cache. Every response echoes X-Request-ID, taken from the request
// when present.
//
// Errors are returned as JSON:
//
//	{"error": {"code": "INVALID_ARCHIVE", "message": "missing member \"Quill.qbin\""}, "request_id": "..."}
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/quillribbon/pkg/pipeline"
)

// Response headers.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderErrors    = "X-Quill-Errors"
	HeaderCache     = "X-Quill-Cache"
)

// DefaultMaxUpload is the request body limit used when Config leaves it unset.
const DefaultMaxUpload = 64 << 20

// Config configures a [Server].
type Config struct {
	// Defaults are the pipeline options query parameters override.
	Defaults pipeline.Options

	// MaxUpload limits request bodies, in bytes.
	MaxUpload int64

	Logger *log.Logger
}

// Server serves the conversion API.
type Server struct {
	runner    *pipeline.Runner
	defaults  pipeline.Options
	maxUpload int64
	logger    *log.Logger
	router    chi.Router
}

// New creates a server that converts with runner.
func New(runner *pipeline.Runner, cfg Config) *Server {
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultMaxUpload
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	s := &Server{
		runner:    runner,
		defaults:  cfg.Defaults,
		maxUpload: cfg.MaxUpload,
		logger:    cfg.Logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/convert", s.handleConvert)
		r.Post("/inspect", s.handleInspect)
		r.Post("/scene", s.handleScene)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" not allowed on "+r.URL.Path)
	})
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
