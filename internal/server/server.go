// Package server exposes the scrape pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/law-makers/bounty/pkg/models"
	"github.com/rs/zerolog/log"
)

// Scraper runs one scrape for a target url
type Scraper interface {
	Run(ctx context.Context, url string) (models.ResponsePayload, error)
}

// BrowserStatus reports whether the shared browser is running
type BrowserStatus interface {
	Active() bool
}

// StoreStats reports how many bounties have been seen
type StoreStats interface {
	Len() int
}

// Options configures a Server
type Options struct {
	Addr            string
	AllowedOrigin   string
	Scraper         Scraper
	Browser         BrowserStatus
	Store           StoreStats
	ShutdownTimeout time.Duration
}

// Server is the HTTP front of the scrape service
type Server struct {
	opts      Options
	router    *mux.Router
	http      *http.Server
	startTime time.Time
}

// New creates a Server with its routes registered
func New(opts Options) *Server {
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		opts:      opts,
		router:    mux.NewRouter(),
		startTime: time.Now(),
	}
	s.setupRoutes()

	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// Scrapes may take the full navigation timeout
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.recoverMiddleware, s.requestIDMiddleware, s.corsMiddleware, s.logMiddleware)

	s.router.HandleFunc("/scrape", s.handleScrape).Methods(http.MethodGet)
	s.router.HandleFunc("/scrape", s.handlePreflight).Methods(http.MethodOptions)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	s.router.NotFoundHandler = s.corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	}))
	s.router.MethodNotAllowedHandler = s.corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}))
}

// Handler returns the routed handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	log.Info().Msg("Shutting down HTTP server")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown incomplete")
		return err
	}
	return nil
}

// Uptime returns how long the server has existed
func (s *Server) Uptime() time.Duration {
	return time.Since(s.startTime)
}
