// Package api provides the HTTP server that exposes FlowState to the chat route.
//
// It serves session, flow and message endpoints over a chi router and wires the
// flow manager and dispatcher to the configured store backend.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/BTreeMap/FlowState/internal/flow"
	"github.com/BTreeMap/FlowState/internal/store"
)

// Default configuration constants
const (
	// DefaultServerAddress is the default HTTP server address
	DefaultServerAddress = ":8080"
	// DefaultShutdownTimeout bounds how long in-flight requests may take after a stop signal
	DefaultShutdownTimeout = 10 * time.Second
	// DefaultRequestTimeout bounds a single request
	DefaultRequestTimeout = 15 * time.Second
	// maxRequestBodyBytes bounds request bodies
	maxRequestBodyBytes = 1 << 20
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr            string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the HTTP server address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithAllowedOrigins sets the CORS allowed origins.
func WithAllowedOrigins(origins []string) Option {
	return func(o *Opts) { o.AllowedOrigins = origins }
}

// WithShutdownTimeout sets how long graceful shutdown waits for in-flight requests.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Opts) { o.ShutdownTimeout = d }
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Opts) { o.RequestTimeout = d }
}

func applyOptions(opts []Option) Opts {
	cfg := Opts{
		Addr:            DefaultServerAddress,
		AllowedOrigins:  []string{"*"},
		ShutdownTimeout: DefaultShutdownTimeout,
		RequestTimeout:  DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultServerAddress
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	return cfg
}

// Server holds all dependencies for the API server.
type Server struct {
	manager    *flow.Manager
	dispatcher *flow.Dispatcher
	opts       Opts
	router     chi.Router
	newID      func() string
}

// NewServer creates a Server over an already opened store.
func NewServer(st store.Store, flowOpts []flow.ManagerOption, opts ...Option) *Server {
	manager := flow.NewManager(st, flowOpts...)
	s := &Server{
		manager:    manager,
		dispatcher: flow.NewDispatcher(manager),
		opts:       applyOptions(opts),
		newID:      newSessionID,
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/ping", s.pingHandler)
	r.Post("/extract/contact", s.extractContactHandler)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSessionHandler)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/state", s.getStateHandler)
			r.Delete("/state", s.clearStateHandler)
			r.Patch("/data", s.updateDataHandler)
			r.Post("/flows/order", s.startOrderHandler)
			r.Post("/flows/ocr-invoice", s.startOCRInvoiceHandler)
			r.Post("/flows/crud-confirmation", s.startCRUDConfirmationHandler)
			r.Post("/messages", s.messageHandler)
		})
	})
	return r
}

// Run opens the store backend, serves the API and shuts down gracefully on SIGINT or SIGTERM.
func Run(backend store.Backend, storeOpts []store.Option, flowOpts []flow.ManagerOption, apiOpts []Option) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, backend, storeOpts...)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", backendName(backend), err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			slog.Error("API Run: failed to close store", "error", cerr)
		}
	}()
	slog.Info("API Run: store opened", "backend", backendName(backend))

	s := NewServer(st, flowOpts, apiOpts...)
	return s.serve(ctx)
}

func (s *Server) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			slog.Error("API server failed", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
		slog.Info("API server shutting down", "timeout", s.opts.ShutdownTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("API server shutdown failed", "error", err)
		return err
	}
	slog.Info("API server stopped")
	return nil
}

func backendName(b store.Backend) store.Backend {
	if b == "" {
		return store.BackendMemory
	}
	return b
}
