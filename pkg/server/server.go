package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace"
)

// Server is the HTTP/WebSocket front of resumable documents.
type Server struct {
	config   *Config
	router   chi.Router
	upgrader websocket.Upgrader
	metrics  *Metrics
	tracer   trace.Tracer
	logger   *slog.Logger

	httpServer *http.Server
}

// New creates a Server. Unset fields of config take their defaults.
func New(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	config = config.withDefaults()

	s := &Server{
		config:  config,
		metrics: config.Metrics,
		tracer:  newTracer(config),
		logger:  config.Logger.With("component", "server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     config.CheckOrigin,
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/_rs/dispatch/{id}", s.metrics.instrument("dispatch", s.serveDispatch))
	r.Get("/_rs/live/{id}", s.metrics.instrument("live", s.serveLive))
	if s.metrics != nil {
		r.Handle(config.MetricsPath, s.metrics.Handler())
	}
	s.router = r
	return s
}

// Handle registers page under a chi route pattern.
func (s *Server) Handle(pattern string, page Page) {
	s.router.Get(pattern, s.metrics.instrument(pattern, s.servePage(page)))
}

// Handler returns the server's routes for mounting in other routers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Config returns the effective configuration.
func (s *Server) Config() *Config {
	return s.config
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Run serves until ctx is done, SIGINT or SIGTERM arrives, or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully stops the HTTP server and closes the snapshot
// store.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	if err := s.config.Store.Close(); err != nil {
		s.logger.Error("snapshot store close", "error", err)
		return err
	}
	s.logger.Info("server shutdown complete")
	return nil
}
