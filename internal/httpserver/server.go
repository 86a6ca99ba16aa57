// internal/httpserver/server.go
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/marks/internal/config"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
	"github.com/MrSnakeDoc/marks/internal/httpserver/routes"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http     *http.Server
	logger   logger.Logger
	started  time.Time
	shutdown chan struct{}
	once     sync.Once
}

// NewRouter builds the router (middlewares, route registration).
func NewRouter(d deps.Deps) http.Handler {
	d = d.WithDefaults()
	r := chi.NewRouter()

	// --- Global middlewares (safe defaults)
	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)   // X-Request-ID on each request
	r.Use(middleware.Recoverer)   // never crash the process on panic
	r.Use(mw.Log(d.Logger))       // structured access logs
	r.Use(mw.CORS(d.CORSOrigins)) // browser origins from MARKS_CORS_ORIGINS

	routes.RegisterAll(r, d)
	return r
}

// New builds the HTTP server.
func New(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) *Server {
	shutdown := make(chan struct{})
	d.Logger = loggerClient
	d.Shutdown = shutdown

	s := &http.Server{
		Addr:              cfg.ListenPort,
		Handler:           NewRouter(d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// No WriteTimeout: it would cut long lived feed websockets.
		// REST routes are bounded by middleware.Timeout instead.
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return &Server{
		http:     s,
		logger:   loggerClient,
		started:  d.StartTime,
		shutdown: shutdown,
	}
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Infof("HTTP server listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	// http.ErrServerClosed is expected on graceful shutdown.
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop tells open feeds to close, then gracefully shuts down the server
// with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down...")
	s.once.Do(func() { close(s.shutdown) })
	return s.http.Shutdown(ctx)
}
