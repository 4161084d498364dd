// Package httpapi is the JSON/HTTP surface of the connector. It maps the
// scim.Service operations onto routes, translates typed failures into
// status codes with stable machine-readable error codes, and guards the
// API with bearer-token authentication.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/passcapture/internal/logging"
	"github.com/dmitrijs2005/passcapture/internal/scim"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	logger     logging.Logger
}

// New builds the router. An empty jwtSecret disables authentication; the
// health endpoint is always open.
func New(addr string, svc scim.Service, jwtSecret string, logger logging.Logger) *Server {
	handlers := NewHandlers(svc, logger)

	router := chi.NewRouter()
	router.Use(
		RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		RequestLogger(logger),
		middleware.Timeout(60*time.Second),
	)

	router.Get("/healthz", handlers.Healthz)
	router.Group(func(r chi.Router) {
		if jwtSecret != "" {
			r.Use(RequireAuth([]byte(jwtSecret)))
		}
		handlers.Routes(r)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router: router,
		logger: logger.With("module", "httpapi"),
	}
}

// Router exposes the chi router, mainly for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info(ctx, "starting http server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.httpServer.Shutdown(ctx)
}
