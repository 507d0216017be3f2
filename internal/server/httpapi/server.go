// Package httpapi exposes the sync backend over HTTP: session management
// under /auth and snapshot plus event-log operations under /sync.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/trueheartapps/versesync/internal/logging"
	"github.com/trueheartapps/versesync/internal/server/syncdata"
	"github.com/trueheartapps/versesync/internal/server/users"
)

type Server struct {
	http     *http.Server
	logger   logging.Logger
	users    *users.Service
	syncdata *syncdata.Service
}

// New builds the HTTP server: router, middlewares, route registration.
func New(addr string, logger logging.Logger, userService *users.Service, syncService *syncdata.Service) *Server {
	s := &Server{
		logger:   logger,
		users:    userService,
		syncdata: syncService,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/validate", s.handleValidate)
	})

	r.Route("/sync", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/save", s.handleSave)
		r.Get("/load", s.handleLoad)
		r.Get("/check", s.handleCheck)
		r.Post("/event", s.handleAppendEvents)
		r.Get("/events", s.handleListEvents)
	})

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
