// Package web serves unfold over HTTP: upload a long CSV table, get the
// wide table back as CSV, JSON or an HTML preview.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/unfold/internal/config"
	"github.com/JonMunkholm/unfold/internal/core"
	mw "github.com/JonMunkholm/unfold/internal/web/middleware"
)

// Server is the HTTP front end of the unfold service.
type Server struct {
	cfg     *config.Config
	limiter *core.JobLimiter
	router  *chi.Mux
	server  *http.Server
}

// NewServer builds the router from cfg. Call Start to listen.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg:     cfg,
		limiter: core.NewJobLimiter(cfg.Unfold.MaxConcurrent, cfg.Unfold.MaxWaitTime),
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Unfold.Timeout))
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(s.cfg.Security.RequireAPIKey, s.cfg.Security.APIKeys))
		r.Post("/unfold", s.handleUnfold)
	})
}

// Start listens on addr until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: s.cfg.Server.ReadTimeout,
		IdleTimeout: s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for running jobs to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.limiter.WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

type healthResponse struct {
	Status string `json:"status"`
	core.LimiterStatus
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", LimiterStatus: s.limiter.Status()})
}

// securityHeaders sets conservative headers; the HTML preview needs no
// scripts or external resources.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; style-src 'self'")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v with the given status. Encoding errors are logged
// since the header is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", "error", err)
	}
}
