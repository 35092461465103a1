// Package server exposes the arena over HTTP: the public battle, vote,
// and leaderboard endpoints plus the token-guarded admin surface.
package server

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/promptarena/arena/internal/application"
)

// Server holds the handlers and their dependencies.
type Server struct {
	orchestrator *application.Orchestrator
	ledger       *application.Ledger
	recomputer   *application.Recomputer
	leaderboard  *application.Leaderboard
	admin        *application.Admin

	adminToken string
	logger     zerolog.Logger
}

// New wires a server from the application services.
func New(
	orchestrator *application.Orchestrator,
	ledger *application.Ledger,
	recomputer *application.Recomputer,
	leaderboard *application.Leaderboard,
	admin *application.Admin,
	adminToken string,
	logger zerolog.Logger,
) *Server {
	return &Server{
		orchestrator: orchestrator,
		ledger:       ledger,
		recomputer:   recomputer,
		leaderboard:  leaderboard,
		admin:        admin,
		adminToken:   adminToken,
		logger:       logger.With().Str("component", "http").Logger(),
	}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(2 * time.Minute))
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/battle", s.handleStartBattle)
		r.Post("/vote", s.handleCastVote)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/stats", s.handleStats)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/recalculate", s.handleRecalculate)
			r.Get("/models", s.handleListModels)
			r.Post("/models", s.handleAddModel)
			r.Patch("/models/{id}", s.handleUpdateModel)
			r.Post("/models/{id}/status", s.handleSetModelStatus)
			r.Get("/logs", s.handleAuditLogs)
		})
	})

	return r
}

// requestLogger emits one structured line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// requireAdmin enforces the bearer token on admin routes. With no token
// configured the whole admin surface is disabled.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken == "" {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "admin API disabled")
			return
		}
		const prefix = "Bearer "
		auth := r.Header.Get("Authorization")
		if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix ||
			subtle.ConstantTimeCompare([]byte(auth[len(prefix):]), []byte(s.adminToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "AUTH_ERROR", "invalid admin token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
