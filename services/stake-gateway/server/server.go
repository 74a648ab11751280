// Package server exposes the staking engine over HTTP. Routing, auth,
// idempotency, throttling, and tracing all live here; the handlers stay thin
// and delegate to the staking and leaderboard services.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"

	"boopstake/observability"
	"boopstake/services/stake-gateway/auth"
	"boopstake/services/stake-gateway/leaderboard"
	stakemw "boopstake/services/stake-gateway/middleware"
	"boopstake/services/stake-gateway/staking"
)

// Config captures the dependencies required to construct the server.
type Config struct {
	DB          *gorm.DB
	Staking     *staking.Service
	Leaderboard *leaderboard.Service
	Verifier    *auth.Verifier
	Log         *slog.Logger
	RateLimits  map[string]stakemw.RateLimit
}

// Server encapsulates dependencies for the HTTP API.
type Server struct {
	db          *gorm.DB
	staking     *staking.Service
	leaderboard *leaderboard.Service
	verifier    *auth.Verifier
	log         *slog.Logger

	router http.Handler
}

const serviceName = "stake-gateway"

// Rate limit classes referenced by the router.
const (
	limitClassRead   = "read"
	limitClassMutate = "mutate"
)

// DefaultRateLimits shape anonymous-free API traffic sensibly when the
// operator does not tune them.
func DefaultRateLimits() map[string]stakemw.RateLimit {
	return map[string]stakemw.RateLimit{
		limitClassRead:   {RequestsPerMinute: 240, Burst: 40},
		limitClassMutate: {RequestsPerMinute: 60, Burst: 10},
	}
}

// New constructs a configured HTTP router with authentication, idempotency,
// and observability support.
func New(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	srv := &Server{
		db:          cfg.DB,
		staking:     cfg.Staking,
		leaderboard: cfg.Leaderboard,
		verifier:    cfg.Verifier,
		log:         log,
	}
	limits := cfg.RateLimits
	if limits == nil {
		limits = DefaultRateLimits()
	}
	srv.router = srv.buildRouter(stakemw.NewRateLimiter(limits, log))
	return srv
}

// Handler exposes the configured HTTP router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter(rl *stakemw.RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", observability.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(s.verifier.Middleware)

		api.Group(func(read chi.Router) {
			read.Use(rl.Middleware(limitClassRead))
			read.With(stakemw.WithObservability(serviceName, "status")).Get("/status", s.handleStatus)
			read.With(stakemw.WithObservability(serviceName, "stakes.list")).Get("/stakes", s.handleListStakes)
			read.With(stakemw.WithObservability(serviceName, "leaderboard")).Get("/leaderboard", s.handleLeaderboard)
			read.With(stakemw.WithObservability(serviceName, "leaderboard.me")).Get("/leaderboard/me", s.handleLeaderboardMe)
		})

		api.Group(func(mutate chi.Router) {
			mutate.Use(rl.Middleware(limitClassMutate))
			mutate.Use(func(next http.Handler) http.Handler { return stakemw.WithIdempotency(s.db, next) })
			mutate.With(stakemw.WithObservability(serviceName, "stakes.create")).Post("/stakes", s.handleCreateStake)
			mutate.With(stakemw.WithObservability(serviceName, "stakes.unstake")).Post("/stakes/{id}/unstake", s.handleRequestUnstake)
			mutate.With(stakemw.WithObservability(serviceName, "stakes.withdraw")).Post("/stakes/{id}/withdraw", s.handleWithdrawStake)
			mutate.With(stakemw.WithObservability(serviceName, "rewards.claim")).Post("/rewards/claim", s.handleClaim)
			mutate.With(stakemw.WithObservability(serviceName, "rewards.withdraw")).Post("/rewards/withdraw", s.handleWithdrawRewards)
			mutate.With(stakemw.WithObservability(serviceName, "boosts.activate")).Post("/boosts", s.handleActivateBoost)
			mutate.With(stakemw.WithObservability(serviceName, "nft.grant")).Post("/nft/grant", s.handleGrantNft)
		})
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]string{"status": "ok"}
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(r.Context()) != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}
	s.writeJSON(w, status, body)
}

// caller resolves the authenticated handle and guarantees the user row
// exists before any engine call.
func (s *Server) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	handle, ok := auth.HandleFromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return "", false
	}
	if _, err := s.staking.EnsureUser(r.Context(), handle); err != nil {
		s.writeEngineError(w, err)
		return "", false
	}
	return handle, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeEngineError maps a staking rejection onto an HTTP status, returning
// the structured error as the body so clients can branch on the kind.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	engineErr, ok := staking.AsEngineError(err)
	if !ok {
		s.log.Error("request failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"kind":    string(staking.KindInternal),
			"message": "internal error",
		})
		return
	}
	s.writeJSON(w, statusForKind(engineErr.Kind), engineErr)
}

func statusForKind(kind staking.Kind) int {
	switch kind {
	case staking.KindValidation:
		return http.StatusBadRequest
	case staking.KindNotFound:
		return http.StatusNotFound
	case staking.KindInvalidState, staking.KindAlreadyWithdrawn:
		return http.StatusConflict
	case staking.KindStillLocked:
		return http.StatusLocked
	case staking.KindTooEarly:
		return http.StatusTooEarly
	case staking.KindInsufficientStake:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ListenAndServe runs the server until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return httpServer.ListenAndServe()
}
