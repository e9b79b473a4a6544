package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "tourney/internal/log"
	"tourney/internal/middleware/ratelimit"
	"tourney/internal/middleware/security"
	"tourney/internal/middleware/trace"
	"tourney/internal/services"
	"tourney/internal/store"
)

// Options configures the API server.
type Options struct {
	Addr               string
	StoreTimeout       time.Duration
	RateLimitPerMinute int
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	mutations *services.MutationService
	dashboard *services.DashboardService
	store     *store.Store

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(opts Options, st *store.Store, mutations *services.MutationService, dashboard *services.DashboardService) *Server {
	mux := http.NewServeMux()

	limiterCfg := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limiterCfg.RequestsPerMinute = opts.RateLimitPerMinute
	}
	limiterCfg.Methods = ratelimit.WriteMethods()

	detector := security.NewDetector()
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		mutations: mutations,
		dashboard: dashboard,
		store:     st,
		limiter:   ratelimit.NewLimiter(limiterCfg),
		detector:  detector,
		tracer:    trace.NewMiddleware(opts.Logger, detector.ExtractClientIP),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	// Tournaments and teams
	mux.HandleFunc("GET /api/tournaments", s.handleListTournaments)
	mux.HandleFunc("POST /api/tournaments", s.handleCreateTournament)
	mux.HandleFunc("GET /api/tournaments/{id}", s.handleGetTournament)
	mux.HandleFunc("PATCH /api/tournaments/{id}", s.handleUpdateTournament)
	mux.HandleFunc("GET /api/teams", s.handleListTeams)
	mux.HandleFunc("POST /api/teams", s.handleCreateTeam)
	mux.HandleFunc("PATCH /api/teams/{id}", s.handleUpdateTeam)
	mux.HandleFunc("GET /api/tournaments/{id}/teams", s.handleTournamentTeams)
	mux.HandleFunc("POST /api/tournaments/{id}/teams", s.handleLinkTeam)
	mux.HandleFunc("DELETE /api/tournament-teams/{id}", s.handleUnlinkTeam)

	// Finance
	mux.HandleFunc("GET /api/tournaments/{id}/finance", s.handleFinance)
	mux.HandleFunc("POST /api/tournaments/{id}/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/finance/master", s.handleMasterFinance)

	// Rooming
	mux.HandleFunc("GET /api/tournaments/{id}/rooming", s.handleRooming)
	mux.HandleFunc("POST /api/tournaments/{id}/rooms", s.handleCreateRoom)
	mux.HandleFunc("PATCH /api/rooms/{id}", s.handleUpdateRoom)
	mux.HandleFunc("DELETE /api/rooms/{id}", s.handleDeleteRoom)
	mux.HandleFunc("POST /api/tournaments/{id}/coaches", s.handleCreateCoach)
	mux.HandleFunc("PATCH /api/coaches/{id}", s.handleUpdateCoach)
	mux.HandleFunc("DELETE /api/coaches/{id}", s.handleDeleteCoach)

	// Reminders
	mux.HandleFunc("GET /api/tournaments/{id}/reminders", s.handleReminders)
	mux.HandleFunc("POST /api/tournaments/{id}/reminders", s.handleCreateReminder)
	mux.HandleFunc("PATCH /api/reminders/{id}", s.handleUpdateReminder)
	mux.HandleFunc("PUT /api/reminders/{id}/status", s.handleSetReminderStatus)
	mux.HandleFunc("DELETE /api/reminders/{id}", s.handleDeleteReminder)

	s.Handler = chain(withTimeout(opts.StoreTimeout, mux),
		s.tracer.Middleware,
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
		s.detector.Middleware,
		s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			TooManyRequestsError().Write(w)
		}),
	)
	return s
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

// handleReady reports 503 until the store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Healthy(r.Context()); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err.Error())
		ErrorResponse(http.StatusServiceUnavailable, "store not ready").Write(w)
		return
	}
	NewJSONResponse().Data(map[string]string{"status": "ready"}).Write(w)
}
