// Package http serves the JSON API a client screen drives: sign-up and
// sessions, the transaction ledger, the monthly budget, and the reports.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

const (
	maxBodyBytes      = 64 << 10
	defaultAuthPerMin = 10
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 60 * time.Second
)

type Option func(*Server)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithAuthRateLimit caps signup and login attempts per client per minute.
func WithAuthRateLimit(perMinute int) Option {
	return func(s *Server) { s.authPerMin = perMinute }
}

// WithReadiness replaces the /readyz probe.
func WithReadiness(check func(context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

type Server struct {
	http.Server

	finance    *services.FinanceService
	auth       *auth.Service
	logger     *log.Logger
	detector   *security.Detector
	limiter    *ratelimit.Limiter
	tracer     *trace.Middleware
	ready      func(context.Context) error
	authPerMin int

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, finance *services.FinanceService, authSvc *auth.Service, opts ...Option) *Server {
	s := &Server{
		finance:    finance,
		auth:       authSvc,
		logger:     log.Nop(),
		detector:   security.NewDetector(),
		authPerMin: defaultAuthPerMin,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentHTTP)
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: s.authPerMin})
	s.tracer = trace.NewMiddleware(s.logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	throttle := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many attempts, try again later"})
	})

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.Handle("POST /api/signup", throttle(http.HandlerFunc(s.handleSignup)))
	mux.Handle("POST /api/login", throttle(http.HandlerFunc(s.handleLogin)))
	mux.HandleFunc("POST /api/logout", s.handleLogout)

	mux.HandleFunc("GET /api/ledger", s.authenticated(s.handleOpenLedger))
	mux.HandleFunc("POST /api/ledger/reconcile", s.authenticated(s.handleReconcile))
	mux.HandleFunc("GET /api/dashboard", s.authenticated(s.handleDashboard))
	mux.HandleFunc("POST /api/transactions", s.authenticated(s.handleAddTransaction))
	mux.HandleFunc("PUT /api/transactions", s.authenticated(s.handleEditTransaction))
	mux.HandleFunc("DELETE /api/transactions", s.authenticated(s.handleRemoveTransaction))
	mux.HandleFunc("GET /api/budget", s.authenticated(s.handleGetBudget))
	mux.HandleFunc("PUT /api/budget", s.authenticated(s.handleSetBudget))
	mux.HandleFunc("GET /api/reports", s.authenticated(s.handleReports))

	var h http.Handler = mux
	h = s.detector.Middleware(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "request rejected"})
	})(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)
	h = log.RequestIDMiddleware(trace.RequestIDFromHeader)(h)
	h = log.Middleware(s.logger)(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s
}

// Shutdown stops the limiter cleanup and drains the HTTP server. Safe to call
// more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// Metrics reports the request counters of the tracing middleware.
func (s *Server) Metrics() trace.Metrics { return s.tracer.GetMetrics() }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
