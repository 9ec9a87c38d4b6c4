// Package http exposes the JSON API: account endpoints, per-user
// transaction CRUD, the aggregation views and report export.
package http

import (
	"context"
	"net/http"
	"sync"

	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

type Server struct {
	http.Server

	authSvc *services.AuthService
	txSvc   *services.TransactionService

	limiter      *ratelimit.Limiter
	ready        func(ctx context.Context) error
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware and returns a ready-to-run server.
// ready is the readiness probe dependency check; nil means always ready.
func NewServer(addr string, authSvc *services.AuthService, txSvc *services.TransactionService, ready func(ctx context.Context) error) *Server {
	s := &Server{
		authSvc: authSvc,
		txSvc:   txSvc,
		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		ready:   ready,
	}

	extractor := security.NewIPExtractor()

	// Credential endpoints are the brute force surface; everything behind
	// a token is left to the token itself.
	limited := s.limiter.Middleware(extractor.ExtractClientIP, nil)

	mux := http.NewServeMux()

	mux.Handle("POST /api/auth/register", limited(http.HandlerFunc(s.handleRegister)))
	mux.Handle("POST /api/auth/login", limited(http.HandlerFunc(s.handleLogin)))
	mux.Handle("POST /api/auth/change-password", limited(s.withAuth(s.handleChangePassword)))

	mux.HandleFunc("GET /api/transactions", s.withAuth(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withAuth(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withAuth(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withAuth(s.handleDeleteTransaction))
	mux.HandleFunc("GET /api/transactions/summary", s.withAuth(s.handleSummary))
	mux.HandleFunc("GET /api/transactions/recent", s.withAuth(s.handleRecent))
	mux.HandleFunc("GET /api/transactions/by-month", s.withAuth(s.handleByMonth))
	mux.HandleFunc("GET /api/transactions/by-category", s.withAuth(s.handleByCategory))
	mux.HandleFunc("POST /api/transactions/export", s.withAuth(s.handleExport))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(extractor.ExtractClientIP)

	s.Server = http.Server{
		Addr:    addr,
		Handler: headers.Middleware(tracer.Middleware(mux)),
	}
	return s
}

// Shutdown stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, errorBody{Message: "Not ready"})
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
