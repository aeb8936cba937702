// Package http exposes the JSON API. Every data route runs behind a
// session token; auth routes and health probes are open.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"carteira/internal/auth"
	"carteira/internal/config"
	"carteira/internal/export"
	"carteira/internal/gateway"
	"carteira/internal/log"
	"carteira/internal/session"
)

type ctxKey int

const sessionKey ctxKey = iota

type Server struct {
	http.Server

	sessions   *session.Store
	auth       *auth.Provider
	categories gateway.CategoryStore
	exporter   *export.Exporter
	logger     *log.Logger

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer wires the routes. exporter may be nil when report export is
// not configured.
func NewServer(cfg *config.Config, sessions *session.Store, provider *auth.Provider, categories gateway.CategoryStore, exporter *export.Exporter, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.Port),
			Handler: mux,
		},
		sessions:    sessions,
		auth:        provider,
		categories:  categories,
		exporter:    exporter,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/auth/register", s.secured(s.handleRegister))
	mux.HandleFunc("POST /api/auth/login", s.secured(s.handleLogin))
	mux.HandleFunc("POST /api/auth/logout", s.secured(s.withSession(s.handleLogout)))
	mux.HandleFunc("GET /api/auth/me", s.secured(s.withSession(s.handleMe)))

	mux.HandleFunc("GET /api/accounts", s.secured(s.withSession(s.handleListAccounts)))
	mux.HandleFunc("POST /api/accounts", s.secured(s.withSession(s.handleCreateAccount)))
	mux.HandleFunc("PUT /api/accounts/{id}", s.secured(s.withSession(s.handleRenameAccount)))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.secured(s.withSession(s.handleDeleteAccount)))
	mux.HandleFunc("POST /api/accounts/{id}/select", s.secured(s.withSession(s.handleSelectAccount)))

	mux.HandleFunc("GET /api/categories", s.secured(s.withSession(s.handleListCategories)))
	mux.HandleFunc("GET /api/categories/{id}/subcategories", s.secured(s.withSession(s.handleListSubcategories)))

	mux.HandleFunc("GET /api/transactions", s.secured(s.withSession(s.handleListTransactions)))
	mux.HandleFunc("POST /api/transactions", s.secured(s.withSession(s.handleCreateTransaction)))
	mux.HandleFunc("PUT /api/transactions/{id}", s.secured(s.withSession(s.handleUpdateTransaction)))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.secured(s.withSession(s.handleDeleteTransaction)))
	mux.HandleFunc("GET /api/transactions/totals", s.secured(s.withSession(s.handleTotals)))

	mux.HandleFunc("GET /api/goals", s.secured(s.withSession(s.handleListGoals)))
	mux.HandleFunc("POST /api/goals", s.secured(s.withSession(s.handleCreateGoal)))
	mux.HandleFunc("PUT /api/goals/{id}", s.secured(s.withSession(s.handleUpdateGoal)))
	mux.HandleFunc("DELETE /api/goals/{id}", s.secured(s.withSession(s.handleDeleteGoal)))
	mux.HandleFunc("GET /api/goals/stats", s.secured(s.withSession(s.handleGoalStats)))
	mux.HandleFunc("POST /api/goals/{id}/contributions", s.secured(s.withSession(s.handleAddContribution)))
	mux.HandleFunc("GET /api/goals/{id}/contributions", s.secured(s.withSession(s.handleListContributions)))

	mux.HandleFunc("GET /api/limits", s.secured(s.withSession(s.handleListLimits)))
	mux.HandleFunc("POST /api/limits", s.secured(s.withSession(s.handleCreateLimit)))
	mux.HandleFunc("PUT /api/limits/{id}", s.secured(s.withSession(s.handleUpdateLimit)))
	mux.HandleFunc("DELETE /api/limits/{id}", s.secured(s.withSession(s.handleDeleteLimit)))
	mux.HandleFunc("GET /api/limits/progress", s.secured(s.withSession(s.handleLimitProgress)))
	mux.HandleFunc("POST /api/limits/check", s.secured(s.withSession(s.handleLimitCheck)))

	mux.HandleFunc("GET /api/notifications", s.secured(s.withSession(s.handleListNotifications)))
	mux.HandleFunc("DELETE /api/notifications/{id}", s.secured(s.withSession(s.handleDismissNotification)))
	mux.HandleFunc("DELETE /api/notifications", s.secured(s.withSession(s.handleClearNotifications)))

	mux.HandleFunc("GET /api/reports/summary", s.secured(s.withSession(s.handleReportSummary)))
	mux.HandleFunc("GET /api/reports/monthly", s.secured(s.withSession(s.handleReportMonthly)))
	mux.HandleFunc("GET /api/reports/categories", s.secured(s.withSession(s.handleReportCategories)))
	mux.HandleFunc("POST /api/reports/export", s.secured(s.withSession(s.handleReportExport)))

	return s
}

// Shutdown stops the server and its cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// secured adds security headers, rate limiting and request logging.
func (s *Server) secured(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		ctx := log.WithRequestID(r.Context(), generateRequestID())
		r = r.WithContext(ctx)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

// withSession resolves the bearer token into a session and stores it on
// the request context.
func (s *Server) withSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing session token")
			return
		}
		sess, ok := s.sessions.Get(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func currentSession(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(sessionKey).(*session.Session)
	return sess
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
