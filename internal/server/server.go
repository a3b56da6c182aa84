// Package server wires the HTTP surface: auth, chat turns, session assets,
// and the operational endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onecard-labs/cardassist/internal/account"
	"github.com/onecard-labs/cardassist/internal/auth"
	"github.com/onecard-labs/cardassist/internal/chat"
	apperrors "github.com/onecard-labs/cardassist/internal/errors"
	"github.com/onecard-labs/cardassist/internal/health"
	"github.com/onecard-labs/cardassist/internal/middleware"
	"github.com/onecard-labs/cardassist/internal/payment"
	"github.com/onecard-labs/cardassist/internal/session"
	"github.com/onecard-labs/cardassist/pkg/logger"
)

// Transcriber is the speech-to-text dependency of the server.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// Server holds the handler dependencies and builds the route table.
type Server struct {
	auth     *auth.Service
	chat     *chat.Service
	sessions session.Store
	links    *payment.LinkBuilder
	speech   Transcriber
	checker  *health.Checker
	errs     *apperrors.Handler
	rate     *middleware.RateLimitMiddleware
	log      *slog.Logger
}

// New constructs the Server.
func New(
	authSvc *auth.Service,
	chatSvc *chat.Service,
	sessions session.Store,
	links *payment.LinkBuilder,
	transcriber Transcriber,
	checker *health.Checker,
	errs *apperrors.Handler,
	rate *middleware.RateLimitMiddleware,
	log *slog.Logger,
) *Server {
	if log == nil {
		log = slog.Default()
	}

	return &Server{
		auth:     authSvc,
		chat:     chatSvc,
		sessions: sessions,
		links:    links,
		speech:   transcriber,
		checker:  checker,
		errs:     errs,
		rate:     rate,
		log:      log,
	}
}

// Routes assembles the mux and the middleware chain around it.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	mux.Handle("POST /api/chat/turn", s.rate.Handle(http.HandlerFunc(s.handleTurn)))
	mux.HandleFunc("GET /api/chat/history", s.handleHistory)

	mux.HandleFunc("GET /api/statement.pdf", s.handleStatementPDF)
	mux.HandleFunc("GET /api/analytics", s.handleAnalytics)
	mux.HandleFunc("GET /api/analytics/chart.png", s.handleAnalyticsChart)
	mux.HandleFunc("GET /api/payment/qr.png", s.handlePaymentQR)
	mux.HandleFunc("POST /api/speech-to-text", s.handleSpeechToText)

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = middleware.Metrics(handler)
	handler = middleware.Logging(s.log)(handler)
	handler = logger.Middleware(handler)
	handler = middleware.Recovery(s.log)(handler)

	return handler
}

// sessionID pulls the chat session from the request header.
func sessionID(r *http.Request) string {
	return r.Header.Get(middleware.SessionIDHeader)
}

// sessionAccount loads the snapshot for the request's session, writing the
// error response itself when the session is missing.
func (s *Server) sessionAccount(w http.ResponseWriter, r *http.Request) (*account.Account, bool) {
	id := sessionID(r)
	if id == "" {
		writeError(w, http.StatusUnauthorized, apperrors.NewSessionError().UserMessage)
		return nil, false
	}

	acct, err := s.sessions.Account(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(w, http.StatusUnauthorized, apperrors.NewSessionError().UserMessage)
			return nil, false
		}

		writeError(w, http.StatusInternalServerError, s.errs.Handle(r.Context(), apperrors.NewStorageError(err)))
		return nil, false
	}

	return acct, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
