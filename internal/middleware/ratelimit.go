package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/onecard-labs/cardassist/internal/errors"
	"github.com/onecard-labs/cardassist/internal/ratelimit"
)

// SessionIDHeader carries the chat session for authenticated endpoints.
const SessionIDHeader = "X-Session-ID"

// RateLimitMiddleware enforces the global cap and a per-session limit on
// chat turns.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	log     *slog.Logger
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		log:     log,
	}
}

// Handle wraps next with rate limiting. A broken limit configuration fails
// open: throttling is protection, not a gate the service dies behind.
func (m *RateLimitMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.limiter == nil || m.rules == nil || !m.rules.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		if !m.allow(r, ratelimit.GlobalKey, m.rules.GlobalLimit) {
			m.reject(w)
			return
		}

		if sessionID := r.Header.Get(SessionIDHeader); sessionID != "" {
			if !m.allow(r, ratelimit.SessionKey(sessionID), m.rules.PerSessionLimit) {
				m.reject(w)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) allow(r *http.Request, key string, rule func() (int, time.Duration, error)) bool {
	limit, window, err := rule()
	if err != nil {
		m.log.Error("failed to load rate limit rule", slog.String("key", key), slog.Any("error", err))
		return true
	}

	result, err := m.limiter.Check(r.Context(), key, limit, window)
	if err != nil && !errors.Is(err, ratelimit.ErrLimitExceeded) {
		m.log.Error("rate limit check failed", slog.String("key", key), slog.Any("error", err))
		return true
	}

	return result != nil && result.Allowed
}

func (m *RateLimitMiddleware) reject(w http.ResponseWriter) {
	appErr := apperrors.NewRateLimitError()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": appErr.UserMessage})
}
