package ratelimit

import (
	"errors"
	"time"

	"github.com/onecard-labs/cardassist/pkg/config"
)

// Rules encapsulates the configured chat rate limits.
type Rules struct {
	config config.RateLimitConfig
}

// NewRules constructs rate limiting rules from configuration settings.
func NewRules(cfg config.RateLimitConfig) *Rules {
	return &Rules{config: cfg}
}

// Enabled reports whether rate limiting is switched on at all.
func (r *Rules) Enabled() bool {
	return r.config.Enabled
}

// PerSessionLimit returns the limit and window applied to each session.
func (r *Rules) PerSessionLimit() (int, time.Duration, error) {
	return parseRule(r.config.PerSession)
}

// GlobalLimit returns the limit and window shared by all sessions.
func (r *Rules) GlobalLimit() (int, time.Duration, error) {
	return parseRule(r.config.Global)
}

// SessionKey builds the limiter key for one session's utterances.
func SessionKey(sessionID string) string {
	return "session:" + sessionID
}

// GlobalKey is the limiter key shared by every chat turn.
const GlobalKey = "global"

func parseRule(rule config.RateLimitRule) (int, time.Duration, error) {
	if rule.Window == "" {
		return rule.Limit, 0, errors.New("window duration is not set")
	}
	window, err := time.ParseDuration(rule.Window)
	if err != nil {
		return 0, 0, err
	}
	return rule.Limit, window, nil
}
