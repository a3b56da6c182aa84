package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/onecard-labs/cardassist/pkg/logger"
)

// Handler centralizes error logging, Sentry forwarding, and the mapping
// from failures to user-visible text.
type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
	recordMetric  func(code, severity string)
}

// NewHandler builds a Handler. recordMetric may be nil.
func NewHandler(log *slog.Logger, sentryEnabled bool, recordMetric func(code, severity string)) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if recordMetric == nil {
		recordMetric = func(string, string) {}
	}

	return &Handler{
		log:           log,
		sentryEnabled: sentryEnabled,
		recordMetric:  recordMetric,
	}
}

// Handle logs the error and returns the message to show the user.
func (h *Handler) Handle(ctx context.Context, err error) string {
	if err == nil {
		return ""
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		attrs := []any{
			slog.String("code", appErr.Code),
			slog.String("message", appErr.Message),
			slog.String("severity", string(appErr.Severity)),
		}
		if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
			attrs = append(attrs, slog.String("correlation_id", correlationID))
		}

		h.log.Error("application error", attrs...)
		h.recordMetric(appErr.Code, string(appErr.Severity))

		if h.sentryEnabled && (appErr.Severity == SeverityCritical || appErr.Severity == SeverityHigh) {
			h.sendToSentry(err)
		}

		if appErr.UserMessage != "" {
			return appErr.UserMessage
		}
		return "Something went wrong. Please try again later."
	}

	attrs := []any{
		slog.String("message", err.Error()),
		slog.String("severity", string(SeverityHigh)),
	}
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	h.log.Error("unknown error", attrs...)
	h.recordMetric("unknown", string(SeverityHigh))

	if h.sentryEnabled {
		h.sendToSentry(err)
	}

	return "Something went wrong. Please try again later."
}

func (h *Handler) sendToSentry(err error) {
	sentry.WithScope(func(scope *sentry.Scope) {
		var appErr *AppError
		if errors.As(err, &appErr) && appErr != nil {
			if appErr.Code != "" {
				scope.SetTag("code", appErr.Code)
			}
			if appErr.Severity != "" {
				scope.SetTag("severity", string(appErr.Severity))
			}
		}

		sentry.CaptureException(err)
	})
}
