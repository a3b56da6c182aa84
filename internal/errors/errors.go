// Package errors defines the application error taxonomy and the central
// handler turning failures into user-visible replies.
package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError carries an internal message for logs and a user-facing message
// for the chat surface. Nothing here is retried automatically; the user
// re-issues the action.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// NewSessionError reports a missing or expired session. Terminal for the
// turn: the user must log in again.
func NewSessionError() *AppError {
	return &AppError{
		Code:        "E100",
		Message:     "no account snapshot for session",
		UserMessage: "Session expired. Please login again.",
		Severity:    SeverityLow,
	}
}

// NewFallbackError reports a transport failure talking to the remote
// fallback chat service.
func NewFallbackError(cause error) *AppError {
	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("fallback chat unavailable: %v", cause),
		UserMessage: "⚠ Server unavailable. Try again later.",
		Severity:    SeverityMedium,
		cause:       cause,
	}
}

// NewSpeechError reports a failed or empty speech-to-text result.
func NewSpeechError(cause error) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     fmt.Sprintf("speech-to-text failed: %v", cause),
		UserMessage: "⚠ Voice service error, please try again.",
		Severity:    SeverityMedium,
		cause:       cause,
	}
}

// NewStorageError reports a session/identity persistence failure.
func NewStorageError(cause error) *AppError {
	var underlying string
	if cause != nil {
		underlying = cause.Error()
	}

	return &AppError{
		Code:        "E400",
		Message:     fmt.Sprintf("storage error: %s", underlying),
		UserMessage: "Something went wrong on our side. Please try again.",
		Severity:    SeverityHigh,
		cause:       cause,
	}
}

// NewValidationError reports malformed user input.
func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     msg,
		UserMessage: msg,
		Severity:    SeverityLow,
	}
}

// NewRateLimitError reports an exhausted rate limit.
func NewRateLimitError() *AppError {
	return &AppError{
		Code:        "E600",
		Message:     "rate limit exceeded",
		UserMessage: "You're sending messages too quickly. Give it a moment.",
		Severity:    SeverityLow,
	}
}
