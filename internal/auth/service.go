// Package auth registers cardholders and opens chat sessions. Registration
// stores an identity in Postgres; login seeds the demo account snapshot
// into the session store under a fresh session ID.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/onecard-labs/cardassist/internal/account"
	apperrors "github.com/onecard-labs/cardassist/internal/errors"
	"github.com/onecard-labs/cardassist/internal/identity"
	"github.com/onecard-labs/cardassist/internal/session"
	"github.com/onecard-labs/cardassist/pkg/metrics"
)

// ErrInvalidCredentials is returned when the phone/PIN pair does not match
// a registered identity. Deliberately the same for unknown phone and wrong
// PIN.
var ErrInvalidCredentials = errors.New("invalid phone or pin")

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=60"`
	Phone     string `json:"phone" validate:"required,len=10,numeric"`
	Email     string `json:"email" validate:"required,email"`
	CardLast4 string `json:"card_last4" validate:"required,len=4,numeric"`
	PIN       string `json:"pin" validate:"required,len=6,numeric"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Phone string `json:"phone" validate:"required,len=10,numeric"`
	PIN   string `json:"pin" validate:"required,len=6,numeric"`
}

// Session is the result of a successful login.
type Session struct {
	ID      string           `json:"session_id"`
	Account *account.Account `json:"account"`
}

// Service implements registration and session lifecycle.
type Service struct {
	repo     identity.Repository
	sessions session.Store
	validate *validator.Validate
	log      *slog.Logger
}

// NewService constructs a new Service instance.
func NewService(repo identity.Repository, sessions session.Store, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		validate: validator.New(),
		log:      log,
	}
}

// Register creates a new identity. The PIN is stored as a bcrypt hash.
func (s *Service) Register(ctx context.Context, req RegisterRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return apperrors.NewValidationError(validationMessage(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.NewStorageError(fmt.Errorf("hash pin: %w", err))
	}

	ident := &identity.Identity{
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		CardLast4: req.CardLast4,
		PINHash:   string(hash),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, ident); err != nil {
		if errors.Is(err, identity.ErrPhoneTaken) {
			return apperrors.NewValidationError("This phone number is already registered.")
		}

		s.logError("register", req.Phone, err)
		return apperrors.NewStorageError(err)
	}

	s.log.Info("identity registered", slog.String("phone", req.Phone))
	return nil
}

// Login verifies the phone/PIN pair, mints a session ID, and seeds the
// session store with the demo account snapshot.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.NewValidationError(validationMessage(err))
	}

	ident, err := s.repo.FindByPhone(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		s.logError("login.find", req.Phone, err)
		return nil, apperrors.NewStorageError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(ident.PINHash), []byte(req.PIN)); err != nil {
		return nil, ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	acct := account.DemoSnapshot(ident.Name, ident.Phone, ident.Email, ident.CardLast4)

	if err := s.sessions.PutAccount(ctx, sessionID, acct); err != nil {
		s.logError("login.seed", req.Phone, err)
		return nil, apperrors.NewStorageError(err)
	}

	metrics.SessionOpened()
	s.log.Info("session opened", slog.String("session_id", sessionID))

	return &Session{ID: sessionID, Account: acct}, nil
}

// Logout ends the session: the snapshot, dialogue state, and transcript
// are removed together.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.DeleteAccount(ctx, sessionID); err != nil {
		s.logError("logout", sessionID, err)
		return apperrors.NewStorageError(err)
	}

	metrics.SessionClosed()
	s.log.Info("session closed", slog.String("session_id", sessionID))
	return nil
}

func (s *Service) logError(operation, subject string, err error) {
	if s == nil || s.log == nil || err == nil {
		return
	}

	s.log.Error("auth operation failed",
		slog.String("operation", operation),
		slog.String("subject", subject),
		slog.Any("error", err),
	)
}

// validationMessage flattens the first validator failure into copy the
// login form can show.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request."
	}

	f := verrs[0]
	switch f.Field() {
	case "Phone":
		return "Phone number must be exactly 10 digits."
	case "PIN":
		return "PIN must be exactly 6 digits."
	case "CardLast4":
		return "Card digits must be the last 4 of your card."
	case "Email":
		return "Please enter a valid email address."
	case "Name":
		return "Please enter your name."
	default:
		return "Invalid request."
	}
}
