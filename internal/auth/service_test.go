package auth

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/onecard-labs/cardassist/internal/errors"
	"github.com/onecard-labs/cardassist/internal/identity"
	"github.com/onecard-labs/cardassist/internal/session"
)

type fakeRepo struct {
	byPhone map[string]*identity.Identity
	nextID  int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byPhone: make(map[string]*identity.Identity)}
}

func (r *fakeRepo) FindByPhone(_ context.Context, phone string) (*identity.Identity, error) {
	ident, ok := r.byPhone[phone]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return ident, nil
}

func (r *fakeRepo) Create(_ context.Context, ident *identity.Identity) error {
	if _, ok := r.byPhone[ident.Phone]; ok {
		return identity.ErrPhoneTaken
	}
	r.nextID++
	ident.ID = r.nextID
	r.byPhone[ident.Phone] = ident
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo, session.Store) {
	t.Helper()
	repo := newFakeRepo()
	sessions := session.NewMemoryStore()
	svc := NewService(repo, sessions, slog.New(slog.DiscardHandler))
	return svc, repo, sessions
}

func validRegistration() RegisterRequest {
	return RegisterRequest{
		Name:      "Asha Rao",
		Phone:     "9876543210",
		Email:     "asha@example.com",
		CardLast4: "4242",
		PIN:       "123456",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, validRegistration()))

	stored := repo.byPhone["9876543210"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "123456", stored.PINHash, "pin must not be stored in the clear")

	sess, err := svc.Login(ctx, LoginRequest{Phone: "9876543210", PIN: "123456"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	require.NotNil(t, sess.Account)

	// Login seeds the canned demo snapshot against the real identity.
	assert.Equal(t, "Asha Rao", sess.Account.Name)
	assert.Equal(t, "4242", sess.Account.CardLast4)
	assert.Equal(t, int64(150000), sess.Account.CreditLimit)
	assert.Equal(t, int64(87000), sess.Account.AvailableCredit)
	assert.Equal(t, int64(12500), sess.Account.Bill.Amount)
}

func TestLogin_SeedsSessionStore(t *testing.T) {
	svc, _, sessions := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, validRegistration()))
	sess, err := svc.Login(ctx, LoginRequest{Phone: "9876543210", PIN: "123456"})
	require.NoError(t, err)

	acct, err := sessions.Account(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Account.Name, acct.Name)
}

func TestLogin_WrongPIN(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, validRegistration()))

	_, err := svc.Login(ctx, LoginRequest{Phone: "9876543210", PIN: "654321"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownPhone(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), LoginRequest{Phone: "9999999999", PIN: "123456"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_DuplicatePhone(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, validRegistration()))

	err := svc.Register(ctx, validRegistration())
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "E500", appErr.Code)
	assert.Equal(t, "This phone number is already registered.", appErr.UserMessage)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*RegisterRequest)
		message string
	}{
		{
			name:    "short phone",
			mutate:  func(r *RegisterRequest) { r.Phone = "12345" },
			message: "Phone number must be exactly 10 digits.",
		},
		{
			name:    "alpha pin",
			mutate:  func(r *RegisterRequest) { r.PIN = "abcdef" },
			message: "PIN must be exactly 6 digits.",
		},
		{
			name:    "bad email",
			mutate:  func(r *RegisterRequest) { r.Email = "not-an-email" },
			message: "Please enter a valid email address.",
		},
		{
			name:    "card digits",
			mutate:  func(r *RegisterRequest) { r.CardLast4 = "42" },
			message: "Card digits must be the last 4 of your card.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegistration()
			tt.mutate(&req)

			err := svc.Register(ctx, req)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.message, appErr.UserMessage)
		})
	}
}

func TestLogout(t *testing.T) {
	svc, _, sessions := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, validRegistration()))
	sess, err := svc.Login(ctx, LoginRequest{Phone: "9876543210", PIN: "123456"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, sess.ID))

	_, err = sessions.Account(ctx, sess.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}
