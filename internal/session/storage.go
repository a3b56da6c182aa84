// Package session persists per-session chat data: the account snapshot,
// the dialogue state, the append-only message log, and the turn lock.
package session

import (
	"context"
	"errors"

	"github.com/onecard-labs/cardassist/internal/account"
	"github.com/onecard-labs/cardassist/internal/dialogue"
)

var (
	// ErrSessionNotFound indicates no account snapshot exists for the session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStateNotFound indicates no dialogue state record exists yet.
	ErrStateNotFound = errors.New("dialogue state not found")
	// ErrTurnInFlight indicates another turn currently holds the session lock.
	ErrTurnInFlight = errors.New("a turn is already in flight for this session")
)

// AccountStore is the session-scoped account snapshot persistence contract.
type AccountStore interface {
	// Account returns the snapshot for the session or ErrSessionNotFound.
	Account(ctx context.Context, sessionID string) (*account.Account, error)
	// PutAccount saves the snapshot for the session.
	PutAccount(ctx context.Context, sessionID string, acct *account.Account) error
	// DeleteAccount removes the snapshot, ending the session.
	DeleteAccount(ctx context.Context, sessionID string) error
}

// StateStore persists dialogue state between turns.
type StateStore interface {
	// State returns the stored dialogue state or ErrStateNotFound.
	State(ctx context.Context, sessionID string) (dialogue.State, error)
	// SaveState stores the dialogue state for the session.
	SaveState(ctx context.Context, sessionID string, st dialogue.State) error
	// ClearState removes the dialogue state for the session.
	ClearState(ctx context.Context, sessionID string) error
}

// MessageLog is the append-only chat transcript for a session. Messages are
// only ever appended; the provisional streaming slot never enters the log.
type MessageLog interface {
	AppendMessages(ctx context.Context, sessionID string, msgs ...dialogue.Message) error
	History(ctx context.Context, sessionID string) ([]dialogue.Message, error)
}

// TurnLocker serializes turns: at most one utterance is processed at a time
// for a session, including any fallback round trip.
type TurnLocker interface {
	// AcquireTurn takes the session lock or returns ErrTurnInFlight.
	AcquireTurn(ctx context.Context, sessionID string) error
	// ReleaseTurn releases the session lock.
	ReleaseTurn(ctx context.Context, sessionID string)
}

// Store bundles every per-session persistence concern.
type Store interface {
	AccountStore
	StateStore
	MessageLog
	TurnLocker
}
