package session

import (
	"context"
	"sync"

	"github.com/onecard-labs/cardassist/internal/account"
	"github.com/onecard-labs/cardassist/internal/dialogue"
)

// MemoryStore is an in-process Store for development and tests. It ignores
// TTLs; everything lives until deleted or the process exits.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]*account.Account
	states   map[string]dialogue.State
	logs     map[string][]dialogue.Message
	locks    map[string]bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*account.Account),
		states:   make(map[string]dialogue.State),
		logs:     make(map[string][]dialogue.Message),
		locks:    make(map[string]bool),
	}
}

func (s *MemoryStore) Account(_ context.Context, sessionID string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return acct.Clone(), nil
}

func (s *MemoryStore) PutAccount(_ context.Context, sessionID string, acct *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[sessionID] = acct.Clone()
	return nil
}

func (s *MemoryStore) DeleteAccount(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.accounts, sessionID)
	delete(s.states, sessionID)
	delete(s.logs, sessionID)
	return nil
}

func (s *MemoryStore) State(_ context.Context, sessionID string) (dialogue.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[sessionID]
	if !ok {
		return dialogue.State{}, ErrStateNotFound
	}
	return st, nil
}

func (s *MemoryStore) SaveState(_ context.Context, sessionID string, st dialogue.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[sessionID] = st
	return nil
}

func (s *MemoryStore) ClearState(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, sessionID)
	return nil
}

func (s *MemoryStore) AppendMessages(_ context.Context, sessionID string, msgs ...dialogue.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs[sessionID] = append(s.logs[sessionID], msgs...)
	return nil
}

func (s *MemoryStore) History(_ context.Context, sessionID string) ([]dialogue.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]dialogue.Message, len(s.logs[sessionID]))
	copy(history, s.logs[sessionID])
	return history, nil
}

func (s *MemoryStore) AcquireTurn(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locks[sessionID] {
		return ErrTurnInFlight
	}
	s.locks[sessionID] = true
	return nil
}

func (s *MemoryStore) ReleaseTurn(_ context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, sessionID)
}
