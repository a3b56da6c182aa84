package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/onecard-labs/cardassist/internal/account"
	"github.com/onecard-labs/cardassist/internal/dialogue"
)

const (
	accountKeyPrefix  = "session:account:"
	stateKeyPrefix    = "session:state:"
	logKeyPrefix      = "session:log:"
	turnLockKeyPrefix = "session:turn:"

	defaultSessionTTL = time.Hour
	defaultLockTTL    = 30 * time.Second
)

// RedisStore persists all session data in Redis with a shared TTL, so an
// idle session expires as a whole.
type RedisStore struct {
	client  *redis.Client
	log     *slog.Logger
	ttl     time.Duration
	lockTTL time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore initializes a Redis-backed session store.
func NewRedisStore(client *redis.Client, log *slog.Logger, ttl, lockTTL time.Duration) *RedisStore {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}

	return &RedisStore{
		client:  client,
		log:     log,
		ttl:     ttl,
		lockTTL: lockTTL,
	}
}

// Account returns the stored snapshot or ErrSessionNotFound when absent.
func (s *RedisStore) Account(ctx context.Context, sessionID string) (*account.Account, error) {
	data, err := s.client.Get(ctx, accountKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}

		s.log.Error("failed to get session account", "session_id", sessionID, "error", err)
		return nil, err
	}

	var acct account.Account
	if err := json.Unmarshal([]byte(data), &acct); err != nil {
		s.log.Error("failed to decode session account", "session_id", sessionID, "error", err)
		return nil, err
	}

	return &acct, nil
}

// PutAccount saves the snapshot and refreshes the session TTL.
func (s *RedisStore) PutAccount(ctx context.Context, sessionID string, acct *account.Account) error {
	data, err := json.Marshal(acct)
	if err != nil {
		s.log.Error("failed to encode session account", "session_id", sessionID, "error", err)
		return err
	}

	if err := s.client.Set(ctx, accountKeyPrefix+sessionID, data, s.ttl).Err(); err != nil {
		s.log.Error("failed to save session account", "session_id", sessionID, "error", err)
		return err
	}

	return nil
}

// DeleteAccount removes the snapshot, the dialogue state, and the log.
func (s *RedisStore) DeleteAccount(ctx context.Context, sessionID string) error {
	keys := []string{
		accountKeyPrefix + sessionID,
		stateKeyPrefix + sessionID,
		logKeyPrefix + sessionID,
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.log.Error("failed to delete session", "session_id", sessionID, "error", err)
		return err
	}

	return nil
}

// State returns the stored dialogue state or ErrStateNotFound when absent.
func (s *RedisStore) State(ctx context.Context, sessionID string) (dialogue.State, error) {
	data, err := s.client.Get(ctx, stateKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return dialogue.State{}, ErrStateNotFound
		}

		s.log.Error("failed to get dialogue state", "session_id", sessionID, "error", err)
		return dialogue.State{}, err
	}

	var st dialogue.State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		s.log.Error("failed to decode dialogue state", "session_id", sessionID, "error", err)
		return dialogue.State{}, err
	}

	return st, nil
}

// SaveState stores the dialogue state with the session TTL.
func (s *RedisStore) SaveState(ctx context.Context, sessionID string, st dialogue.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		s.log.Error("failed to encode dialogue state", "session_id", sessionID, "error", err)
		return err
	}

	if err := s.client.Set(ctx, stateKeyPrefix+sessionID, data, s.ttl).Err(); err != nil {
		s.log.Error("failed to save dialogue state", "session_id", sessionID, "error", err)
		return err
	}

	return nil
}

// ClearState removes the dialogue state for the session.
func (s *RedisStore) ClearState(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, stateKeyPrefix+sessionID).Err(); err != nil {
		s.log.Error("failed to clear dialogue state", "session_id", sessionID, "error", err)
		return err
	}

	return nil
}

// AppendMessages pushes finalized messages onto the session transcript.
func (s *RedisStore) AppendMessages(ctx context.Context, sessionID string, msgs ...dialogue.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			s.log.Error("failed to encode chat message", "session_id", sessionID, "error", err)
			return err
		}
		values = append(values, data)
	}

	key := logKeyPrefix + sessionID
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.Expire(ctx, key, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Error("failed to append chat messages", "session_id", sessionID, "error", err)
		return err
	}

	return nil
}

// History returns the full transcript in append order.
func (s *RedisStore) History(ctx context.Context, sessionID string) ([]dialogue.Message, error) {
	raw, err := s.client.LRange(ctx, logKeyPrefix+sessionID, 0, -1).Result()
	if err != nil {
		s.log.Error("failed to read chat history", "session_id", sessionID, "error", err)
		return nil, err
	}

	msgs := make([]dialogue.Message, 0, len(raw))
	for _, data := range raw {
		var msg dialogue.Message
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			s.log.Error("failed to decode chat message", "session_id", sessionID, "error", err)
			continue
		}
		msgs = append(msgs, msg)
	}

	return msgs, nil
}

// AcquireTurn takes the per-session turn lock. The TTL bounds how long a
// crashed turn can wedge a session.
func (s *RedisStore) AcquireTurn(ctx context.Context, sessionID string) error {
	acquired, err := s.client.SetNX(ctx, turnLockKeyPrefix+sessionID, 1, s.lockTTL).Result()
	if err != nil {
		s.log.Error("failed to acquire turn lock", "session_id", sessionID, "error", err)
		return err
	}

	if !acquired {
		s.log.Warn("turn lock already held", "session_id", sessionID)
		return ErrTurnInFlight
	}

	return nil
}

// ReleaseTurn releases the per-session turn lock.
func (s *RedisStore) ReleaseTurn(ctx context.Context, sessionID string) {
	if err := s.client.Del(ctx, turnLockKeyPrefix+sessionID).Err(); err != nil {
		s.log.Error("failed to release turn lock", "session_id", sessionID, "error", err)
	}
}
