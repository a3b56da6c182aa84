// Package chat orchestrates a single conversation turn: it serializes
// turns per session, runs the dialogue engine, persists whatever the turn
// changed, and delegates unmatched utterances to the streaming fallback
// service.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/onecard-labs/cardassist/internal/dialogue"
	apperrors "github.com/onecard-labs/cardassist/internal/errors"
	"github.com/onecard-labs/cardassist/internal/fallback"
	"github.com/onecard-labs/cardassist/internal/session"
	"github.com/onecard-labs/cardassist/pkg/metrics"
)

// Sink receives provisional reply fragments while a fallback answer is
// streaming. The fragments concatenate to the final reply text.
type Sink func(fragment string)

// TurnResult is the finalized outcome of one turn.
type TurnResult struct {
	// Rule names the matched rule, "fallback" when the remote service
	// answered (or failed to).
	Rule string `json:"rule"`
	// Replies are the finalized assistant messages, in order.
	Replies []dialogue.Message `json:"replies"`
	// Effect is the side effect the client should perform, if any.
	Effect *dialogue.Effect `json:"effect,omitempty"`
	// Streamed reports whether Replies arrived through the sink first.
	Streamed bool `json:"streamed,omitempty"`
}

// Service runs conversation turns against the session store.
type Service struct {
	engine   *dialogue.Engine
	store    session.Store
	streamer fallback.Streamer
	errs     *apperrors.Handler
	log      *slog.Logger
}

// NewService constructs the turn orchestrator.
func NewService(engine *dialogue.Engine, store session.Store, streamer fallback.Streamer, errs *apperrors.Handler, log *slog.Logger) *Service {
	return &Service{
		engine:   engine,
		store:    store,
		streamer: streamer,
		errs:     errs,
		log:      log,
	}
}

// Turn processes one utterance for the session. At most one turn runs per
// session at a time, including any fallback round trip; a concurrent
// attempt gets session.ErrTurnInFlight. A missing session is terminal for
// the turn and returns an error whose user message asks for a fresh login.
//
// sink may be nil; it only fires for streamed fallback replies.
func (s *Service) Turn(ctx context.Context, sessionID, utterance string, sink Sink) (*TurnResult, error) {
	if err := s.store.AcquireTurn(ctx, sessionID); err != nil {
		return nil, err
	}
	defer s.store.ReleaseTurn(ctx, sessionID)

	started := time.Now()

	acct, err := s.store.Account(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, apperrors.NewSessionError()
		}
		return nil, apperrors.NewStorageError(err)
	}

	st, err := s.store.State(ctx, sessionID)
	if err != nil && !errors.Is(err, session.ErrStateNotFound) {
		return nil, apperrors.NewStorageError(err)
	}

	if err := s.store.AppendMessages(ctx, sessionID, dialogue.Message{
		Sender: dialogue.SenderUser,
		Text:   utterance,
	}); err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	res := s.engine.Process(utterance, acct, st)
	if res.Fallback {
		return s.fallbackTurn(ctx, sessionID, utterance, sink, started)
	}

	// Account mutations land before the replies so a crash between the two
	// never shows a reply the snapshot contradicts.
	if res.Account != nil {
		if err := s.store.PutAccount(ctx, sessionID, res.Account); err != nil {
			return nil, apperrors.NewStorageError(err)
		}
	}

	if err := s.store.SaveState(ctx, sessionID, res.State); err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	if err := s.store.AppendMessages(ctx, sessionID, res.Replies...); err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	metrics.RecordTurn(res.Rule, "ok", time.Since(started))

	return &TurnResult{
		Rule:    res.Rule,
		Replies: res.Replies,
		Effect:  res.Effect,
	}, nil
}

// fallbackTurn delegates to the remote chat service. Dialogue state is left
// untouched: a small-talk answer never disturbs an in-progress flow. A
// failed stream is a failed turn; the fixed unavailable reply enters the
// log instead, and nothing is retried.
func (s *Service) fallbackTurn(ctx context.Context, sessionID, utterance string, sink Sink, started time.Time) (*TurnResult, error) {
	onChunk := fallback.ChunkFunc(func(fragment string) {
		if sink != nil {
			sink(fragment)
		}
	})

	full, err := s.streamer.Stream(ctx, utterance, onChunk)
	if err != nil {
		metrics.RecordFallback("error")
		metrics.RecordTurn(dialogue.RuleFallback, "error", time.Since(started))

		userMsg := s.errs.Handle(ctx, err)
		reply := dialogue.Bot(userMsg)
		if appendErr := s.store.AppendMessages(ctx, sessionID, reply); appendErr != nil {
			s.log.Error("failed to log fallback error reply",
				slog.String("session_id", sessionID), slog.Any("error", appendErr))
		}

		return &TurnResult{
			Rule:    dialogue.RuleFallback,
			Replies: []dialogue.Message{reply},
		}, nil
	}

	reply := dialogue.Bot(full)
	if err := s.store.AppendMessages(ctx, sessionID, reply); err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	metrics.RecordFallback("ok")
	metrics.RecordTurn(dialogue.RuleFallback, "ok", time.Since(started))

	return &TurnResult{
		Rule:     dialogue.RuleFallback,
		Replies:  []dialogue.Message{reply},
		Streamed: true,
	}, nil
}

// History returns the session transcript, oldest first.
func (s *Service) History(ctx context.Context, sessionID string) ([]dialogue.Message, error) {
	msgs, err := s.store.History(ctx, sessionID)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return msgs, nil
}
