package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onecard-labs/cardassist/internal/account"
	"github.com/onecard-labs/cardassist/internal/dialogue"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRedisStore(client, log, time.Hour, 5*time.Second), mr
}

func TestRedisStore_AccountRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.Account(ctx, "s1")
	require.ErrorIs(t, err, ErrSessionNotFound)

	acct := account.DemoSnapshot("Asha Rao", "9876543210", "asha@example.com", "1122")
	require.NoError(t, store.PutAccount(ctx, "s1", acct))

	loaded, err := store.Account(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, acct, loaded)

	// the bill-payment acknowledgment path rewrites the snapshot
	loaded.Bill.Amount = 0
	require.NoError(t, store.PutAccount(ctx, "s1", loaded))

	reloaded, err := store.Account(ctx, "s1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, reloaded.Bill.Amount)
}

func TestRedisStore_StateRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.State(ctx, "s1")
	require.ErrorIs(t, err, ErrStateNotFound)

	st := dialogue.State{
		LastIntent:  dialogue.IntentPayBill,
		BlockStep:   dialogue.BlockAwaitingConfirm,
		BlockReason: "lost",
		CardBlocked: true,
	}
	require.NoError(t, store.SaveState(ctx, "s1", st))

	loaded, err := store.State(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, st, loaded)

	require.NoError(t, store.ClearState(ctx, "s1"))
	_, err = store.State(ctx, "s1")
	require.ErrorIs(t, err, ErrStateNotFound)
}

func TestRedisStore_MessageLogAppendOnly(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	require.NoError(t, store.AppendMessages(ctx, "s1",
		dialogue.Message{Sender: dialogue.SenderUser, Text: "hi"},
		dialogue.Bot("Hello!"),
	))
	require.NoError(t, store.AppendMessages(ctx, "s1",
		dialogue.Message{Sender: dialogue.SenderUser, Text: "bill"},
	))

	history, err := store.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "hi", history[0].Text)
	assert.Equal(t, dialogue.SenderBot, history[1].Sender)
	assert.Equal(t, "bill", history[2].Text)
}

func TestRedisStore_SessionExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	acct := account.DemoSnapshot("Asha Rao", "9876543210", "asha@example.com", "1122")
	require.NoError(t, store.PutAccount(ctx, "s1", acct))

	mr.FastForward(2 * time.Hour)

	_, err := store.Account(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_TurnLock(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	require.NoError(t, store.AcquireTurn(ctx, "s1"))
	require.ErrorIs(t, store.AcquireTurn(ctx, "s1"), ErrTurnInFlight)

	// a different session is unaffected
	require.NoError(t, store.AcquireTurn(ctx, "s2"))

	store.ReleaseTurn(ctx, "s1")
	require.NoError(t, store.AcquireTurn(ctx, "s1"))
}

func TestRedisStore_DeleteAccountEndsSession(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	acct := account.DemoSnapshot("Asha Rao", "9876543210", "asha@example.com", "1122")
	require.NoError(t, store.PutAccount(ctx, "s1", acct))
	require.NoError(t, store.SaveState(ctx, "s1", dialogue.State{LastIntent: dialogue.IntentQRShown}))
	require.NoError(t, store.AppendMessages(ctx, "s1", dialogue.Bot("bye")))

	require.NoError(t, store.DeleteAccount(ctx, "s1"))

	_, err := store.Account(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.State(ctx, "s1")
	assert.ErrorIs(t, err, ErrStateNotFound)

	history, err := store.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history)
}
