package fallback

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/onecard-labs/cardassist/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStream_ConcatenatesFragmentsInOrder(t *testing.T) {
	fragments := []string{"Hel", "lo wo", "rld"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/stream", r.URL.Path)

		var body struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tell me a joke", body.Message)

		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, fragment := range fragments {
			_, _ = io.WriteString(w, fragment)
			flusher.Flush()
			time.Sleep(5 * time.Millisecond)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil, testLogger())

	var received []string
	full, err := c.Stream(context.Background(), "tell me a joke", func(fragment string) {
		received = append(received, fragment)
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello world", full)

	// every byte arrives exactly once, in order
	var concatenated string
	for _, fragment := range received {
		concatenated += fragment
	}
	assert.Equal(t, "Hello world", concatenated)
}

func TestStream_UnreachableBackendIsDistinguishable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second, nil, testLogger())

	for i := 0; i < 2; i++ {
		full, err := c.Stream(context.Background(), "anything", nil)
		require.Error(t, err, "attempt %d", i)
		assert.Empty(t, full)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "E200", appErr.Code)
		assert.Equal(t, "⚠ Server unavailable. Try again later.", appErr.UserMessage)
	}
}

func TestStream_Non200IsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil, testLogger())

	_, err := c.Stream(context.Background(), "hi", nil)
	require.Error(t, err)
}

func TestStream_BreakerShortCircuits(t *testing.T) {
	breaker := apperrors.NewCircuitBreaker(1, time.Minute)
	c := NewClient("http://127.0.0.1:1", time.Second, breaker, testLogger())

	_, err := c.Stream(context.Background(), "first", nil)
	require.Error(t, err)
	require.True(t, breaker.Open())

	// rejected without a dial, but the user-facing failure is identical
	_, err = c.Stream(context.Background(), "second", nil)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "E200", appErr.Code)
}
