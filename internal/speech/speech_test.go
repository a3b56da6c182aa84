package speech

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/onecard-labs/cardassist/internal/errors"
)

func TestSanitize(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips emoji",
			in:   "Hi! 👋 I can help you check balance",
			want: "Hi!  I can help you check balance",
		},
		{
			name: "strips bullets and pictographs",
			in:   "I assist with:\n• Balance\n• Transactions 💳",
			want: "I assist with:\n Balance\n Transactions ",
		},
		{
			name: "plain text untouched",
			in:   "Session expired. Please login again.",
			want: "Session expired. Please login again.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sanitize(tc.in))
		})
	}
}

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/speech-to-text", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()

		assert.Equal(t, "speech.webm", header.Filename)

		audio, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "fake-webm-bytes", string(audio))

		_ = json.NewEncoder(w).Encode(map[string]string{"text": "check my balance"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	text, err := c.Transcribe(context.Background(), "speech.webm", strings.NewReader("fake-webm-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "check my balance", text)
}

func TestTranscribe_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "", "error": "decode failure"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := c.Transcribe(context.Background(), "speech.webm", strings.NewReader("x"))
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "E300", appErr.Code)
}

func TestTranscribe_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := c.Transcribe(context.Background(), "speech.webm", strings.NewReader("x"))
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "E300", appErr.Code)
}
