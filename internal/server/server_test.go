package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onecard-labs/cardassist/internal/auth"
	"github.com/onecard-labs/cardassist/internal/chat"
	"github.com/onecard-labs/cardassist/internal/dialogue"
	apperrors "github.com/onecard-labs/cardassist/internal/errors"
	"github.com/onecard-labs/cardassist/internal/fallback"
	"github.com/onecard-labs/cardassist/internal/health"
	"github.com/onecard-labs/cardassist/internal/identity"
	"github.com/onecard-labs/cardassist/internal/middleware"
	"github.com/onecard-labs/cardassist/internal/payment"
	"github.com/onecard-labs/cardassist/internal/ratelimit"
	"github.com/onecard-labs/cardassist/internal/session"
	"github.com/onecard-labs/cardassist/pkg/config"
)

type memRepo struct {
	byPhone map[string]*identity.Identity
}

func (r *memRepo) FindByPhone(_ context.Context, phone string) (*identity.Identity, error) {
	ident, ok := r.byPhone[phone]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return ident, nil
}

func (r *memRepo) Create(_ context.Context, ident *identity.Identity) error {
	if _, ok := r.byPhone[ident.Phone]; ok {
		return identity.ErrPhoneTaken
	}
	r.byPhone[ident.Phone] = ident
	return nil
}

type stubStreamer struct {
	chunks []string
	err    error
}

func (s *stubStreamer) Stream(_ context.Context, _ string, onChunk fallback.ChunkFunc) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	var b strings.Builder
	for _, c := range s.chunks {
		onChunk(c)
		b.WriteString(c)
	}
	return b.String(), nil
}

type stubTranscriber struct {
	text string
	err  error
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ string, _ io.Reader) (string, error) {
	return s.text, s.err
}

func newTestServer(t *testing.T, streamer fallback.Streamer, transcriber Transcriber) *httptest.Server {
	t.Helper()

	log := slog.New(slog.DiscardHandler)
	store := session.NewMemoryStore()
	repo := &memRepo{byPhone: make(map[string]*identity.Identity)}
	links := payment.NewLinkBuilder("merchant@upi", "OneCard")
	errs := apperrors.NewHandler(log, false, nil)

	engine := dialogue.NewEngine(links, log)
	chatSvc := chat.NewService(engine, store, streamer, errs, log)
	authSvc := auth.NewService(repo, store, log)

	rules := ratelimit.NewRules(config.RateLimitConfig{
		Enabled:    true,
		PerSession: config.RateLimitRule{Limit: 100, Window: "1m"},
		Global:     config.RateLimitRule{Limit: 1000, Window: "1m"},
	})
	rate := middleware.NewRateLimitMiddleware(ratelimit.NewMemoryLimiter(log), rules, log)

	srv := New(authSvc, chatSvc, store, links, transcriber, health.NewChecker(log), errs, rate, log)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func registerAndLogin(t *testing.T, ts *httptest.Server) string {
	t.Helper()

	body := `{"name":"Asha Rao","phone":"9876543210","email":"asha@example.com","card_last4":"4242","pin":"123456"}`
	resp, err := http.Post(ts.URL+"/api/auth/register", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = http.Post(ts.URL+"/api/auth/login", "application/json", strings.NewReader(`{"phone":"9876543210","pin":"123456"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sess struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sess))
	require.NotEmpty(t, sess.SessionID)
	return sess.SessionID
}

func doTurn(t *testing.T, ts *httptest.Server, sessionID, message string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/chat/turn", strings.NewReader(`{"message":`+strconv.Quote(message)+`}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.SessionIDHeader, sessionID)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func sessionGet(t *testing.T, ts *httptest.Server, sessionID, path string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set(middleware.SessionIDHeader, sessionID)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestTurn_LocalRuleJSON(t *testing.T) {
	ts := newTestServer(t, &stubStreamer{}, &stubTranscriber{})
	sessionID := registerAndLogin(t, ts)

	resp := doTurn(t, ts, sessionID, "check balance")
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var res chat.TurnResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "balance", res.Rule)
	require.Len(t, res.Replies, 1)
	assert.Contains(t, res.Replies[0].Text, "Available: ₹87000")
}

func TestTurn_FallbackStreamsPlainText(t *testing.T) {
	ts := newTestServer(t, &stubStreamer{chunks: []string{"Hel", "lo!"}}, &stubTranscriber{})
	sessionID := registerAndLogin(t, ts)

	resp := doTurn(t, ts, sessionID, "tell me something")
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Hello!", string(body))
}

func TestTurn_FallbackFailureJSON(t *testing.T) {
	ts := newTestServer(t, &stubStreamer{err: apperrors.NewFallbackError(io.ErrUnexpectedEOF)}, &stubTranscriber{})
	sessionID := registerAndLogin(t, ts)

	resp := doTurn(t, ts, sessionID, "tell me something")
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res chat.TurnResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.Len(t, res.Replies, 1)
	assert.Equal(t, "⚠ Server unavailable. Try again later.", res.Replies[0].Text)
}

func TestTurn_MissingSession(t *testing.T) {
	ts := newTestServer(t, &stubStreamer{}, &stubTranscriber{})

	resp := doTurn(t, ts, "no-such-session", "hi")
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHistory(t *testing.T) {
	ts := newTestServer(t, &stubStreamer{}, &stubTranscriber{})
	sessionID := registerAndLogin(t, ts)

	_ = doTurn(t, ts, sessionID, "hi").Body.Close()

	resp := sessionGet(t, ts, sessionID, "/api/chat/history")
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Messages []dialogue.Message `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Messages, 2)
	assert.Equal(t, dialogue.SenderUser, payload.Messages[0].Sender)
}

func TestStatementPDF(t *testing.T) {
	ts := newTestServer(t, &stubStreamer{}, &stubTranscriber{})
	sessionID := registerAndLogin(t, ts)

	resp := sessionGet(t, ts, sessionID, "/api/statement.pdf")
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestAnalyticsEndpoints(t *testing.T) {
	ts := newTestServer(t, &stubStreamer{}, &stubTranscriber{})
	sessionID := registerAndLogin(t, ts)

	resp := sessionGet(t, ts, sessionID, "/api/analytics")
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report struct {
		TotalSpend int64 `json:"total_spend"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, int64(7078), report.TotalSpend)

	chartResp := sessionGet(t, ts, sessionID, "/api/analytics/chart.png")
	defer func() { _ = chartResp.Body.Close() }()
	require.Equal(t, http.StatusOK, chartResp.StatusCode)
	assert.Equal(t, "image/png", chartResp.Header.Get("Content-Type"))
}

func TestPaymentQR(t *testing.T) {
	ts := newTestServer(t, &stubStreamer{}, &stubTranscriber{})
	sessionID := registerAndLogin(t, ts)

	resp := sessionGet(t, ts, sessionID, "/api/payment/qr.png")
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	// Settle the bill through the chat flow; the QR then 404s.
	_ = doTurn(t, ts, sessionID, "pay my bill").Body.Close()
	_ = doTurn(t, ts, sessionID, "yes").Body.Close()
	_ = doTurn(t, ts, sessionID, "paid").Body.Close()

	resp = sessionGet(t, ts, sessionID, "/api/payment/qr.png")
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSpeechToText(t *testing.T) {
	ts := newTestServer(t, &stubStreamer{}, &stubTranscriber{text: "check balance"})
	sessionID := registerAndLogin(t, ts)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "note.webm")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake audio"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/speech-to-text", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(middleware.SessionIDHeader, sessionID)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "check balance", payload.Text)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, &stubStreamer{}, &stubTranscriber{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTurn_RateLimited(t *testing.T) {
	ts := newTestServerWithLimit(t, 2)
	sessionID := registerAndLogin(t, ts)

	_ = doTurn(t, ts, sessionID, "hi").Body.Close()
	_ = doTurn(t, ts, sessionID, "hi").Body.Close()

	resp := doTurn(t, ts, sessionID, "hi")
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func newTestServerWithLimit(t *testing.T, perSession int) *httptest.Server {
	t.Helper()

	log := slog.New(slog.DiscardHandler)
	store := session.NewMemoryStore()
	repo := &memRepo{byPhone: make(map[string]*identity.Identity)}
	links := payment.NewLinkBuilder("merchant@upi", "OneCard")
	errs := apperrors.NewHandler(log, false, nil)

	engine := dialogue.NewEngine(links, log)
	chatSvc := chat.NewService(engine, store, &stubStreamer{}, errs, log)
	authSvc := auth.NewService(repo, store, log)

	rules := ratelimit.NewRules(config.RateLimitConfig{
		Enabled:    true,
		PerSession: config.RateLimitRule{Limit: perSession, Window: "1m"},
		Global:     config.RateLimitRule{Limit: 1000, Window: "1m"},
	})
	rate := middleware.NewRateLimitMiddleware(ratelimit.NewMemoryLimiter(log), rules, log)

	srv := New(authSvc, chatSvc, store, links, &stubTranscriber{}, health.NewChecker(log), errs, rate, log)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}
