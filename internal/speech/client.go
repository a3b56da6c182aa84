package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	apperrors "github.com/onecard-labs/cardassist/internal/errors"
)

const defaultTimeout = 30 * time.Second

// Client forwards recorded audio to the remote speech-to-text service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient builds a Client for the configured upstream.
func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Transcribe sends the audio blob upstream and returns the recognized text.
// Failures and empty results come back as an AppError; there is no retry.
func (c *Client) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", apperrors.NewSpeechError(err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", apperrors.NewSpeechError(err)
	}
	if err := writer.Close(); err != nil {
		return "", apperrors.NewSpeechError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/speech-to-text", &body)
	if err != nil {
		return "", apperrors.NewSpeechError(err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("speech-to-text request failed", slog.Any("error", err))
		return "", apperrors.NewSpeechError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded struct {
		Text  string `json:"text"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", apperrors.NewSpeechError(err)
	}

	if decoded.Error != "" {
		return "", apperrors.NewSpeechError(fmt.Errorf("upstream: %s", decoded.Error))
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewSpeechError(fmt.Errorf("upstream status %d", resp.StatusCode))
	}
	if decoded.Text == "" {
		return "", apperrors.NewSpeechError(fmt.Errorf("empty transcription"))
	}

	return decoded.Text, nil
}
