// Package fallback streams replies from the remote chat service consulted
// when no local dialogue rule matches.
package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/onecard-labs/cardassist/internal/errors"
)

const defaultTimeout = 60 * time.Second

// ChunkFunc receives each raw text fragment in arrival order.
type ChunkFunc func(fragment string)

// Streamer is the contract the chat service depends on.
type Streamer interface {
	// Stream sends the message and returns the fully concatenated reply.
	// onChunk may be nil. On any transport failure the error is the only
	// signal: the returned text is empty, never a partial stream.
	Stream(ctx context.Context, message string, onChunk ChunkFunc) (string, error)
}

// Client talks to the remote /chat/stream endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *apperrors.CircuitBreaker
	log        *slog.Logger
}

var _ Streamer = (*Client)(nil)

// NewClient builds a Client with a circuit breaker in front of the upstream.
func NewClient(baseURL string, timeout time.Duration, breaker *apperrors.CircuitBreaker, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if breaker == nil {
		breaker = apperrors.NewCircuitBreaker(0, 0)
	}
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		log:        log,
	}
}

// Stream implements Streamer.
func (c *Client) Stream(ctx context.Context, message string, onChunk ChunkFunc) (string, error) {
	var full string

	err := c.breaker.Call(func() error {
		text, err := c.stream(ctx, message, onChunk)
		if err != nil {
			return err
		}
		full = text
		return nil
	})
	if err != nil {
		c.log.Warn("fallback chat call failed", slog.Any("error", err))
		return "", apperrors.NewFallbackError(err)
	}

	return full, nil
}

func (c *Client) stream(ctx context.Context, message string, onChunk ChunkFunc) (string, error) {
	payload, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/stream", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	var builder strings.Builder
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			fragment := string(buf[:n])
			builder.WriteString(fragment)
			if onChunk != nil {
				onChunk(fragment)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			// a broken stream is a failure, not a shorter answer
			return "", readErr
		}
	}

	return builder.String(), nil
}
