package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// Default endpoints. The upload host is separate from the API host.
const (
	DefaultBaseURL       = "https://buzzheavier.com"
	DefaultUploadBaseURL = "https://w.buzzheavier.com"
)

// Retry and backoff constants.
const (
	maxRetries     = 3
	baseBackoff    = 500 * time.Millisecond
	maxBackoff     = 30 * time.Second
	backoffFactor  = 2.0
	jitterFraction = 0.25
	userAgent      = "buzzheavier-go/0.1"
)

// TokenSource provides the current bearer token. Defined at the consumer
// per Go convention "accept interfaces, return structs"; the session
// package provides the real implementation. An empty string means no
// session is active.
type TokenSource interface {
	Token() string
}

// Options configures a Client. Zero-value fields fall back to defaults.
type Options struct {
	BaseURL       string
	UploadBaseURL string

	// HTTPClient serves API calls; UploadHTTPClient serves uploads and
	// typically carries longer timeouts for large bodies. Either may be
	// nil, in which case http.DefaultClient is used.
	HTTPClient       *http.Client
	UploadHTTPClient *http.Client

	Logger *slog.Logger
}

// Client is an HTTP client for the BuzzHeavier API. It handles request
// construction, bearer auth injection, retry with exponential backoff,
// and error classification. Client is stateless: the token is read from
// the TokenSource on every call.
type Client struct {
	baseURL      string
	uploadURL    string
	httpClient   *http.Client
	uploadClient *http.Client
	token        TokenSource
	logger       *slog.Logger

	// sleepFunc is called to wait between retries. Defaults to timeSleep.
	// Tests override this to avoid real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewClient creates a BuzzHeavier API client.
func NewClient(token TokenSource, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	if opts.UploadBaseURL == "" {
		opts.UploadBaseURL = DefaultUploadBaseURL
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	if opts.UploadHTTPClient == nil {
		opts.UploadHTTPClient = http.DefaultClient
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Client{
		baseURL:      opts.BaseURL,
		uploadURL:    opts.UploadBaseURL,
		httpClient:   opts.HTTPClient,
		uploadClient: opts.UploadHTTPClient,
		token:        token,
		logger:       opts.Logger,
		sleepFunc:    timeSleep,
	}
}

// do executes an HTTP request against the API host. The path is appended
// to the client's base URL. body may be nil; non-nil bodies are sent as
// application/json. Every API endpoint requires an active token, so do
// fails with ErrUnauthenticated before sending when none is set.
// The caller is responsible for closing the response body on success.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	tok := c.token.Token()
	if tok == "" {
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrUnauthenticated)
	}

	url := c.baseURL + path

	var attempt int
	for {
		resp, err := c.doOnce(ctx, method, url, tok, body)
		if err != nil {
			// Context cancellation is not retryable.
			if ctx.Err() != nil {
				return nil, fmt.Errorf("api: request canceled: %w", ctx.Err())
			}

			// Network errors are retryable: the body is a byte slice, so
			// each attempt gets a fresh reader.
			if attempt < maxRetries {
				backoff := c.calcBackoff(attempt)
				c.logger.Warn("retrying after network error",
					slog.String("method", method),
					slog.String("path", path),
					slog.Int("attempt", attempt+1),
					slog.Duration("backoff", backoff),
					slog.String("error", err.Error()),
				)

				if sleepErr := c.sleepFunc(ctx, backoff); sleepErr != nil {
					return nil, fmt.Errorf("api: request canceled: %w", sleepErr)
				}

				attempt++

				continue
			}

			return nil, fmt.Errorf("%w: %s %s failed after %d retries: %w", ErrNetwork, method, path, maxRetries, err)
		}

		// 2xx — success.
		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
			c.logger.Debug("request succeeded",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("status", resp.StatusCode),
			)

			return resp, nil
		}

		// Read and close body for error responses.
		errBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if readErr != nil {
			errBody = []byte("(failed to read response body)")
		}

		if isRetryable(resp.StatusCode) && attempt < maxRetries {
			backoff := c.retryBackoff(resp, attempt)
			c.logger.Warn("retrying after HTTP error",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("status", resp.StatusCode),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)

			if err := c.sleepFunc(ctx, backoff); err != nil {
				return nil, fmt.Errorf("api: request canceled: %w", err)
			}

			attempt++

			continue
		}

		if attempt > 0 {
			c.logger.Error("request failed after retries",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("status", resp.StatusCode),
				slog.Int("attempts", attempt+1),
			)
		}

		return nil, &Error{
			StatusCode: resp.StatusCode,
			Body:       string(errBody),
			Err:        classifyStatus(resp.StatusCode),
		}
	}
}

// doOnce executes a single HTTP request (no retry).
func (c *Client) doOnce(ctx context.Context, method, url, tok string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", userAgent)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// retryBackoff returns the backoff duration for a retryable response.
// For 429 responses with a Retry-After header, that value is used.
func (c *Client) retryBackoff(resp *http.Response, attempt int) time.Duration {
	if resp.StatusCode == http.StatusTooManyRequests {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}

	return c.calcBackoff(attempt)
}

// calcBackoff computes exponential backoff with ±25% jitter.
func (c *Client) calcBackoff(attempt int) time.Duration {
	backoff := float64(baseBackoff) * math.Pow(backoffFactor, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}

	jitter := backoff * jitterFraction * (rand.Float64()*2 - 1) //nolint:gosec // jitter does not need crypto rand
	backoff += jitter

	return time.Duration(backoff)
}

// timeSleep waits for the given duration or until the context is canceled.
// It is the default sleepFunc for Client.
func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
