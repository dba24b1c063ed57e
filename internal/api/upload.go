package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// Upload uploads a file to the given directory and returns the resulting
// public download URL. The content is streamed from r, never buffered,
// so the caller must keep r valid for the duration of the call. size sets
// Content-Length; pass -1 if unknown.
//
// An empty parentID selects the anonymous upload endpoint: no
// Authorization header is attached even when a token is active. All other
// uploads require an active token.
//
// Unlike the JSON operations, uploads are not retried; retrying a
// partially-consumed reader is not safe.
func (c *Client) Upload(ctx context.Context, parentID, name string, r io.Reader, size int64) (string, error) {
	if name == "" {
		return "", ErrEmptyName
	}

	anonymous := parentID == ""

	var tok string
	if !anonymous {
		tok = c.token.Token()
		if tok == "" {
			return "", fmt.Errorf("upload %s: %w", name, ErrUnauthenticated)
		}
	}

	path := "/" + url.PathEscape(name)
	if !anonymous {
		path = "/" + url.PathEscape(parentID) + path
	}

	c.logger.Info("uploading file",
		slog.String("parent_id", parentID),
		slog.String("name", name),
		slog.Int64("size", size),
		slog.Bool("anonymous", anonymous),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.uploadURL+path, r)
	if err != nil {
		return "", fmt.Errorf("api: creating upload request: %w", err)
	}

	req.Header.Set("Content-Type", contentTypeFor(name))
	req.Header.Set("User-Agent", userAgent)
	req.ContentLength = size

	if !anonymous {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("api: upload canceled: %w", ctx.Err())
		}

		return "", fmt.Errorf("%w: uploading %s: %w", ErrNetwork, name, err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if readErr != nil {
			body = []byte("(failed to read response body)")
		}

		return "", &Error{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        classifyStatus(resp.StatusCode),
		}
	}

	if readErr != nil {
		return "", fmt.Errorf("%w: reading upload response: %w", ErrDecode, readErr)
	}

	downloadURL := strings.TrimSpace(string(body))

	c.logger.Debug("upload complete",
		slog.String("name", name),
		slog.String("url", downloadURL),
	)

	return downloadURL, nil
}
