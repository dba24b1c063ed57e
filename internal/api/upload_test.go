package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uploadServer records the single upload request it serves.
type uploadRecord struct {
	Method      string
	Path        string
	Auth        string
	ContentType string
	Body        string
}

func uploadServer(t *testing.T, status int, respBody string) (*httptest.Server, *uploadRecord) {
	t.Helper()

	rec := &uploadRecord{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*rec = uploadRecord{
			Method:      r.Method,
			Path:        r.URL.Path,
			Auth:        r.Header.Get("Authorization"),
			ContentType: r.Header.Get("Content-Type"),
			Body:        string(body),
		}

		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))

	return srv, rec
}

func TestUpload_Authenticated(t *testing.T) {
	srv, rec := uploadServer(t, http.StatusCreated, "https://buzzheavier.com/dl/f123\n")
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	content := strings.NewReader("file bytes")
	url, err := client.Upload(context.Background(), "parent-1", "report.pdf", content, int64(content.Len()))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, rec.Method)
	assert.Equal(t, "/parent-1/report.pdf", rec.Path)
	assert.Equal(t, "Bearer test-token", rec.Auth)
	assert.Equal(t, "application/pdf", rec.ContentType)
	assert.Equal(t, "file bytes", rec.Body)

	// Response body is the public URL as plain text, trimmed.
	assert.Equal(t, "https://buzzheavier.com/dl/f123", url)
}

func TestUpload_AnonymousOmitsAuth(t *testing.T) {
	srv, rec := uploadServer(t, http.StatusCreated, "https://buzzheavier.com/dl/f9")
	defer srv.Close()

	// A token is active, but anonymous upload must not attach it.
	client := newTestClient(t, srv.URL)

	url, err := client.Upload(context.Background(), "", "a.png", strings.NewReader("png"), 3)
	require.NoError(t, err)

	assert.Equal(t, "/a.png", rec.Path)
	assert.Empty(t, rec.Auth)
	assert.Equal(t, "image/png", rec.ContentType)
	assert.Equal(t, "https://buzzheavier.com/dl/f9", url)
}

func TestUpload_RequiresTokenWhenTargeted(t *testing.T) {
	var calls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient(staticToken(""), Options{UploadBaseURL: srv.URL})

	_, err := client.Upload(context.Background(), "parent-1", "a.png", strings.NewReader("x"), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Zero(t, calls)
}

func TestUpload_EmptyName(t *testing.T) {
	client := NewClient(staticToken("t"), Options{})

	_, err := client.Upload(context.Background(), "parent-1", "", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestUpload_ServerError(t *testing.T) {
	srv, _ := uploadServer(t, http.StatusForbidden, `quota exceeded`)
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.Upload(context.Background(), "parent-1", "a.png", strings.NewReader("x"), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "quota exceeded", apiErr.Body)
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"photo.jpg", "image/jpeg"},
		{"photo.JPEG", "image/jpeg"},
		{"shot.png", "image/png"},
		{"doc.pdf", "application/pdf"},
		{"clip.mp4", "video/mp4"},
		{"song.mp3", "audio/mpeg"},
		{"archive.zip", "application/octet-stream"},
		{"noext", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contentTypeFor(tt.name))
		})
	}
}
