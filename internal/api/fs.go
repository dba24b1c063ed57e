package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Wire structs mirror the /api/fs JSON exactly. Unexported — callers use
// the normalized Directory/File/Listing types.
type directoryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ParentID  string `json:"parentId"`
	CreatedAt string `json:"createdAt"`
}

type fileResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ParentID  string `json:"parentId"`
	Size      uint64 `json:"size"`
	URL       string `json:"url"`
	Note      string `json:"note"`
	CreatedAt string `json:"createdAt"`
}

type listingResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Directories []directoryResponse `json:"directories"`
	Files       []fileResponse      `json:"files"`
}

type createDirectoryRequest struct {
	Name string `json:"name"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type moveRequest struct {
	ParentID string `json:"parentId"`
}

type noteRequest struct {
	Note string `json:"note"`
}

func (d *directoryResponse) toDirectory(logger *slog.Logger) Directory {
	return Directory{
		ID:        d.ID,
		Name:      d.Name,
		ParentID:  d.ParentID,
		CreatedAt: parseTimestamp(d.CreatedAt, d.ID, logger),
	}
}

func (f *fileResponse) toFile(logger *slog.Logger) File {
	return File{
		ID:        f.ID,
		Name:      f.Name,
		ParentID:  f.ParentID,
		Size:      f.Size,
		URL:       f.URL,
		Note:      f.Note,
		CreatedAt: parseTimestamp(f.CreatedAt, f.ID, logger),
	}
}

// toListing normalizes a listing response, preserving server ordering.
// Both slices are always non-nil so an empty directory decodes to an
// empty-but-present listing.
func (l *listingResponse) toListing(logger *slog.Logger) *Listing {
	listing := &Listing{
		ID:          l.ID,
		Name:        l.Name,
		Directories: make([]Directory, 0, len(l.Directories)),
		Files:       make([]File, 0, len(l.Files)),
	}

	for i := range l.Directories {
		listing.Directories = append(listing.Directories, l.Directories[i].toDirectory(logger))
	}

	for i := range l.Files {
		listing.Files = append(listing.Files, l.Files[i].toFile(logger))
	}

	return listing
}

// parseTimestamp parses an optional RFC3339 timestamp. The field is
// optional in the API, so an empty value is a zero time without noise;
// an unparseable value is debug-logged and also yields a zero time.
func parseTimestamp(raw, nodeID string, logger *slog.Logger) time.Time {
	if raw == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		logger.Debug("invalid createdAt timestamp",
			slog.String("node_id", nodeID),
			slog.String("raw", raw),
			slog.String("error", err.Error()),
		)

		return time.Time{}
	}

	return t
}

// GetDirectory returns the listing of one directory. An empty id denotes
// the root, which has no id in the path.
func (c *Client) GetDirectory(ctx context.Context, id string) (*Listing, error) {
	c.logger.Info("getting directory",
		slog.String("directory_id", id),
	)

	path := "/api/fs"
	if id != "" {
		path = "/api/fs/" + url.PathEscape(id)
	}

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var lr listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("%w: decoding directory response: %w", ErrDecode, err)
	}

	listing := lr.toListing(c.logger)

	c.logger.Debug("fetched directory",
		slog.String("directory_id", listing.ID),
		slog.Int("directories", len(listing.Directories)),
		slog.Int("files", len(listing.Files)),
	)

	return listing, nil
}

// CreateDirectory creates a directory under the given parent and returns
// it, so callers learn the new id without a follow-up listing call.
func (c *Client) CreateDirectory(ctx context.Context, parentID, name string) (*Directory, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	c.logger.Info("creating directory",
		slog.String("parent_id", parentID),
		slog.String("name", name),
	)

	body, err := json.Marshal(createDirectoryRequest{Name: name})
	if err != nil {
		return nil, fmt.Errorf("api: marshaling create directory request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/fs/"+url.PathEscape(parentID), body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var dr directoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("%w: decoding create directory response: %w", ErrDecode, err)
	}

	dir := dr.toDirectory(c.logger)

	return &dir, nil
}

// RenameDirectory renames a directory. A rename to the current name is
// passed through unchanged; name policy is entirely server-side.
func (c *Client) RenameDirectory(ctx context.Context, id, name string) error {
	return c.rename(ctx, id, name, "directory")
}

// RenameFile renames a file. Same pass-through semantics as RenameDirectory.
func (c *Client) RenameFile(ctx context.Context, id, name string) error {
	return c.rename(ctx, id, name, "file")
}

// rename is shared by RenameDirectory and RenameFile: the API addresses
// both node kinds through the same /api/fs/{id} resource.
func (c *Client) rename(ctx context.Context, id, name, kind string) error {
	if name == "" {
		return ErrEmptyName
	}

	c.logger.Info("renaming "+kind,
		slog.String("id", id),
		slog.String("name", name),
	)

	body, err := json.Marshal(renameRequest{Name: name})
	if err != nil {
		return fmt.Errorf("api: marshaling rename request: %w", err)
	}

	return c.doDiscard(ctx, http.MethodPatch, "/api/fs/"+url.PathEscape(id), body)
}

// MoveDirectory moves a directory under a new parent. The target is not
// validated locally; the server is authoritative and reports the outcome
// as ErrNotFound or ErrConflict.
func (c *Client) MoveDirectory(ctx context.Context, id, newParentID string) error {
	return c.move(ctx, id, newParentID, "directory")
}

// MoveFile moves a file under a new parent.
func (c *Client) MoveFile(ctx context.Context, id, newParentID string) error {
	return c.move(ctx, id, newParentID, "file")
}

func (c *Client) move(ctx context.Context, id, newParentID, kind string) error {
	c.logger.Info("moving "+kind,
		slog.String("id", id),
		slog.String("new_parent_id", newParentID),
	)

	body, err := json.Marshal(moveRequest{ParentID: newParentID})
	if err != nil {
		return fmt.Errorf("api: marshaling move request: %w", err)
	}

	return c.doDiscard(ctx, http.MethodPut, "/api/fs/"+url.PathEscape(id), body)
}

// DeleteDirectory deletes a directory.
func (c *Client) DeleteDirectory(ctx context.Context, id string) error {
	c.logger.Info("deleting directory",
		slog.String("id", id),
	)

	return c.doDiscard(ctx, http.MethodDelete, "/api/fs/"+url.PathEscape(id), nil)
}

// DeleteFile deletes a file.
func (c *Client) DeleteFile(ctx context.Context, id string) error {
	c.logger.Info("deleting file",
		slog.String("id", id),
	)

	return c.doDiscard(ctx, http.MethodDelete, "/api/fs/"+url.PathEscape(id), nil)
}

// AddNote attaches a user note to a file.
func (c *Client) AddNote(ctx context.Context, fileID, note string) error {
	c.logger.Info("adding note to file",
		slog.String("file_id", fileID),
	)

	body, err := json.Marshal(noteRequest{Note: note})
	if err != nil {
		return fmt.Errorf("api: marshaling note request: %w", err)
	}

	return c.doDiscard(ctx, http.MethodPut, "/api/fs/"+url.PathEscape(fileID), body)
}

// doDiscard executes a request whose response carries only a success
// signal, draining the body to reuse the connection.
func (c *Client) doDiscard(ctx context.Context, method, path string, body []byte) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, copyErr := io.Copy(io.Discard, resp.Body); copyErr != nil {
		return fmt.Errorf("api: draining response body: %w", copyErr)
	}

	return nil
}
