// Package dirstate holds the currently displayed directory's contents and
// serializes loads and mutations against it. Listings are replaced
// wholesale on every successful load, never patched in place, and every
// successful mutation triggers a refresh of its context directory so the
// cache always reflects the server's authoritative state.
package dirstate

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/buzzheavier/buzzheavier-go/internal/api"
)

// Status is the load state of the current directory.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the observable directory state. Listing is non-nil only when
// Status is StatusReady; Err is non-nil only when Status is StatusFailed.
// A failed load preserves no stale listing.
type State struct {
	Status  Status
	Listing *api.Listing
	Err     error
}

// FS is the set of remote operations the cache drives.
// Implemented by *api.Client.
type FS interface {
	GetDirectory(ctx context.Context, id string) (*api.Listing, error)
	CreateDirectory(ctx context.Context, parentID, name string) (*api.Directory, error)
	RenameDirectory(ctx context.Context, id, name string) error
	RenameFile(ctx context.Context, id, name string) error
	MoveDirectory(ctx context.Context, id, newParentID string) error
	MoveFile(ctx context.Context, id, newParentID string) error
	DeleteDirectory(ctx context.Context, id string) error
	DeleteFile(ctx context.Context, id string) error
	AddNote(ctx context.Context, fileID, note string) error
	Upload(ctx context.Context, parentID, name string, r io.Reader, size int64) (string, error)
}

// Cache owns one navigation context's DirectoryState.
//
// Loads are last-request-wins: each Load is tagged with a monotonically
// increasing sequence number, and a response only commits when it still
// carries the latest issued sequence, so visible state never regresses to
// an older directory's listing. Concurrent loads of the same id are
// deduplicated through a singleflight group.
//
// Mutations are not coalesced or queued; overlapping conflicting edits
// against the same node are the caller's responsibility.
type Cache struct {
	fs     FS
	logger *slog.Logger

	group singleflight.Group

	mu    sync.Mutex
	seq   uint64
	state State
}

// New creates a Cache in the Idle state.
func New(fs FS, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}

	return &Cache{
		fs:     fs,
		logger: logger,
		state:  State{Status: StatusIdle},
	}
}

// State returns a snapshot of the current directory state.
func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Load fetches the listing for id (empty id is the root) and commits it
// unless a newer Load has been issued in the meantime. The state moves to
// StatusLoading immediately; a superseded response is discarded and Load
// returns nil because the newest request governs the outcome.
func (c *Cache) Load(ctx context.Context, id string) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.state = State{Status: StatusLoading}
	c.mu.Unlock()

	c.logger.Debug("loading directory",
		slog.String("directory_id", id),
		slog.Uint64("seq", seq),
	)

	v, err, shared := c.group.Do(id, func() (any, error) {
		return c.fs.GetDirectory(ctx, id)
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		c.logger.Debug("discarding superseded load",
			slog.String("directory_id", id),
			slog.Uint64("seq", seq),
			slog.Uint64("latest", c.seq),
		)

		return nil
	}

	if err != nil {
		c.state = State{Status: StatusFailed, Err: err}

		return err
	}

	listing := v.(*api.Listing)
	c.state = State{Status: StatusReady, Listing: listing}

	c.logger.Debug("directory loaded",
		slog.String("directory_id", listing.ID),
		slog.Int("directories", len(listing.Directories)),
		slog.Int("files", len(listing.Files)),
		slog.Bool("shared", shared),
	)

	return nil
}

// CreateDirectory creates a directory under parentID and refreshes the
// parent's listing. The returned Directory is valid even when the refresh
// fails; the refresh failure is reported through the error and the state.
func (c *Cache) CreateDirectory(ctx context.Context, parentID, name string) (*api.Directory, error) {
	dir, err := c.fs.CreateDirectory(ctx, parentID, name)
	if err != nil {
		return nil, err
	}

	return dir, c.Load(ctx, parentID)
}

// RenameDirectory renames a directory and refreshes containerID, the
// directory whose listing contains it.
func (c *Cache) RenameDirectory(ctx context.Context, id, name, containerID string) error {
	if err := c.fs.RenameDirectory(ctx, id, name); err != nil {
		return err
	}

	return c.Load(ctx, containerID)
}

// RenameFile renames a file and refreshes containerID.
func (c *Cache) RenameFile(ctx context.Context, id, name, containerID string) error {
	if err := c.fs.RenameFile(ctx, id, name); err != nil {
		return err
	}

	return c.Load(ctx, containerID)
}

// MoveDirectory moves a directory and refreshes containerID, the source
// directory the node was moved out of.
func (c *Cache) MoveDirectory(ctx context.Context, id, newParentID, containerID string) error {
	if err := c.fs.MoveDirectory(ctx, id, newParentID); err != nil {
		return err
	}

	return c.Load(ctx, containerID)
}

// MoveFile moves a file and refreshes containerID.
func (c *Cache) MoveFile(ctx context.Context, id, newParentID, containerID string) error {
	if err := c.fs.MoveFile(ctx, id, newParentID); err != nil {
		return err
	}

	return c.Load(ctx, containerID)
}

// DeleteDirectory deletes a directory and refreshes containerID.
func (c *Cache) DeleteDirectory(ctx context.Context, id, containerID string) error {
	if err := c.fs.DeleteDirectory(ctx, id); err != nil {
		return err
	}

	return c.Load(ctx, containerID)
}

// DeleteFile deletes a file and refreshes containerID.
func (c *Cache) DeleteFile(ctx context.Context, id, containerID string) error {
	if err := c.fs.DeleteFile(ctx, id); err != nil {
		return err
	}

	return c.Load(ctx, containerID)
}

// AddNote attaches a note to a file and refreshes containerID.
func (c *Cache) AddNote(ctx context.Context, fileID, note, containerID string) error {
	if err := c.fs.AddNote(ctx, fileID, note); err != nil {
		return err
	}

	return c.Load(ctx, containerID)
}

// Upload uploads a file into parentID, refreshes that directory, and
// returns the public download URL. An empty parentID uploads anonymously
// to a server-designated location outside the browsed tree; there is no
// context directory to refresh, and no session is required.
func (c *Cache) Upload(ctx context.Context, parentID, name string, r io.Reader, size int64) (string, error) {
	url, err := c.fs.Upload(ctx, parentID, name, r, size)
	if err != nil {
		return "", err
	}

	if parentID == "" {
		return url, nil
	}

	return url, c.Load(ctx, parentID)
}
