// Package tokenstore persists session credentials in a JSON file. It is a
// leaf package implementing the session.Store contract: a flat key-value
// map, written atomically with owner-only permissions and never logged.
package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FilePerms restricts token files to owner-only read/write.
const FilePerms = 0o600

// DirPerms is used when creating the token file's directory.
const DirPerms = 0o700

// fileFormat is the on-disk shape of the token file.
type fileFormat struct {
	Tokens map[string]string `json:"tokens"`
}

// File is a file-backed credential store. An absent file reads as an
// empty store. Safe for concurrent use within a process.
type File struct {
	path string

	mu sync.Mutex
}

// New creates a store backed by the file at path. The file is created
// lazily on the first Set.
func New(path string) *File {
	return &File{path: path}
}

// Get returns the value for key, or an empty string when the key (or the
// file) does not exist.
func (f *File) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tokens, err := f.read()
	if err != nil {
		return "", err
	}

	return tokens[key], nil
}

// Set stores value under key, creating the file if needed.
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tokens, err := f.read()
	if err != nil {
		return err
	}

	tokens[key] = value

	return f.write(tokens)
}

// Remove deletes key. Removing an absent key is a no-op.
func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tokens, err := f.read()
	if err != nil {
		return err
	}

	if _, ok := tokens[key]; !ok {
		return nil
	}

	delete(tokens, key)

	return f.write(tokens)
}

func (f *File) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("tokenstore: reading %s: %w", f.path, err)
	}

	var tf fileFormat
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("tokenstore: decoding %s: %w", f.path, err)
	}

	if tf.Tokens == nil {
		tf.Tokens = map[string]string{}
	}

	return tf.Tokens, nil
}

// write persists the map atomically (write-to-temp + rename) with 0600
// permissions. The temp file lives in the same directory so the rename
// stays on one filesystem.
func (f *File) write(tokens map[string]string) error {
	data, err := json.MarshalIndent(fileFormat{Tokens: tokens}, "", "  ")
	if err != nil {
		return fmt.Errorf("tokenstore: encoding: %w", err)
	}

	dir := filepath.Dir(f.path)
	if mkErr := os.MkdirAll(dir, DirPerms); mkErr != nil {
		return fmt.Errorf("tokenstore: creating directory %s: %w", dir, mkErr)
	}

	tmp, err := os.CreateTemp(dir, ".tokens-*.tmp")
	if err != nil {
		return fmt.Errorf("tokenstore: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	// Clean up the temp file on any error path.
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, FilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: writing: %w", err)
	}

	// Flush to stable storage before rename so a power loss cannot leave
	// an empty or partial file at the final path.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: syncing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tokenstore: closing: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("tokenstore: renaming: %w", err)
	}

	success = true

	return nil
}
