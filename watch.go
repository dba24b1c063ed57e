package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <local-dir> <directory-id>",
		Short: "Watch a local directory and upload new files to a remote directory",
		Long: `Watch a local directory and upload every newly created file to the
given remote directory. Runs until interrupted (Ctrl-C).`,
		Args: cobra.ExactArgs(2),
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	localDir, dirID := args[0], args[1]

	a, err := newApp()
	if err != nil {
		return err
	}

	info, err := os.Stat(localDir)
	if err != nil {
		return fmt.Errorf("watching %s: %w", localDir, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("watching %s: not a directory", localDir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(localDir); err != nil {
		return fmt.Errorf("watching %s: %w", localDir, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	statusf("Watching %s, uploading new files to %s. Ctrl-C to stop.\n", localDir, dirID)

	for {
		select {
		case <-ctx.Done():
			statusf("Stopped.\n")

			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !event.Has(fsnotify.Create) {
				continue
			}

			if err := a.uploadWatched(ctx, event.Name, dirID); err != nil {
				// Keep watching; a single failed upload is not fatal.
				a.logger.Error("watched upload failed",
					"path", event.Name,
					"error", err.Error(),
				)
			}

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			a.logger.Warn("watcher error",
				"error", werr.Error(),
			)
		}
	}
}

// uploadWatched uploads a newly created file, skipping directories and
// anything that vanished before we could open it.
func (a *app) uploadWatched(ctx context.Context, path, dirID string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}

	if info.IsDir() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	url, err := a.cache.Upload(ctx, dirID, filepath.Base(path), f, info.Size())
	if err != nil {
		return err
	}

	statusf("Uploaded %s -> %s\n", path, url)

	return nil
}
