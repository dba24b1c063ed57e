package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/buzzheavier/buzzheavier-go/internal/api"
)

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [directory-id]",
		Short: "List a directory (root when no id is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLs,
	}
}

func newMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <parent-id> <name>",
		Short: "Create a directory",
		Args:  cobra.ExactArgs(2),
		RunE:  runMkdir,
	}
}

func newRenameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <id> <new-name>",
		Short: "Rename a file or directory",
		Args:  cobra.ExactArgs(2),
		RunE:  runRename,
	}

	cmd.Flags().Bool("dir", false, "the id refers to a directory")
	cmd.Flags().String("in", "", "id of the directory containing the node (for refresh; root when empty)")

	return cmd
}

func newMvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mv <id> <new-parent-id>",
		Short: "Move a file or directory under a new parent",
		Args:  cobra.ExactArgs(2),
		RunE:  runMv,
	}

	cmd.Flags().Bool("dir", false, "the id refers to a directory")
	cmd.Flags().String("in", "", "id of the directory the node is moved out of (for refresh; root when empty)")

	return cmd
}

func newRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a file or directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runRm,
	}

	cmd.Flags().Bool("dir", false, "the id refers to a directory")
	cmd.Flags().String("in", "", "id of the directory containing the node (for refresh; root when empty)")

	return cmd
}

func newNoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note <file-id> <text>",
		Short: "Attach a note to a file",
		Args:  cobra.ExactArgs(2),
		RunE:  runNote,
	}

	cmd.Flags().String("in", "", "id of the directory containing the file (for refresh; root when empty)")

	return cmd
}

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <local-file> [directory-id]",
		Short: "Upload a file (anonymously when no directory is given)",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runUpload,
	}
}

func runLs(cmd *cobra.Command, args []string) error {
	var dirID string
	if len(args) > 0 {
		dirID = args[0]
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	if err := a.cache.Load(cmd.Context(), dirID); err != nil {
		return friendlyErr(fmt.Errorf("listing directory: %w", err))
	}

	listing := a.cache.State().Listing

	if flagJSON {
		return printListingJSON(listing)
	}

	printListing(listing)

	return nil
}

func runMkdir(cmd *cobra.Command, args []string) error {
	parentID, name := args[0], args[1]

	a, err := newApp()
	if err != nil {
		return err
	}

	dir, err := a.cache.CreateDirectory(cmd.Context(), parentID, name)
	if err != nil {
		return friendlyErr(fmt.Errorf("creating directory: %w", err))
	}

	statusf("Created directory %s (%s).\n", dir.Name, dir.ID)

	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
	id, name := args[0], args[1]
	isDir, _ := cmd.Flags().GetBool("dir")
	containerID, _ := cmd.Flags().GetString("in")

	a, err := newApp()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if isDir {
		err = a.cache.RenameDirectory(ctx, id, name, containerID)
	} else {
		err = a.cache.RenameFile(ctx, id, name, containerID)
	}

	if err != nil {
		return friendlyErr(fmt.Errorf("renaming %s: %w", id, err))
	}

	statusf("Renamed %s to %s.\n", id, name)

	return nil
}

func runMv(cmd *cobra.Command, args []string) error {
	id, newParentID := args[0], args[1]
	isDir, _ := cmd.Flags().GetBool("dir")
	containerID, _ := cmd.Flags().GetString("in")

	a, err := newApp()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if isDir {
		err = a.cache.MoveDirectory(ctx, id, newParentID, containerID)
	} else {
		err = a.cache.MoveFile(ctx, id, newParentID, containerID)
	}

	if err != nil {
		return friendlyErr(fmt.Errorf("moving %s: %w", id, err))
	}

	statusf("Moved %s.\n", id)

	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	id := args[0]
	isDir, _ := cmd.Flags().GetBool("dir")
	containerID, _ := cmd.Flags().GetString("in")

	a, err := newApp()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if isDir {
		err = a.cache.DeleteDirectory(ctx, id, containerID)
	} else {
		err = a.cache.DeleteFile(ctx, id, containerID)
	}

	if err != nil {
		return friendlyErr(fmt.Errorf("deleting %s: %w", id, err))
	}

	statusf("Deleted %s.\n", id)

	return nil
}

func runNote(cmd *cobra.Command, args []string) error {
	fileID, note := args[0], args[1]
	containerID, _ := cmd.Flags().GetString("in")

	a, err := newApp()
	if err != nil {
		return err
	}

	if err := a.cache.AddNote(cmd.Context(), fileID, note, containerID); err != nil {
		return friendlyErr(fmt.Errorf("adding note to %s: %w", fileID, err))
	}

	statusf("Note added to %s.\n", fileID)

	return nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	localPath := args[0]

	var dirID string
	if len(args) > 1 {
		dirID = args[1]
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stating %s: %w", localPath, err)
	}

	url, err := a.cache.Upload(cmd.Context(), dirID, filepath.Base(localPath), f, info.Size())
	if err != nil {
		return friendlyErr(fmt.Errorf("uploading %s: %w", localPath, err))
	}

	// The URL goes to stdout so it is pipeable; the status line does not.
	statusf("Uploaded %s.\n", localPath)
	fmt.Println(url)

	return nil
}

// lsJSONNode is the JSON output schema for a single node in ls output.
type lsJSONNode struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDir     bool   `json:"is_dir"`
	Size      uint64 `json:"size,omitempty"`
	URL       string `json:"url,omitempty"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

func printListingJSON(listing *api.Listing) error {
	out := make([]lsJSONNode, 0, len(listing.Directories)+len(listing.Files))

	for _, node := range listing.Nodes() {
		switch n := node.(type) {
		case api.Directory:
			entry := lsJSONNode{ID: n.ID, Name: n.Name, IsDir: true}
			if !n.CreatedAt.IsZero() {
				entry.CreatedAt = n.CreatedAt.Format(time.RFC3339)
			}

			out = append(out, entry)
		case api.File:
			entry := lsJSONNode{ID: n.ID, Name: n.Name, Size: n.Size, URL: n.URL, Note: n.Note}
			if !n.CreatedAt.IsZero() {
				entry.CreatedAt = n.CreatedAt.Format(time.RFC3339)
			}

			out = append(out, entry)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}
