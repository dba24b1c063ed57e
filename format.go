package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/buzzheavier/buzzheavier-go/internal/api"
)

// statusf prints a status message to stderr unless quiet mode is set.
func statusf(format string, args ...any) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// Size unit constants for human-readable formatting.
const (
	sizeKB = 1024
	sizeMB = 1024 * 1024
	sizeGB = 1024 * 1024 * 1024
	sizeTB = 1024 * 1024 * 1024 * 1024
)

// formatSize returns a human-readable size string (e.g. "1.2 MB").
func formatSize(bytes uint64) string {
	switch {
	case bytes >= sizeTB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/float64(sizeTB))
	case bytes >= sizeGB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(sizeGB))
	case bytes >= sizeMB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(sizeMB))
	case bytes >= sizeKB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(sizeKB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatTime returns a compact timestamp for display. Zero times (the API
// omitted createdAt) render as "-".
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	now := time.Now()

	// Same calendar year: show "Jan  2 15:04"
	if t.Year() == now.Year() {
		return t.Format("Jan _2 15:04")
	}

	// Different year: show "Jan  2  2006"
	return t.Format("Jan _2  2006")
}

// printListing renders a directory listing: an aligned table on a
// terminal, tab-separated fields when piped so output stays scriptable.
func printListing(listing *api.Listing) {
	nodes := listing.Nodes()

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		for _, node := range nodes {
			switch n := node.(type) {
			case api.Directory:
				fmt.Printf("dir\t%s\t-\t%s\n", n.ID, n.Name)
			case api.File:
				fmt.Printf("file\t%s\t%d\t%s\n", n.ID, n.Size, n.Name)
			}
		}

		return
	}

	rows := make([][]string, 0, len(nodes))

	for _, node := range nodes {
		switch n := node.(type) {
		case api.Directory:
			rows = append(rows, []string{"dir", n.ID, "-", formatTime(n.CreatedAt), n.Name})
		case api.File:
			rows = append(rows, []string{"file", n.ID, formatSize(n.Size), formatTime(n.CreatedAt), n.Name})
		}
	}

	printTable(os.Stdout, []string{"TYPE", "ID", "SIZE", "CREATED", "NAME"}, rows)
}

// printTable writes aligned columns to the given writer.
// headers and each row must have the same length.
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow(w, headers, widths)

	for _, row := range rows {
		printRow(w, row, widths)
	}
}

// printRow writes a single padded row.
func printRow(w io.Writer, cells []string, widths []int) {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
	}

	fmt.Fprintln(w, strings.Join(parts, "  "))
}
