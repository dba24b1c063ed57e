package api

import (
	"path/filepath"
	"strings"
)

// contentTypes is the fixed extension→MIME table used for uploads.
// Anything else is sent as application/octet-stream.
var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
	".mp4":  "video/mp4",
	".mp3":  "audio/mpeg",
}

// contentTypeFor derives the upload Content-Type from a file name's
// extension, case-insensitively.
func contentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}

	return "application/octet-stream"
}
