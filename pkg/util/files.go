package util

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtension is used when a source name carries no recognised container.
const DefaultExtension = "mp4"

var videoExtensions = map[string]bool{
	"mp4":  true,
	"webm": true,
	"mkv":  true,
	"mov":  true,
	"avi":  true,
}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// VideoExtension guesses the container extension (without dot, lower case)
// from a file name, falling back to mp4.
func VideoExtension(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if videoExtensions[ext] {
		return ext
	}
	return DefaultExtension
}

// MIMEType maps a container extension to the MIME type used for exports.
func MIMEType(ext string) string {
	if ext == "webm" {
		return "video/webm"
	}
	return "video/mp4"
}
