package mediatypes

import (
	"path/filepath"
	"strings"
)

// ImageExtensions maps lowercase file extensions to whether they are
// eligible for indexing and thumbnail generation. Everything else under
// the storage root is ignored.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".heic": true,
}

// IsImagePath reports whether the path has an eligible image extension.
// The check is case-insensitive.
func IsImagePath(path string) bool {
	return ImageExtensions[strings.ToLower(filepath.Ext(path))]
}

// GetMimeType returns the MIME type for an image extension, or
// application/octet-stream for anything unrecognized.
func GetMimeType(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".heic":
		return "image/heic"
	}
	return "application/octet-stream"
}
