package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"photowall/internal/index"
	"photowall/internal/logging"
	"photowall/internal/mediatypes"
	"photowall/internal/metrics"
)

// uploadTimestampFormat prefixes stored filenames so uploads sort
// chronologically and two uploads of the same filename never collide
// across seconds.
const uploadTimestampFormat = "20060102T150405Z"

// Upload accepts a multipart image upload, stores it under the storage
// root, eagerly builds its thumbnail, and inserts it into the index so
// it is visible before the next filesystem rescan.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	metrics.UploadsTotal.Inc()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("image")
	if err != nil {
		metrics.UploadsFailed.Inc()
		logging.Warn("Upload: bad request: %v", err)
		writeJSONError(w, "Missing or oversized image field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := sanitizeUploadName(header.Filename)
	if name == "" || !mediatypes.IsImagePath(name) {
		metrics.UploadsFailed.Inc()
		writeJSONError(w, "Unsupported file type", http.StatusBadRequest)
		return
	}

	storedName := time.Now().UTC().Format(uploadTimestampFormat) + "_" + name
	fullPath := filepath.Join(h.storageDir, storedName)

	size, err := writeUpload(fullPath, file)
	if err != nil {
		metrics.UploadsFailed.Inc()
		logging.Error("Upload: failed to store %s: %v", storedName, err)
		writeJSONError(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}
	metrics.UploadBytes.Add(float64(size))

	info, err := os.Stat(fullPath)
	if err != nil {
		metrics.UploadsFailed.Inc()
		logging.Error("Upload: failed to stat stored file %s: %v", fullPath, err)
		writeJSONError(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}

	// Build the thumbnail before announcing the image, so no viewer
	// ever sees an indexed entry whose thumbnail is not yet servable.
	// A build failure is not a failed upload: the thumbnail is retried
	// on first view instead.
	if _, err := h.thumbs.BuildOrFetch(r.Context(), fullPath, h.thumbnailPath(storedName)); err != nil {
		logging.Warn("Upload: eager thumbnail build failed for %s: %v", storedName, err)
	}

	img := index.Image{Path: storedName, Size: info.Size(), ModTime: info.ModTime()}
	if err := h.index.Insert(r.Context(), img); err != nil {
		// The file is on disk; the next rescan will pick it up.
		logging.Warn("Upload: index insert failed for %s: %v", storedName, err)
	}

	logging.Info("Upload accepted: %s (%d bytes)", storedName, size)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, img)
}

// sanitizeUploadName reduces a client-supplied filename to a safe base
// name: no directories, no hidden-file prefix, spaces collapsed.
func sanitizeUploadName(name string) string {
	name = filepath.Base(filepath.ToSlash(name))
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.TrimLeft(name, ".")
	if name == "" || name == "/" || strings.ContainsAny(name, "\x00/\\") {
		return ""
	}
	return name
}

// writeUpload streams the upload to a temporary file next to the final
// path and renames it into place, so a crashed upload never leaves a
// half-written image for the index to find.
func writeUpload(destination string, src io.Reader) (int64, error) {
	dir := filepath.Dir(destination)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}

	size, err := io.Copy(tmp, src)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to close upload temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), destination); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to move upload into place: %w", err)
	}
	if err := os.Chmod(destination, 0o644); err != nil {
		logging.Warn("failed to chmod upload %s: %v", destination, err)
	}
	return size, nil
}
