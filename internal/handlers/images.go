package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"photowall/internal/logging"
	"photowall/internal/mediatypes"
	"photowall/internal/transform"

	"github.com/gorilla/mux"
)

// ListImages returns the current index snapshot as JSON.
func (h *Handlers) ListImages(w http.ResponseWriter, r *http.Request) {
	snap, err := h.index.Snapshot(r.Context())
	if err != nil {
		logging.Error("ListImages: snapshot failed: %v", err)
		writeJSONError(w, "Index unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, snap)
}

// GetImage serves an original image file from the storage root.
func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	rel := mux.Vars(r)["path"]

	fullPath, err := resolveUnderRoot(h.storageDir, rel)
	if err != nil {
		logging.Warn("GetImage: rejected path %q: %v", rel, err)
		writeJSONError(w, "Invalid path", http.StatusBadRequest)
		return
	}
	if !mediatypes.IsImagePath(fullPath) {
		writeJSONError(w, "Not an image", http.StatusBadRequest)
		return
	}

	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		writeJSONError(w, "Image not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", mediatypes.GetMimeType(filepath.Ext(fullPath)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFile(w, r, fullPath)
}

// GetThumbnail serves the cached thumbnail for an image, building it on
// first request. Thumbnails are always JPEG regardless of the source
// format.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	rel := mux.Vars(r)["path"]

	source, err := resolveUnderRoot(h.storageDir, rel)
	if err != nil {
		logging.Warn("GetThumbnail: rejected path %q: %v", rel, err)
		writeJSONError(w, "Invalid path", http.StatusBadRequest)
		return
	}
	if !mediatypes.IsImagePath(source) {
		writeJSONError(w, "Not an image", http.StatusBadRequest)
		return
	}

	destination, err := resolveUnderRoot(h.cacheDir, rel)
	if err != nil {
		writeJSONError(w, "Invalid path", http.StatusBadRequest)
		return
	}

	data, err := h.thumbs.BuildOrFetch(r.Context(), source, destination)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			writeJSONError(w, "Image not found", http.StatusNotFound)
		case errors.Is(err, transform.ErrDecode):
			logging.Warn("GetThumbnail: undecodable image %s: %v", rel, err)
			writeJSONError(w, "Image cannot be decoded", http.StatusUnprocessableEntity)
		default:
			var orientErr *transform.UnsupportedOrientationError
			if errors.As(err, &orientErr) {
				logging.Warn("GetThumbnail: %s: %v", rel, err)
				writeJSONError(w, "Image cannot be processed", http.StatusUnprocessableEntity)
				return
			}
			logging.Error("GetThumbnail: build failed for %s: %v", rel, err)
			writeJSONError(w, "Failed to build thumbnail", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(data)
}

// thumbnailPath maps a storage-relative image path to its cache file.
func (h *Handlers) thumbnailPath(rel string) string {
	return filepath.Join(h.cacheDir, filepath.FromSlash(rel))
}
