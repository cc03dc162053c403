// Package handlers provides HTTP request handlers for the photowall API.
//
// It includes handlers for:
//   - Listing the current image index
//   - Serving originals and on-demand thumbnails
//   - Accepting image uploads
//   - The live update WebSocket feed
//   - Health checks and version info
package handlers
