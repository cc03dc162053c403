// Package transform implements the pure image pipeline used for
// thumbnail generation: decode, resize to fit a bounding box, apply the
// EXIF orientation transform, and re-encode as JPEG.
//
// The pipeline performs no I/O and holds no shared state; concurrency
// control and caching live in the thumbnail package.
package transform
