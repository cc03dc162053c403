// Package main provides the entry point for the photowall server.
//
// Photowall is a self-hosted backend for a continuously updating photo
// wall: clients upload images over HTTP, every viewer's wall converges
// on the contents of the storage directory, and thumbnails are built
// on demand into a file-backed cache.
//
// # Application Lifecycle
//
// The server follows a structured initialization sequence:
//
//  1. Memory Configuration: sets GOMEMLIMIT from environment or
//     container limits
//  2. Configuration Loading: defaults, optional TOML file, environment
//     overrides
//  3. Index Actor: starts the goroutine owning the in-memory image set
//     and triggers the initial scan
//  4. Watcher: establishes recursive filesystem watches on the storage
//     root and feeds debounced notifications into the actor
//  5. HTTP Server Setup: routes, middleware, optional metrics listener
//  6. Graceful Shutdown: handles SIGINT/SIGTERM, stops all components
//     cleanly
//
// # HTTP Servers
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 8080):
//     - Static frontend serving
//     - Image listing, originals, and thumbnails
//     - Multipart uploads
//     - Live update WebSocket feed
//     - Health, readiness, and version endpoints
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//
// # Environment Variables
//
// Configuration is primarily through environment variables:
//
//   - STORAGE_DIR: root directory holding original images
//   - CACHE_DIR: root directory holding built thumbnails
//   - STATIC_DIR: web frontend directory (default: ./static)
//   - PORT: main HTTP server port (default: 8080)
//   - METRICS_PORT: metrics server port (default: 9090)
//   - METRICS_ENABLED: enable metrics server (default: true)
//   - DEBOUNCE_WINDOW: watcher quiet period (default: 1s)
//   - MAX_EDGE: thumbnail longer-edge bound in pixels (default: 1000)
//   - JPEG_QUALITY: thumbnail encode quality (default: 80)
//   - MAX_UPLOAD_BYTES: upload size cap (default: 50 MiB)
//   - TRANSFORM_WORKERS: concurrent thumbnail transform cap
//   - LOG_LEVEL: logging level (debug/info/warn/error)
//   - GOMEMLIMIT: memory limit (or MEMORY_LIMIT + MEMORY_RATIO)
//
// # Related Packages
//
//   - [photowall/internal/index]: actor-owned live image index
//   - [photowall/internal/watcher]: debounced filesystem watching
//   - [photowall/internal/thumbnail]: file-backed thumbnail cache
//   - [photowall/internal/transform]: decode/resize/orient pipeline
//   - [photowall/internal/handlers]: HTTP request handlers
//   - [photowall/internal/middleware]: logging, metrics, compression
package main
