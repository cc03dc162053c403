// Package metrics defines the Prometheus collectors for the photowall
// service.
//
// Collectors are registered via promauto at package init and cover the
// HTTP layer, the index actor, the thumbnail cache, the filesystem
// watcher, and the upload path. The metrics endpoint is served on a
// dedicated listener configured by METRICS_PORT.
package metrics
