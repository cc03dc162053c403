package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photowall_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photowall_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photowall_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Index actor metrics
var (
	IndexScansTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photowall_index_scans_total",
			Help: "Total number of storage rescans performed by the index actor",
		},
	)

	IndexScanErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photowall_index_scan_errors_total",
			Help: "Total number of rescans that failed and kept the previous snapshot",
		},
	)

	IndexScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photowall_index_scan_duration_seconds",
			Help:    "Storage rescan duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
	)

	IndexImages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photowall_index_images",
			Help: "Number of images in the current index snapshot",
		},
	)

	IndexSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photowall_index_subscribers",
			Help: "Number of active update subscribers",
		},
	)

	IndexUpdatesBroadcast = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photowall_index_updates_broadcast_total",
			Help: "Total number of diff updates broadcast to subscribers",
		},
	)

	IndexUpdatesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photowall_index_updates_dropped_total",
			Help: "Total number of updates dropped because a subscriber fell behind",
		},
	)
)

// Thumbnail cache metrics
var (
	ThumbnailRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photowall_thumbnail_requests_total",
			Help: "Total number of thumbnail build-or-fetch calls",
		},
		[]string{"result"}, // "hit", "built", "error"
	)

	ThumbnailBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photowall_thumbnail_build_duration_seconds",
			Help:    "Thumbnail decode/resize/encode duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ThumbnailDedupWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photowall_thumbnail_dedup_waits_total",
			Help: "Total number of callers that waited on another in-flight build of the same thumbnail",
		},
	)
)

// Watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photowall_watcher_events_total",
			Help: "Total number of raw filesystem events received",
		},
		[]string{"op"},
	)

	WatcherNotificationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photowall_watcher_notifications_total",
			Help: "Total number of debounced change notifications delivered to the index actor",
		},
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photowall_watcher_errors_total",
			Help: "Total number of filesystem watcher errors",
		},
	)

	WatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photowall_watcher_directories",
			Help: "Number of directories currently watched",
		},
	)
)

// Upload metrics
var (
	UploadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photowall_uploads_total",
			Help: "Total number of upload requests",
		},
	)

	UploadsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photowall_uploads_failed_total",
			Help: "Total number of failed upload requests",
		},
	)

	UploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photowall_upload_bytes_total",
			Help: "Total bytes of accepted uploads",
		},
	)
)

// Live feed metrics
var (
	FeedConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photowall_feed_connections",
			Help: "Number of open live feed WebSocket connections",
		},
	)

	FeedMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photowall_feed_messages_sent_total",
			Help: "Total number of messages written to live feed connections",
		},
	)
)
