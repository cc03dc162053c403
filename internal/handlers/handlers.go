package handlers

import (
	"runtime"
	"time"

	"photowall/internal/config"
	"photowall/internal/index"
	"photowall/internal/thumbnail"
)

// BuildInfo contains version and build information, populated from
// ldflags by the main package.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// Handlers bundles the request handlers and their shared dependencies.
type Handlers struct {
	index  *index.Actor
	thumbs *thumbnail.Cache

	storageDir     string
	cacheDir       string
	maxUploadBytes int64

	buildInfo BuildInfo
	startTime time.Time
}

// New creates the handler set.
func New(cfg *config.Config, actor *index.Actor, thumbs *thumbnail.Cache, info BuildInfo) *Handlers {
	if info.GoVersion == "" {
		info.GoVersion = runtime.Version()
	}
	if info.OS == "" {
		info.OS = runtime.GOOS
	}
	if info.Arch == "" {
		info.Arch = runtime.GOARCH
	}
	return &Handlers{
		index:          actor,
		thumbs:         thumbs,
		storageDir:     cfg.StorageDir,
		cacheDir:       cfg.CacheDir,
		maxUploadBytes: cfg.MaxUploadBytes,
		buildInfo:      info,
		startTime:      time.Now(),
	}
}
