package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"photowall/internal/logging"
	"photowall/internal/metrics"
	"photowall/internal/transform"

	"golang.org/x/sync/singleflight"
)

// Cache builds and serves thumbnails backed by files under a cache
// root. The zero value is not usable; construct with New.
type Cache struct {
	engine *transform.Engine

	// group coalesces concurrent builds of the same destination so the
	// transform runs at most once per not-yet-cached path.
	group singleflight.Group

	// slots bounds the number of concurrent CPU-bound transforms.
	slots chan struct{}

	// transformFn is the pipeline entry point; replaced in tests.
	transformFn func([]byte) ([]byte, error)
}

// New creates a Cache producing thumbnails bounded by maxEdge pixels at
// the given JPEG quality, running at most workers transforms in
// parallel.
func New(maxEdge, quality, workers int) *Cache {
	if workers < 1 {
		workers = 1
	}
	engine := transform.New(maxEdge, quality)
	c := &Cache{
		engine: engine,
		slots:  make(chan struct{}, workers),
	}
	c.transformFn = engine.Thumbnail
	logging.Debug("Thumbnail cache: maxEdge=%d quality=%d workers=%d", maxEdge, quality, workers)
	return c
}

// BuildOrFetch returns the thumbnail for source, building and caching
// it at destination on first request.
//
// If destination already exists its bytes are returned unchanged; the
// cache is correctness-by-convention and never revalidates against the
// source. Concurrent calls for the same uncached destination share a
// single build. The written file appears atomically: it is staged to a
// temporary name and renamed into place.
func (c *Cache) BuildOrFetch(ctx context.Context, source, destination string) ([]byte, error) {
	if data, err := os.ReadFile(destination); err == nil {
		metrics.ThumbnailRequestsTotal.WithLabelValues("hit").Inc()
		return data, nil
	}

	result, err, shared := c.group.Do(destination, func() (interface{}, error) {
		return c.build(ctx, source, destination)
	})
	if shared {
		metrics.ThumbnailDedupWaits.Inc()
	}
	if err != nil {
		metrics.ThumbnailRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	return result.([]byte), nil
}

func (c *Cache) build(ctx context.Context, source, destination string) ([]byte, error) {
	// A racing caller may have completed the build between our fast-path
	// check and entering the singleflight group.
	if data, err := os.ReadFile(destination); err == nil {
		metrics.ThumbnailRequestsTotal.WithLabelValues("hit").Inc()
		return data, nil
	}

	src, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read source %s: %w", source, err)
	}

	data, err := c.run(ctx, src)
	if errors.Is(err, transform.ErrDecode) {
		// HEIC and friends are not decodable in-process; fall back to
		// ffmpeg when available.
		data, err = c.buildWithFFmpeg(ctx, source, err)
	}
	if err != nil {
		return nil, err
	}

	if err := writeAtomic(destination, data); err != nil {
		return nil, err
	}

	metrics.ThumbnailRequestsTotal.WithLabelValues("built").Inc()
	logging.Debug("Thumbnail built: %s (%d bytes)", destination, len(data))
	return data, nil
}

// run executes the CPU-bound transform on a worker slot so it never
// blocks goroutines driving network or filesystem I/O.
func (c *Cache) run(ctx context.Context, src []byte) ([]byte, error) {
	select {
	case c.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-c.slots }()

	start := time.Now()
	data, err := c.transformFn(src)
	metrics.ThumbnailBuildDuration.Observe(time.Since(start).Seconds())
	return data, err
}

// buildWithFFmpeg decodes the source via ffmpeg into PNG and re-runs
// the transform on the result. decodeErr is the original in-process
// failure, returned when no fallback is possible.
func (c *Cache) buildWithFFmpeg(ctx context.Context, source string, decodeErr error) ([]byte, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, decodeErr
	}

	logging.Debug("Using ffmpeg to decode: %s", source)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", source,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("all decode methods failed for %s: %w (ffmpeg: %v, %s)",
			source, decodeErr, err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("all decode methods failed for %s: %w (ffmpeg produced no output)",
			source, decodeErr)
	}

	return c.run(ctx, stdout.Bytes())
}

// writeAtomic stages data to a temporary file in the destination
// directory and renames it into place, creating parent directories as
// needed. Readers either see the complete file or no file.
func writeAtomic(destination string, data []byte) error {
	dir := filepath.Dir(destination)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".thumb-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close thumbnail temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), destination); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move thumbnail into place: %w", err)
	}
	if err := os.Chmod(destination, 0o644); err != nil {
		logging.Warn("failed to chmod thumbnail %s: %v", destination, err)
	}
	return nil
}
