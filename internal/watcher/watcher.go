package watcher

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"photowall/internal/logging"
	"photowall/internal/metrics"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the storage root recursively and calls notify after
// events have been quiet for one debounce window.
type Watcher struct {
	root   string
	window time.Duration
	notify func()

	fs *fsnotify.Watcher

	stopOnce sync.Once
	stopc    chan struct{}
	done     chan struct{}
}

// New creates a Watcher over root. Failure to establish the initial
// watch set is fatal to the caller: a server silently missing events
// is worse than one that refuses to start.
func New(root string, window time.Duration, notify func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}

	w := &Watcher{
		root:   root,
		window: window,
		notify: notify,
		fs:     fsw,
		stopc:  make(chan struct{}),
		done:   make(chan struct{}),
	}

	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", root, err)
	}
	return w, nil
}

// Start begins event processing.
func (w *Watcher) Start() {
	logging.Info("Watching %s (debounce window %v)", w.root, w.window)
	go w.run()
}

// Stop shuts the watcher down. No notifications are delivered after
// Stop returns.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopc) })
	<-w.done
	w.fs.Close()
}

func (w *Watcher) run() {
	defer close(w.done)

	timer := time.NewTimer(w.window)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-w.stopc:
			if pending && !timer.Stop() {
				<-timer.C
			}
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			logging.Debug("Watcher event: %s %s", event.Op, event.Name)
			metrics.WatcherEventsTotal.WithLabelValues(opLabel(event.Op)).Inc()

			// New directories need their own watches; anything created
			// inside them before the watch landed is picked up by the
			// rescan this event is about to trigger.
			if event.Op.Has(fsnotify.Create) {
				if err := w.addRecursive(event.Name); err != nil {
					logging.Warn("Failed to watch new path %s: %v", event.Name, err)
				}
			}

			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.window)
			pending = true

		case <-timer.C:
			pending = false
			metrics.WatcherNotificationsTotal.Inc()
			logging.Debug("Watcher quiet period elapsed, notifying")
			w.notify()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			metrics.WatcherErrors.Inc()
			logging.Error("Watcher error: %v", err)
		}
	}
}

// addRecursive registers watches on path and every non-hidden directory
// below it. Non-directories are ignored.
func (w *Watcher) addRecursive(path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// The path may have vanished between the event and the walk.
			if p == path {
				return nil
			}
			logging.Warn("Watcher: skipping %s: %v", p, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fs.Add(p); err != nil {
			return fmt.Errorf("failed to add watch on %s: %w", p, err)
		}
		metrics.WatchedDirectories.Inc()
		return nil
	})
}

// relevant filters out events that can never change the index: hidden
// files, staging temp files, and bare chmods.
func relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(event.Name)
	return !strings.HasPrefix(name, ".")
}

func opLabel(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	case op.Has(fsnotify.Chmod):
		return "chmod"
	default:
		return "other"
	}
}
