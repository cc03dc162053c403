package index

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"photowall/internal/logging"
	"photowall/internal/mediatypes"
	"photowall/internal/metrics"

	"github.com/google/uuid"
)

// ErrStopped is returned by actor operations after Stop.
var ErrStopped = errors.New("index actor stopped")

// defaultSubscriberBuffer is the per-subscriber update buffer. A
// subscriber that lags behind this many updates starts losing the
// oldest undelivered ones.
const defaultSubscriberBuffer = 16

// Actor owns the authoritative in-memory image set for one storage
// root. All access goes through its methods; the set itself is
// confined to the actor goroutine.
type Actor struct {
	root             string
	subscriberBuffer int

	commands chan command
	wake     chan struct{}

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}

	readyOnce sync.Once
	ready     chan struct{}
}

// Option configures an Actor.
type Option func(*Actor)

// WithSubscriberBuffer overrides the per-subscriber update buffer size.
func WithSubscriberBuffer(n int) Option {
	return func(a *Actor) {
		if n > 0 {
			a.subscriberBuffer = n
		}
	}
}

type command interface{ isCommand() }

type snapshotCmd struct {
	reply chan Snapshot
}

type insertCmd struct {
	image Image
	reply chan struct{}
}

type subscribeCmd struct {
	withSnapshot bool
	reply        chan subscribeReply
}

type subscribeReply struct {
	snapshot     Snapshot
	subscription *Subscription
}

type unsubscribeCmd struct {
	id uuid.UUID
}

func (snapshotCmd) isCommand()    {}
func (insertCmd) isCommand()      {}
func (subscribeCmd) isCommand()   {}
func (unsubscribeCmd) isCommand() {}

// New creates an Actor for the given storage root. Call Start to begin
// processing.
func New(root string, opts ...Option) *Actor {
	a := &Actor{
		root:             root,
		subscriberBuffer: defaultSubscriberBuffer,
		commands:         make(chan command),
		wake:             make(chan struct{}, 1),
		stop:             make(chan struct{}),
		done:             make(chan struct{}),
		ready:            make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Start launches the actor goroutine and triggers the initial scan.
func (a *Actor) Start() {
	a.NotifyChange()
	go a.run()
}

// Stop terminates the actor. All subscriber channels are closed and
// subsequent operations return ErrStopped.
func (a *Actor) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })
	<-a.done
}

// Ready returns a channel closed after the first successful scan.
func (a *Actor) Ready() <-chan struct{} {
	return a.ready
}

// NotifyChange signals that the storage root may have changed.
// Fire-and-forget and coalescing: signals arriving while a rescan is
// already pending collapse into one.
func (a *Actor) NotifyChange() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Snapshot returns the most recently completed index snapshot. It never
// waits for an in-progress rescan.
func (a *Actor) Snapshot(ctx context.Context) (Snapshot, error) {
	cmd := snapshotCmd{reply: make(chan Snapshot, 1)}
	if err := a.send(ctx, cmd); err != nil {
		return Snapshot{}, err
	}
	select {
	case snap := <-cmd.reply:
		return snap, nil
	case <-a.stop:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Insert makes an image visible in the index immediately, without
// waiting for the next debounced rescan. Inserting a path that is
// already present is a no-op and broadcasts nothing, so the rescan
// that later observes the same file never produces a duplicate
// addition.
func (a *Actor) Insert(ctx context.Context, img Image) error {
	cmd := insertCmd{image: img, reply: make(chan struct{}, 1)}
	if err := a.send(ctx, cmd); err != nil {
		return err
	}
	select {
	case <-cmd.reply:
		return nil
	case <-a.stop:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns an independent receive handle for updates emitted
// after the call. A consumer pairing this with a separate Snapshot
// call can miss an update emitted between the two operations; use
// SubscribeThenSnapshot for a gap-free bootstrap.
func (a *Actor) Subscribe(ctx context.Context) (*Subscription, error) {
	_, sub, err := a.subscribe(ctx, false)
	return sub, err
}

// SubscribeThenSnapshot atomically registers a subscription and returns
// the current snapshot. Every update emitted after the returned
// snapshot is delivered on the subscription, exactly once.
func (a *Actor) SubscribeThenSnapshot(ctx context.Context) (Snapshot, *Subscription, error) {
	return a.subscribe(ctx, true)
}

func (a *Actor) subscribe(ctx context.Context, withSnapshot bool) (Snapshot, *Subscription, error) {
	cmd := subscribeCmd{withSnapshot: withSnapshot, reply: make(chan subscribeReply, 1)}
	if err := a.send(ctx, cmd); err != nil {
		return Snapshot{}, nil, err
	}
	select {
	case reply := <-cmd.reply:
		return reply.snapshot, reply.subscription, nil
	case <-a.stop:
		return Snapshot{}, nil, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, nil, ctx.Err()
	}
}

func (a *Actor) send(ctx context.Context, cmd command) error {
	select {
	case a.commands <- cmd:
		return nil
	case <-a.stop:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the actor loop. It is the only goroutine that touches the
// working set and the subscriber registry.
func (a *Actor) run() {
	defer close(a.done)

	images := make(map[string]Image)
	snapshot := Snapshot{}
	subscribers := make(map[uuid.UUID]chan Update)

	broadcast := func(update Update) {
		if update.IsEmpty() {
			return
		}
		metrics.IndexUpdatesBroadcast.Inc()
		for _, ch := range subscribers {
			deliver(ch, update)
		}
	}

	rescan := func() {
		next, err := a.scan()
		if err != nil {
			// Keep serving the previous snapshot; the next trigger
			// retries for free.
			logging.Error("Index scan failed, keeping previous snapshot: %v", err)
			metrics.IndexScanErrors.Inc()
			return
		}
		update := diff(images, next)
		images = next
		snapshot = snapshotOf(images)
		metrics.IndexImages.Set(float64(len(images)))
		a.readyOnce.Do(func() { close(a.ready) })
		if !update.IsEmpty() {
			logging.Info("Index updated: %d additions, %d deletions, %d total",
				len(update.Additions), len(update.Deletions), len(images))
			broadcast(update)
		}
	}

	for {
		select {
		case <-a.stop:
			for id, ch := range subscribers {
				close(ch)
				delete(subscribers, id)
			}
			metrics.IndexSubscribers.Set(0)
			return

		case <-a.wake:
			rescan()

		case cmd := <-a.commands:
			switch cmd := cmd.(type) {
			case snapshotCmd:
				cmd.reply <- snapshot

			case insertCmd:
				if _, ok := images[cmd.image.Path]; !ok {
					images[cmd.image.Path] = cmd.image
					snapshot = snapshotOf(images)
					metrics.IndexImages.Set(float64(len(images)))
					broadcast(Update{Additions: []Image{cmd.image}})
				}
				cmd.reply <- struct{}{}

			case subscribeCmd:
				id := uuid.New()
				ch := make(chan Update, a.subscriberBuffer)
				subscribers[id] = ch
				metrics.IndexSubscribers.Set(float64(len(subscribers)))
				reply := subscribeReply{
					subscription: newSubscription(a, id, ch),
				}
				if cmd.withSnapshot {
					reply.snapshot = snapshot
				}
				cmd.reply <- reply

			case unsubscribeCmd:
				if ch, ok := subscribers[cmd.id]; ok {
					close(ch)
					delete(subscribers, cmd.id)
					metrics.IndexSubscribers.Set(float64(len(subscribers)))
				}
			}
		}
	}
}

// deliver sends an update to a subscriber without ever blocking the
// actor: when the buffer is full the oldest undelivered update is
// discarded to make room.
func deliver(ch chan Update, update Update) {
	for {
		select {
		case ch <- update:
			return
		default:
		}
		select {
		case <-ch:
			metrics.IndexUpdatesDropped.Inc()
		default:
		}
	}
}

// scan enumerates all eligible images under the storage root. Per-entry
// errors are logged and skipped; an error reaching the root itself
// fails the scan.
func (a *Actor) scan() (map[string]Image, error) {
	start := time.Now()
	metrics.IndexScansTotal.Inc()
	defer func() {
		metrics.IndexScanDuration.Observe(time.Since(start).Seconds())
	}()

	images := make(map[string]Image)

	err := filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == a.root {
				return err
			}
			logging.Warn("Index scan: skipping %s: %v", path, err)
			return nil
		}

		if d.IsDir() {
			if path != a.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !mediatypes.IsImagePath(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logging.Warn("Index scan: failed to stat %s: %v", path, err)
			return nil
		}
		rel, err := filepath.Rel(a.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		images[rel] = Image{Path: rel, Size: info.Size(), ModTime: info.ModTime()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}
