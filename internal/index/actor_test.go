package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func startActor(t *testing.T, root string, opts ...Option) *Actor {
	t.Helper()
	a := New(root, opts...)
	a.Start()
	t.Cleanup(a.Stop)
	select {
	case <-a.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("actor never became ready")
	}
	return a
}

func paths(images []Image) []string {
	out := make([]string, len(images))
	for i, img := range images {
		out[i] = img.Path
	}
	return out
}

// waitForSnapshot polls until the snapshot satisfies ok or the deadline
// expires.
func waitForSnapshot(t *testing.T, a *Actor, ok func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := a.Snapshot(context.Background())
		require.NoError(t, err)
		if ok(snap) {
			return snap
		}
		a.NotifyChange()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("snapshot never reached expected state")
	return Snapshot{}
}

func TestInitialScanFiltersAndSorts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "beta.jpg")
	writeFile(t, root, "alpha.png")
	writeFile(t, root, "sub/gamma.jpeg")
	writeFile(t, root, "notes.txt")
	writeFile(t, root, ".hidden.jpg")
	writeFile(t, root, ".cache/skipped.jpg")

	a := startActor(t, root)

	snap, err := a.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha.png", "beta.jpg", "sub/gamma.jpeg"}, paths(snap.Images))
}

func TestIndexConvergesToFilesystem(t *testing.T) {
	root := t.TempDir()
	a := startActor(t, root)

	writeFile(t, root, "a.jpg")
	a.NotifyChange()
	waitForSnapshot(t, a, func(s Snapshot) bool { return len(s.Images) == 1 })

	writeFile(t, root, "b.jpg")
	require.NoError(t, os.Remove(filepath.Join(root, "a.jpg")))
	a.NotifyChange()

	snap := waitForSnapshot(t, a, func(s Snapshot) bool {
		return len(s.Images) == 1 && s.Images[0].Path == "b.jpg"
	})
	assert.Equal(t, []string{"b.jpg"}, paths(snap.Images))
}

func TestUpdateStreamSumsToNetChange(t *testing.T) {
	root := t.TempDir()
	a := startActor(t, root)

	_, sub, err := a.SubscribeThenSnapshot(context.Background())
	require.NoError(t, err)
	defer sub.Cancel()

	writeFile(t, root, "a.jpg")
	a.NotifyChange()
	first := <-sub.Updates()
	assert.Equal(t, []string{"a.jpg"}, paths(first.Additions))

	writeFile(t, root, "b.jpg")
	require.NoError(t, os.Remove(filepath.Join(root, "a.jpg")))
	a.NotifyChange()

	// Collect updates until the stream accounts for the net change.
	var additions, deletions []string
	additions = append(additions, paths(first.Additions)...)
	deadline := time.After(5 * time.Second)
	for len(additions) < 2 || len(deletions) < 1 {
		select {
		case update := <-sub.Updates():
			additions = append(additions, paths(update.Additions)...)
			deletions = append(deletions, paths(update.Deletions)...)
		case <-deadline:
			t.Fatalf("stream incomplete: additions=%v deletions=%v", additions, deletions)
		}
	}

	assert.Equal(t, []string{"a.jpg", "b.jpg"}, additions)
	assert.Equal(t, []string{"a.jpg"}, deletions)
}

func TestSubscribeThenSnapshotHasNoGap(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "existing.jpg")
	a := startActor(t, root)

	snap, sub, err := a.SubscribeThenSnapshot(context.Background())
	require.NoError(t, err)
	defer sub.Cancel()
	assert.Equal(t, []string{"existing.jpg"}, paths(snap.Images))

	writeFile(t, root, "later.jpg")
	a.NotifyChange()

	select {
	case update := <-sub.Updates():
		assert.Equal(t, []string{"later.jpg"}, paths(update.Additions))
		assert.Empty(t, update.Deletions)
	case <-time.After(5 * time.Second):
		t.Fatal("no update delivered")
	}
}

func TestInsertIsImmediateAndIdempotent(t *testing.T) {
	root := t.TempDir()
	a := startActor(t, root)

	_, sub, err := a.SubscribeThenSnapshot(context.Background())
	require.NoError(t, err)
	defer sub.Cancel()

	writeFile(t, root, "uploaded.jpg")
	img := Image{Path: "uploaded.jpg", Size: 1, ModTime: time.Now()}
	require.NoError(t, a.Insert(context.Background(), img))

	// Visible before any rescan.
	snap, err := a.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"uploaded.jpg"}, paths(snap.Images))

	select {
	case update := <-sub.Updates():
		assert.Equal(t, []string{"uploaded.jpg"}, paths(update.Additions))
	case <-time.After(5 * time.Second):
		t.Fatal("no update for insert")
	}

	// Re-inserting the same path broadcasts nothing.
	require.NoError(t, a.Insert(context.Background(), img))

	// The rescan that observes the uploaded file must not re-announce
	// it: the next update only carries the sentinel file.
	writeFile(t, root, "sentinel.jpg")
	a.NotifyChange()

	select {
	case update := <-sub.Updates():
		assert.Equal(t, []string{"sentinel.jpg"}, paths(update.Additions))
		assert.Empty(t, update.Deletions)
	case <-time.After(5 * time.Second):
		t.Fatal("no update after rescan")
	}
}

func TestSlowSubscriberLosesOldestUpdates(t *testing.T) {
	root := t.TempDir()
	a := startActor(t, root, WithSubscriberBuffer(2))

	sub, err := a.Subscribe(context.Background())
	require.NoError(t, err)
	defer sub.Cancel()

	// Insert returns only after the update is delivered, so all five
	// updates have passed through the buffer by the time we drain it.
	for i := 0; i < 5; i++ {
		img := Image{Path: fmt.Sprintf("img-%d.jpg", i), Size: 1, ModTime: time.Now()}
		require.NoError(t, a.Insert(context.Background(), img))
	}

	var received []string
	for len(received) < 2 {
		select {
		case update := <-sub.Updates():
			received = append(received, update.Additions[0].Path)
		case <-time.After(time.Second):
			t.Fatal("buffer drained early")
		}
	}
	assert.Equal(t, []string{"img-3.jpg", "img-4.jpg"}, received,
		"oldest updates are discarded, newest survive")
}

func TestSlowSubscriberDoesNotAffectOthers(t *testing.T) {
	root := t.TempDir()
	a := startActor(t, root, WithSubscriberBuffer(2))

	slow, err := a.Subscribe(context.Background())
	require.NoError(t, err)
	defer slow.Cancel()

	fast, err := a.Subscribe(context.Background())
	require.NoError(t, err)
	defer fast.Cancel()

	for i := 0; i < 4; i++ {
		img := Image{Path: fmt.Sprintf("img-%d.jpg", i), Size: 1, ModTime: time.Now()}
		require.NoError(t, a.Insert(context.Background(), img))

		// The fast subscriber keeps up and sees every update.
		select {
		case update := <-fast.Updates():
			assert.Equal(t, img.Path, update.Additions[0].Path)
		case <-time.After(time.Second):
			t.Fatalf("fast subscriber missed update %d", i)
		}
	}
}

func TestScanErrorKeepsPreviousSnapshot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "kept.jpg")
	a := New(root)
	a.Start()
	t.Cleanup(a.Stop)
	select {
	case <-a.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("actor never became ready")
	}

	require.NoError(t, os.RemoveAll(root))
	a.NotifyChange()

	// The failed rescan must not clear the working set.
	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		snap, err := a.Snapshot(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"kept.jpg"}, paths(snap.Images))
		time.Sleep(20 * time.Millisecond)
	}
}

func TestStopClosesSubscribersAndRejectsCalls(t *testing.T) {
	root := t.TempDir()
	a := New(root)
	a.Start()
	select {
	case <-a.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("actor never became ready")
	}

	sub, err := a.Subscribe(context.Background())
	require.NoError(t, err)

	a.Stop()

	_, open := <-sub.Updates()
	assert.False(t, open, "subscriber channel must be closed on stop")

	_, err = a.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
	err = a.Insert(context.Background(), Image{Path: "x.jpg"})
	assert.ErrorIs(t, err, ErrStopped)
	_, _, err = a.SubscribeThenSnapshot(context.Background())
	assert.ErrorIs(t, err, ErrStopped)

	// Cancelling after stop is harmless.
	sub.Cancel()
}
