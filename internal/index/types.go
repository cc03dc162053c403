package index

import (
	"sort"
	"time"
)

// Image identifies one stored image. Path is the slash-separated path
// relative to the storage root and is the unique key within a
// snapshot; Size and ModTime are carried as metadata and take no part
// in identity.
type Image struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// Snapshot is an immutable point-in-time view of the index. Images is
// sorted by Path. Callers must not mutate it.
type Snapshot struct {
	Images []Image `json:"images"`
}

// Update is the difference between two consecutive snapshots. At least
// one of the two slices is non-empty; empty updates are never
// broadcast. Each subscriber receives its own value.
type Update struct {
	Additions []Image `json:"additions,omitempty"`
	Deletions []Image `json:"deletions,omitempty"`
}

// IsEmpty reports whether the update carries no changes.
func (u Update) IsEmpty() bool {
	return len(u.Additions) == 0 && len(u.Deletions) == 0
}

// snapshotOf builds a sorted Snapshot from the actor's working set.
func snapshotOf(images map[string]Image) Snapshot {
	list := make([]Image, 0, len(images))
	for _, img := range images {
		list = append(list, img)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })
	return Snapshot{Images: list}
}

// diff computes the Update from the previous working set to the next
// one, keyed by Path. Additions and deletions are sorted by Path for
// deterministic output.
func diff(previous, next map[string]Image) Update {
	var update Update
	for path, img := range next {
		if _, ok := previous[path]; !ok {
			update.Additions = append(update.Additions, img)
		}
	}
	for path, img := range previous {
		if _, ok := next[path]; !ok {
			update.Deletions = append(update.Deletions, img)
		}
	}
	sort.Slice(update.Additions, func(i, j int) bool { return update.Additions[i].Path < update.Additions[j].Path })
	sort.Slice(update.Deletions, func(i, j int) bool { return update.Deletions[i].Path < update.Deletions[j].Path })
	return update
}
