// Package watcher turns raw filesystem events under the storage root
// into debounced change notifications.
//
// Bulk operations (a directory sync, an unzip) generate event storms;
// the watcher absorbs them with a quiet-period timer and emits one
// notification once the storm settles. The notification carries no
// payload: the index rescans and computes its own diff, so a missed or
// duplicated event can at worst delay convergence, never corrupt it.
package watcher
