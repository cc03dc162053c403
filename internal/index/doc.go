// Package index maintains the live in-memory view of the images under
// the storage root.
//
// A single actor goroutine owns the authoritative image set; snapshot
// queries, inserts, change notifications, and subscriptions are all
// mediated by message passing, so no lock guards the set itself and a
// snapshot can never be observed half-updated.
//
// Consumers that need "the full state plus every change after it" must
// use SubscribeThenSnapshot: subscribing and snapshotting in two
// separate calls leaves a window where an update slips between them.
package index
