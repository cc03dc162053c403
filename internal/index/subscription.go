package index

import (
	"sync"

	"github.com/google/uuid"
)

// Subscription is one consumer's receive handle for index updates.
// Each subscription has its own buffer; a slow consumer only loses its
// own updates, never anyone else's.
type Subscription struct {
	id    uuid.UUID
	actor *Actor
	ch    chan Update

	cancelOnce sync.Once
}

func newSubscription(actor *Actor, id uuid.UUID, ch chan Update) *Subscription {
	return &Subscription{id: id, actor: actor, ch: ch}
}

// ID returns the subscription's unique identifier, used in logs.
func (s *Subscription) ID() uuid.UUID {
	return s.id
}

// Updates returns the channel delivering index updates. It is closed
// when the subscription is cancelled or the actor stops.
func (s *Subscription) Updates() <-chan Update {
	return s.ch
}

// Cancel removes the subscription from the actor. Safe to call more
// than once and after the actor has stopped.
func (s *Subscription) Cancel() {
	s.cancelOnce.Do(func() {
		select {
		case s.actor.commands <- unsubscribeCmd{id: s.id}:
		case <-s.actor.stop:
		}
	})
}
