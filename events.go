package main

import (
	"sync"

	"github.com/google/uuid"
)

// EventKind discriminates game lifecycle events.
type EventKind int

const (
	EventPlayerJoined EventKind = iota
	EventPlayerLeft
	EventGameStarted
	EventGameTick
	EventGameEnded
)

// GameEvent is one lifecycle notification. PlayerID/PlayerName accompany
// membership events; Winner accompanies EventGameEnded (nil on a draw).
type GameEvent struct {
	Kind       EventKind
	PlayerID   uuid.UUID
	PlayerName string
	Winner     *uuid.UUID
}

// Subscription is one receiver's bounded event queue. C is closed when the
// subscriber is cancelled or falls too far behind.
type Subscription struct {
	C  chan GameEvent
	id int
}

// EventBus fans lifecycle events out to subscribers. Publishing never
// blocks: a subscriber whose buffer is full is dropped (its channel closed)
// rather than stalling the game loop. Delivery is FIFO per subscriber and
// at-most-once.
type EventBus struct {
	mu     sync.Mutex
	subs   map[int]*Subscription
	nextID int
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[int]*Subscription)}
}

// Subscribe registers a receiver with the default buffer size.
func (b *EventBus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := &Subscription{
		C:  make(chan GameEvent, SubscriberBufferSize),
		id: b.nextID,
	}
	b.nextID++
	b.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes a receiver and closes its channel. Idempotent.
func (b *EventBus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub.id]; ok {
		delete(b.subs, sub.id)
		close(sub.C)
	}
}

// Publish delivers the event to every subscriber that has buffer room and
// drops the ones that do not.
func (b *EventBus) Publish(event GameEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subs {
		select {
		case sub.C <- event:
		default:
			// Backlog exceeded: drop the subscriber, not the publisher.
			delete(b.subs, id)
			close(sub.C)
		}
	}
}

// SubscriberCount returns the number of attached receivers.
func (b *EventBus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
