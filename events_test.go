package main

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusDeliversInOrder(t *testing.T) {
	bus := NewEventBus()
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	id := uuid.New()
	bus.Publish(GameEvent{Kind: EventPlayerJoined, PlayerID: id, PlayerName: "alice"})
	bus.Publish(GameEvent{Kind: EventGameStarted})
	bus.Publish(GameEvent{Kind: EventGameTick})

	first := <-sub.C
	assert.Equal(t, EventPlayerJoined, first.Kind)
	assert.Equal(t, id, first.PlayerID)
	assert.Equal(t, "alice", first.PlayerName)
	assert.Equal(t, EventGameStarted, (<-sub.C).Kind)
	assert.Equal(t, EventGameTick, (<-sub.C).Kind)
}

func TestEventBusFansOut(t *testing.T) {
	bus := NewEventBus()
	a := bus.Subscribe()
	b := bus.Subscribe()
	defer bus.Unsubscribe(a)
	defer bus.Unsubscribe(b)
	assert.Equal(t, 2, bus.SubscriberCount())

	bus.Publish(GameEvent{Kind: EventGameTick})
	assert.Equal(t, EventGameTick, (<-a.C).Kind)
	assert.Equal(t, EventGameTick, (<-b.C).Kind)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	bus := NewEventBus()
	sub := bus.Subscribe()

	bus.Unsubscribe(sub)
	bus.Unsubscribe(sub)
	assert.Equal(t, 0, bus.SubscriberCount())

	_, open := <-sub.C
	assert.False(t, open)

	// Publishing to an empty bus is a no-op.
	bus.Publish(GameEvent{Kind: EventGameTick})
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	bus := NewEventBus()
	slow := bus.Subscribe()
	fast := bus.Subscribe()

	for i := 0; i < SubscriberBufferSize+1; i++ {
		bus.Publish(GameEvent{Kind: EventGameTick})
		// Keep the fast subscriber drained so only the slow one overflows.
		<-fast.C
	}

	assert.Equal(t, 1, bus.SubscriberCount(), "overflowing subscriber is removed")

	// The slow subscriber still receives everything that was buffered, then
	// sees its channel closed.
	received := 0
	for range slow.C {
		received++
	}
	assert.Equal(t, SubscriberBufferSize, received)

	// The surviving subscriber keeps working.
	bus.Publish(GameEvent{Kind: EventGameEnded})
	assert.Equal(t, EventGameEnded, (<-fast.C).Kind)
	bus.Unsubscribe(fast)
}

func TestGameEndedCarriesWinner(t *testing.T) {
	bus := NewEventBus()
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	winner := uuid.New()
	bus.Publish(GameEvent{Kind: EventGameEnded, Winner: &winner})
	event := <-sub.C
	require.NotNil(t, event.Winner)
	assert.Equal(t, winner, *event.Winner)

	bus.Publish(GameEvent{Kind: EventGameEnded})
	assert.Nil(t, (<-sub.C).Winner, "a draw has no winner")
}
