package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// GameLoop is the sole writer of the engine during active play. It idles on
// the event bus until a game starts, then repeats: gather moves under a
// deadline, hold the tick to its minimum duration, advance the engine, and
// publish the outcome.
//
// The timing fields default to the configured constants; tests shorten them.
type GameLoop struct {
	engine *GameEngine
	room   *Room
	bus    *EventBus

	moveTimeout  time.Duration
	tickDuration time.Duration
	pollInterval time.Duration
}

// NewGameLoop creates a loop bound to the engine, room, and bus.
func NewGameLoop(engine *GameEngine, room *Room, bus *EventBus) *GameLoop {
	return &GameLoop{
		engine:       engine,
		room:         room,
		bus:          bus,
		moveTimeout:  MoveTimeoutMS * time.Millisecond,
		tickDuration: TickDurationMS * time.Millisecond,
		pollInterval: MovePollMS * time.Millisecond,
	}
}

// Run blocks forever, alternating between idle and running. Start it once
// at boot.
func (gl *GameLoop) Run() {
	sub := gl.bus.Subscribe()
	defer gl.bus.Unsubscribe(sub)
	log.Info("game loop started, waiting for games")

	for event := range sub.C {
		if event.Kind != EventGameStarted {
			continue
		}
		gl.runGame(sub)
		log.Info("game loop idle")
	}
}

// runGame drives ticks until the game ends. No failure propagates out: an
// engine error or panic terminates the game and returns the loop to idle.
func (gl *GameLoop) runGame(sub *Subscription) {
	log.Info("game loop running")
	for {
		tickStart := time.Now()

		moves := gl.gatherMoves(tickStart)

		// Hold the tick at its floor so the world stays watchable even
		// when every client answers instantly.
		if elapsed := time.Since(tickStart); elapsed < gl.tickDuration {
			time.Sleep(gl.tickDuration - elapsed)
		}

		if err := gl.advance(moves); err != nil {
			// Stop the engine too, or the aborted game would block the
			// next start forever.
			log.Error("tick failed, ending game", "err", err)
			gl.engine.Abort()
			gl.bus.Publish(GameEvent{Kind: EventGameEnded, Winner: gl.engine.Winner()})
			return
		}

		if !gl.engine.IsRunning() {
			winner := gl.engine.Winner()
			log.Info("game ended", "winner", winnerString(winner))
			gl.bus.Publish(GameEvent{Kind: EventGameEnded, Winner: winner})
			return
		}

		gl.bus.Publish(GameEvent{Kind: EventGameTick})

		// The loop hears its own publications; discard them so the
		// subscription cannot overflow during a long game.
		gl.drain(sub)
	}
}

// gatherMoves polls until every living snake has a pending move or the
// deadline fires, then takes the buffer. Moves arriving after the take land
// in the next tick.
func (gl *GameLoop) gatherMoves(tickStart time.Time) map[uuid.UUID]Direction {
	for {
		if gl.room.AllMovesSubmitted(gl.engine.Snapshot()) {
			break
		}
		if time.Since(tickStart) >= gl.moveTimeout {
			log.Debug("move deadline reached, ticking with partial moves")
			break
		}
		time.Sleep(gl.pollInterval)
	}
	return gl.room.TakeMoves()
}

// advance runs one engine tick, converting panics into errors so a broken
// tick can never take the loop down.
func (gl *GameLoop) advance(moves map[uuid.UUID]Direction) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = internalError(fmt.Sprintf("tick panicked: %v", r))
		}
	}()
	return gl.engine.ProcessTick(moves)
}

// drain discards buffered events on the loop's own subscription.
func (gl *GameLoop) drain(sub *Subscription) {
	for {
		select {
		case <-sub.C:
		default:
			return
		}
	}
}

func winnerString(winner *uuid.UUID) string {
	if winner == nil {
		return "none"
	}
	return winner.String()
}
