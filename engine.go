package main

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GameStats is the monitoring snapshot served at /stats.
type GameStats struct {
	Tick               uint64     `json:"tick"`
	AliveSnakes        int        `json:"alive_snakes"`
	TotalSnakes        int        `json:"total_snakes"`
	FruitsOnBoard      int        `json:"fruits_on_board"`
	LongestSnakeLength int        `json:"longest_snake_length"`
	IsRunning          bool       `json:"is_running"`
	WinnerID           *uuid.UUID `json:"winner_id"`
}

// GameEngine advances the world one tick at a time. ProcessTick is the only
// mutator; everything else reads through the lock. The RNG is injected so
// placement and spawning are reproducible under a fixed seed.
type GameEngine struct {
	mu          sync.RWMutex
	state       *GameState
	rng         *rand.Rand
	fruitTimers map[int]int // spawn slot -> ticks accumulated
}

// NewGameEngine creates an engine with a time-seeded RNG.
func NewGameEngine() *GameEngine {
	return NewGameEngineWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewGameEngineWithRand creates an engine with the given RNG.
func NewGameEngineWithRand(rng *rand.Rand) *GameEngine {
	return &GameEngine{
		state:       NewGameState(),
		rng:         rng,
		fruitTimers: make(map[int]int),
	}
}

// InitializeGame resets the world and seeds one length-1 snake per player at
// a distinct random empty cell. Players are placed in color-index order so a
// fixed (players, seed) pair always yields the same starting world. On
// placement failure the previous state is left untouched.
func (e *GameEngine) InitializeGame(players []LobbyPlayer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Check-and-start under one lock so two concurrent starts cannot both
	// pass and double-initialize the world.
	if e.state.IsRunning {
		return invalidMoveError("game already running")
	}

	ordered := make([]LobbyPlayer, len(players))
	copy(ordered, players)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ColorIndex < ordered[j].ColorIndex
	})

	state := NewGameState()
	placed := make(map[Position]bool)
	for _, player := range ordered {
		pos, err := randomEmptyPosition(state, placed, e.rng)
		if err != nil {
			return err
		}
		placed[pos] = true
		state.Snakes[player.ID] = NewSnake(player.ID, player.Name, pos, player.ColorIndex)
	}
	state.IsRunning = true

	// Stagger the spawn slots so fruits appear one tick apart at first.
	e.fruitTimers = make(map[int]int)
	for i := 0; i < fruitCap(state); i++ {
		e.fruitTimers[i] = i
	}

	e.state = state
	return nil
}

// fruitCap is the fruit budget: one fewer than the snakes present,
// counting dead snakes still on the board.
func fruitCap(state *GameState) int {
	if len(state.Snakes) > 1 {
		return len(state.Snakes) - 1
	}
	return 0
}

// randomEmptyPosition draws an unoccupied cell by rejection sampling,
// bounded by one attempt per grid cell.
func randomEmptyPosition(state *GameState, extra map[Position]bool, rng *rand.Rand) (Position, error) {
	occupied := state.OccupiedPositions()
	for pos := range extra {
		occupied[pos] = true
	}

	maxAttempts := state.GridWidth * state.GridHeight
	for attempts := 0; attempts < maxAttempts; attempts++ {
		pos := Position{X: rng.Intn(state.GridWidth), Y: rng.Intn(state.GridHeight)}
		if !occupied[pos] {
			return pos, nil
		}
	}
	return Position{}, internalError("no empty positions available")
}

// ProcessTick advances the world one tick given the moves gathered for it.
// Executes atomically: no reader observes intermediate phases.
func (e *GameEngine) ProcessTick(moves map[uuid.UUID]Direction) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.IsRunning {
		return gameNotRunningError()
	}

	// 1. Movement: a living snake with no move, or a move outside its valid
	// set, dies in place.
	e.moveSnakes(moves)

	// 2. Collisions: head-on converging snakes all die; a head landing on
	// any body cell dies.
	e.handleCollisions()

	// 3. Consumption: a surviving snake on a fruit eats it and grows.
	e.handleFruitConsumption()

	// 4. Spawning: timers past the delay place new fruits up to the cap.
	e.spawnFruits()

	// 5. Termination.
	e.checkGameEnd()

	e.state.Tick++
	return nil
}

// moveSnakes applies the move map to every living snake.
func (e *GameEngine) moveSnakes(moves map[uuid.UUID]Direction) {
	for id, snake := range e.state.Snakes {
		if !snake.IsAlive {
			continue
		}
		dir, ok := moves[id]
		if !ok || !directionIn(dir, snake.ValidDirections()) {
			snake.Kill()
			continue
		}
		snake.Advance(dir, e.state.GridWidth, e.state.GridHeight, false)
	}
}

func directionIn(dir Direction, set []Direction) bool {
	for _, d := range set {
		if d == dir {
			return true
		}
	}
	return false
}

// handleCollisions marks colliding snakes dead. Killing is idempotent and
// bodies are not removed within the tick, so check order cannot change the
// resulting death set.
func (e *GameEngine) handleCollisions() {
	// Living heads by position; more than one occupant is a mutual kill.
	heads := make(map[Position][]uuid.UUID)
	for id, snake := range e.state.Snakes {
		if snake.IsAlive {
			heads[snake.Head()] = append(heads[snake.Head()], id)
		}
	}

	dead := make(map[uuid.UUID]bool)
	for _, ids := range heads {
		if len(ids) > 1 {
			for _, id := range ids {
				dead[id] = true
			}
		}
	}

	for id, snake := range e.state.Snakes {
		if !snake.IsAlive || dead[id] {
			continue
		}
		head := snake.Head()

		for _, cell := range snake.Tail() {
			if cell == head {
				dead[id] = true
				break
			}
		}
		if dead[id] {
			continue
		}

		// Any other snake's body is an obstacle, dead snakes included.
		// A living other's head can only match ours in the multi-occupant
		// case handled above.
		for otherID, other := range e.state.Snakes {
			if otherID != id && other.ContainsPosition(head) {
				dead[id] = true
				break
			}
		}
	}

	for id := range dead {
		e.state.Snakes[id].Kill()
	}
}

// handleFruitConsumption removes eaten fruits and grows their eaters.
// Converging snakes died in the collision phase, so at most one living head
// can sit on a fruit; a fruit "eaten" by a snake that just died stays.
func (e *GameEngine) handleFruitConsumption() {
	remaining := e.state.Fruits[:0]
	for _, fruit := range e.state.Fruits {
		var eater *Snake
		for _, snake := range e.state.Snakes {
			if snake.IsAlive && snake.Head() == fruit.Position {
				eater = snake
				break
			}
		}
		if eater == nil {
			remaining = append(remaining, fruit)
			continue
		}
		// Grow: bump the target length and extend the body in place so the
		// next advance skips its tail drop.
		eater.Length++
		eater.Body = append(eater.Body, eater.Body[len(eater.Body)-1])
	}
	e.state.Fruits = remaining
}

// spawnFruits advances the spawn slots and places fruits that are due, then
// reconciles the slot count with the current cap.
func (e *GameEngine) spawnFruits() {
	maxFruits := fruitCap(e.state)

	slots := make([]int, 0, len(e.fruitTimers))
	for slot := range e.fruitTimers {
		slots = append(slots, slot)
	}
	sort.Ints(slots)

	for _, slot := range slots {
		e.fruitTimers[slot]++
	}
	for _, slot := range slots {
		if e.fruitTimers[slot] < FruitSpawnDelayTicks || len(e.state.Fruits) >= maxFruits {
			continue
		}
		pos, err := randomEmptyPosition(e.state, nil, e.rng)
		if err != nil {
			// Board saturated; retry the slot on a later tick.
			continue
		}
		e.state.Fruits = append(e.state.Fruits, Fruit{Position: pos, SpawnTick: e.state.Tick})
		e.fruitTimers[slot] = 0
	}

	for len(e.fruitTimers) < maxFruits {
		e.fruitTimers[len(e.fruitTimers)] = 0
	}
	for slot := range e.fruitTimers {
		if slot >= maxFruits {
			delete(e.fruitTimers, slot)
		}
	}
}

// checkGameEnd stops the world once a termination condition holds.
func (e *GameEngine) checkGameEnd() {
	if e.state.IsGameOver() {
		e.state.Winner = e.state.GameWinner()
		e.state.IsRunning = false
	}
}

// Snapshot returns a deep copy of the current state, safe to serialize
// without holding the engine lock.
func (e *GameEngine) Snapshot() *GameState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}

// IsRunning reports whether a game is in progress.
func (e *GameEngine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.IsRunning
}

// HasSnake reports whether the world holds a snake for the player.
func (e *GameEngine) HasSnake(id uuid.UUID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.state.Snakes[id]
	return ok
}

// IsSnakeAlive reports whether the player's snake is alive.
func (e *GameEngine) IsSnakeAlive(id uuid.UUID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	snake, ok := e.state.Snakes[id]
	return ok && snake.IsAlive
}

// ValidMoves returns the directions currently open to the player's snake,
// empty when the snake is missing or dead.
func (e *GameEngine) ValidMoves(id uuid.UUID) []Direction {
	e.mu.RLock()
	defer e.mu.RUnlock()
	snake, ok := e.state.Snakes[id]
	if !ok || !snake.IsAlive {
		return []Direction{}
	}
	return snake.ValidDirections()
}

// Winner returns the recorded winner id, nil while running or on a draw.
func (e *GameEngine) Winner() *uuid.UUID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state.Winner == nil {
		return nil
	}
	w := *e.state.Winner
	return &w
}

// Stats summarizes the world for monitoring.
func (e *GameEngine) Stats() GameStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	alive := 0
	longest := 0
	for _, snake := range e.state.Snakes {
		if snake.IsAlive {
			alive++
		}
		if snake.Length > longest {
			longest = snake.Length
		}
	}

	stats := GameStats{
		Tick:               e.state.Tick,
		AliveSnakes:        alive,
		TotalSnakes:        len(e.state.Snakes),
		FruitsOnBoard:      len(e.state.Fruits),
		LongestSnakeLength: longest,
		IsRunning:          e.state.IsRunning,
	}
	if e.state.Winner != nil {
		w := *e.state.Winner
		stats.WinnerID = &w
	}
	return stats
}

// Abort forces a running game to a stopped state after an unrecoverable
// tick failure. No winner is recorded.
func (e *GameEngine) Abort() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.IsRunning = false
}

// RemoveSnake drops a disconnected player's snake from the world.
func (e *GameEngine) RemoveSnake(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.state.Snakes, id)
}
