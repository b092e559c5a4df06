package main

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// LobbyPlayer is a player's lobby entry. IsReady is serialized but reserved:
// it never gates game start.
type LobbyPlayer struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	ColorIndex int       `json:"color_index"`
	IsReady    bool      `json:"is_ready"`
}

// Room is the singleton lobby-and-match container. It owns membership,
// color slot assignment, and the pending-move buffer the game loop drains
// each tick.
type Room struct {
	mu           sync.RWMutex
	players      map[uuid.UUID]LobbyPlayer
	pendingMoves map[uuid.UUID]Direction
}

// NewRoom creates an empty room.
func NewRoom() *Room {
	return &Room{
		players:      make(map[uuid.UUID]LobbyPlayer),
		pendingMoves: make(map[uuid.UUID]Direction),
	}
}

// AddPlayer admits a player, or renames one already present. Returns the
// assigned color index. Fails with RoomFull at capacity and NameTaken when
// another player holds the name.
func (r *Room) AddPlayer(id uuid.UUID, name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, rejoining := r.players[id]
	if !rejoining && len(r.players) >= MaxPlayers {
		return 0, roomFullError()
	}
	for pid, p := range r.players {
		if pid != id && p.Name == name {
			return 0, nameTakenError(name)
		}
	}

	colorIndex := existing.ColorIndex
	if !rejoining {
		colorIndex = r.freeColorIndex()
	}
	r.players[id] = LobbyPlayer{
		ID:         id,
		Name:       name,
		ColorIndex: colorIndex,
	}
	return colorIndex, nil
}

// freeColorIndex returns the lowest color index not currently held.
// Caller must hold mu.
func (r *Room) freeColorIndex() int {
	taken := make(map[int]bool, len(r.players))
	for _, p := range r.players {
		taken[p.ColorIndex] = true
	}
	for i := 0; i < MaxPlayers; i++ {
		if !taken[i] {
			return i
		}
	}
	return len(r.players)
}

// RemovePlayer drops a player and any pending move. Idempotent.
func (r *Room) RemovePlayer(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, id)
	delete(r.pendingMoves, id)
}

// RecordMove buffers a move for the next tick, overwriting any prior one.
func (r *Room) RecordMove(id uuid.UUID, dir Direction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingMoves[id] = dir
}

// TakeMoves returns the pending moves and clears the buffer atomically.
// Moves recorded after this call land in the following tick.
func (r *Room) TakeMoves() map[uuid.UUID]Direction {
	r.mu.Lock()
	defer r.mu.Unlock()
	moves := r.pendingMoves
	r.pendingMoves = make(map[uuid.UUID]Direction)
	return moves
}

// AllMovesSubmitted reports whether every living snake in the world has a
// pending move. Trivially true with zero living snakes.
func (r *Room) AllMovesSubmitted(state *GameState) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, snake := range state.Snakes {
		if !snake.IsAlive {
			continue
		}
		if _, ok := r.pendingMoves[id]; !ok {
			return false
		}
	}
	return true
}

// CanStart reports whether enough players have joined. Readiness flags are
// carried on LobbyPlayer but not consulted.
func (r *Room) CanStart() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players) >= MinPlayers
}

// Player looks up a lobby entry by id.
func (r *Room) Player(id uuid.UUID) (LobbyPlayer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	return p, ok
}

// Players returns the roster sorted by color index for stable display.
func (r *Room) Players() []LobbyPlayer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	players := make([]LobbyPlayer, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].ColorIndex < players[j].ColorIndex
	})
	return players
}

// PlayerCount returns the current roster size.
func (r *Room) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}
