package main

import (
	"github.com/google/uuid"
)

// Direction is one of the four grid movement directions.
// Serialized as "Up"/"Down"/"Left"/"Right" on the wire.
type Direction string

// Valid directions.
const (
	DirUp    Direction = "Up"
	DirDown  Direction = "Down"
	DirLeft  Direction = "Left"
	DirRight Direction = "Right"
)

// AllDirections returns every direction in a stable order.
func AllDirections() []Direction {
	return []Direction{DirUp, DirDown, DirLeft, DirRight}
}

// IsValid reports whether d is one of the four directions.
func (d Direction) IsValid() bool {
	switch d {
	case DirUp, DirDown, DirLeft, DirRight:
		return true
	}
	return false
}

// Opposite returns the reverse of d. Invalid directions map to themselves.
func (d Direction) Opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	case DirLeft:
		return DirRight
	case DirRight:
		return DirLeft
	}
	return d
}

// Position is a cell on the toroidal grid. Value equality; usable as a map key.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Move returns the neighboring cell in the given direction,
// wrapping around the grid edges.
func (p Position) Move(dir Direction, gridWidth, gridHeight int) Position {
	switch dir {
	case DirUp:
		p.Y--
	case DirDown:
		p.Y++
	case DirLeft:
		p.X--
	case DirRight:
		p.X++
	}

	if p.X < 0 {
		p.X = gridWidth - 1
	} else if p.X >= gridWidth {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = gridHeight - 1
	} else if p.Y >= gridHeight {
		p.Y = 0
	}
	return p
}

// Snake is one player's snake. Body[0] is the head; the body is never empty
// while the snake is alive. Length is the target length: the body trails it
// by one cell for exactly one tick after eating a fruit.
type Snake struct {
	ID            uuid.UUID  `json:"id"`
	PlayerName    string     `json:"player_name"`
	Body          []Position `json:"body"`
	Length        int        `json:"length"`
	IsAlive       bool       `json:"is_alive"`
	ColorIndex    int        `json:"color_index"`
	LastDirection *Direction `json:"last_direction"`
}

// NewSnake seeds a length-1 snake at the given cell.
func NewSnake(id uuid.UUID, playerName string, initial Position, colorIndex int) *Snake {
	return &Snake{
		ID:         id,
		PlayerName: playerName,
		Body:       []Position{initial},
		Length:     InitialSnakeLength,
		IsAlive:    true,
		ColorIndex: colorIndex,
	}
}

// Head returns the head cell.
func (s *Snake) Head() Position {
	return s.Body[0]
}

// Tail returns the body minus the head.
func (s *Snake) Tail() []Position {
	return s.Body[1:]
}

// ContainsPosition reports whether any body cell equals pos.
func (s *Snake) ContainsPosition(pos Position) bool {
	for _, p := range s.Body {
		if p == pos {
			return true
		}
	}
	return false
}

// ValidDirections returns the directions the snake may move next.
// A snake with a tail cannot reverse into itself, so the opposite of its
// last committed direction is excluded once the body has length >= 2.
func (s *Snake) ValidDirections() []Direction {
	all := AllDirections()
	if len(s.Body) < 2 || s.LastDirection == nil {
		return all
	}
	blocked := s.LastDirection.Opposite()
	valid := make([]Direction, 0, 3)
	for _, d := range all {
		if d != blocked {
			valid = append(valid, d)
		}
	}
	return valid
}

// Advance pushes a new head one cell in the given direction and commits it
// as the last direction. If grow is set the target length increases;
// otherwise the tail is dropped once the body exceeds the target length.
func (s *Snake) Advance(dir Direction, gridWidth, gridHeight int, grow bool) {
	newHead := s.Head().Move(dir, gridWidth, gridHeight)
	s.Body = append([]Position{newHead}, s.Body...)
	d := dir
	s.LastDirection = &d

	if grow {
		s.Length++
	} else if len(s.Body) > s.Length {
		s.Body = s.Body[:len(s.Body)-1]
	}
}

// Kill marks the snake dead. The body stays on the grid as an obstacle.
func (s *Snake) Kill() {
	s.IsAlive = false
}

// Clone returns a deep copy of the snake.
func (s *Snake) Clone() *Snake {
	c := *s
	c.Body = make([]Position, len(s.Body))
	copy(c.Body, s.Body)
	if s.LastDirection != nil {
		d := *s.LastDirection
		c.LastDirection = &d
	}
	return &c
}

// Fruit is a consumable cell. SpawnTick is diagnostic only.
type Fruit struct {
	Position  Position `json:"position"`
	SpawnTick uint64   `json:"spawn_tick"`
}

// GameState is the full simulation state sent to clients.
type GameState struct {
	Snakes     map[uuid.UUID]*Snake `json:"snakes"`
	Fruits     []Fruit              `json:"fruits"`
	Tick       uint64               `json:"tick"`
	IsRunning  bool                 `json:"is_running"`
	Winner     *uuid.UUID           `json:"winner"`
	GridWidth  int                  `json:"grid_width"`
	GridHeight int                  `json:"grid_height"`
}

// NewGameState returns an empty, not-running state on the default grid.
func NewGameState() *GameState {
	return &GameState{
		Snakes:     make(map[uuid.UUID]*Snake),
		Fruits:     []Fruit{},
		GridWidth:  GridWidth,
		GridHeight: GridHeight,
	}
}

// OccupiedPositions returns every cell covered by a snake body or a fruit.
func (gs *GameState) OccupiedPositions() map[Position]bool {
	occupied := make(map[Position]bool)
	for _, snake := range gs.Snakes {
		for _, p := range snake.Body {
			occupied[p] = true
		}
	}
	for _, fruit := range gs.Fruits {
		occupied[fruit.Position] = true
	}
	return occupied
}

// AliveSnakes returns the living snakes.
func (gs *GameState) AliveSnakes() []*Snake {
	alive := make([]*Snake, 0, len(gs.Snakes))
	for _, s := range gs.Snakes {
		if s.IsAlive {
			alive = append(alive, s)
		}
	}
	return alive
}

// IsGameOver reports whether a termination condition holds: at most one
// living snake, or any living snake at the winning length.
func (gs *GameState) IsGameOver() bool {
	alive := gs.AliveSnakes()
	if len(alive) <= 1 {
		return true
	}
	for _, s := range alive {
		if s.Length >= WinningSnakeLength {
			return true
		}
	}
	return false
}

// GameWinner returns the winner id: the first living snake at winning
// length, else the sole survivor, else nil.
func (gs *GameState) GameWinner() *uuid.UUID {
	alive := gs.AliveSnakes()
	for _, s := range alive {
		if s.Length >= WinningSnakeLength {
			id := s.ID
			return &id
		}
	}
	if len(alive) == 1 {
		id := alive[0].ID
		return &id
	}
	return nil
}

// Clone returns a deep copy safe to serialize outside the engine lock.
func (gs *GameState) Clone() *GameState {
	c := *gs
	c.Snakes = make(map[uuid.UUID]*Snake, len(gs.Snakes))
	for id, s := range gs.Snakes {
		c.Snakes[id] = s.Clone()
	}
	c.Fruits = make([]Fruit, len(gs.Fruits))
	copy(c.Fruits, gs.Fruits)
	if gs.Winner != nil {
		w := *gs.Winner
		c.Winner = &w
	}
	return &c
}
