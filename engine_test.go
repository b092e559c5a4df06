package main

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(seed int64) *GameEngine {
	return NewGameEngineWithRand(rand.New(rand.NewSource(seed)))
}

// testWorld installs a hand-built running world on a small grid so scenarios
// can place snakes at exact cells.
func testWorld(e *GameEngine, grid int, snakes ...*Snake) *GameState {
	gs := NewGameState()
	gs.GridWidth = grid
	gs.GridHeight = grid
	gs.IsRunning = true
	for _, s := range snakes {
		gs.Snakes[s.ID] = s
	}
	e.state = gs
	for i := 0; i < fruitCap(gs); i++ {
		e.fruitTimers[i] = 0
	}
	return gs
}

func checkInvariants(t *testing.T, gs *GameState) {
	t.Helper()
	for _, s := range gs.Snakes {
		require.GreaterOrEqual(t, len(s.Body), 1, "snake %s has an empty body", s.PlayerName)
		require.Contains(t, []int{s.Length, s.Length - 1}, len(s.Body),
			"snake %s body %d vs target length %d", s.PlayerName, len(s.Body), s.Length)
	}
	heads := make(map[Position][]string)
	for _, s := range gs.Snakes {
		if s.IsAlive {
			heads[s.Head()] = append(heads[s.Head()], s.PlayerName)
		}
	}
	for pos, names := range heads {
		require.Len(t, names, 1, "living heads share cell %v: %v", pos, names)
	}
}

func TestInitializeGame(t *testing.T) {
	e := testEngine(1)
	players := []LobbyPlayer{
		{ID: uuid.New(), Name: "a", ColorIndex: 0},
		{ID: uuid.New(), Name: "b", ColorIndex: 1},
		{ID: uuid.New(), Name: "c", ColorIndex: 2},
	}
	require.NoError(t, e.InitializeGame(players))

	state := e.Snapshot()
	assert.True(t, state.IsRunning)
	assert.Equal(t, uint64(0), state.Tick)
	assert.Nil(t, state.Winner)
	assert.Empty(t, state.Fruits)
	require.Len(t, state.Snakes, 3)

	seen := make(map[Position]bool)
	for _, p := range players {
		snake, ok := state.Snakes[p.ID]
		require.True(t, ok)
		assert.Equal(t, p.Name, snake.PlayerName)
		assert.Equal(t, p.ColorIndex, snake.ColorIndex)
		assert.Len(t, snake.Body, InitialSnakeLength)
		assert.False(t, seen[snake.Head()], "two snakes share a starting cell")
		seen[snake.Head()] = true
	}

	// One spawn slot per fruit of budget, staggered 0,1,...
	require.Len(t, e.fruitTimers, 2)
	assert.Equal(t, 0, e.fruitTimers[0])
	assert.Equal(t, 1, e.fruitTimers[1])
}

func TestInitializeGameIsDeterministic(t *testing.T) {
	players := []LobbyPlayer{
		{ID: uuid.New(), Name: "a", ColorIndex: 0},
		{ID: uuid.New(), Name: "b", ColorIndex: 1},
	}

	first := testEngine(99)
	require.NoError(t, first.InitializeGame(players))
	second := testEngine(99)
	require.NoError(t, second.InitializeGame(players))

	for _, p := range players {
		assert.Equal(t, first.Snapshot().Snakes[p.ID].Body, second.Snapshot().Snakes[p.ID].Body)
	}
}

func TestInitializeGameRejectedWhileRunning(t *testing.T) {
	e := testEngine(1)
	players := []LobbyPlayer{
		{ID: uuid.New(), Name: "a", ColorIndex: 0},
		{ID: uuid.New(), Name: "b", ColorIndex: 1},
	}
	require.NoError(t, e.InitializeGame(players))

	err := e.InitializeGame(players)
	require.Error(t, err)
	assert.ErrorIs(t, err, invalidMoveError(""))
	assert.True(t, e.IsRunning())
}

func TestAbortStopsRunningGame(t *testing.T) {
	e := testEngine(1)
	players := []LobbyPlayer{
		{ID: uuid.New(), Name: "a", ColorIndex: 0},
		{ID: uuid.New(), Name: "b", ColorIndex: 1},
	}
	require.NoError(t, e.InitializeGame(players))

	e.Abort()
	assert.False(t, e.IsRunning())
	assert.Nil(t, e.Winner())

	// An aborted game does not block the next start.
	require.NoError(t, e.InitializeGame(players))
	assert.True(t, e.IsRunning())
}

func TestProcessTickRequiresRunningGame(t *testing.T) {
	e := testEngine(1)
	err := e.ProcessTick(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, gameNotRunningError())
}

func TestHeadOnCollisionKillsBoth(t *testing.T) {
	e := testEngine(1)
	a := NewSnake(uuid.New(), "a", Position{X: 1, Y: 2}, 0)
	b := NewSnake(uuid.New(), "b", Position{X: 3, Y: 2}, 1)
	testWorld(e, 5, a, b)

	require.NoError(t, e.ProcessTick(map[uuid.UUID]Direction{
		a.ID: DirRight,
		b.ID: DirLeft,
	}))

	state := e.Snapshot()
	assert.False(t, state.Snakes[a.ID].IsAlive)
	assert.False(t, state.Snakes[b.ID].IsAlive)
	assert.False(t, state.IsRunning)
	assert.Nil(t, state.Winner)
	assert.Equal(t, uint64(1), state.Tick)
	checkInvariants(t, state)
}

func TestFruitConsumptionGrowsSnake(t *testing.T) {
	e := testEngine(1)
	a := NewSnake(uuid.New(), "a", Position{X: 2, Y: 2}, 0)
	b := NewSnake(uuid.New(), "b", Position{X: 0, Y: 4}, 1)
	gs := testWorld(e, 5, a, b)
	gs.Fruits = []Fruit{{Position: Position{X: 2, Y: 3}, SpawnTick: 0}}

	require.NoError(t, e.ProcessTick(map[uuid.UUID]Direction{
		a.ID: DirDown,
		b.ID: DirUp,
	}))

	state := e.Snapshot()
	eater := state.Snakes[a.ID]
	assert.True(t, eater.IsAlive)
	assert.Equal(t, 2, eater.Length)
	assert.Equal(t, []Position{{X: 2, Y: 3}, {X: 2, Y: 3}}, eater.Body)
	assert.Empty(t, state.Fruits, "consumed fruit should be gone and the spawn timer still below threshold")
	checkInvariants(t, state)
}

func TestFruitSurvivesWhenConsumersCollide(t *testing.T) {
	e := testEngine(1)
	a := NewSnake(uuid.New(), "a", Position{X: 1, Y: 2}, 0)
	b := NewSnake(uuid.New(), "b", Position{X: 3, Y: 2}, 1)
	gs := testWorld(e, 5, a, b)
	gs.Fruits = []Fruit{{Position: Position{X: 2, Y: 2}, SpawnTick: 0}}

	require.NoError(t, e.ProcessTick(map[uuid.UUID]Direction{
		a.ID: DirRight,
		b.ID: DirLeft,
	}))

	state := e.Snapshot()
	assert.False(t, state.Snakes[a.ID].IsAlive)
	assert.False(t, state.Snakes[b.ID].IsAlive)
	require.Len(t, state.Fruits, 1)
	assert.Equal(t, Position{X: 2, Y: 2}, state.Fruits[0].Position)
}

func TestMissingMoveKillsSnake(t *testing.T) {
	e := testEngine(1)
	a := NewSnake(uuid.New(), "a", Position{X: 1, Y: 1}, 0)
	b := NewSnake(uuid.New(), "b", Position{X: 3, Y: 3}, 1)
	testWorld(e, 5, a, b)

	// Empty move map: both die in place, the tick still advances.
	require.NoError(t, e.ProcessTick(map[uuid.UUID]Direction{}))

	state := e.Snapshot()
	assert.False(t, state.Snakes[a.ID].IsAlive)
	assert.False(t, state.Snakes[b.ID].IsAlive)
	assert.Equal(t, []Position{{X: 1, Y: 1}}, state.Snakes[a.ID].Body, "dead snakes stay in place")
	assert.False(t, state.IsRunning)
	assert.Nil(t, state.Winner)
	assert.Equal(t, uint64(1), state.Tick)
}

func TestReverseMoveKillsSnake(t *testing.T) {
	e := testEngine(1)
	a := NewSnake(uuid.New(), "a", Position{X: 2, Y: 2}, 0)
	a.Advance(DirRight, 5, 5, true) // body length 2, last direction Right
	b := NewSnake(uuid.New(), "b", Position{X: 0, Y: 4}, 1)
	testWorld(e, 5, a, b)

	require.NoError(t, e.ProcessTick(map[uuid.UUID]Direction{
		a.ID: DirLeft, // reverse into own body
		b.ID: DirUp,
	}))

	state := e.Snapshot()
	assert.False(t, state.Snakes[a.ID].IsAlive)
	assert.True(t, state.Snakes[b.ID].IsAlive)
	require.NotNil(t, state.Winner)
	assert.Equal(t, b.ID, *state.Winner)
}

func TestWrapAroundWin(t *testing.T) {
	e := testEngine(1)
	a := NewSnake(uuid.New(), "a", Position{X: 2, Y: 2}, 0)
	b := NewSnake(uuid.New(), "b", Position{X: 0, Y: 0}, 1)
	testWorld(e, 5, a, b)

	// B wraps off the left edge; A dies by not submitting.
	require.NoError(t, e.ProcessTick(map[uuid.UUID]Direction{
		b.ID: DirLeft,
	}))

	state := e.Snapshot()
	assert.Equal(t, Position{X: 4, Y: 0}, state.Snakes[b.ID].Head())
	assert.False(t, state.Snakes[a.ID].IsAlive)
	assert.False(t, state.IsRunning)
	require.NotNil(t, state.Winner)
	assert.Equal(t, b.ID, *state.Winner)
}

func TestHeadIntoBodyKills(t *testing.T) {
	e := testEngine(1)
	a := NewSnake(uuid.New(), "a", Position{X: 2, Y: 2}, 0)
	a.Advance(DirRight, 9, 9, true) // body (3,2),(2,2)
	b := NewSnake(uuid.New(), "b", Position{X: 3, Y: 1}, 1)
	c := NewSnake(uuid.New(), "c", Position{X: 7, Y: 7}, 2)
	testWorld(e, 9, a, b, c)

	// After the movement phase a occupies (4,2),(3,2); b lands on the tail.
	require.NoError(t, e.ProcessTick(map[uuid.UUID]Direction{
		a.ID: DirRight,
		b.ID: DirDown,
		c.ID: DirUp,
	}))

	state := e.Snapshot()
	assert.True(t, state.Snakes[a.ID].IsAlive)
	assert.False(t, state.Snakes[b.ID].IsAlive)
	assert.True(t, state.Snakes[c.ID].IsAlive)
	checkInvariants(t, state)
}

func TestDeadBodyRemainsObstacle(t *testing.T) {
	e := testEngine(1)
	a := NewSnake(uuid.New(), "a", Position{X: 4, Y: 4}, 0)
	b := NewSnake(uuid.New(), "b", Position{X: 4, Y: 6}, 1)
	c := NewSnake(uuid.New(), "c", Position{X: 0, Y: 0}, 2)
	testWorld(e, 9, a, b, c)

	// Tick 1: a dies in place at (4,4).
	require.NoError(t, e.ProcessTick(map[uuid.UUID]Direction{
		b.ID: DirUp, // to (4,5)
		c.ID: DirRight,
	}))
	require.False(t, e.Snapshot().Snakes[a.ID].IsAlive)

	// Tick 2: b walks into the corpse and dies.
	require.NoError(t, e.ProcessTick(map[uuid.UUID]Direction{
		b.ID: DirUp, // to (4,4), occupied by dead a
		c.ID: DirRight,
	}))

	state := e.Snapshot()
	assert.False(t, state.Snakes[b.ID].IsAlive)
	assert.True(t, state.Snakes[c.ID].IsAlive)
	require.NotNil(t, state.Winner)
	assert.Equal(t, c.ID, *state.Winner)
}

func TestFruitSpawningHonorsCapAndDelay(t *testing.T) {
	e := testEngine(5)
	players := []LobbyPlayer{
		{ID: uuid.New(), Name: "a", ColorIndex: 0},
		{ID: uuid.New(), Name: "b", ColorIndex: 1},
		{ID: uuid.New(), Name: "c", ColorIndex: 2},
	}
	require.NoError(t, e.InitializeGame(players))
	maxFruits := len(players) - 1

	rng := rand.New(rand.NewSource(7))
	for tick := 0; tick < 30; tick++ {
		state := e.Snapshot()
		if !state.IsRunning {
			break
		}
		moves := make(map[uuid.UUID]Direction)
		for id, snake := range state.Snakes {
			if !snake.IsAlive {
				continue
			}
			valid := snake.ValidDirections()
			moves[id] = valid[rng.Intn(len(valid))]
		}
		require.NoError(t, e.ProcessTick(moves))

		state = e.Snapshot()
		checkInvariants(t, state)
		assert.LessOrEqual(t, len(state.Fruits), maxFruits)
		for _, fruit := range state.Fruits {
			if fruit.SpawnTick == state.Tick-1 {
				for _, snake := range state.Snakes {
					assert.False(t, snake.ContainsPosition(fruit.Position),
						"fruit spawned on a snake body at %v", fruit.Position)
				}
			}
		}
	}
}

func TestNoTickAfterGameOver(t *testing.T) {
	e := testEngine(1)
	a := NewSnake(uuid.New(), "a", Position{X: 1, Y: 1}, 0)
	b := NewSnake(uuid.New(), "b", Position{X: 3, Y: 3}, 1)
	testWorld(e, 5, a, b)

	require.NoError(t, e.ProcessTick(map[uuid.UUID]Direction{}))
	final := e.Snapshot()
	require.False(t, final.IsRunning)

	err := e.ProcessTick(map[uuid.UUID]Direction{})
	assert.ErrorIs(t, err, gameNotRunningError())
	assert.Equal(t, final.Tick, e.Snapshot().Tick)
}

func TestRandomEmptyPositionExhaustion(t *testing.T) {
	gs := NewGameState()
	gs.GridWidth = 2
	gs.GridHeight = 2
	s := NewSnake(uuid.New(), "full", Position{X: 0, Y: 0}, 0)
	s.Body = []Position{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	s.Length = 4
	gs.Snakes[s.ID] = s

	_, err := randomEmptyPosition(gs, nil, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.ErrorIs(t, err, internalError(""))
}

func TestStats(t *testing.T) {
	e := testEngine(1)
	a := NewSnake(uuid.New(), "a", Position{X: 1, Y: 1}, 0)
	a.Length = 5
	b := NewSnake(uuid.New(), "b", Position{X: 3, Y: 3}, 1)
	b.Kill()
	gs := testWorld(e, 5, a, b)
	gs.Fruits = []Fruit{{Position: Position{X: 0, Y: 0}}}
	gs.Tick = 12

	stats := e.Stats()
	assert.Equal(t, uint64(12), stats.Tick)
	assert.Equal(t, 1, stats.AliveSnakes)
	assert.Equal(t, 2, stats.TotalSnakes)
	assert.Equal(t, 1, stats.FruitsOnBoard)
	assert.Equal(t, 5, stats.LongestSnakeLength)
	assert.True(t, stats.IsRunning)
	assert.Nil(t, stats.WinnerID)
}

func TestRemoveSnakeShrinksFruitCap(t *testing.T) {
	e := testEngine(3)
	players := []LobbyPlayer{
		{ID: uuid.New(), Name: "a", ColorIndex: 0},
		{ID: uuid.New(), Name: "b", ColorIndex: 1},
		{ID: uuid.New(), Name: "c", ColorIndex: 2},
	}
	require.NoError(t, e.InitializeGame(players))
	require.Equal(t, 2, fruitCap(e.Snapshot()))

	e.RemoveSnake(players[0].ID)
	assert.Equal(t, 1, fruitCap(e.Snapshot()))
	assert.False(t, e.HasSnake(players[0].ID))
}
