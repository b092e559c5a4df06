package main

import (
	"os"
	"strconv"
)

// Game configuration constants
const (
	// Server
	ServerPort    = 3000
	StaticDir     = "static"
	LobbyEndpoint = "/lobby"
	GUIEndpoint   = "/gui"

	// Grid
	GridWidth  = 50
	GridHeight = 50

	// Snake rules
	InitialSnakeLength   = 1
	WinningSnakeLength   = 300
	FruitSpawnDelayTicks = 5

	// Room limits
	MinPlayers = 2
	MaxPlayers = 8

	// Game timing
	TickDurationMS = 200  // minimum visible tick duration
	MoveTimeoutMS  = 5000 // deadline for gathering a full set of moves
	MovePollMS     = 50   // interval between pending-move checks

	// WebSocket limits
	MaxMessageSize = 16 * 1024 // 16KiB per frame

	// Event bus
	SubscriberBufferSize = 1000
)

// SnakeColors is the palette clients map color indices onto.
// MaxPlayers equals the palette size so every assigned index stays in range.
var SnakeColors = []string{
	"#FF6B6B", // Red
	"#4ECDC4", // Teal
	"#45B7D1", // Blue
	"#96CEB4", // Green
	"#FFEAA7", // Yellow
	"#DDA0DD", // Plum
	"#FFB347", // Orange
	"#87CEEB", // Sky Blue
}

// serverPort returns the listen port, honoring GRIDSNAKE_PORT
func serverPort() int {
	if env := os.Getenv("GRIDSNAKE_PORT"); env != "" {
		if p, err := strconv.Atoi(env); err == nil && p > 0 {
			return p
		}
	}
	return ServerPort
}

// staticDir returns the static asset directory, honoring GRIDSNAKE_STATIC_DIR
func staticDir() string {
	if env := os.Getenv("GRIDSNAKE_STATIC_DIR"); env != "" {
		return env
	}
	return StaticDir
}

// localBotCount returns how many built-in bot players to spawn at boot
func localBotCount() int {
	if env := os.Getenv("GRIDSNAKE_BOTS"); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n >= 0 {
			return n
		}
	}
	return 0
}
