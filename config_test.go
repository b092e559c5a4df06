package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServerPortOverride(t *testing.T) {
	assert.Equal(t, ServerPort, serverPort())

	t.Setenv("GRIDSNAKE_PORT", "8080")
	assert.Equal(t, 8080, serverPort())

	t.Setenv("GRIDSNAKE_PORT", "not-a-port")
	assert.Equal(t, ServerPort, serverPort())

	t.Setenv("GRIDSNAKE_PORT", "-1")
	assert.Equal(t, ServerPort, serverPort())
}

func TestStaticDirOverride(t *testing.T) {
	assert.Equal(t, StaticDir, staticDir())

	t.Setenv("GRIDSNAKE_STATIC_DIR", "/srv/assets")
	assert.Equal(t, "/srv/assets", staticDir())
}

func TestLocalBotCount(t *testing.T) {
	assert.Equal(t, 0, localBotCount())

	t.Setenv("GRIDSNAKE_BOTS", "3")
	assert.Equal(t, 3, localBotCount())

	t.Setenv("GRIDSNAKE_BOTS", "nope")
	assert.Equal(t, 0, localBotCount())
}

func TestPaletteCoversMaxPlayers(t *testing.T) {
	assert.Len(t, SnakeColors, MaxPlayers)
}
