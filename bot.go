package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Bot is an autonomous player that joins through the same WebSocket surface
// as a real client and answers every MoveRequest with a random valid
// direction. Useful for filling the lobby during development.
type Bot struct {
	name string
	url  string
	rng  *rand.Rand
}

// NewBot creates a bot that will dial baseURL (e.g. "ws://127.0.0.1:3000").
func NewBot(name, baseURL string) *Bot {
	return &Bot{
		name: name,
		url:  baseURL,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// spawnBots starts n bots in the background.
func spawnBots(n int, baseURL string) {
	for i := 0; i < n; i++ {
		bot := NewBot(fmt.Sprintf("Bot_%d", i+1), baseURL)
		go bot.Run()
	}
	log.Info("bots spawned", "count", n)
}

// Run connects, joins the lobby, and plays until the socket closes. The bot
// stays connected between games so it is available for the next one.
func (b *Bot) Run() {
	ws, err := b.dial()
	if err != nil {
		log.Warn("bot dial failed", "name", b.name, "err", err)
		return
	}
	defer ws.Close()

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			log.Debug("bot disconnected", "name", b.name, "err", err)
			return
		}

		msg, err := DecodeServerMessage(raw)
		if err != nil {
			log.Debug("bot got undecodable frame", "name", b.name, "err", err)
			continue
		}

		switch m := msg.(type) {
		case *LobbyJoinedMsg:
			log.Debug("bot joined lobby", "name", b.name, "id", m.PlayerID)

		case *MoveRequestMsg:
			if len(m.ValidDirections) == 0 {
				continue
			}
			dir := m.ValidDirections[b.rng.Intn(len(m.ValidDirections))]
			if err := b.submitMove(ws, dir); err != nil {
				log.Debug("bot move failed", "name", b.name, "err", err)
				return
			}

		case *GameEndedMsg:
			log.Debug("bot saw game end", "name", b.name)

		case *ErrorMsg:
			log.Warn("bot got server error", "name", b.name, "message", m.Message)
		}
	}
}

// dial retries the connection so bots started alongside the server survive
// the listener coming up a moment later.
func (b *Bot) dial() (*websocket.Conn, error) {
	target := fmt.Sprintf("%s%s?player_name=%s", b.url, LobbyEndpoint, b.name)
	var lastErr error
	for attempt := 0; attempt < 50; attempt++ {
		ws, _, err := websocket.DefaultDialer.Dial(target, nil)
		if err == nil {
			return ws, nil
		}
		lastErr = err
		time.Sleep(100 * time.Millisecond)
	}
	return nil, lastErr
}

func (b *Bot) submitMove(ws *websocket.Conn, dir Direction) error {
	data, err := json.Marshal(ClientMessage{Type: MsgSubmitMove, Direction: dir})
	if err != nil {
		return err
	}
	return ws.WriteMessage(websocket.TextMessage, data)
}
