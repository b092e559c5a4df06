package main

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn wraps a single WebSocket session. Send is safe for concurrent use;
// the reader dispatch and the bus event goroutine both write through it.
type Conn struct {
	ID     uuid.UUID
	Name   string
	ws     *websocket.Conn
	mu     sync.Mutex // protects ws writes and closed
	closed bool
}

// NewConn assigns a fresh id to a raw WebSocket connection.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{
		ID: uuid.New(),
		ws: ws,
	}
}

// Send serializes msg to JSON and writes it as a text frame.
func (c *Conn) Send(msg ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return serializationError(err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close marks the connection closed and shuts the socket, which also
// unblocks any pending read.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.ws.Close()
}

// servePlayer runs a player session until the socket closes. It admits the
// player to the room, services inbound frames, and renders bus events into
// outbound messages.
func (s *Server) servePlayer(ws *websocket.Conn, playerName string) {
	ws.SetReadLimit(MaxMessageSize)
	conn := NewConn(ws)
	if playerName == "" {
		playerName = fmt.Sprintf("Player_%s", conn.ID)
	}

	if _, err := s.room.AddPlayer(conn.ID, playerName); err != nil {
		log.Warn("player rejected", "name", playerName, "err", err)
		_ = conn.Send(newErrorMsg(err.Error()))
		conn.Close()
		return
	}
	conn.Name = playerName
	log.Info("player connected", "id", conn.ID, "name", playerName)

	sub := s.bus.Subscribe()
	_ = conn.Send(newLobbyJoinedMsg(conn.ID, playerName))
	go s.playerEventLoop(conn, sub)
	s.bus.Publish(GameEvent{Kind: EventPlayerJoined, PlayerID: conn.ID, PlayerName: playerName})

	s.playerReadLoop(conn)

	s.bus.Unsubscribe(sub)
	s.room.RemovePlayer(conn.ID)
	s.engine.RemoveSnake(conn.ID)
	s.bus.Publish(GameEvent{Kind: EventPlayerLeft, PlayerID: conn.ID})
	conn.Close()
	log.Info("player disconnected", "id", conn.ID, "name", conn.Name)
}

// playerReadLoop services inbound frames until the socket errors out.
// Malformed input only ever affects this session.
func (s *Server) playerReadLoop(conn *Conn) {
	for {
		_, raw, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("player read error", "id", conn.ID, "err", err)
			}
			return
		}

		msg, err := DecodeClientMessage(raw)
		if err != nil {
			_ = conn.Send(newErrorMsg(fmt.Sprintf("Error processing message: %v", err)))
			continue
		}

		switch msg.Type {
		case MsgJoinLobby:
			name := msg.PlayerName
			if name == "" {
				name = conn.Name
			}
			if _, err := s.room.AddPlayer(conn.ID, name); err != nil {
				_ = conn.Send(newErrorMsg(err.Error()))
				continue
			}
			conn.Name = name
			s.bus.Publish(GameEvent{Kind: EventPlayerJoined, PlayerID: conn.ID, PlayerName: name})

		case MsgSubmitMove:
			if !s.engine.IsRunning() {
				log.Debug("move while idle ignored", "id", conn.ID, "direction", msg.Direction)
				continue
			}
			// Sessions without a snake (joined mid-game) have no move to make.
			if !s.engine.HasSnake(conn.ID) {
				_ = conn.Send(newErrorMsg(playerNotFoundError(conn.ID).Error()))
				continue
			}
			s.room.RecordMove(conn.ID, msg.Direction)

		case MsgPing:
			_ = conn.Send(newPongMsg())

		default:
			_ = conn.Send(newErrorMsg(invalidMoveError(
				fmt.Sprintf("message type %q not allowed for players", msg.Type)).Error()))
		}
	}
}

// playerEventLoop renders bus events into this player's outbound messages.
// It exits when the subscription channel closes, which also happens when the
// bus drops a subscriber that fell behind.
func (s *Server) playerEventLoop(conn *Conn, sub *Subscription) {
	for event := range sub.C {
		var err error
		switch event.Kind {
		case EventPlayerJoined, EventPlayerLeft:
			err = conn.Send(newLobbyStateMsg(s.room.Players()))

		case EventGameStarted:
			if !s.engine.HasSnake(conn.ID) {
				continue
			}
			err = conn.Send(newGameStartedMsg(s.engine.Snapshot(), conn.ID))
			if err == nil && s.engine.IsSnakeAlive(conn.ID) {
				err = conn.Send(newMoveRequestMsg(s.engine.ValidMoves(conn.ID)))
			}

		case EventGameTick:
			err = conn.Send(newGameUpdateMsg(s.engine.Snapshot()))
			if err == nil && s.engine.IsSnakeAlive(conn.ID) {
				err = conn.Send(newMoveRequestMsg(s.engine.ValidMoves(conn.ID)))
			}

		case EventGameEnded:
			err = conn.Send(newGameEndedMsg(s.lookupWinner(event.Winner), s.engine.Snapshot()))
		}
		if err != nil {
			log.Debug("player send error", "id", conn.ID, "err", err)
			conn.Close()
			return
		}
	}
	// Subscription closed under us: the bus dropped this session.
	conn.Close()
}

// serveGUI runs a controller session: read-only game observation plus the
// StartGame command.
func (s *Server) serveGUI(ws *websocket.Conn) {
	ws.SetReadLimit(MaxMessageSize)
	conn := NewConn(ws)
	log.Info("controller connected", "id", conn.ID)

	sub := s.bus.Subscribe()
	_ = conn.Send(newLobbyStateMsg(s.room.Players()))
	go s.guiEventLoop(conn, sub)

	s.guiReadLoop(conn)

	s.bus.Unsubscribe(sub)
	conn.Close()
	log.Info("controller disconnected", "id", conn.ID)
}

// guiReadLoop services controller frames. Controllers may only start games.
func (s *Server) guiReadLoop(conn *Conn) {
	for {
		_, raw, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("controller read error", "id", conn.ID, "err", err)
			}
			return
		}

		msg, err := DecodeClientMessage(raw)
		if err != nil {
			_ = conn.Send(newErrorMsg(fmt.Sprintf("Error processing message: %v", err)))
			continue
		}

		switch msg.Type {
		case MsgStartGame:
			if err := s.startGame(); err != nil {
				_ = conn.Send(newErrorMsg(err.Error()))
			}

		case MsgJoinLobby:
			_ = conn.Send(newErrorMsg("controllers cannot join the lobby; connect a player client instead"))

		default:
			_ = conn.Send(newErrorMsg(invalidMoveError(
				fmt.Sprintf("message type %q not allowed for controllers", msg.Type)).Error()))
		}
	}
}

// guiEventLoop renders bus events into controller messages.
func (s *Server) guiEventLoop(conn *Conn, sub *Subscription) {
	for event := range sub.C {
		var err error
		switch event.Kind {
		case EventPlayerJoined, EventPlayerLeft:
			err = conn.Send(newLobbyStateMsg(s.room.Players()))

		case EventGameStarted, EventGameTick:
			err = conn.Send(newGameUpdateMsg(s.engine.Snapshot()))

		case EventGameEnded:
			err = conn.Send(newGameEndedMsg(s.lookupWinner(event.Winner), s.engine.Snapshot()))
		}
		if err != nil {
			log.Debug("controller send error", "id", conn.ID, "err", err)
			conn.Close()
			return
		}
	}
	conn.Close()
}

// startGame initializes the engine from the current roster and announces it.
// InitializeGame rejects a start while a game runs, so two concurrent
// controllers cannot double-start.
func (s *Server) startGame() error {
	if !s.room.CanStart() {
		return invalidMoveError(fmt.Sprintf(
			"need at least %d players to start (current: %d)", MinPlayers, s.room.PlayerCount()))
	}

	players := s.room.Players()
	if err := s.engine.InitializeGame(players); err != nil {
		log.Warn("game start rejected", "err", err)
		return err
	}

	log.Info("game starting", "players", len(players))
	s.bus.Publish(GameEvent{Kind: EventGameStarted})
	return nil
}

// lookupWinner resolves a winner id against the roster; nil stays nil, and a
// winner who already left the room is reported as absent.
func (s *Server) lookupWinner(winnerID *uuid.UUID) *LobbyPlayer {
	if winnerID == nil {
		return nil
	}
	player, ok := s.room.Player(*winnerID)
	if !ok {
		return nil
	}
	return &player
}
