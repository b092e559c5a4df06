package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Every frame carries one JSON object tagged by a string "type" field.
// Unknown types fail closed on decode.
//
//	Client → Server:
//	  {"type":"JoinLobby","player_name":"alice"}
//	  {"type":"SubmitMove","direction":"Up"}
//	  {"type":"StartGame"}
//	  {"type":"Ping"}
//	Server → Client:
//	  {"type":"LobbyJoined","player_id":"<uuid>","player_name":"alice"}
//	  {"type":"LobbyState","players":[...]}
//	  {"type":"GameStarted","game_state":{...},"your_snake_id":"<uuid>"}
//	  {"type":"GameUpdate","game_state":{...}}
//	  {"type":"MoveRequest","valid_directions":["Up","Left"],"time_limit_ms":5000}
//	  {"type":"GameEnded","winner":{...}|null,"final_state":{...}}
//	  {"type":"Error","message":"..."}
//	  {"type":"Pong"}

// Message type identifiers
const (
	MsgJoinLobby  = "JoinLobby"
	MsgSubmitMove = "SubmitMove"
	MsgStartGame  = "StartGame"
	MsgPing       = "Ping"

	MsgLobbyJoined = "LobbyJoined"
	MsgLobbyState  = "LobbyState"
	MsgGameStarted = "GameStarted"
	MsgGameUpdate  = "GameUpdate"
	MsgMoveRequest = "MoveRequest"
	MsgGameEnded   = "GameEnded"
	MsgError       = "Error"
	MsgPong        = "Pong"
)

// ClientMessage is any incoming frame. Fields beyond Type are only set for
// the variants that carry them.
type ClientMessage struct {
	Type       string    `json:"type"`
	PlayerName string    `json:"player_name,omitempty"`
	Direction  Direction `json:"direction,omitempty"`
}

// DecodeClientMessage parses an inbound frame, failing closed on unknown
// message types and malformed payloads.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, serializationError(err)
	}
	switch msg.Type {
	case MsgJoinLobby, MsgStartGame, MsgPing:
	case MsgSubmitMove:
		if !msg.Direction.IsValid() {
			return ClientMessage{}, serializationError(fmt.Errorf("invalid direction %q", msg.Direction))
		}
	default:
		return ClientMessage{}, serializationError(fmt.Errorf("unknown message type %q", msg.Type))
	}
	return msg, nil
}

// ServerMessage is implemented by every outbound frame type.
type ServerMessage interface {
	messageType() string
}

// LobbyJoinedMsg confirms admission to the new session.
type LobbyJoinedMsg struct {
	Type       string    `json:"type"`
	PlayerID   uuid.UUID `json:"player_id"`
	PlayerName string    `json:"player_name"`
}

// LobbyStateMsg carries the full roster.
type LobbyStateMsg struct {
	Type    string        `json:"type"`
	Players []LobbyPlayer `json:"players"`
}

// GameStartedMsg carries the initial world and the receiver's snake id.
type GameStartedMsg struct {
	Type        string     `json:"type"`
	GameState   *GameState `json:"game_state"`
	YourSnakeID uuid.UUID  `json:"your_snake_id"`
}

// GameUpdateMsg carries the world after a tick.
type GameUpdateMsg struct {
	Type      string     `json:"type"`
	GameState *GameState `json:"game_state"`
}

// MoveRequestMsg asks a living player for its next move.
type MoveRequestMsg struct {
	Type            string      `json:"type"`
	ValidDirections []Direction `json:"valid_directions"`
	TimeLimitMS     uint64      `json:"time_limit_ms"`
}

// GameEndedMsg carries the winner (nil on a draw) and the final world.
type GameEndedMsg struct {
	Type       string       `json:"type"`
	Winner     *LobbyPlayer `json:"winner"`
	FinalState *GameState   `json:"final_state"`
}

// ErrorMsg reports a session-local failure.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// PongMsg answers a Ping.
type PongMsg struct {
	Type string `json:"type"`
}

func (m LobbyJoinedMsg) messageType() string { return MsgLobbyJoined }
func (m LobbyStateMsg) messageType() string  { return MsgLobbyState }
func (m GameStartedMsg) messageType() string { return MsgGameStarted }
func (m GameUpdateMsg) messageType() string  { return MsgGameUpdate }
func (m MoveRequestMsg) messageType() string { return MsgMoveRequest }
func (m GameEndedMsg) messageType() string   { return MsgGameEnded }
func (m ErrorMsg) messageType() string       { return MsgError }
func (m PongMsg) messageType() string        { return MsgPong }

func newLobbyJoinedMsg(id uuid.UUID, name string) LobbyJoinedMsg {
	return LobbyJoinedMsg{Type: MsgLobbyJoined, PlayerID: id, PlayerName: name}
}

func newLobbyStateMsg(players []LobbyPlayer) LobbyStateMsg {
	return LobbyStateMsg{Type: MsgLobbyState, Players: players}
}

func newGameStartedMsg(state *GameState, snakeID uuid.UUID) GameStartedMsg {
	return GameStartedMsg{Type: MsgGameStarted, GameState: state, YourSnakeID: snakeID}
}

func newGameUpdateMsg(state *GameState) GameUpdateMsg {
	return GameUpdateMsg{Type: MsgGameUpdate, GameState: state}
}

func newMoveRequestMsg(valid []Direction) MoveRequestMsg {
	return MoveRequestMsg{Type: MsgMoveRequest, ValidDirections: valid, TimeLimitMS: MoveTimeoutMS}
}

func newGameEndedMsg(winner *LobbyPlayer, final *GameState) GameEndedMsg {
	return GameEndedMsg{Type: MsgGameEnded, Winner: winner, FinalState: final}
}

func newErrorMsg(message string) ErrorMsg {
	return ErrorMsg{Type: MsgError, Message: message}
}

func newPongMsg() PongMsg {
	return PongMsg{Type: MsgPong}
}

// serverMessageEnvelope peeks at the tag before decoding a full variant.
type serverMessageEnvelope struct {
	Type string `json:"type"`
}

// DecodeServerMessage parses an outbound frame back into its concrete
// variant. Used by the bot client and by tests.
func DecodeServerMessage(data []byte) (ServerMessage, error) {
	var env serverMessageEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, serializationError(err)
	}

	decode := func(v ServerMessage) (ServerMessage, error) {
		if err := json.Unmarshal(data, v); err != nil {
			return nil, serializationError(err)
		}
		return v, nil
	}

	switch env.Type {
	case MsgLobbyJoined:
		return decode(&LobbyJoinedMsg{})
	case MsgLobbyState:
		return decode(&LobbyStateMsg{})
	case MsgGameStarted:
		return decode(&GameStartedMsg{})
	case MsgGameUpdate:
		return decode(&GameUpdateMsg{})
	case MsgMoveRequest:
		return decode(&MoveRequestMsg{})
	case MsgGameEnded:
		return decode(&GameEndedMsg{})
	case MsgError:
		return decode(&ErrorMsg{})
	case MsgPong:
		return decode(&PongMsg{})
	}
	return nil, serializationError(fmt.Errorf("unknown message type %q", env.Type))
}
