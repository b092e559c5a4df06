package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
)

// apiDocumentation is the plain-text protocol reference served at /docs.
const apiDocumentation = `MULTIPLAYER SNAKE GAME SERVER API

WebSocket endpoints:

  /lobby?player_name=NAME   Player connection. Join the lobby, submit moves,
                            receive game state. Name defaults to Player_<id>.
  /gui                      Controller connection. Observe lobby and game
                            state, send StartGame.

HTTP endpoints:

  GET /                     Game page (static/index.html)
  GET /health               Liveness probe, returns "OK"
  GET /stats                Current game statistics (JSON)
  GET /docs                 This documentation
  GET /swagger              Swagger-style endpoint browser
  GET /api-spec.json        Machine-readable API catalog
  GET /static/*             Static assets

Messages are JSON objects tagged by a "type" field.

Client -> Server:
  {"type":"JoinLobby","player_name":"alice"}
  {"type":"SubmitMove","direction":"Up"}        Up|Down|Left|Right
  {"type":"StartGame"}                          controller only
  {"type":"Ping"}

Server -> Client:
  {"type":"LobbyJoined","player_id":"<uuid>","player_name":"alice"}
  {"type":"LobbyState","players":[{"id":"<uuid>","name":"alice","color_index":0,"is_ready":false}]}
  {"type":"GameStarted","game_state":{...},"your_snake_id":"<uuid>"}
  {"type":"GameUpdate","game_state":{...}}
  {"type":"MoveRequest","valid_directions":["Up","Left"],"time_limit_ms":5000}
  {"type":"GameEnded","winner":{...}|null,"final_state":{...}}
  {"type":"Error","message":"..."}
  {"type":"Pong"}

Rules: 50x50 toroidal grid, 2-8 players, one move per living snake per tick.
Missing or reversed moves are fatal. First snake to length 300, or the last
one alive, wins. Ticks last at least 200ms; moves are gathered for at most
5 seconds.`

// apiSpec returns the machine-readable endpoint and message catalog.
func apiSpec() map[string]any {
	return map[string]any{
		"name":    "gridsnake-server",
		"version": "1.0.0",
		"websocket": map[string]any{
			LobbyEndpoint: map[string]any{
				"role":    "player",
				"params":  []string{"player_name"},
				"send":    []string{MsgJoinLobby, MsgSubmitMove, MsgPing},
				"receive": []string{MsgLobbyJoined, MsgLobbyState, MsgGameStarted, MsgGameUpdate, MsgMoveRequest, MsgGameEnded, MsgError, MsgPong},
			},
			GUIEndpoint: map[string]any{
				"role":    "controller",
				"send":    []string{MsgStartGame},
				"receive": []string{MsgLobbyState, MsgGameUpdate, MsgGameEnded, MsgError},
			},
		},
		"http": map[string]string{
			"/":              "game page",
			"/health":        "liveness probe",
			"/stats":         "game statistics",
			"/docs":          "API documentation",
			"/swagger":       "endpoint browser",
			"/api-spec.json": "this catalog",
		},
		"constants": map[string]any{
			"grid_width":       GridWidth,
			"grid_height":      GridHeight,
			"min_players":      MinPlayers,
			"max_players":      MaxPlayers,
			"winning_length":   WinningSnakeLength,
			"tick_duration_ms": TickDurationMS,
			"move_timeout_ms":  MoveTimeoutMS,
			"snake_colors":     SnakeColors,
		},
	}
}

// handleDocs serves the human-readable protocol reference.
func (s *Server) handleDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>Snake Game API Documentation</title></head>
<body>
<h1>Snake Game API</h1>
<p><a href="/">Home</a> | <a href="/api-spec.json">API spec</a> | <a href="/health">Health</a></p>
<pre>%s</pre>
</body>
</html>`, apiDocumentation)
}

// handleSwagger serves a minimal endpoint browser around the JSON spec.
func (s *Server) handleSwagger(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Swagger - Snake Game API</title></head>
<body>
<h1>Snake Game API</h1>
<p>The specification is served at <a href="/api-spec.json">/api-spec.json</a>.</p>
<p><a href="/docs">Full documentation</a></p>
</body>
</html>`)
}

// handleAPISpec serves the machine-readable catalog.
func (s *Server) handleAPISpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(apiSpec()); err != nil {
		log.Warn("api spec encode failed", "err", err)
	}
}
