package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Server bundles the process-wide collaborators: one room, one engine, one
// bus. A single process hosts exactly one room.
type Server struct {
	room   *Room
	engine *GameEngine
	bus    *EventBus
}

// NewServer wires an idle server.
func NewServer() *Server {
	return &Server{
		room:   NewRoom(),
		engine: NewGameEngine(),
		bus:    NewEventBus(),
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development; tighten in production
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// handleLobby upgrades a player connection. Optional ?player_name=...;
// omitted names are generated from the session id.
func (s *Server) handleLobby(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("ws upgrade failed", "path", LobbyEndpoint, "err", err)
		return
	}
	s.servePlayer(ws, r.URL.Query().Get("player_name"))
}

// handleGUI upgrades a controller connection.
func (s *Server) handleGUI(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("ws upgrade failed", "path", GUIEndpoint, "err", err)
		return
	}
	s.serveGUI(ws)
}

// handleHealth answers liveness probes.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// handleStats serves the engine's monitoring snapshot.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.engine.Stats()); err != nil {
		log.Warn("stats encode failed", "err", err)
	}
}

// handleIndex serves the bundled game page, with a fallback when the static
// directory is missing.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	page, err := os.ReadFile(staticDir() + "/index.html")
	if err != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<h1>Snake Game Server</h1><p>GUI not found. Please check static files.</p>")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// routes registers the full URL surface on a fresh mux.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc(LobbyEndpoint, s.handleLobby)
	mux.HandleFunc(GUIEndpoint, s.handleGUI)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/docs", s.handleDocs)
	mux.HandleFunc("/swagger", s.handleSwagger)
	mux.HandleFunc("/api-spec.json", s.handleAPISpec)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir()))))
	mux.HandleFunc("/", s.handleIndex)
	return mux
}

func main() {
	if os.Getenv("GRIDSNAKE_DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	}

	server := NewServer()
	loop := NewGameLoop(server.engine, server.room, server.bus)
	go loop.Run()

	addr := fmt.Sprintf(":%d", serverPort())
	if n := localBotCount(); n > 0 {
		spawnBots(n, fmt.Sprintf("ws://127.0.0.1%s", addr))
	}

	log.Info("server listening", "addr", addr, "grid", fmt.Sprintf("%dx%d", GridWidth, GridHeight))
	if err := http.ListenAndServe(addr, server.routes()); err != nil {
		log.Fatal("server error", "err", err)
	}
}
