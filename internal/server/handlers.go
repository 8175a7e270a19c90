package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/qsanguosha/sgs-server-go/internal/game"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handlers exposes the lobby over HTTP: room creation, the WebSocket
// endpoint and replay downloads.
type Handlers struct {
	lobby    *Lobby
	recorder *game.ReplayRecorder
	logger   *zap.Logger
}

// NewHandlers wires the HTTP surface.
func NewHandlers(lobby *Lobby, recorder *game.ReplayRecorder, logger *zap.Logger) *Handlers {
	return &Handlers{lobby: lobby, recorder: recorder, logger: logger}
}

// Register mounts the routes on a mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/rooms", h.handleRooms)
	mux.HandleFunc("/rooms/create", h.handleCreateRoom)
	mux.HandleFunc("/rooms/start", h.handleStartRoom)
	mux.HandleFunc("/ws", h.handleWS)
	mux.HandleFunc("/replay", h.handleReplay)
}

func (h *Handlers) handleRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"rooms": h.lobby.RoomIDs()})
}

// handleCreateRoom builds a room from query parameters and returns its ID.
func (h *Handlers) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cfg := game.RoomConfig{
		PlayerCount:   queryInt(r, "players", 5),
		RenegadeCount: queryInt(r, "renegades", -1),
		Timeout:       time.Duration(queryInt(r, "timeout", 15)) * time.Second,
		Scenario:      r.URL.Query().Get("scenario"),
		Seed:          int64(queryInt(r, "seed", 0)),
		MaxTurns:      queryInt(r, "max_turns", 0),
	}
	if pkgs := r.URL.Query()["package"]; len(pkgs) > 0 {
		cfg.Packages = pkgs
	}
	cfg.SecondGeneral = r.URL.Query().Get("second_general") == "1"

	room, err := h.lobby.CreateRoom(cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"room_id": room.ID()})
}

func (h *Handlers) handleStartRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	roomID := r.URL.Query().Get("room")
	if err := h.lobby.StartRoom(roomID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"room_id": roomID, "started": true})
}

// handleWS upgrades a connection and registers it with the room's hub.
// A missing or negative seat joins as a spectator.
func (h *Handlers) handleWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	hub, ok := h.lobby.Hub(roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	seat := queryInt(r, "seat", -1)
	name := r.URL.Query().Get("name")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(hub, conn, seat, name, h.logger)
	hub.register <- client
	go client.writePump()
	go client.readPump()
}

// handleReplay streams a saved replay as one packet per line.
func (h *Handlers) handleReplay(w http.ResponseWriter, r *http.Request) {
	if h.recorder == nil {
		http.Error(w, "replays disabled", http.StatusNotFound)
		return
	}
	roomID := r.URL.Query().Get("room")
	replay, err := h.recorder.LoadReplay(roomID)
	if err != nil {
		http.Error(w, "replay not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	replay.Start()
	for {
		packet, ok := replay.Next()
		if !ok {
			break
		}
		w.Write([]byte(packet.Marshal()))
		w.Write([]byte("\n"))
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
