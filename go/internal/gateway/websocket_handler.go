package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mcdev12/voteroom/go/internal/models"
	"github.com/mcdev12/voteroom/go/internal/room"
	"github.com/rs/zerolog/log"
)

const defaultRoomListCount = 20

// WebSocketHandler serves the websocket endpoint and the HTTP room listing.
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	registry          *room.Registry
}

func NewWebSocketHandler(cm *ConnectionManager, registry *room.Registry) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		registry:          registry,
	}
}

// HandleConnection upgrades to a websocket bound to a fresh session.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.connectionManager.UpgradeConnection(w, r); err != nil {
		// the upgrader has already written the HTTP error
		log.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("failed to upgrade WebSocket connection")
	}
}

// HandleRoomList serves GET /api/rooms?start=N&count=M.
func (h *WebSocketHandler) HandleRoomList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start, err := queryInt(r, "start", 0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Code: models.CodeArgument, Message: "invalid start"})
		return
	}
	count, err := queryInt(r, "count", defaultRoomListCount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Code: models.CodeArgument, Message: "invalid count"})
		return
	}

	rooms, err := h.registry.List(start, count)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Code: models.CodeOf(err), Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms": rooms,
		"total": h.registry.Count(),
	})
}

// HandleConnectionStats returns statistics about active connections.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{
		"total_connections": h.connectionManager.Count(),
		"open_rooms":        h.registry.Count(),
	})
}

// RegisterRoutes registers websocket and room routes with an HTTP mux.
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
	mux.HandleFunc("/api/rooms", h.HandleRoomList)
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}
