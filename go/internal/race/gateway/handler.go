package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mattsre/keysprint/go/internal/race/events"
)

// ServeHTTP lets the manager be mounted directly on a mux as the websocket
// endpoint.
func (cm *ConnectionManager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cm.HandleWebSocket(w, r)
}

// HandleWebSocket upgrades GET /ws/race?room=<id>&player=<id>&username=<name>
// and joins the player to the room. The player id is optional; a fresh one is
// issued when absent so a reconnecting client can keep its identity.
func (cm *ConnectionManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		http.Error(w, "room query parameter is required", http.StatusBadRequest)
		return
	}
	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "username query parameter is required", http.StatusBadRequest)
		return
	}
	playerID := r.URL.Query().Get("player")
	if playerID == "" {
		playerID = uuid.New().String()
	}

	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade websocket connection")
		return
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		PlayerID:    playerID,
		Username:    username,
		RoomID:      roomID,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}
	cm.register(connection)

	go connection.writePump()
	go connection.readPump()

	// The gateway, not the client, originates the join so identity on the
	// command always matches the socket.
	joinPayload, err := json.Marshal(events.JoinPayload{Username: username})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal join payload")
		conn.Close()
		return
	}
	connection.publishCommand(events.CommandJoin, joinPayload)

	log.Info().
		Str("connection_id", connection.ID).
		Str("player_id", playerID).
		Str("room_id", roomID).
		Str("username", username).
		Msg("race websocket connection established")
}

// RoomLister exposes joinable rooms, implemented by the coordinator.
type RoomLister interface {
	JoinableRooms() []string
}

// HandleAvailableRooms serves GET /api/rooms/available as JSON.
func HandleAvailableRooms(lister RoomLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms := lister.JoinableRooms()
		if rooms == nil {
			rooms = []string{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{"rooms": rooms}); err != nil {
			log.Error().Err(err).Msg("failed to encode available rooms")
		}
	}
}

// HandleHealth reports gateway liveness and connection counts.
func (cm *ConnectionManager) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	stats := cm.ConnectionStats()
	stats["status"] = "ok"
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		log.Error().Err(err).Msg("failed to encode health response")
	}
}
