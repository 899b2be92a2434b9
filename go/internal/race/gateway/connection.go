package gateway

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mattsre/keysprint/go/internal/race/events"
	"github.com/mattsre/keysprint/go/internal/relay"
)

// Connection is one client's websocket inside a room.
type Connection struct {
	ID       string
	PlayerID string
	Username string
	RoomID   string
	Conn     *websocket.Conn
	Send     chan []byte

	manager *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time
}

// clientMessage is the inbound wire format. The gateway stamps room and
// player identity from the connection; clients cannot speak for each other.
type clientMessage struct {
	Type events.CommandType `json:"type"`
	Data json.RawMessage    `json:"data"`
}

// writePump drains Send onto the socket and keeps the connection alive with
// pings. Exactly one writePump per connection; gorilla allows one writer.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.manager.unregister(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to websocket")
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump forwards inbound client messages to the relay as commands. When
// the socket drops, for whatever reason, the player leaves the room.
func (c *Connection) readPump() {
	defer func() {
		c.publishCommand(events.CommandLeave, nil)
		c.manager.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected websocket close error")
			}
			break
		}
		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	}
}

func (c *Connection) handleClientMessage(message []byte) {
	var msg clientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Warn().
			Err(err).
			Str("connection_id", c.ID).
			Msg("ignoring malformed client message")
		return
	}

	switch msg.Type {
	case events.CommandReady, events.CommandProgress, events.CommandFinished,
		events.CommandLeave, events.CommandRematchRequest, events.CommandRematchAccept:
		c.publishCommand(msg.Type, msg.Data)
	default:
		log.Warn().
			Str("connection_id", c.ID).
			Str("type", string(msg.Type)).
			Msg("ignoring unknown client message type")
	}
}

// publishCommand stamps the connection's identity onto a command and puts it
// on the relay for the coordinator.
func (c *Connection) publishCommand(cmdType events.CommandType, data json.RawMessage) {
	raw, err := json.Marshal(events.Command{
		RoomID:    c.RoomID,
		PlayerID:  c.PlayerID,
		Type:      cmdType,
		Timestamp: time.Now(),
		Data:      data,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal client command")
		return
	}
	if err := c.manager.relay.Publish(relay.CommandSubject(c.RoomID), raw); err != nil {
		log.Error().
			Err(err).
			Str("room_id", c.RoomID).
			Str("type", string(cmdType)).
			Msg("failed to publish client command")
	}
}
