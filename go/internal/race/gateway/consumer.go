package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mattsre/keysprint/go/internal/race/events"
	"github.com/mattsre/keysprint/go/internal/relay"
)

// EventConsumer subscribes to coordinator room events on the relay and fans
// them out to the websocket connections of the addressed room.
type EventConsumer struct {
	connectionManager *ConnectionManager
	relay             relay.Relay
	sub               relay.Subscription
}

// NewEventConsumer creates a consumer feeding the connection manager.
func NewEventConsumer(cm *ConnectionManager, r relay.Relay) *EventConsumer {
	return &EventConsumer{
		connectionManager: cm,
		relay:             r,
	}
}

// Start subscribes to every room's event subject and blocks until ctx is
// cancelled.
func (ec *EventConsumer) Start(ctx context.Context) error {
	sub, err := ec.relay.Subscribe(relay.EventWildcard(), ec.handleEvent)
	if err != nil {
		return fmt.Errorf("subscribe to room events: %w", err)
	}
	ec.sub = sub
	log.Info().Str("subject", relay.EventWildcard()).Msg("race event consumer started")

	<-ctx.Done()
	if err := ec.sub.Unsubscribe(); err != nil {
		log.Error().Err(err).Msg("failed to unsubscribe event consumer")
	}
	log.Info().Msg("race event consumer shutting down")
	return nil
}

// handleEvent forwards one event to its room. The envelope goes to clients
// as-is; the room id inside it is authoritative, not the subject.
func (ec *EventConsumer) handleEvent(subject string, data []byte) {
	var envelope events.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to parse room event")
		return
	}
	if envelope.RoomID == "" {
		log.Warn().Str("subject", subject).Msg("room event missing room id, dropping")
		return
	}
	ec.connectionManager.BroadcastToRoom(envelope.RoomID, data)

	log.Debug().
		Str("event_type", string(envelope.Type)).
		Str("room_id", envelope.RoomID).
		Msg("room event forwarded to websocket clients")
}
