package gateway

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsre/keysprint/go/internal/race/events"
	"github.com/mattsre/keysprint/go/internal/relay"
)

type gatewayFixture struct {
	relay    *relay.MemoryRelay
	manager  *ConnectionManager
	server   *httptest.Server
	commands chan events.Command
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	r := relay.NewMemoryRelay()
	cm := NewConnectionManager(DefaultConnectionConfig(), r)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go cm.Start(ctx)

	consumer := NewEventConsumer(cm, r)
	go func() { _ = consumer.Start(ctx) }()

	commands := make(chan events.Command, 16)
	_, err := r.Subscribe(relay.CommandWildcard(), func(subject string, data []byte) {
		var cmd events.Command
		require.NoError(t, json.Unmarshal(data, &cmd))
		commands <- cmd
	})
	require.NoError(t, err)

	server := httptest.NewServer(cm)
	t.Cleanup(server.Close)
	return &gatewayFixture{relay: r, manager: cm, server: server, commands: commands}
}

func (f *gatewayFixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/?" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (f *gatewayFixture) nextCommand(t *testing.T, cmdType events.CommandType) events.Command {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case cmd := <-f.commands:
			if cmd.Type == cmdType {
				return cmd
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s command", cmdType)
		}
	}
}

func TestConnectPublishesJoin(t *testing.T) {
	f := newGatewayFixture(t)
	f.dial(t, "room=room-1&player=p1&username=alice")

	cmd := f.nextCommand(t, events.CommandJoin)
	assert.Equal(t, "room-1", cmd.RoomID)
	assert.Equal(t, "p1", cmd.PlayerID)

	var payload events.JoinPayload
	require.NoError(t, json.Unmarshal(cmd.Data, &payload))
	assert.Equal(t, "alice", payload.Username)
}

func TestClientMessageStampedWithConnectionIdentity(t *testing.T) {
	f := newGatewayFixture(t)
	conn := f.dial(t, "room=room-1&player=p1&username=alice")
	f.nextCommand(t, events.CommandJoin)

	msg, err := json.Marshal(map[string]any{
		"type": "progress",
		"data": events.ProgressPayload{ProgressPercent: 42, WPM: 70},
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, msg))

	cmd := f.nextCommand(t, events.CommandProgress)
	assert.Equal(t, "room-1", cmd.RoomID)
	assert.Equal(t, "p1", cmd.PlayerID)
	var payload events.ProgressPayload
	require.NoError(t, json.Unmarshal(cmd.Data, &payload))
	assert.InDelta(t, 42, payload.ProgressPercent, 0.001)
}

func TestRoomEventsFanOutToRoomOnly(t *testing.T) {
	f := newGatewayFixture(t)
	inRoom := f.dial(t, "room=room-1&player=p1&username=alice")
	otherRoom := f.dial(t, "room=room-2&player=p2&username=bob")
	f.nextCommand(t, events.CommandJoin)
	f.nextCommand(t, events.CommandJoin)

	envelope, err := json.Marshal(events.Envelope{
		ID:     "e1",
		RoomID: "room-1",
		Type:   events.EventTypeGameStarting,
		Data:   json.RawMessage(`{"counter":3}`),
	})
	require.NoError(t, err)
	require.NoError(t, f.relay.Publish(relay.EventSubject("room-1"), envelope))

	inRoom.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := inRoom.ReadMessage()
	require.NoError(t, err)
	var received events.Envelope
	require.NoError(t, json.Unmarshal(data, &received))
	assert.Equal(t, events.EventTypeGameStarting, received.Type)

	otherRoom.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	_, _, err = otherRoom.ReadMessage()
	assert.Error(t, err, "event for room-1 must not reach room-2")
}

func TestDisconnectPublishesLeave(t *testing.T) {
	f := newGatewayFixture(t)
	conn := f.dial(t, "room=room-1&player=p1&username=alice")
	f.nextCommand(t, events.CommandJoin)

	conn.Close()
	cmd := f.nextCommand(t, events.CommandLeave)
	assert.Equal(t, "p1", cmd.PlayerID)
}

func TestMissingRoomRejected(t *testing.T) {
	f := newGatewayFixture(t)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/?username=alice"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, 400, resp.StatusCode)
}
