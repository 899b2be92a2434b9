package practice

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsre/keysprint/go/internal/models"
	"github.com/mattsre/keysprint/go/internal/results"
	"github.com/mattsre/keysprint/go/internal/texts"
	"github.com/mattsre/keysprint/go/internal/typing"
)

type fixedGenerator struct {
	text string
}

func (g fixedGenerator) Generate(context.Context, typing.Config) (string, error) {
	return g.text, nil
}

type captureSaver struct {
	saved chan results.SaveResultRequest
}

func (s *captureSaver) SaveResult(_ context.Context, req results.SaveResultRequest) (*models.TypingResult, error) {
	s.saved <- req
	return &models.TypingResult{ID: uuid.New(), PlayerID: req.PlayerID}, nil
}

type staticDirectory struct {
	player models.Player
}

func (d *staticDirectory) GetOrCreateByUsername(context.Context, string) (*models.Player, error) {
	return &d.player, nil
}

type practiceFixture struct {
	server *httptest.Server
	clock  *clockwork.FakeClock
	saver  *captureSaver
}

func newPracticeFixture(t *testing.T, text string) *practiceFixture {
	t.Helper()
	clock := clockwork.NewFakeClock()
	saver := &captureSaver{saved: make(chan results.SaveResultRequest, 4)}
	directory := &staticDirectory{player: models.Player{ID: uuid.New(), Username: "alice"}}
	provider := texts.NewProvider(fixedGenerator{text: text}, texts.NewPoolWithSeed(1))
	service := NewService(provider, saver, directory, DefaultServiceConfig(), WithClock(clock))

	server := httptest.NewServer(service)
	t.Cleanup(server.Close)
	return &practiceFixture{server: server, clock: clock, saver: saver}
}

func (f *practiceFixture) dial(t *testing.T, query string) *websocket.Conn {
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

type receivedMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readUntil(t *testing.T, conn *websocket.Conn, msgType string) receivedMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var msg receivedMessage
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s message", msgType)
		if msg.Type == msgType {
			return msg
		}
	}
}

func sendKeystroke(t *testing.T, conn *websocket.Conn, char string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": msgKeystroke,
		"data": keystrokePayload{Char: char},
	}))
}

func TestSessionStartsWithFetchedText(t *testing.T) {
	f := newPracticeFixture(t, "cat")
	conn := f.dial(t, "username=alice&mode=words")

	msg := readUntil(t, conn, msgSession)
	var payload sessionPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, "cat", payload.ReferenceText)
}

func TestKeystrokesStreamSnapshotsAndFinish(t *testing.T) {
	f := newPracticeFixture(t, "cat")
	conn := f.dial(t, "username=alice&mode=words")
	readUntil(t, conn, msgSession)

	sendKeystroke(t, conn, "c")
	msg := readUntil(t, conn, msgSnapshot)
	var snap typing.Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	assert.Equal(t, 100, snap.Accuracy)
	assert.False(t, snap.Terminal)

	sendKeystroke(t, conn, "a")
	readUntil(t, conn, msgSnapshot)
	sendKeystroke(t, conn, "t")

	result := readUntil(t, conn, msgResult)
	require.NoError(t, json.Unmarshal(result.Data, &snap))
	assert.True(t, snap.Terminal)
	assert.Equal(t, 100, snap.Accuracy)
	assert.Equal(t, 3, snap.CorrectChars)

	select {
	case saved := <-f.saver.saved:
		assert.Equal(t, models.ResultSourcePractice, saved.Source)
		assert.Equal(t, "words", saved.Mode)
		assert.Equal(t, 100, saved.Accuracy)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result to be persisted")
	}
}

func TestMismatchedKeystrokeEmitsCue(t *testing.T) {
	f := newPracticeFixture(t, "cat")
	conn := f.dial(t, "username=alice&mode=words&cues=1&volume=60")
	readUntil(t, conn, msgSession)

	sendKeystroke(t, conn, "x")
	msg := readUntil(t, conn, msgCue)
	var cue cuePayload
	require.NoError(t, json.Unmarshal(msg.Data, &cue))
	assert.Equal(t, "mismatch", cue.Kind)
	assert.Equal(t, 60, cue.Volume)
}

func TestRestartAllocatesFreshSession(t *testing.T) {
	f := newPracticeFixture(t, "cat")
	conn := f.dial(t, "username=alice&mode=words")
	readUntil(t, conn, msgSession)

	sendKeystroke(t, conn, "c")
	readUntil(t, conn, msgSnapshot)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": msgRestart}))
	readUntil(t, conn, msgSession)

	// The new session starts from zero typed characters.
	sendKeystroke(t, conn, "c")
	msg := readUntil(t, conn, msgSnapshot)
	var snap typing.Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	assert.Equal(t, 1, snap.TypedChars)
}

func TestTimedSessionExpiresServerSide(t *testing.T) {
	f := newPracticeFixture(t, "the quick brown fox jumps over the lazy dog")
	conn := f.dial(t, "username=alice&mode=words&duration=15")
	readUntil(t, conn, msgSession)

	sendKeystroke(t, conn, "t")
	readUntil(t, conn, msgSnapshot)

	// Expiry is anchored to the first keystroke and fires without further
	// input once the duration elapses.
	f.clock.BlockUntil(1)
	f.clock.Advance(15*time.Second + DefaultServiceConfig().ExpiryPoll)

	result := readUntil(t, conn, msgResult)
	var snap typing.Snapshot
	require.NoError(t, json.Unmarshal(result.Data, &snap))
	assert.True(t, snap.Terminal)
}

func TestMissingUsernameRejected(t *testing.T) {
	f := newPracticeFixture(t, "cat")
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/?mode=words"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, 400, resp.StatusCode)
}
