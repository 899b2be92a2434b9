package practice

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mattsre/keysprint/go/internal/typing"
)

// Inbound message types.
const (
	msgKeystroke = "keystroke"
	msgBackspace = "backspace"
	msgRestart   = "restart"
)

// Outbound message types.
const (
	msgSession  = "session"
	msgSnapshot = "snapshot"
	msgCue      = "cue"
	msgResult   = "result"
)

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type keystrokePayload struct {
	Char string `json:"char"`
}

type outboundMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type sessionPayload struct {
	ReferenceText string        `json:"reference_text"`
	Config        typing.Config `json:"config"`
}

type cuePayload struct {
	Kind   string `json:"kind"` // "match" or "mismatch"
	Volume int    `json:"volume"`
}

// sessionHost binds one websocket to one server-held typing session. All
// session access and all socket writes go through mu.
type sessionHost struct {
	id       string
	service  *Service
	conn     *websocket.Conn
	username string
	cfg      typing.Config
	cues     typing.CueSettings

	mu      sync.Mutex
	session *typing.Session
	saved   bool
}

// wsCues streams feedback cues to the client in place of client-side audio.
// Called by the session under the host mutex.
type wsCues struct {
	host *sessionHost
}

func (c wsCues) PlayMatch(volume int)    { c.host.writeLocked(msgCue, cuePayload{Kind: "match", Volume: volume}) }
func (c wsCues) PlayMismatch(volume int) { c.host.writeLocked(msgCue, cuePayload{Kind: "mismatch", Volume: volume}) }

func newSessionHost(service *Service, conn *websocket.Conn, username string, cfg typing.Config, cues typing.CueSettings) *sessionHost {
	return &sessionHost{
		id:       newHostID(),
		service:  service,
		conn:     conn,
		username: username,
		cfg:      cfg,
		cues:     cues,
	}
}

func (h *sessionHost) run(ctx context.Context) {
	defer h.conn.Close()

	h.mu.Lock()
	h.startSession(ctx)
	h.mu.Unlock()

	if h.cfg.DurationSec > 0 {
		expireCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go h.expiryLoop(expireCtx)
	}

	h.conn.SetReadLimit(h.service.config.MaxMessageSize)
	for {
		h.conn.SetReadDeadline(time.Now().Add(h.service.config.ReadTimeout))
		_, raw, err := h.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("host_id", h.id).Msg("practice websocket read error")
			}
			return
		}
		h.handleMessage(ctx, raw)
	}
}

// startSession fetches text and replaces the session. Caller holds mu.
func (h *sessionHost) startSession(ctx context.Context) {
	text := h.service.provider.Fetch(ctx, h.cfg)
	h.session = typing.NewSession(h.cfg, text,
		typing.WithClock(h.service.clock),
		typing.WithCues(wsCues{host: h}, h.cues),
	)
	h.saved = false
	h.writeLocked(msgSession, sessionPayload{ReferenceText: text, Config: h.cfg})
}

func (h *sessionHost) handleMessage(ctx context.Context, raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Warn().Err(err).Str("host_id", h.id).Msg("ignoring malformed practice message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch msg.Type {
	case msgKeystroke:
		var payload keystrokePayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			log.Warn().Err(err).Str("host_id", h.id).Msg("ignoring malformed keystroke")
			return
		}
		for _, r := range payload.Char {
			h.session.Type(r)
			break
		}
		h.afterInput(ctx)
	case msgBackspace:
		h.session.Backspace()
		h.afterInput(ctx)
	case msgRestart:
		h.startSession(ctx)
	default:
		log.Warn().Str("host_id", h.id).Str("type", msg.Type).Msg("ignoring unknown practice message type")
	}
}

// afterInput sends the fresh snapshot and finalizes when the session just
// reached its terminal state. Caller holds mu.
func (h *sessionHost) afterInput(ctx context.Context) {
	snapshot := h.session.Snapshot()
	h.writeLocked(msgSnapshot, snapshot)
	if snapshot.Terminal {
		h.finalize(ctx, snapshot)
	}
}

// expiryLoop ends timed sessions when their duration elapses, whether or not
// the client is still typing.
func (h *sessionHost) expiryLoop(ctx context.Context) {
	ticker := h.service.clock.NewTicker(h.service.config.ExpiryPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			// The loop keeps running across restarts; a fresh session
			// re-arms on its own first keystroke.
			h.mu.Lock()
			if !h.session.Terminal() && h.session.ExpireIfDue() {
				snapshot := h.session.Snapshot()
				h.writeLocked(msgSnapshot, snapshot)
				h.finalize(ctx, snapshot)
			}
			h.mu.Unlock()
		}
	}
}

// finalize reports and persists the terminal snapshot once. Caller holds mu.
func (h *sessionHost) finalize(ctx context.Context, snapshot typing.Snapshot) {
	if h.saved {
		return
	}
	h.saved = true
	h.writeLocked(msgResult, snapshot)
	go h.service.persist(context.WithoutCancel(ctx), h.username, h.cfg, snapshot)

	log.Info().
		Str("host_id", h.id).
		Str("username", h.username).
		Int("wpm", snapshot.WPM).
		Int("accuracy", snapshot.Accuracy).
		Int("consistency", snapshot.Consistency).
		Msg("practice session finished")
}

// writeLocked sends one outbound message. Caller holds mu, which also
// serializes all writers on the connection.
func (h *sessionHost) writeLocked(msgType string, data any) {
	h.conn.SetWriteDeadline(time.Now().Add(h.service.config.WriteTimeout))
	if err := h.conn.WriteJSON(outboundMessage{Type: msgType, Data: data}); err != nil {
		log.Error().Err(err).Str("host_id", h.id).Str("type", msgType).Msg("failed to write practice message")
	}
}
