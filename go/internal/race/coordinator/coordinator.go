// Package coordinator implements the authoritative race coordinator. It
// consumes client commands from the relay, owns the per-room state machine,
// and broadcasts one canonical verdict per race, so the two clients can
// never disagree on the outcome.
package coordinator

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mattsre/keysprint/go/internal/race"
	"github.com/mattsre/keysprint/go/internal/race/events"
	"github.com/mattsre/keysprint/go/internal/relay"
)

// Config holds coordinator tuning knobs.
type Config struct {
	MaxParticipants     int
	CountdownFrom       int
	ProgressMinInterval time.Duration
	RematchTimeout      time.Duration
}

// DefaultConfig returns the default coordinator configuration.
func DefaultConfig() Config {
	return Config{
		MaxParticipants:     2,
		CountdownFrom:       3,
		ProgressMinInterval: 250 * time.Millisecond,
		RematchTimeout:      30 * time.Second,
	}
}

// ResultStore persists race outcomes. Persistence failures are logged and
// dropped; they never block or fail the race itself.
type ResultStore interface {
	SaveRaceOutcome(ctx context.Context, roomID string, verdict race.Verdict, results []events.ParticipantResult) error
}

// Coordinator owns all room state. One instance serves every room.
type Coordinator struct {
	relay  relay.Relay
	clock  clockwork.Clock
	config Config
	store  ResultStore

	mu    sync.Mutex
	rooms map[string]*Room

	runCtx context.Context
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock overrides the wall clock, for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Coordinator) { c.clock = clock }
}

// WithResultStore installs a persistence sink for finished races.
func WithResultStore(store ResultStore) Option {
	return func(c *Coordinator) { c.store = store }
}

// New creates a coordinator publishing to and consuming from the relay.
func New(r relay.Relay, config Config, opts ...Option) *Coordinator {
	c := &Coordinator{
		relay:  r,
		clock:  clockwork.NewRealClock(),
		config: config,
		rooms:  make(map[string]*Room),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run subscribes to client commands and blocks until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) error {
	c.runCtx = ctx
	sub, err := c.relay.Subscribe(relay.CommandWildcard(), func(subject string, data []byte) {
		c.handleCommand(data)
	})
	if err != nil {
		return err
	}
	log.Info().Str("subject", relay.CommandWildcard()).Msg("race coordinator started")

	<-ctx.Done()
	if err := sub.Unsubscribe(); err != nil {
		log.Error().Err(err).Msg("failed to unsubscribe coordinator")
	}
	log.Info().Msg("race coordinator shutting down")
	return nil
}

// JoinableRooms lists rooms that can accept another participant.
func (c *Coordinator) JoinableRooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []string
	for id, room := range c.rooms {
		if (room.Phase == PhaseWaiting || room.Phase == PhaseLobby) && len(room.Participants) < c.config.MaxParticipants {
			ids = append(ids, id)
		}
	}
	return ids
}

// handleCommand routes one client command from the relay.
func (c *Coordinator) handleCommand(data []byte) {
	var cmd events.Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		log.Error().Err(err).Msg("failed to parse client command")
		return
	}
	if cmd.RoomID == "" || cmd.PlayerID == "" {
		log.Warn().Str("type", string(cmd.Type)).Msg("command missing room or player id")
		return
	}

	switch cmd.Type {
	case events.CommandJoin:
		var payload events.JoinPayload
		if err := json.Unmarshal(cmd.Data, &payload); err != nil {
			log.Error().Err(err).Msg("failed to parse join payload")
			return
		}
		c.handleJoin(cmd.RoomID, cmd.PlayerID, payload.Username)

	case events.CommandReady:
		c.handleReady(cmd.RoomID, cmd.PlayerID)

	case events.CommandProgress:
		var payload events.ProgressPayload
		if err := json.Unmarshal(cmd.Data, &payload); err != nil {
			log.Error().Err(err).Msg("failed to parse progress payload")
			return
		}
		c.handleProgress(cmd.RoomID, cmd.PlayerID, payload)

	case events.CommandFinished:
		var payload events.FinishedPayload
		if err := json.Unmarshal(cmd.Data, &payload); err != nil {
			log.Error().Err(err).Msg("failed to parse finished payload")
			return
		}
		c.handleFinished(cmd.RoomID, cmd.PlayerID, payload)

	case events.CommandLeave:
		c.handleLeave(cmd.RoomID, cmd.PlayerID)

	case events.CommandRematchRequest:
		c.handleRematchRequest(cmd.RoomID, cmd.PlayerID)

	case events.CommandRematchAccept:
		c.handleRematchAccept(cmd.RoomID, cmd.PlayerID)

	default:
		log.Warn().Str("type", string(cmd.Type)).Msg("unknown command type, ignoring")
	}
}

func (c *Coordinator) handleJoin(roomID, playerID, username string) {
	c.mu.Lock()
	room, ok := c.rooms[roomID]
	if !ok {
		room = newRoom(roomID, c.config.RematchTimeout, c.clock.Now())
		c.rooms[roomID] = room
	}

	if existing, ok := room.Participants[playerID]; ok {
		// Duplicate join: reconnect, never a second joined notification.
		existing.Connected = true
		c.mu.Unlock()
		return
	}
	if len(room.Participants) >= c.config.MaxParticipants {
		c.mu.Unlock()
		log.Warn().Str("room_id", roomID).Str("player_id", playerID).Msg("join rejected, room full")
		return
	}
	if room.Phase == PhaseCountdown || room.Phase == PhaseRacing {
		c.mu.Unlock()
		log.Warn().Str("room_id", roomID).Str("player_id", playerID).Msg("join rejected, race in progress")
		return
	}

	now := c.clock.Now()
	p := race.NewParticipant(playerID, username, now)
	room.Participants[playerID] = p
	switch {
	case room.Phase == PhaseFinished:
		// A fresh opponent after a finished race; everyone re-readies.
		room.resetToLobby()
		if len(room.Participants) < c.config.MaxParticipants {
			room.Phase = PhaseWaiting
		}
	case len(room.Participants) == c.config.MaxParticipants && room.Phase == PhaseWaiting:
		room.Phase = PhaseLobby
	}
	state := room.statePayload()
	c.mu.Unlock()

	log.Info().
		Str("room_id", roomID).
		Str("player_id", playerID).
		Str("username", username).
		Msg("player joined room")

	c.publish(roomID, events.EventTypePlayerJoined, events.PlayerJoinedPayload{
		PlayerID: playerID,
		Username: username,
		JoinedAt: now,
	})
	c.publish(roomID, events.EventTypeRoomState, state)
}

func (c *Coordinator) handleReady(roomID, playerID string) {
	c.mu.Lock()
	room, p := c.lookup(roomID, playerID)
	if p == nil || (room.Phase != PhaseLobby && room.Phase != PhaseWaiting) {
		c.mu.Unlock()
		return
	}
	p.Ready = true
	start := room.allReady(c.config.MaxParticipants)
	if start {
		room.Phase = PhaseCountdown
		ctx, cancel := context.WithCancel(c.baseContext())
		room.countdownCancel = cancel
		go c.runCountdown(ctx, roomID)
	}
	c.mu.Unlock()

	c.publish(roomID, events.EventTypePlayerReady, events.PlayerReadyPayload{PlayerID: playerID})
	if start {
		log.Info().Str("room_id", roomID).Msg("both players ready, starting countdown")
	}
}

// runCountdown emits the game-starting counter once per second, 3 down to 0.
// Only the coordinator ever originates the countdown.
func (c *Coordinator) runCountdown(ctx context.Context, roomID string) {
	for counter := c.config.CountdownFrom; ; counter-- {
		c.publish(roomID, events.EventTypeGameStarting, events.GameStartingPayload{Counter: counter})
		if counter <= 0 {
			break
		}
		timer := c.clock.NewTimer(time.Second)
		select {
		case <-timer.Chan():
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}

	c.mu.Lock()
	room, ok := c.rooms[roomID]
	if ok && room.Phase == PhaseCountdown {
		room.Phase = PhaseRacing
		room.countdownCancel = nil
	}
	c.mu.Unlock()
	log.Info().Str("room_id", roomID).Msg("race started")
}

func (c *Coordinator) handleProgress(roomID, playerID string, payload events.ProgressPayload) {
	c.mu.Lock()
	room, p := c.lookup(roomID, playerID)
	if p == nil || room.Phase != PhaseRacing || p.Finished() {
		c.mu.Unlock()
		return
	}
	p.UpdateProgress(payload.ProgressPercent, payload.WPM)
	broadcast := p.AllowBroadcast(c.clock.Now(), c.config.ProgressMinInterval)
	progress := p.ProgressPercent
	wpm := p.WPMSnapshot
	c.mu.Unlock()

	if broadcast {
		c.publish(roomID, events.EventTypeProgressUpdate, events.ProgressUpdatePayload{
			PlayerID:        playerID,
			ProgressPercent: progress,
			WPM:             wpm,
		})
	}
}

func (c *Coordinator) handleFinished(roomID, playerID string, payload events.FinishedPayload) {
	c.mu.Lock()
	room, p := c.lookup(roomID, playerID)
	if p == nil || room.Phase != PhaseRacing {
		c.mu.Unlock()
		return
	}
	recorded := p.RecordResult(race.Result{
		WPM:        payload.WPM,
		Accuracy:   payload.Accuracy,
		FinishedAt: payload.FinishedAt,
	})
	if !recorded {
		// Duplicate finish report, idempotent.
		c.mu.Unlock()
		return
	}
	p.UpdateProgress(100, payload.WPM)
	done := room.allFinished()
	c.mu.Unlock()

	c.publish(roomID, events.EventTypePlayerFinished, events.PlayerFinishedPayload{
		PlayerID:   playerID,
		WPM:        payload.WPM,
		Accuracy:   payload.Accuracy,
		FinishedAt: payload.FinishedAt,
	})
	if done {
		c.finalize(roomID)
	}
}

// finalize computes the canonical verdict and broadcasts it exactly once.
func (c *Coordinator) finalize(roomID string) {
	c.mu.Lock()
	room, ok := c.rooms[roomID]
	if !ok || room.Phase != PhaseRacing {
		c.mu.Unlock()
		return
	}
	room.Phase = PhaseFinished

	var results []events.ParticipantResult
	type finished struct {
		id     string
		result race.Result
	}
	var done []finished
	for id, p := range room.Participants {
		result, ok := p.Result()
		if !ok {
			continue
		}
		done = append(done, finished{id: id, result: result})
		results = append(results, events.ParticipantResult{
			PlayerID:   id,
			Username:   p.Username,
			WPM:        result.WPM,
			Accuracy:   result.Accuracy,
			FinishedAt: result.FinishedAt,
		})
	}
	c.mu.Unlock()

	var verdict race.Verdict
	switch len(done) {
	case 2:
		verdict = race.DecideWinner(done[0].id, done[0].result, done[1].id, done[1].result)
	case 1:
		// Opponent left without a result; the sole finisher takes the race.
		verdict = race.Verdict{WinnerID: done[0].id}
	default:
		return
	}

	log.Info().
		Str("room_id", roomID).
		Bool("draw", verdict.Draw).
		Str("winner_id", verdict.WinnerID).
		Msg("race finished, broadcasting verdict")

	c.publish(roomID, events.EventTypeRaceResult, events.RaceResultPayload{
		Draw:     verdict.Draw,
		WinnerID: verdict.WinnerID,
		Results:  results,
	})

	if c.store != nil {
		go func() {
			ctx, cancel := context.WithTimeout(c.baseContext(), 10*time.Second)
			defer cancel()
			if err := c.store.SaveRaceOutcome(ctx, roomID, verdict, results); err != nil {
				log.Error().Err(err).Str("room_id", roomID).Msg("failed to persist race outcome")
			}
		}()
	}
}

func (c *Coordinator) handleLeave(roomID, playerID string) {
	c.mu.Lock()
	room, p := c.lookup(roomID, playerID)
	if p == nil {
		c.mu.Unlock()
		return
	}
	delete(room.Participants, playerID)
	username := p.Username

	empty := len(room.Participants) == 0
	if empty {
		room.cancelCountdown()
		delete(c.rooms, roomID)
		c.mu.Unlock()
		log.Info().Str("room_id", roomID).Msg("room closed, last participant left")
		return
	}

	switch room.Phase {
	case PhaseCountdown:
		// Countdown aborts; the remaining participant re-readies.
		room.resetToLobby()
		room.Phase = PhaseWaiting
	case PhaseLobby:
		room.Phase = PhaseWaiting
		for _, remaining := range room.Participants {
			remaining.Ready = false
		}
	case PhaseRacing:
		// Leaving and disconnecting are indistinguishable; if the remaining
		// participant already finished, resolve the race now.
		if room.allFinished() {
			c.mu.Unlock()
			c.publish(roomID, events.EventTypePlayerLeft, events.PlayerLeftPayload{PlayerID: playerID, Username: username})
			c.finalize(roomID)
			return
		}
	}
	state := room.statePayload()
	c.mu.Unlock()

	c.publish(roomID, events.EventTypePlayerLeft, events.PlayerLeftPayload{PlayerID: playerID, Username: username})
	c.publish(roomID, events.EventTypeRoomState, state)
}

func (c *Coordinator) handleRematchRequest(roomID, playerID string) {
	c.mu.Lock()
	room, p := c.lookup(roomID, playerID)
	if p == nil || room.Phase != PhaseFinished {
		c.mu.Unlock()
		return
	}
	now := c.clock.Now()
	accepted := room.Rematch.Request(playerID, now)
	var state events.RoomStatePayload
	if accepted {
		room.resetToLobby()
		state = room.statePayload()
	}
	c.mu.Unlock()

	if accepted {
		c.publish(roomID, events.EventTypeRematchAccepted, events.RematchAcceptedPayload{PlayerID: playerID})
		c.publish(roomID, events.EventTypeRoomState, state)
		return
	}
	c.publish(roomID, events.EventTypeRematchRequested, events.RematchRequestedPayload{PlayerID: playerID})
	c.scheduleRematchExpiry(roomID)
}

func (c *Coordinator) handleRematchAccept(roomID, playerID string) {
	c.mu.Lock()
	room, p := c.lookup(roomID, playerID)
	if p == nil || room.Phase != PhaseFinished {
		c.mu.Unlock()
		return
	}
	accepted := room.Rematch.Accept(playerID, c.clock.Now())
	var state events.RoomStatePayload
	if accepted {
		room.resetToLobby()
		state = room.statePayload()
	}
	c.mu.Unlock()

	if accepted {
		c.publish(roomID, events.EventTypeRematchAccepted, events.RematchAcceptedPayload{PlayerID: playerID})
		c.publish(roomID, events.EventTypeRoomState, state)
	}
}

// scheduleRematchExpiry resets a pending rematch request after the timeout
// so a dropped accept can never leave the requester waiting forever.
func (c *Coordinator) scheduleRematchExpiry(roomID string) {
	c.clock.AfterFunc(c.config.RematchTimeout, func() {
		c.mu.Lock()
		room, ok := c.rooms[roomID]
		if !ok || !room.Rematch.Expired(c.clock.Now()) {
			c.mu.Unlock()
			return
		}
		room.Rematch.Reset()
		c.mu.Unlock()

		c.publish(roomID, events.EventTypeRematchReset, events.RematchResetPayload{
			Reason: "rematch request timed out",
		})
	})
}

// lookup fetches a room and participant; both nil-safe under c.mu.
func (c *Coordinator) lookup(roomID, playerID string) (*Room, *race.Participant) {
	room, ok := c.rooms[roomID]
	if !ok {
		return nil, nil
	}
	return room, room.Participants[playerID]
}

func (c *Coordinator) baseContext() context.Context {
	if c.runCtx != nil {
		return c.runCtx
	}
	return context.Background()
}

// publish marshals an event envelope onto the relay. Publish failures are
// logged and dropped; the relay is fire-and-forget.
func (c *Coordinator) publish(roomID string, eventType events.EventType, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to marshal event payload")
		return
	}
	envelope := events.Envelope{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		Type:      eventType,
		Timestamp: c.clock.Now(),
		Data:      data,
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event envelope")
		return
	}
	if err := c.relay.Publish(relay.EventSubject(roomID), raw); err != nil {
		log.Error().Err(err).Str("room_id", roomID).Str("event_type", string(eventType)).Msg("failed to publish event")
	}
}
