// Package events defines the event and command payloads shared between the
// race coordinator and the websocket gateway.
package events

import (
	"encoding/json"
	"time"
)

// EventType identifies a room event emitted by the coordinator.
type EventType string

const (
	EventTypePlayerJoined     EventType = "player-joined"
	EventTypePlayerReady      EventType = "player-ready"
	EventTypePlayerLeft       EventType = "player-left"
	EventTypeGameStarting     EventType = "game-starting"
	EventTypeProgressUpdate   EventType = "progress-update"
	EventTypePlayerFinished   EventType = "player-finished"
	EventTypeRaceResult       EventType = "race-result"
	EventTypeRematchRequested EventType = "rematch-requested"
	EventTypeRematchAccepted  EventType = "rematch-accepted"
	EventTypeRematchReset     EventType = "rematch-reset"
	EventTypeRoomState        EventType = "room-state"
)

// Envelope wraps every room event on the relay and on the wire to clients.
type Envelope struct {
	ID        string          `json:"id"`
	RoomID    string          `json:"room_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// PlayerJoinedPayload announces a participant entering the room.
type PlayerJoinedPayload struct {
	PlayerID string    `json:"player_id"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
}

// PlayerReadyPayload announces a participant's ready flag.
type PlayerReadyPayload struct {
	PlayerID string `json:"player_id"`
}

// PlayerLeftPayload announces a participant leaving, whether by navigation
// or disconnect; the two are indistinguishable to the room.
type PlayerLeftPayload struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
}

// GameStartingPayload carries one countdown tick. The coordinator emits the
// counter 3,2,1,0 at one-second intervals; at zero the race is running.
type GameStartingPayload struct {
	Counter int `json:"counter"`
}

// ProgressUpdatePayload is a live progress snapshot, last-write-wins.
type ProgressUpdatePayload struct {
	PlayerID        string  `json:"player_id"`
	ProgressPercent float64 `json:"progress_percent"`
	WPM             int     `json:"wpm"`
}

// PlayerFinishedPayload reports one participant's final result.
type PlayerFinishedPayload struct {
	PlayerID   string `json:"player_id"`
	WPM        int    `json:"wpm"`
	Accuracy   int    `json:"accuracy"`
	FinishedAt int64  `json:"finished_at_ms"`
}

// ParticipantResult pairs a participant with their recorded result.
type ParticipantResult struct {
	PlayerID   string `json:"player_id"`
	Username   string `json:"username"`
	WPM        int    `json:"wpm"`
	Accuracy   int    `json:"accuracy"`
	FinishedAt int64  `json:"finished_at_ms"`
}

// RaceResultPayload is the canonical verdict, computed once by the
// coordinator when both results are present.
type RaceResultPayload struct {
	Draw     bool                `json:"draw"`
	WinnerID string              `json:"winner_id,omitempty"`
	Results  []ParticipantResult `json:"results"`
}

// RematchRequestedPayload announces a pending rematch request.
type RematchRequestedPayload struct {
	PlayerID string `json:"player_id"`
}

// RematchAcceptedPayload announces the handshake completing; both sides
// reset to the lobby.
type RematchAcceptedPayload struct {
	PlayerID string `json:"player_id"`
}

// RematchResetPayload announces a request expiring without an accept.
type RematchResetPayload struct {
	Reason string `json:"reason"`
}

// RoomStatePayload is the authoritative room snapshot sent on join and on
// membership changes.
type RoomStatePayload struct {
	RoomID       string             `json:"room_id"`
	Phase        string             `json:"phase"`
	Participants []ParticipantState `json:"participants"`
}

// ParticipantState is one participant's public state inside RoomStatePayload.
type ParticipantState struct {
	PlayerID        string  `json:"player_id"`
	Username        string  `json:"username"`
	Ready           bool    `json:"ready"`
	Connected       bool    `json:"connected"`
	ProgressPercent float64 `json:"progress_percent"`
	WPM             int     `json:"wpm"`
	Finished        bool    `json:"finished"`
}
