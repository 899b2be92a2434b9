package events

import (
	"encoding/json"
	"time"
)

// CommandType identifies a client command forwarded by the gateway to the
// coordinator.
type CommandType string

const (
	CommandJoin           CommandType = "join"
	CommandReady          CommandType = "ready"
	CommandProgress       CommandType = "progress"
	CommandFinished       CommandType = "finished"
	CommandLeave          CommandType = "leave"
	CommandRematchRequest CommandType = "rematch-request"
	CommandRematchAccept  CommandType = "rematch-accept"
)

// Command wraps a client-originated message on the relay. The coordinator is
// the only consumer; clients never see each other's commands directly.
type Command struct {
	RoomID    string          `json:"room_id"`
	PlayerID  string          `json:"player_id"`
	Type      CommandType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// JoinPayload accompanies CommandJoin.
type JoinPayload struct {
	Username string `json:"username"`
}

// ProgressPayload accompanies CommandProgress.
type ProgressPayload struct {
	ProgressPercent float64 `json:"progress_percent"`
	WPM             int     `json:"wpm"`
}

// FinishedPayload accompanies CommandFinished.
type FinishedPayload struct {
	WPM        int   `json:"wpm"`
	Accuracy   int   `json:"accuracy"`
	FinishedAt int64 `json:"finished_at_ms"`
}
