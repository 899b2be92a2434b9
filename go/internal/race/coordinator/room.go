package coordinator

import (
	"context"
	"time"

	"github.com/mattsre/keysprint/go/internal/race"
	"github.com/mattsre/keysprint/go/internal/race/events"
)

// Phase is the authoritative room phase. Clients observe it through the
// event stream; they never infer it independently.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseLobby     Phase = "lobby"
	PhaseCountdown Phase = "countdown"
	PhaseRacing    Phase = "racing"
	PhaseFinished  Phase = "finished"
)

// Room holds the authoritative state for one race room.
type Room struct {
	ID           string
	Phase        Phase
	Participants map[string]*race.Participant
	Rematch      *race.Rematch

	CreatedAt time.Time

	// Countdown cancellation; set while Phase == PhaseCountdown.
	countdownCancel context.CancelFunc
}

func newRoom(id string, rematchTimeout time.Duration, now time.Time) *Room {
	return &Room{
		ID:           id,
		Phase:        PhaseWaiting,
		Participants: make(map[string]*race.Participant),
		Rematch:      race.NewRematch(rematchTimeout),
		CreatedAt:    now,
	}
}

// opponentOf returns the other participant, if present.
func (r *Room) opponentOf(playerID string) *race.Participant {
	for id, p := range r.Participants {
		if id != playerID {
			return p
		}
	}
	return nil
}

// allReady reports whether the room is full and every participant is ready.
func (r *Room) allReady(capacity int) bool {
	if len(r.Participants) < capacity {
		return false
	}
	for _, p := range r.Participants {
		if !p.Ready || !p.Connected {
			return false
		}
	}
	return true
}

// allFinished reports whether every current participant has a result.
func (r *Room) allFinished() bool {
	if len(r.Participants) == 0 {
		return false
	}
	for _, p := range r.Participants {
		if !p.Finished() {
			return false
		}
	}
	return true
}

func (r *Room) cancelCountdown() {
	if r.countdownCancel != nil {
		r.countdownCancel()
		r.countdownCancel = nil
	}
}

// resetToLobby clears race state for a rematch, keeping membership.
func (r *Room) resetToLobby() {
	r.cancelCountdown()
	for _, p := range r.Participants {
		p.ResetForRematch()
	}
	r.Rematch.Reset()
	r.Phase = PhaseLobby
}

func (r *Room) statePayload() events.RoomStatePayload {
	state := events.RoomStatePayload{
		RoomID: r.ID,
		Phase:  string(r.Phase),
	}
	for _, p := range r.Participants {
		state.Participants = append(state.Participants, events.ParticipantState{
			PlayerID:        p.ID,
			Username:        p.Username,
			Ready:           p.Ready,
			Connected:       p.Connected,
			ProgressPercent: p.ProgressPercent,
			WPM:             p.WPMSnapshot,
			Finished:        p.Finished(),
		})
	}
	return state
}
