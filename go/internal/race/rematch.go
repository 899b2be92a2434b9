package race

import "time"

// RematchPhase is the explicit state of the post-race rematch handshake.
type RematchPhase string

const (
	RematchNone      RematchPhase = "none"
	RematchRequested RematchPhase = "requested"
	RematchAccepted  RematchPhase = "accepted"
)

// Rematch arbitrates the rematch handshake for one room. A pending request
// expires after the configured timeout so a dropped accept can never leave
// one side waiting forever.
type Rematch struct {
	phase       RematchPhase
	requesterID string
	requestedAt time.Time
	timeout     time.Duration
}

// NewRematch creates a handshake with the given expiry timeout.
func NewRematch(timeout time.Duration) *Rematch {
	return &Rematch{phase: RematchNone, timeout: timeout}
}

// Phase returns the current handshake phase.
func (r *Rematch) Phase() RematchPhase { return r.phase }

// RequesterID returns the participant waiting for an accept, if any.
func (r *Rematch) RequesterID() string { return r.requesterID }

// Request registers a rematch request. A request from the second participant
// while the first is still waiting counts as acceptance. Returns true when
// the handshake reached the accepted state.
func (r *Rematch) Request(playerID string, now time.Time) bool {
	r.expireIfDue(now)
	switch r.phase {
	case RematchNone:
		r.phase = RematchRequested
		r.requesterID = playerID
		r.requestedAt = now
		return false
	case RematchRequested:
		if playerID == r.requesterID {
			// Duplicate request from the same side, keep waiting.
			return false
		}
		r.phase = RematchAccepted
		return true
	default:
		return r.phase == RematchAccepted
	}
}

// Accept registers an explicit accept from the non-requesting participant.
func (r *Rematch) Accept(playerID string, now time.Time) bool {
	r.expireIfDue(now)
	if r.phase != RematchRequested || playerID == r.requesterID {
		return false
	}
	r.phase = RematchAccepted
	return true
}

// Expired reports whether a pending request has outlived the timeout.
func (r *Rematch) Expired(now time.Time) bool {
	return r.phase == RematchRequested && r.timeout > 0 && now.Sub(r.requestedAt) >= r.timeout
}

// Reset returns the handshake to its initial state.
func (r *Rematch) Reset() {
	r.phase = RematchNone
	r.requesterID = ""
	r.requestedAt = time.Time{}
}

func (r *Rematch) expireIfDue(now time.Time) {
	if r.Expired(now) {
		r.Reset()
	}
}
