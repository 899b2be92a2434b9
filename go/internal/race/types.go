// Package race defines the race domain: participants, results, winner
// determination, and the rematch handshake.
package race

import "time"

// Result is a participant's final outcome for one race. Immutable once set.
type Result struct {
	WPM        int   `json:"wpm"`
	Accuracy   int   `json:"accuracy"`
	FinishedAt int64 `json:"finished_at_ms"` // epoch millis
}

// Participant is one connected peer in a room.
type Participant struct {
	ID       string `json:"id"`
	Username string `json:"username"`

	Ready     bool `json:"ready"`
	Connected bool `json:"connected"`

	// Live snapshot, last-write-wins.
	ProgressPercent float64 `json:"progress_percent"`
	WPMSnapshot     int     `json:"wpm"`

	result    *Result
	lastBroadcast time.Time
	joinedAt  time.Time
}

// NewParticipant creates a connected, not-ready participant.
func NewParticipant(id, username string, now time.Time) *Participant {
	return &Participant{
		ID:        id,
		Username:  username,
		Connected: true,
		joinedAt:  now,
	}
}

// JoinedAt returns when the participant first joined.
func (p *Participant) JoinedAt() time.Time { return p.joinedAt }

// Result returns the participant's final result, if recorded.
func (p *Participant) Result() (Result, bool) {
	if p.result == nil {
		return Result{}, false
	}
	return *p.result, true
}

// Finished reports whether a result has been recorded.
func (p *Participant) Finished() bool { return p.result != nil }

// RecordResult stores the result exactly once. Duplicate finish reports are
// ignored; returns false when the result was already set.
func (p *Participant) RecordResult(result Result) bool {
	if p.result != nil {
		return false
	}
	r := result
	p.result = &r
	return true
}

// UpdateProgress overwrites the live snapshot, clamping progress to [0,100].
func (p *Participant) UpdateProgress(progressPercent float64, wpm int) {
	if progressPercent < 0 {
		progressPercent = 0
	}
	if progressPercent > 100 {
		progressPercent = 100
	}
	p.ProgressPercent = progressPercent
	p.WPMSnapshot = wpm
}

// AllowBroadcast applies the progress-broadcast rate limit: it returns true
// at most once per minInterval and records the broadcast time. The snapshot
// itself is still overwritten on every update; only the fan-out is limited.
func (p *Participant) AllowBroadcast(now time.Time, minInterval time.Duration) bool {
	if !p.lastBroadcast.IsZero() && now.Sub(p.lastBroadcast) < minInterval {
		return false
	}
	p.lastBroadcast = now
	return true
}

// ResetForRematch clears race state but keeps identity and connection.
func (p *Participant) ResetForRematch() {
	p.Ready = false
	p.ProgressPercent = 0
	p.WPMSnapshot = 0
	p.result = nil
	p.lastBroadcast = time.Time{}
}
