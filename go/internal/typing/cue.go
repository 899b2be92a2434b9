package typing

// CuePlayer receives the per-keystroke feedback cues. Implementations are
// fire-and-forget; playback failures are swallowed, never surfaced to the
// session.
type CuePlayer interface {
	PlayMatch(volume int)
	PlayMismatch(volume int)
}

// NopCuePlayer discards all cues.
type NopCuePlayer struct{}

func (NopCuePlayer) PlayMatch(int)    {}
func (NopCuePlayer) PlayMismatch(int) {}

func (s *Session) playCue(matched bool) {
	if !s.cueConfig.Enabled {
		return
	}
	volume := s.cueConfig.Volume
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	if matched {
		s.cues.PlayMatch(volume)
	} else {
		s.cues.PlayMismatch(volume)
	}
}
