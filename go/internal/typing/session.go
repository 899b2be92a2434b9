package typing

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Mode selects which text pool a session draws from.
type Mode string

const (
	ModeWords Mode = "words"
	ModeQuote Mode = "quote"
)

// Config holds the test configuration for a session. Restarting a session
// allocates a fresh Session with the same Config.
type Config struct {
	Mode        Mode `json:"mode"`
	DurationSec int  `json:"duration_sec"`
	Punctuation bool `json:"punctuation"`
	Numbers     bool `json:"numbers"`
}

// Sample is one per-second snapshot of the live metrics.
type Sample struct {
	ElapsedSeconds int `json:"elapsed_seconds"`
	WPM            int `json:"wpm"`
	Accuracy       int `json:"accuracy"`
}

// Snapshot is the externally visible state of a session.
type Snapshot struct {
	WPM             int     `json:"wpm"`
	PeakWPM         int     `json:"peak_wpm"`
	Accuracy        int     `json:"accuracy"`
	ErrorsPerMinute int     `json:"errors_per_minute"`
	Consistency     int     `json:"consistency"`
	CorrectChars    int     `json:"correct_chars"`
	IncorrectChars  int     `json:"incorrect_chars"`
	TypedChars      int     `json:"typed_chars"`
	TotalChars      int     `json:"total_chars"`
	ProgressPercent float64 `json:"progress_percent"`
	Terminal        bool    `json:"terminal"`
}

// CueSettings gate the per-keystroke feedback cues.
type CueSettings struct {
	Enabled bool `json:"enabled"`
	Volume  int  `json:"volume"` // 0..100
}

// Session consumes accepted keystrokes against an immutable reference text
// and maintains live WPM/accuracy/consistency metrics. It is not safe for
// concurrent use; callers serialize access (the practice service owns one
// session per connection, the coordinator one per participant).
type Session struct {
	cfg       Config
	reference []rune
	typed     []rune

	clock     clockwork.Clock
	cues      CuePlayer
	cueConfig CueSettings

	started   bool
	startedAt time.Time
	terminal  bool

	samples         []Sample
	wpm             int
	peakWPM         int
	accuracy        int
	errorsPerMinute int
	consistency     int
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the wall clock, for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithCues installs a cue player and its gating settings.
func WithCues(player CuePlayer, settings CueSettings) Option {
	return func(s *Session) {
		s.cues = player
		s.cueConfig = settings
	}
}

// NewSession creates a session over the given reference text.
func NewSession(cfg Config, referenceText string, opts ...Option) *Session {
	s := &Session{
		cfg:       cfg,
		reference: []rune(referenceText),
		clock:     clockwork.NewRealClock(),
		cues:      NopCuePlayer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the test configuration the session was created with.
func (s *Session) Config() Config { return s.cfg }

// ReferenceText returns the immutable reference text.
func (s *Session) ReferenceText() string { return string(s.reference) }

// TypedText returns the text typed so far.
func (s *Session) TypedText() string { return string(s.typed) }

// Terminal reports whether the session has completed.
func (s *Session) Terminal() bool { return s.terminal }

// StartedAt returns the first-keystroke time and whether it is set.
func (s *Session) StartedAt() (time.Time, bool) { return s.startedAt, s.started }

// Samples returns the per-second metric samples recorded so far.
func (s *Session) Samples() []Sample { return s.samples }

// Type accepts one printable character. The character is recorded
// unconditionally; a mismatch still advances the position. Returns false when
// the keystroke was rejected (terminal session or reference already full).
func (s *Session) Type(r rune) bool {
	if s.terminal || len(s.typed) >= len(s.reference) {
		return false
	}
	s.markStarted()
	pos := len(s.typed)
	s.typed = append(s.typed, r)
	if r == s.reference[pos] {
		s.playCue(true)
	} else {
		s.playCue(false)
	}
	s.recompute()
	return true
}

// Backspace removes the last typed character. No-op on an empty buffer or a
// terminal session.
func (s *Session) Backspace() bool {
	if s.terminal || len(s.typed) == 0 {
		return false
	}
	s.typed = s.typed[:len(s.typed)-1]
	s.recompute()
	return true
}

// ExpireIfDue transitions the session to terminal when the configured
// duration has elapsed. The practice service calls this from its expiry
// poll. Returns true when the session is terminal afterwards.
func (s *Session) ExpireIfDue() bool {
	if s.terminal {
		return true
	}
	if s.cfg.DurationSec > 0 && s.started {
		if s.clock.Since(s.startedAt) >= time.Duration(s.cfg.DurationSec)*time.Second {
			s.finish()
		}
	}
	return s.terminal
}

// Snapshot returns the current metrics.
func (s *Session) Snapshot() Snapshot {
	correct, incorrect := s.counts()
	progress := 0.0
	if len(s.reference) > 0 {
		progress = float64(len(s.typed)) / float64(len(s.reference)) * 100
	}
	return Snapshot{
		WPM:             s.wpm,
		PeakWPM:         s.peakWPM,
		Accuracy:        s.accuracy,
		ErrorsPerMinute: s.errorsPerMinute,
		Consistency:     s.consistency,
		CorrectChars:    correct,
		IncorrectChars:  incorrect,
		TypedChars:      len(s.typed),
		TotalChars:      len(s.reference),
		ProgressPercent: progress,
		Terminal:        s.terminal,
	}
}

func (s *Session) markStarted() {
	// startedAt is set exactly once, on the empty -> non-empty transition.
	if s.started || len(s.typed) != 0 {
		return
	}
	s.started = true
	s.startedAt = s.clock.Now()
}

func (s *Session) counts() (correct, incorrect int) {
	for i, r := range s.typed {
		if r == s.reference[i] {
			correct++
		} else {
			incorrect++
		}
	}
	return correct, incorrect
}

func (s *Session) recompute() {
	correct, incorrect := s.counts()
	typed := correct + incorrect

	if typed > 0 {
		s.accuracy = roundRatio(float64(correct), float64(typed), 100)
	} else {
		s.accuracy = 0
	}

	if s.started {
		elapsedMinutes := s.clock.Since(s.startedAt).Minutes()
		if elapsedMinutes > 0 {
			s.wpm = roundRatio(float64(correct)/5, elapsedMinutes, 1)
			if s.wpm > s.peakWPM {
				s.peakWPM = s.wpm
			}
			s.errorsPerMinute = roundRatio(float64(incorrect), elapsedMinutes, 1)
		}
		s.maybeSample()
	}

	if len(s.typed) == len(s.reference) {
		s.finish()
	}
}

// maybeSample appends at most one sample per whole elapsed second. Past
// samples are never corrected after the fact.
func (s *Session) maybeSample() {
	elapsedSeconds := int(s.clock.Since(s.startedAt).Seconds())
	if elapsedSeconds <= len(s.samples) {
		return
	}
	s.samples = append(s.samples, Sample{
		ElapsedSeconds: len(s.samples) + 1,
		WPM:            s.wpm,
		Accuracy:       s.accuracy,
	})
}

func (s *Session) finish() {
	if s.terminal {
		return
	}
	s.terminal = true
	s.consistency = ConsistencyScore(s.samples)
}
