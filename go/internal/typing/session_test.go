package typing

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, reference string, cfg Config) (*Session, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	return NewSession(cfg, reference, WithClock(clock)), clock
}

func typeString(s *Session, text string) {
	for _, r := range text {
		s.Type(r)
	}
}

func TestCatScenario(t *testing.T) {
	s, clock := newTestSession(t, "cat", Config{Mode: ModeWords, DurationSec: 60})

	require.True(t, s.Type('c'))
	clock.Advance(60 * time.Second)
	require.True(t, s.Type('a'))
	require.True(t, s.Type('t'))

	snap := s.Snapshot()
	assert.Equal(t, 3, snap.CorrectChars)
	assert.Equal(t, 100, snap.Accuracy)
	assert.Equal(t, 1, snap.WPM)
	assert.True(t, snap.Terminal, "full reference text completes the session")
}

func TestAccuracyCountsMatchingPositions(t *testing.T) {
	s, clock := newTestSession(t, "abcd", Config{})

	s.Type('a')
	clock.Advance(time.Second)
	s.Type('x')
	s.Type('c')

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.CorrectChars)
	assert.Equal(t, 1, snap.IncorrectChars)
	assert.Equal(t, 67, snap.Accuracy) // round(2/3*100)
}

func TestWPMSkippedAtZeroElapsed(t *testing.T) {
	s, _ := newTestSession(t, "hello", Config{})

	typeString(s, "hel")

	snap := s.Snapshot()
	assert.Equal(t, 0, snap.WPM, "no WPM update before any time has elapsed")
	assert.Equal(t, 100, snap.Accuracy)
}

func TestStartedAtSetOnce(t *testing.T) {
	s, clock := newTestSession(t, "abc", Config{})

	s.Type('a')
	first, ok := s.StartedAt()
	require.True(t, ok)

	clock.Advance(5 * time.Second)
	s.Backspace()
	s.Type('a')

	again, _ := s.StartedAt()
	assert.Equal(t, first, again, "startedAt is immutable after the first keystroke")
}

func TestPeakWPMNonDecreasing(t *testing.T) {
	s, clock := newTestSession(t, "aaaaaaaaaaaaaaaaaaaa", Config{})

	prevPeak := 0
	for i := 0; i < 15; i++ {
		s.Type('a')
		clock.Advance(700 * time.Millisecond)
		snap := s.Snapshot()
		assert.GreaterOrEqual(t, snap.PeakWPM, prevPeak)
		prevPeak = snap.PeakWPM
	}
}

func TestBackspace(t *testing.T) {
	s, _ := newTestSession(t, "abc", Config{})

	assert.False(t, s.Backspace(), "backspace on empty buffer is a no-op")
	s.Type('a')
	s.Type('x')
	assert.True(t, s.Backspace())
	assert.Equal(t, "a", s.TypedText())
}

func TestKeystrokesRejectedWhenTerminal(t *testing.T) {
	s, clock := newTestSession(t, "ab", Config{})

	s.Type('a')
	clock.Advance(time.Second)
	s.Type('b')
	require.True(t, s.Terminal())

	assert.False(t, s.Type('c'))
	assert.False(t, s.Backspace())
	assert.Equal(t, "ab", s.TypedText())
}

func TestTypingNeverExceedsReferenceLength(t *testing.T) {
	s, _ := newTestSession(t, "ab", Config{})

	typeString(s, "abcdef")
	assert.Equal(t, "ab", s.TypedText())
}

func TestDurationExpiry(t *testing.T) {
	s, clock := newTestSession(t, "some long reference text", Config{DurationSec: 30})

	s.Type('s')
	assert.False(t, s.ExpireIfDue())
	clock.Advance(30 * time.Second)
	assert.True(t, s.ExpireIfDue())
	assert.True(t, s.Terminal())
}

func TestExpiryBeforeFirstKeystroke(t *testing.T) {
	s, clock := newTestSession(t, "reference", Config{DurationSec: 15})

	clock.Advance(time.Hour)
	assert.False(t, s.ExpireIfDue(), "duration countdown is anchored to the first keystroke")
}

func TestSamplesAtMostOnePerSecond(t *testing.T) {
	s, clock := newTestSession(t, "aaaaaaaaaa", Config{})

	s.Type('a')
	for i := 0; i < 4; i++ {
		clock.Advance(time.Second)
		s.Type('a')
		s.Type('a') // second keystroke in the same second
	}

	samples := s.Samples()
	require.Len(t, samples, 4)
	for i, sample := range samples {
		assert.Equal(t, i+1, sample.ElapsedSeconds)
	}
}

func TestConsistencyRequiresTwoSamples(t *testing.T) {
	s, clock := newTestSession(t, "ab", Config{})

	s.Type('a')
	clock.Advance(400 * time.Millisecond)
	s.Type('b')
	require.True(t, s.Terminal())
	assert.Equal(t, 0, s.Snapshot().Consistency)
}

func TestConsistencyComputedOnFinish(t *testing.T) {
	s, clock := newTestSession(t, "aaaaaaaaaa", Config{})

	for i := 0; i < 10; i++ {
		s.Type('a')
		clock.Advance(time.Second)
	}
	require.True(t, s.Terminal())
	snap := s.Snapshot()
	assert.Greater(t, snap.Consistency, 0)
	assert.LessOrEqual(t, snap.Consistency, 100)
}

func TestConsistencyScore(t *testing.T) {
	tests := []struct {
		name    string
		samples []Sample
		want    int
	}{
		{"no samples", nil, 0},
		{"single sample", []Sample{{WPM: 80}}, 0},
		{"steady", []Sample{{WPM: 60}, {WPM: 60}, {WPM: 60}}, 100},
		{"erratic", []Sample{{WPM: 10}, {WPM: 110}}, 17},
		{"zero mean", []Sample{{WPM: 0}, {WPM: 0}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConsistencyScore(tt.samples))
		})
	}
}

type recordingCues struct {
	matches    int
	mismatches int
	volume     int
}

func (c *recordingCues) PlayMatch(volume int)    { c.matches++; c.volume = volume }
func (c *recordingCues) PlayMismatch(volume int) { c.mismatches++; c.volume = volume }

func TestCuesFollowKeystrokes(t *testing.T) {
	cues := &recordingCues{}
	s := NewSession(Config{}, "ab",
		WithClock(clockwork.NewFakeClock()),
		WithCues(cues, CueSettings{Enabled: true, Volume: 70}))

	s.Type('a')
	s.Type('x')

	assert.Equal(t, 1, cues.matches)
	assert.Equal(t, 1, cues.mismatches)
	assert.Equal(t, 70, cues.volume)
}

func TestCuesGatedByEnableFlag(t *testing.T) {
	cues := &recordingCues{}
	s := NewSession(Config{}, "ab",
		WithClock(clockwork.NewFakeClock()),
		WithCues(cues, CueSettings{Enabled: false, Volume: 100}))

	s.Type('a')
	assert.Zero(t, cues.matches)
	assert.Zero(t, cues.mismatches)
}
