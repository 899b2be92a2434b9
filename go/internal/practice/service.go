// Package practice serves solo typing sessions over websocket. The session
// engine runs server-side: clients send raw keystrokes and receive metric
// snapshots and feedback cues back, so every client renders the same numbers
// the leaderboard will store.
package practice

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mattsre/keysprint/go/internal/models"
	"github.com/mattsre/keysprint/go/internal/results"
	"github.com/mattsre/keysprint/go/internal/texts"
	"github.com/mattsre/keysprint/go/internal/typing"
)

// ResultSaver persists finished sessions. Implemented by the results app.
type ResultSaver interface {
	SaveResult(ctx context.Context, req results.SaveResultRequest) (*models.TypingResult, error)
}

// PlayerDirectory resolves usernames to player records.
type PlayerDirectory interface {
	GetOrCreateByUsername(ctx context.Context, username string) (*models.Player, error)
}

// ServiceConfig holds practice websocket tuning.
type ServiceConfig struct {
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64
	ExpiryPoll     time.Duration // how often timed sessions are checked for expiry
	CheckOrigin    func(r *http.Request) bool
}

// DefaultServiceConfig returns the default practice configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    5 * time.Minute,
		MaxMessageSize: 1024,
		ExpiryPoll:     250 * time.Millisecond,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// Service owns practice websocket sessions.
type Service struct {
	provider *texts.Provider
	saver    ResultSaver
	players  PlayerDirectory
	config   ServiceConfig
	clock    clockwork.Clock
	upgrader websocket.Upgrader
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock, for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// NewService creates a practice service. The saver and directory may be nil;
// finished sessions are then reported but not persisted.
func NewService(provider *texts.Provider, saver ResultSaver, players PlayerDirectory, config ServiceConfig, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		saver:    saver,
		players:  players,
		config:   config,
		clock:    clockwork.NewRealClock(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     config.CheckOrigin,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServeHTTP upgrades GET /ws/practice?username=<name>&mode=words|quote&
// duration=<sec>&punctuation=0|1&numbers=0|1&cues=0|1&volume=<0..100>.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "username query parameter is required", http.StatusBadRequest)
		return
	}
	cfg := sessionConfigFromQuery(r)
	cues := cueSettingsFromQuery(r)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade practice websocket")
		return
	}

	host := newSessionHost(s, conn, username, cfg, cues)
	log.Info().
		Str("host_id", host.id).
		Str("username", username).
		Str("mode", string(cfg.Mode)).
		Int("duration_sec", cfg.DurationSec).
		Msg("practice session connected")

	// The request context ends when this handler returns; the session
	// outlives it on the hijacked connection.
	host.run(context.Background())
}

func sessionConfigFromQuery(r *http.Request) typing.Config {
	q := r.URL.Query()
	cfg := typing.Config{
		Mode:        typing.ModeWords,
		Punctuation: q.Get("punctuation") == "1",
		Numbers:     q.Get("numbers") == "1",
	}
	if q.Get("mode") == string(typing.ModeQuote) {
		cfg.Mode = typing.ModeQuote
	}
	if d, err := strconv.Atoi(q.Get("duration")); err == nil && d > 0 {
		cfg.DurationSec = d
	}
	return cfg
}

func cueSettingsFromQuery(r *http.Request) typing.CueSettings {
	q := r.URL.Query()
	settings := typing.CueSettings{Enabled: q.Get("cues") == "1", Volume: 100}
	if v, err := strconv.Atoi(q.Get("volume")); err == nil {
		settings.Volume = v
	}
	return settings
}

// persist stores a finished session's metrics, resolving the player first.
// Failures are logged; the client still got its final snapshot.
func (s *Service) persist(ctx context.Context, username string, cfg typing.Config, snapshot typing.Snapshot) {
	if s.saver == nil || s.players == nil {
		return
	}
	player, err := s.players.GetOrCreateByUsername(ctx, username)
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("failed to resolve practice player")
		return
	}
	_, err = s.saver.SaveResult(ctx, results.SaveResultRequest{
		PlayerID:        player.ID,
		Source:          models.ResultSourcePractice,
		Mode:            string(cfg.Mode),
		DurationSec:     cfg.DurationSec,
		Punctuation:     cfg.Punctuation,
		Numbers:         cfg.Numbers,
		WPM:             snapshot.WPM,
		PeakWPM:         snapshot.PeakWPM,
		Accuracy:        snapshot.Accuracy,
		Consistency:     snapshot.Consistency,
		CorrectChars:    snapshot.CorrectChars,
		IncorrectChars:  snapshot.IncorrectChars,
		ErrorsPerMinute: snapshot.ErrorsPerMinute,
	})
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("failed to persist practice result")
	}
}

func newHostID() string { return uuid.New().String() }
