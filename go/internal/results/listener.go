package results

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/mattsre/keysprint/go/internal/models"
	"github.com/mattsre/keysprint/go/internal/relay"
)

// SavedSubject is the relay subject carrying result-saved announcements for
// live leaderboard refresh.
const SavedSubject = "results.saved"

// ListenerConfig configures the Postgres LISTEN/NOTIFY bridge.
type ListenerConfig struct {
	DatabaseURL   string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel string        // Channel name to LISTEN on
	PingInterval  time.Duration // Keepalive interval for the listen connection
}

// DefaultListenerConfig returns the default listener configuration.
func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		NotifyChannel: "results_saved",
		PingInterval:  90 * time.Second,
	}
}

// NotificationRecorder records an in-app notification for a saved result.
// Implemented by the notifications app.
type NotificationRecorder interface {
	RecordResultPosted(ctx context.Context, result models.TypingResult) error
}

// Listener bridges the typing_results insert trigger to the relay: every
// saved result becomes a results.saved announcement plus an in-app
// notification, without the write path knowing about either.
type Listener struct {
	repo          ResultsRepository
	listener      *pq.Listener
	relay         relay.Relay
	notifications NotificationRecorder
	cfg           ListenerConfig
}

// NewListener opens the LISTEN connection. The notifications recorder may be
// nil, in which case only the relay announcement is made.
func NewListener(repo ResultsRepository, r relay.Relay, notifications NotificationRecorder, cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("results listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for saved results")

	return &Listener{
		repo:          repo,
		listener:      l,
		relay:         r,
		notifications: notifications,
		cfg:           cfg,
	}, nil
}

// Start consumes notifications until ctx is cancelled.
func (l *Listener) Start(ctx context.Context) error {
	pingTicker := time.NewTicker(l.cfg.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("results listener shutting down")
			return l.Stop()
		case note := <-l.listener.Notify:
			if note == nil {
				// nil notification means the connection was lost; pq reconnects
				continue
			}
			if err := l.handleNotification(ctx, note.Extra); err != nil {
				log.Error().Err(err).Msg("failed to handle result notification")
			}
		case <-pingTicker.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping results listener")
			}
		}
	}
}

// Stop closes the LISTEN connection.
func (l *Listener) Stop() error {
	return l.listener.Close()
}

// handleNotification fetches the saved result named by the payload and fans
// it out.
func (l *Listener) handleNotification(ctx context.Context, extra string) error {
	id, err := uuid.Parse(extra)
	if err != nil {
		return fmt.Errorf("invalid result id in notification: %w", err)
	}

	result, err := l.repo.GetResult(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch saved result: %w", err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal saved result: %w", err)
	}
	if err := l.relay.Publish(SavedSubject, data); err != nil {
		return fmt.Errorf("failed to publish saved result: %w", err)
	}

	if l.notifications != nil {
		if err := l.notifications.RecordResultPosted(ctx, *result); err != nil {
			log.Error().Err(err).Str("result_id", id.String()).Msg("failed to record result notification")
		}
	}

	log.Debug().Str("result_id", id.String()).Msg("announced saved result")
	return nil
}
