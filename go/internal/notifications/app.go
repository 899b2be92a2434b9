package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mattsre/keysprint/go/internal/models"
)

const defaultListLimit = 50

// NotificationsRepository defines what the app layer needs from the repository
type NotificationsRepository interface {
	CreateNotification(ctx context.Context, playerID uuid.UUID, notifType models.NotificationType, message string) (*models.Notification, error)
	ListNotifications(ctx context.Context, playerID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}

// App handles notification business logic
type App struct {
	repo NotificationsRepository
}

// NewApp creates a new notifications App
func NewApp(repo NotificationsRepository) *App {
	return &App{repo: repo}
}

// RecordResultPosted creates a notification for a freshly saved result. Race
// results announce the race; practice results announce the personal score.
func (a *App) RecordResultPosted(ctx context.Context, result models.TypingResult) error {
	notifType := models.NotificationResultPosted
	message := fmt.Sprintf("New %s result saved: %d wpm at %d%% accuracy", result.Mode, result.WPM, result.Accuracy)
	if result.Source == models.ResultSourceRace {
		notifType = models.NotificationRaceFinished
		message = fmt.Sprintf("Race finished: %d wpm at %d%% accuracy", result.WPM, result.Accuracy)
	}

	n, err := a.repo.CreateNotification(ctx, result.PlayerID, notifType, message)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}

	log.Debug().
		Str("notification_id", n.ID.String()).
		Str("player_id", n.PlayerID.String()).
		Str("type", string(n.Type)).
		Msg("recorded notification")
	return nil
}

// ListNotifications retrieves a player's notifications
func (a *App) ListNotifications(ctx context.Context, playerID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultListLimit
	}
	return a.repo.ListNotifications(ctx, playerID, unreadOnly, limit)
}

// MarkRead marks one notification as read
func (a *App) MarkRead(ctx context.Context, id uuid.UUID) error {
	return a.repo.MarkRead(ctx, id)
}
