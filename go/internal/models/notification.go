package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType identifies what a notification announces.
type NotificationType string

const (
	NotificationResultPosted NotificationType = "result-posted"
	NotificationRaceFinished NotificationType = "race-finished"
)

// Notification represents an in-app notification for a player
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	PlayerID  uuid.UUID        `json:"player_id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}
