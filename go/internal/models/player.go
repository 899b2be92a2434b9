package models

import (
	"time"

	"github.com/google/uuid"
)

// Player represents a registered player
type Player struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
