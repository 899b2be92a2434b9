// Package notifications stores in-app notifications for players.
package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mattsre/keysprint/go/internal/models"
)

// ErrNotFound is returned when no notification matches the lookup.
var ErrNotFound = errors.New("notification not found")

// DBTX defines what the repository needs from the database layer.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements notification data access operations
type Repository struct {
	db DBTX
}

// NewRepository creates a new notifications repository
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// CreateNotification stores a new unread notification
func (r *Repository) CreateNotification(ctx context.Context, playerID uuid.UUID, notifType models.NotificationType, message string) (*models.Notification, error) {
	const query = `
		INSERT INTO notifications (id, player_id, type, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, player_id, type, message, read, created_at`

	var n models.Notification
	err := r.db.QueryRow(ctx, query, uuid.New(), playerID, notifType, message).
		Scan(&n.ID, &n.PlayerID, &n.Type, &n.Message, &n.Read, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return &n, nil
}

// ListNotifications retrieves a player's notifications, newest first
func (r *Repository) ListNotifications(ctx context.Context, playerID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	query := `
		SELECT id, player_id, type, message, read, created_at
		FROM notifications
		WHERE player_id = $1`
	if unreadOnly {
		query += ` AND read = false`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	rows, err := r.db.Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var result []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.PlayerID, &n.Type, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return result, nil
}

// MarkRead marks one notification as read
func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE notifications SET read = true WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
