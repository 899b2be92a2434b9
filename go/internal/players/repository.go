// Package players stores the minimal player records backing results and the
// leaderboard.
package players

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mattsre/keysprint/go/internal/models"
)

// ErrNotFound is returned when no player matches the lookup.
var ErrNotFound = errors.New("player not found")

// DBTX defines what the repository needs from the database layer. Both
// *pgxpool.Pool and pgx.Tx satisfy it.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements player data access operations
type Repository struct {
	db DBTX
}

// NewRepository creates a new players repository
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// CreatePlayer creates a new player record
func (r *Repository) CreatePlayer(ctx context.Context, username string) (*models.Player, error) {
	const query = `
		INSERT INTO players (id, username)
		VALUES ($1, $2)
		RETURNING id, username, created_at`

	var player models.Player
	err := r.db.QueryRow(ctx, query, uuid.New(), username).
		Scan(&player.ID, &player.Username, &player.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return &player, nil
}

// GetPlayer retrieves a player by ID
func (r *Repository) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	const query = `SELECT id, username, created_at FROM players WHERE id = $1`

	var player models.Player
	err := r.db.QueryRow(ctx, query, id).
		Scan(&player.ID, &player.Username, &player.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &player, nil
}

// GetPlayerByUsername retrieves a player by username
func (r *Repository) GetPlayerByUsername(ctx context.Context, username string) (*models.Player, error) {
	const query = `SELECT id, username, created_at FROM players WHERE username = $1`

	var player models.Player
	err := r.db.QueryRow(ctx, query, username).
		Scan(&player.ID, &player.Username, &player.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player by username: %w", err)
	}
	return &player, nil
}

// ListPlayers retrieves all players, newest first
func (r *Repository) ListPlayers(ctx context.Context) ([]models.Player, error) {
	const query = `SELECT id, username, created_at FROM players ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var result []models.Player
	for rows.Next() {
		var player models.Player
		if err := rows.Scan(&player.ID, &player.Username, &player.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		result = append(result, player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate players: %w", err)
	}
	return result, nil
}
