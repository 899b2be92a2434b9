package players

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mattsre/keysprint/go/internal/models"
)

const maxUsernameLength = 32

// PlayersRepository defines what the app layer needs from the repository
type PlayersRepository interface {
	CreatePlayer(ctx context.Context, username string) (*models.Player, error)
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	GetPlayerByUsername(ctx context.Context, username string) (*models.Player, error)
	ListPlayers(ctx context.Context) ([]models.Player, error)
}

// App handles player business logic
type App struct {
	repo PlayersRepository
}

// NewApp creates a new players App
func NewApp(repo PlayersRepository) *App {
	return &App{repo: repo}
}

// GetPlayer retrieves a player by ID
func (a *App) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	return a.repo.GetPlayer(ctx, id)
}

// ListPlayers retrieves all players
func (a *App) ListPlayers(ctx context.Context) ([]models.Player, error) {
	return a.repo.ListPlayers(ctx)
}

// GetOrCreateByUsername returns the player with the given username, creating
// the record on first sight. Usernames are trimmed and validated.
func (a *App) GetOrCreateByUsername(ctx context.Context, username string) (*models.Player, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	player, err := a.repo.GetPlayerByUsername(ctx, username)
	if err == nil {
		return player, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to look up player: %w", err)
	}

	player, err = a.repo.CreatePlayer(ctx, username)
	if err != nil {
		// Lost a create race with a concurrent session; re-read.
		if existing, lookupErr := a.repo.GetPlayerByUsername(ctx, username); lookupErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	log.Info().
		Str("player_id", player.ID.String()).
		Str("username", player.Username).
		Msg("created player")
	return player, nil
}

func validateUsername(username string) error {
	if username == "" {
		return errors.New("username is required")
	}
	if len(username) > maxUsernameLength {
		return fmt.Errorf("username exceeds %d characters", maxUsernameLength)
	}
	return nil
}
