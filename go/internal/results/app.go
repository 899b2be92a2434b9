package results

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mattsre/keysprint/go/internal/models"
	"github.com/mattsre/keysprint/go/internal/race"
	"github.com/mattsre/keysprint/go/internal/race/events"
)

const defaultLeaderboardLimit = 25

// ResultsRepository defines what the app layer needs from the repository
type ResultsRepository interface {
	InsertResult(ctx context.Context, result models.TypingResult) (*models.TypingResult, error)
	GetResult(ctx context.Context, id uuid.UUID) (*models.TypingResult, error)
	ListResultsByPlayer(ctx context.Context, playerID uuid.UUID, limit int) ([]models.TypingResult, error)
	Leaderboard(ctx context.Context, mode string, durationSec, limit int) ([]models.LeaderboardEntry, error)
}

// PlayerDirectory resolves usernames to player records, creating them on
// first sight. Implemented by the players app.
type PlayerDirectory interface {
	GetOrCreateByUsername(ctx context.Context, username string) (*models.Player, error)
}

// SaveResultRequest carries one completed session's final metrics.
type SaveResultRequest struct {
	PlayerID        uuid.UUID           `json:"player_id"`
	Source          models.ResultSource `json:"source"`
	Mode            string              `json:"mode"`
	DurationSec     int                 `json:"duration_sec"`
	Punctuation     bool                `json:"punctuation"`
	Numbers         bool                `json:"numbers"`
	WPM             int                 `json:"wpm"`
	PeakWPM         int                 `json:"peak_wpm"`
	Accuracy        int                 `json:"accuracy"`
	Consistency     int                 `json:"consistency"`
	CorrectChars    int                 `json:"correct_chars"`
	IncorrectChars  int                 `json:"incorrect_chars"`
	ErrorsPerMinute int                 `json:"errors_per_minute"`
	RoomID          string              `json:"room_id,omitempty"`
}

// App handles typing-result business logic
type App struct {
	repo    ResultsRepository
	players PlayerDirectory
}

// NewApp creates a new results App
func NewApp(repo ResultsRepository, players PlayerDirectory) *App {
	return &App{repo: repo, players: players}
}

// SaveResult validates and stores one typing result.
func (a *App) SaveResult(ctx context.Context, req SaveResultRequest) (*models.TypingResult, error) {
	if err := validateSaveResultRequest(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	saved, err := a.repo.InsertResult(ctx, models.TypingResult{
		PlayerID:        req.PlayerID,
		Source:          req.Source,
		Mode:            req.Mode,
		DurationSec:     req.DurationSec,
		Punctuation:     req.Punctuation,
		Numbers:         req.Numbers,
		WPM:             req.WPM,
		PeakWPM:         req.PeakWPM,
		Accuracy:        req.Accuracy,
		Consistency:     req.Consistency,
		CorrectChars:    req.CorrectChars,
		IncorrectChars:  req.IncorrectChars,
		ErrorsPerMinute: req.ErrorsPerMinute,
		RoomID:          req.RoomID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save typing result: %w", err)
	}

	log.Info().
		Str("result_id", saved.ID.String()).
		Str("player_id", saved.PlayerID.String()).
		Str("source", string(saved.Source)).
		Int("wpm", saved.WPM).
		Msg("saved typing result")
	return saved, nil
}

// SaveRaceOutcome persists both participants' race results. It satisfies the
// coordinator's result sink; race participants are identified by username and
// resolved to player records here.
func (a *App) SaveRaceOutcome(ctx context.Context, roomID string, verdict race.Verdict, results []events.ParticipantResult) error {
	var firstErr error
	for _, result := range results {
		player, err := a.players.GetOrCreateByUsername(ctx, result.Username)
		if err != nil {
			log.Error().Err(err).Str("username", result.Username).Msg("failed to resolve race participant")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		_, err = a.SaveResult(ctx, SaveResultRequest{
			PlayerID: player.ID,
			Source:   models.ResultSourceRace,
			Mode:     "race",
			WPM:      result.WPM,
			Accuracy: result.Accuracy,
			RoomID:   roomID,
		})
		if err != nil {
			log.Error().Err(err).Str("room_id", roomID).Str("player_id", player.ID.String()).Msg("failed to save race result")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return fmt.Errorf("failed to persist race outcome: %w", firstErr)
	}

	log.Info().
		Str("room_id", roomID).
		Bool("draw", verdict.Draw).
		Str("winner_id", verdict.WinnerID).
		Int("results", len(results)).
		Msg("persisted race outcome")
	return nil
}

// GetResult retrieves a typing result by ID
func (a *App) GetResult(ctx context.Context, id uuid.UUID) (*models.TypingResult, error) {
	return a.repo.GetResult(ctx, id)
}

// ListResultsByPlayer retrieves a player's recent results
func (a *App) ListResultsByPlayer(ctx context.Context, playerID uuid.UUID, limit int) ([]models.TypingResult, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	return a.repo.ListResultsByPlayer(ctx, playerID, limit)
}

// Leaderboard returns the best result per player for a mode and duration.
func (a *App) Leaderboard(ctx context.Context, mode string, durationSec, limit int) ([]models.LeaderboardEntry, error) {
	if mode == "" {
		return nil, errors.New("mode is required")
	}
	if limit <= 0 || limit > 100 {
		limit = defaultLeaderboardLimit
	}
	return a.repo.Leaderboard(ctx, mode, durationSec, limit)
}

func validateSaveResultRequest(req SaveResultRequest) error {
	if req.PlayerID == uuid.Nil {
		return errors.New("player_id is required")
	}
	if req.Mode == "" {
		return errors.New("mode is required")
	}
	if req.Source != models.ResultSourcePractice && req.Source != models.ResultSourceRace {
		return fmt.Errorf("unknown result source %q", req.Source)
	}
	if req.WPM < 0 || req.Accuracy < 0 || req.Accuracy > 100 {
		return errors.New("metrics out of range")
	}
	if req.Consistency < 0 || req.Consistency > 100 {
		return errors.New("consistency out of range")
	}
	return nil
}
