// Package results persists typing results and serves the leaderboard.
package results

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mattsre/keysprint/go/internal/models"
)

// ErrNotFound is returned when no result matches the lookup.
var ErrNotFound = errors.New("typing result not found")

// DBTX defines what the repository needs from the database layer. Both
// *pgxpool.Pool and pgx.Tx satisfy it.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements typing-result data access operations
type Repository struct {
	db DBTX
}

// NewRepository creates a new results repository
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

const resultColumns = `id, player_id, source, mode, duration_sec, punctuation, numbers,
	wpm, peak_wpm, accuracy, consistency, correct_chars, incorrect_chars,
	errors_per_minute, room_id, created_at`

// InsertResult stores a completed typing result. The insert trigger raises a
// results_saved notification carrying the new row's id.
func (r *Repository) InsertResult(ctx context.Context, result models.TypingResult) (*models.TypingResult, error) {
	query := fmt.Sprintf(`
		INSERT INTO typing_results (
			id, player_id, source, mode, duration_sec, punctuation, numbers,
			wpm, peak_wpm, accuracy, consistency, correct_chars, incorrect_chars,
			errors_per_minute, room_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING %s`, resultColumns)

	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	row := r.db.QueryRow(ctx, query,
		result.ID, result.PlayerID, result.Source, result.Mode, result.DurationSec,
		result.Punctuation, result.Numbers, result.WPM, result.PeakWPM,
		result.Accuracy, result.Consistency, result.CorrectChars,
		result.IncorrectChars, result.ErrorsPerMinute, result.RoomID,
	)
	saved, err := scanResult(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert typing result: %w", err)
	}
	return saved, nil
}

// GetResult retrieves a typing result by ID
func (r *Repository) GetResult(ctx context.Context, id uuid.UUID) (*models.TypingResult, error) {
	query := fmt.Sprintf(`SELECT %s FROM typing_results WHERE id = $1`, resultColumns)

	result, err := scanResult(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get typing result: %w", err)
	}
	return result, nil
}

// ListResultsByPlayer retrieves a player's results, newest first
func (r *Repository) ListResultsByPlayer(ctx context.Context, playerID uuid.UUID, limit int) ([]models.TypingResult, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM typing_results
		WHERE player_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, resultColumns)

	rows, err := r.db.Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list typing results: %w", err)
	}
	defer rows.Close()

	var results []models.TypingResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan typing result: %w", err)
		}
		results = append(results, *result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate typing results: %w", err)
	}
	return results, nil
}

// Leaderboard returns each player's best result for a mode and duration,
// ranked by wpm then accuracy.
func (r *Repository) Leaderboard(ctx context.Context, mode string, durationSec, limit int) ([]models.LeaderboardEntry, error) {
	const query = `
		SELECT ranked.player_id, p.username, ranked.wpm, ranked.accuracy, ranked.created_at
		FROM (
			SELECT DISTINCT ON (player_id)
				player_id, wpm, accuracy, created_at
			FROM typing_results
			WHERE mode = $1 AND duration_sec = $2
			ORDER BY player_id, wpm DESC, accuracy DESC, created_at ASC
		) ranked
		JOIN players p ON p.id = ranked.player_id
		ORDER BY ranked.wpm DESC, ranked.accuracy DESC, ranked.created_at ASC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, mode, durationSec, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var entry models.LeaderboardEntry
		if err := rows.Scan(&entry.PlayerID, &entry.Username, &entry.WPM, &entry.Accuracy, &entry.Achieved); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entry.Rank = len(entries) + 1
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leaderboard: %w", err)
	}
	return entries, nil
}

func scanResult(row pgx.Row) (*models.TypingResult, error) {
	var result models.TypingResult
	err := row.Scan(
		&result.ID, &result.PlayerID, &result.Source, &result.Mode,
		&result.DurationSec, &result.Punctuation, &result.Numbers,
		&result.WPM, &result.PeakWPM, &result.Accuracy, &result.Consistency,
		&result.CorrectChars, &result.IncorrectChars, &result.ErrorsPerMinute,
		&result.RoomID, &result.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
