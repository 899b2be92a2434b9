package models

import (
	"time"

	"github.com/google/uuid"
)

// ResultSource says where a typing result came from.
type ResultSource string

const (
	ResultSourcePractice ResultSource = "practice"
	ResultSourceRace     ResultSource = "race"
)

// TypingResult represents one completed typing session's final metrics
type TypingResult struct {
	ID       uuid.UUID    `json:"id"`
	PlayerID uuid.UUID    `json:"player_id"`
	Source   ResultSource `json:"source"`

	// Session configuration
	Mode        string `json:"mode"`
	DurationSec int    `json:"duration_sec,omitempty"`
	Punctuation bool   `json:"punctuation"`
	Numbers     bool   `json:"numbers"`

	// Final metrics
	WPM             int `json:"wpm"`
	PeakWPM         int `json:"peak_wpm"`
	Accuracy        int `json:"accuracy"`
	Consistency     int `json:"consistency"`
	CorrectChars    int `json:"correct_chars"`
	IncorrectChars  int `json:"incorrect_chars"`
	ErrorsPerMinute int `json:"errors_per_minute"`

	// For race results, the room the race ran in
	RoomID string `json:"room_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// LeaderboardEntry is one row of the best-result-per-player leaderboard
type LeaderboardEntry struct {
	Rank     int       `json:"rank"`
	PlayerID uuid.UUID `json:"player_id"`
	Username string    `json:"username"`
	WPM      int       `json:"wpm"`
	Accuracy int       `json:"accuracy"`
	Achieved time.Time `json:"achieved_at"`
}
