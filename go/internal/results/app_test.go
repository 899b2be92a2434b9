package results

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsre/keysprint/go/internal/models"
	"github.com/mattsre/keysprint/go/internal/race"
	"github.com/mattsre/keysprint/go/internal/race/events"
)

type fakeResultsRepo struct {
	inserted []models.TypingResult
}

func (f *fakeResultsRepo) InsertResult(_ context.Context, result models.TypingResult) (*models.TypingResult, error) {
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	f.inserted = append(f.inserted, result)
	return &result, nil
}

func (f *fakeResultsRepo) GetResult(_ context.Context, id uuid.UUID) (*models.TypingResult, error) {
	for _, r := range f.inserted {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeResultsRepo) ListResultsByPlayer(_ context.Context, playerID uuid.UUID, _ int) ([]models.TypingResult, error) {
	var out []models.TypingResult
	for _, r := range f.inserted {
		if r.PlayerID == playerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResultsRepo) Leaderboard(_ context.Context, _ string, _, limit int) ([]models.LeaderboardEntry, error) {
	if limit > len(f.inserted) {
		limit = len(f.inserted)
	}
	return make([]models.LeaderboardEntry, limit), nil
}

type fakeDirectory struct {
	players map[string]*models.Player
}

func (f *fakeDirectory) GetOrCreateByUsername(_ context.Context, username string) (*models.Player, error) {
	if f.players == nil {
		f.players = make(map[string]*models.Player)
	}
	if p, ok := f.players[username]; ok {
		return p, nil
	}
	p := &models.Player{ID: uuid.New(), Username: username}
	f.players[username] = p
	return p, nil
}

func TestSaveResultValidation(t *testing.T) {
	app := NewApp(&fakeResultsRepo{}, &fakeDirectory{})

	valid := SaveResultRequest{
		PlayerID: uuid.New(),
		Source:   models.ResultSourcePractice,
		Mode:     "words",
		WPM:      80,
		Accuracy: 97,
	}

	_, err := app.SaveResult(context.Background(), valid)
	require.NoError(t, err)

	cases := map[string]func(r *SaveResultRequest){
		"missing player":     func(r *SaveResultRequest) { r.PlayerID = uuid.Nil },
		"missing mode":       func(r *SaveResultRequest) { r.Mode = "" },
		"bad source":         func(r *SaveResultRequest) { r.Source = "telepathy" },
		"accuracy over 100":  func(r *SaveResultRequest) { r.Accuracy = 101 },
		"negative wpm":       func(r *SaveResultRequest) { r.WPM = -1 },
		"bad consistency":    func(r *SaveResultRequest) { r.Consistency = 150 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := valid
			mutate(&req)
			_, err := app.SaveResult(context.Background(), req)
			assert.Error(t, err)
		})
	}
}

func TestSaveRaceOutcomePersistsBothParticipants(t *testing.T) {
	repo := &fakeResultsRepo{}
	app := NewApp(repo, &fakeDirectory{})

	err := app.SaveRaceOutcome(context.Background(), "room-1",
		race.Verdict{WinnerID: "p1"},
		[]events.ParticipantResult{
			{PlayerID: "p1", Username: "alice", WPM: 90, Accuracy: 98, FinishedAt: 1000},
			{PlayerID: "p2", Username: "bob", WPM: 80, Accuracy: 95, FinishedAt: 1100},
		})
	require.NoError(t, err)

	require.Len(t, repo.inserted, 2)
	for _, saved := range repo.inserted {
		assert.Equal(t, models.ResultSourceRace, saved.Source)
		assert.Equal(t, "race", saved.Mode)
		assert.Equal(t, "room-1", saved.RoomID)
		assert.NotEqual(t, uuid.Nil, saved.PlayerID)
	}
}

func TestLeaderboardDefaultsLimit(t *testing.T) {
	app := NewApp(&fakeResultsRepo{}, &fakeDirectory{})

	_, err := app.Leaderboard(context.Background(), "", 30, 10)
	assert.Error(t, err, "mode is required")

	entries, err := app.Leaderboard(context.Background(), "words", 30, -5)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(entries), defaultLeaderboardLimit)
}
