package players

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsre/keysprint/go/internal/models"
)

type fakePlayersRepo struct {
	byUsername map[string]*models.Player
	createErr  error
}

func newFakePlayersRepo() *fakePlayersRepo {
	return &fakePlayersRepo{byUsername: make(map[string]*models.Player)}
}

func (f *fakePlayersRepo) CreatePlayer(_ context.Context, username string) (*models.Player, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	p := &models.Player{ID: uuid.New(), Username: username}
	f.byUsername[username] = p
	return p, nil
}

func (f *fakePlayersRepo) GetPlayer(_ context.Context, id uuid.UUID) (*models.Player, error) {
	for _, p := range f.byUsername {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakePlayersRepo) GetPlayerByUsername(_ context.Context, username string) (*models.Player, error) {
	if p, ok := f.byUsername[username]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

func (f *fakePlayersRepo) ListPlayers(_ context.Context) ([]models.Player, error) {
	var out []models.Player
	for _, p := range f.byUsername {
		out = append(out, *p)
	}
	return out, nil
}

func TestGetOrCreateByUsernameCreatesOnce(t *testing.T) {
	repo := newFakePlayersRepo()
	app := NewApp(repo)

	first, err := app.GetOrCreateByUsername(context.Background(), "alice")
	require.NoError(t, err)

	second, err := app.GetOrCreateByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.byUsername, 1)
}

func TestGetOrCreateTrimsWhitespace(t *testing.T) {
	app := NewApp(newFakePlayersRepo())

	player, err := app.GetOrCreateByUsername(context.Background(), "  bob  ")
	require.NoError(t, err)
	assert.Equal(t, "bob", player.Username)
}

func TestGetOrCreateRejectsInvalidUsernames(t *testing.T) {
	app := NewApp(newFakePlayersRepo())

	_, err := app.GetOrCreateByUsername(context.Background(), "   ")
	assert.Error(t, err)

	_, err = app.GetOrCreateByUsername(context.Background(), strings.Repeat("x", maxUsernameLength+1))
	assert.Error(t, err)
}
