package game

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/openside/scorekeeper/internal/models"
	"github.com/openside/scorekeeper/internal/store"
)

type fakeRepo struct {
	created *store.CreateGameParams
	game    models.Game
	events  []models.GameEvent
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		game: models.Game{
			ID:               uuid.New(),
			ScorekeeperToken: "sk-token",
			ViewerToken:      "v-token",
			TeamAName:        "Bath",
			TeamBName:        "Leicester",
			GameStructure:    models.StructureTwoHalves,
			GameStatus:       models.StatusNotStarted,
		},
	}
}

func (f *fakeRepo) CreateGame(ctx context.Context, params store.CreateGameParams) (*models.Game, error) {
	f.created = &params
	g := models.Game{
		ID:               uuid.New(),
		ScorekeeperToken: params.ScorekeeperToken,
		ViewerToken:      params.ViewerToken,
		TeamAName:        params.TeamAName,
		TeamAColor:       params.TeamAColor,
		TeamBName:        params.TeamBName,
		TeamBColor:       params.TeamBColor,
		GameStructure:    params.GameStructure,
		GameStatus:       models.StatusNotStarted,
	}
	return &g, nil
}

func (f *fakeRepo) GetGameByScorekeeperToken(ctx context.Context, id uuid.UUID, token string) (*models.Game, error) {
	if id != f.game.ID || token != f.game.ScorekeeperToken {
		return nil, store.ErrNotFound
	}
	g := f.game
	return &g, nil
}

func (f *fakeRepo) GetGameByViewerToken(ctx context.Context, id uuid.UUID, token string) (*models.Game, error) {
	if id != f.game.ID || token != f.game.ViewerToken {
		return nil, store.ErrNotFound
	}
	g := f.game
	return &g, nil
}

func (f *fakeRepo) ListEvents(ctx context.Context, gameID uuid.UUID) ([]models.GameEvent, error) {
	return f.events, nil
}

func TestCreateGameGeneratesDistinctTokens(t *testing.T) {
	repo := newFakeRepo()
	app := NewApp(repo)

	g, err := app.CreateGame(context.Background(), CreateGameRequest{
		TeamAName: "Bath",
		TeamBName: "Leicester",
	})
	require.NoError(t, err)
	require.NotEmpty(t, g.ScorekeeperToken)
	require.NotEmpty(t, g.ViewerToken)
	require.NotEqual(t, g.ScorekeeperToken, g.ViewerToken)
	require.Len(t, g.ScorekeeperToken, 64)
	require.NotContains(t, g.ScorekeeperToken, "-")
}

func TestCreateGameDefaults(t *testing.T) {
	repo := newFakeRepo()
	app := NewApp(repo)

	g, err := app.CreateGame(context.Background(), CreateGameRequest{
		TeamAName: "Bath",
		TeamBName: "Leicester",
	})
	require.NoError(t, err)
	require.Equal(t, DefaultTeamAColor, g.TeamAColor)
	require.Equal(t, DefaultTeamBColor, g.TeamBColor)
	require.Equal(t, models.StructureTwoHalves, g.GameStructure)
}

func TestCreateGameValidation(t *testing.T) {
	tests := []struct {
		name string
		req  CreateGameRequest
	}{
		{"missing team a", CreateGameRequest{TeamBName: "Leicester"}},
		{"missing team b", CreateGameRequest{TeamAName: "Bath"}},
		{"unknown structure", CreateGameRequest{
			TeamAName: "Bath", TeamBName: "Leicester",
			GameStructure: "3_thirds",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApp(newFakeRepo())
			_, err := app.CreateGame(context.Background(), tt.req)
			require.Error(t, err)
		})
	}
}

func TestCreateGameAcceptsLegacyStructureAlias(t *testing.T) {
	repo := newFakeRepo()
	app := NewApp(repo)

	g, err := app.CreateGame(context.Background(), CreateGameRequest{
		TeamAName:     "Bath",
		TeamBName:     "Leicester",
		GameStructure: models.StructureNoHalves,
	})
	require.NoError(t, err)
	require.Equal(t, models.StructureSinglePeriod, g.GameStructure.Normalize())
}

func TestGetScorekeeperGame(t *testing.T) {
	repo := newFakeRepo()
	app := NewApp(repo)

	g, err := app.GetScorekeeperGame(context.Background(), repo.game.ID, "sk-token")
	require.NoError(t, err)
	require.Equal(t, "sk-token", g.ScorekeeperToken)

	_, err = app.GetScorekeeperGame(context.Background(), repo.game.ID, "v-token")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetViewerGameStripsScorekeeperToken(t *testing.T) {
	repo := newFakeRepo()
	app := NewApp(repo)

	g, err := app.GetViewerGame(context.Background(), repo.game.ID, "v-token")
	require.NoError(t, err)
	require.Empty(t, g.ScorekeeperToken)
	require.Equal(t, "v-token", g.ViewerToken)
}
