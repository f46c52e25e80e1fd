package game

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/openside/scorekeeper/internal/models"
	"github.com/openside/scorekeeper/internal/store"
)

// GameRepository defines what the app layer needs from the store.
type GameRepository interface {
	CreateGame(ctx context.Context, params store.CreateGameParams) (*models.Game, error)
	GetGameByScorekeeperToken(ctx context.Context, id uuid.UUID, token string) (*models.Game, error)
	GetGameByViewerToken(ctx context.Context, id uuid.UUID, token string) (*models.Game, error)
	ListEvents(ctx context.Context, gameID uuid.UUID) ([]models.GameEvent, error)
}

// App handles game setup and token-scoped reads.
type App struct {
	repo GameRepository
}

// NewApp creates a new game App.
func NewApp(repo GameRepository) *App {
	return &App{repo: repo}
}

// CreateGame validates the setup request, generates both capability
// tokens, and creates the game. Possession of a token is the only access
// control, so tokens must be effectively unguessable.
func (a *App) CreateGame(ctx context.Context, req CreateGameRequest) (*models.Game, error) {
	if err := a.validateCreateGameRequest(&req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	created, err := a.repo.CreateGame(ctx, store.CreateGameParams{
		ScorekeeperToken: newToken(),
		ViewerToken:      newToken(),
		TeamAName:        req.TeamAName,
		TeamAColor:       req.TeamAColor,
		TeamBName:        req.TeamBName,
		TeamBColor:       req.TeamBColor,
		GameStructure:    req.GameStructure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	log.Info().
		Str("game_id", created.ID.String()).
		Str("team_a", created.TeamAName).
		Str("team_b", created.TeamBName).
		Str("structure", string(created.GameStructure)).
		Msg("created game")

	return created, nil
}

// GetScorekeeperGame loads a game with the full-control token.
func (a *App) GetScorekeeperGame(ctx context.Context, id uuid.UUID, token string) (*models.Game, error) {
	g, err := a.repo.GetGameByScorekeeperToken(ctx, id, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return g, nil
}

// GetViewerGame loads a game with the read-only token. The scorekeeper
// token is stripped so it can never leak to viewers.
func (a *App) GetViewerGame(ctx context.Context, id uuid.UUID, token string) (*models.Game, error) {
	g, err := a.repo.GetGameByViewerToken(ctx, id, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	g.ScorekeeperToken = ""
	return g, nil
}

// ListEvents returns the persisted event log, newest first.
func (a *App) ListEvents(ctx context.Context, gameID uuid.UUID) ([]models.GameEvent, error) {
	events, err := a.repo.ListEvents(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (a *App) validateCreateGameRequest(req *CreateGameRequest) error {
	if req.TeamAName == "" {
		return fmt.Errorf("team_a_name is required")
	}
	if req.TeamBName == "" {
		return fmt.Errorf("team_b_name is required")
	}
	if req.TeamAColor == "" {
		req.TeamAColor = DefaultTeamAColor
	}
	if req.TeamBColor == "" {
		req.TeamBColor = DefaultTeamBColor
	}
	switch req.GameStructure.Normalize() {
	case models.StructureSinglePeriod, models.StructureTwoHalves, models.StructureFourQuarters:
	case "":
		req.GameStructure = models.StructureTwoHalves
	default:
		return fmt.Errorf("unknown game_structure %q", req.GameStructure)
	}
	return nil
}

// newToken returns an unguessable capability token.
func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") +
		strings.ReplaceAll(uuid.NewString(), "-", "")
}
