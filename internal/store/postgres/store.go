package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openside/scorekeeper/internal/models"
	"github.com/openside/scorekeeper/internal/store"
)

// Store implements game and event data access over Postgres.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Postgres-backed store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const gameColumns = `id, scorekeeper_token, viewer_token,
	team_a_name, team_a_color, team_b_name, team_b_color,
	team_a_score, team_b_score, game_structure, game_status,
	current_period, last_heartbeat, created_at`

// CreateGame inserts a new game row with both capability tokens.
func (s *Store) CreateGame(ctx context.Context, params store.CreateGameParams) (*models.Game, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO games (
			scorekeeper_token, viewer_token,
			team_a_name, team_a_color, team_b_name, team_b_color,
			game_structure
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+gameColumns,
		params.ScorekeeperToken, params.ViewerToken,
		params.TeamAName, params.TeamAColor,
		params.TeamBName, params.TeamBColor,
		params.GameStructure,
	)

	game, err := scanGame(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return game, nil
}

// GetGameByScorekeeperToken loads a game only when the full-control token
// matches; a mismatch is indistinguishable from a missing game.
func (s *Store) GetGameByScorekeeperToken(ctx context.Context, id uuid.UUID, token string) (*models.Game, error) {
	return s.getGame(ctx, id, "scorekeeper_token", token)
}

// GetGameByViewerToken loads a game only when the read-only token matches.
func (s *Store) GetGameByViewerToken(ctx context.Context, id uuid.UUID, token string) (*models.Game, error) {
	return s.getGame(ctx, id, "viewer_token", token)
}

func (s *Store) getGame(ctx context.Context, id uuid.UUID, tokenColumn, token string) (*models.Game, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE id = $1 AND `+tokenColumn+` = $2`,
		id, token,
	)

	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

// ListEvents returns all events for a game ordered by created_at
// descending, the display order.
func (s *Store) ListEvents(ctx context.Context, gameID uuid.UUID) ([]models.GameEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game_id, team, event_type, points, period, created_at
		FROM events
		WHERE game_id = $1
		ORDER BY created_at DESC`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []models.GameEvent
	for rows.Next() {
		var e models.GameEvent
		if err := rows.Scan(&e.ID, &e.GameID, &e.Team, &e.EventType, &e.Points, &e.Period, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.LocalID = e.ID
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// InsertEvent persists one event; the store assigns id and created_at.
func (s *Store) InsertEvent(ctx context.Context, params store.InsertEventParams) (*models.GameEvent, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO events (game_id, team, event_type, points, period)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, game_id, team, event_type, points, period, created_at`,
		params.GameID, params.Team, params.EventType, params.Points, params.Period,
	)

	var e models.GameEvent
	if err := row.Scan(&e.ID, &e.GameID, &e.Team, &e.EventType, &e.Points, &e.Period, &e.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	e.LocalID = e.ID
	return &e, nil
}

// DeleteEvent removes a persisted event row.
func (s *Store) DeleteEvent(ctx context.Context, eventID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, eventID); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// UpdateGame applies a partial update to a game row; nil fields are
// left untouched.
func (s *Store) UpdateGame(ctx context.Context, id uuid.UUID, params store.UpdateGameParams) error {
	sets := []string{}
	args := []any{}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.TeamAScore != nil {
		add("team_a_score", *params.TeamAScore)
	}
	if params.TeamBScore != nil {
		add("team_b_score", *params.TeamBScore)
	}
	if params.GameStatus != nil {
		add("game_status", *params.GameStatus)
	}
	if params.CurrentPeriod != nil {
		add("current_period", *params.CurrentPeriod)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE games SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	return nil
}

// Heartbeat writes the liveness timestamp for the scorekeeper session.
func (s *Store) Heartbeat(ctx context.Context, id uuid.UUID, at time.Time) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE games SET last_heartbeat = $1 WHERE id = $2`, at, id,
	); err != nil {
		return fmt.Errorf("failed to write heartbeat: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (*models.Game, error) {
	var g models.Game
	err := row.Scan(
		&g.ID, &g.ScorekeeperToken, &g.ViewerToken,
		&g.TeamAName, &g.TeamAColor, &g.TeamBName, &g.TeamBColor,
		&g.TeamAScore, &g.TeamBScore, &g.GameStructure, &g.GameStatus,
		&g.CurrentPeriod, &g.LastHeartbeat, &g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
