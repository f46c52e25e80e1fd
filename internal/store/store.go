// Package store defines the shared types spoken between the remote
// relational store and its consumers. Concrete implementations live in
// subpackages; consumers declare their own interfaces over these types.
package store

import (
	"errors"

	"github.com/google/uuid"
	"github.com/openside/scorekeeper/internal/models"
)

// ErrNotFound is returned when a game id/token pair matches no row.
// It is fatal to a session load.
var ErrNotFound = errors.New("game not found")

// CreateGameParams carries the fields for a new game row. Tokens are
// generated by the caller and must be effectively unguessable.
type CreateGameParams struct {
	ScorekeeperToken string
	ViewerToken      string
	TeamAName        string
	TeamAColor       string
	TeamBName        string
	TeamBColor       string
	GameStructure    models.GameStructure
}

// InsertEventParams carries the fields for a new event row. The store
// assigns id and created_at.
type InsertEventParams struct {
	GameID    uuid.UUID
	Team      models.Team
	EventType string
	Points    int
	Period    int
}

// UpdateGameParams is a partial update of a game row; nil fields are
// left untouched.
type UpdateGameParams struct {
	TeamAScore    *int
	TeamBScore    *int
	GameStatus    *models.GameStatus
	CurrentPeriod *int
}

// Tables carrying change notifications.
const (
	TableGames  = "games"
	TableEvents = "events"
)

// ChangeNotification is one row-level mutation pushed by the store's
// change feed, keyed by table and game.
type ChangeNotification struct {
	Table  string    `json:"table"`
	Op     string    `json:"op"`
	GameID uuid.UUID `json:"game_id"`
}
