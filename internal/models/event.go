package models

import (
	"time"

	"github.com/google/uuid"
)

// Team identifies which side an event belongs to.
type Team string

const (
	TeamA Team = "team_a"
	TeamB Team = "team_b"

	// TeamGameControl marks zero-point events recording a state-machine
	// transition rather than a score.
	TeamGameControl Team = "game_control"
)

// Scoring event types.
const (
	EventTry              = "try"
	EventPenalty          = "penalty"
	EventDropGoal         = "drop_goal"
	EventConversion       = "conversion"
	EventConversionMissed = "conversion_missed"
)

// Points awarded per scoring event type.
const (
	PointsTry        = 5
	PointsPenalty    = 3
	PointsDropGoal   = 3
	PointsConversion = 2
)

// GameEvent is an immutable record of something that happened in the
// match. LocalID is a stable correlation id assigned at creation time;
// ID is the persistence id and stays uuid.Nil until the event's sync
// task completes, so all log operations key off LocalID.
type GameEvent struct {
	ID        uuid.UUID `json:"id"`
	LocalID   uuid.UUID `json:"-"`
	GameID    uuid.UUID `json:"game_id"`
	Team      Team      `json:"team"`
	EventType string    `json:"event_type"`
	Points    int       `json:"points"`
	Period    int       `json:"period"`
	CreatedAt time.Time `json:"created_at"`
}

// Synced reports whether the event has its server-assigned id.
func (e GameEvent) Synced() bool {
	return e.ID != uuid.Nil
}

// IsControl reports whether the event records a state-machine transition.
func (e GameEvent) IsControl() bool {
	return e.Team == TeamGameControl
}
