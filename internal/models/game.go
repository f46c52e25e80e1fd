package models

import (
	"time"

	"github.com/google/uuid"
)

// GameStructure defines how many scoring periods a match has.
type GameStructure string

const (
	StructureSinglePeriod GameStructure = "1_period"
	StructureTwoHalves    GameStructure = "2_halves"
	StructureFourQuarters GameStructure = "4_quarters"

	// StructureNoHalves is a legacy alias for StructureSinglePeriod kept
	// for rows written by older clients.
	StructureNoHalves GameStructure = "no_halves"
)

// Normalize maps legacy aliases onto their canonical structure.
func (s GameStructure) Normalize() GameStructure {
	if s == StructureNoHalves {
		return StructureSinglePeriod
	}
	return s
}

// GameStatus defines where a game is in its lifecycle.
type GameStatus string

const (
	StatusNotStarted   GameStatus = "not_started"
	StatusInProgress   GameStatus = "in_progress"
	StatusHalfTime     GameStatus = "half_time"
	StatusQuarterBreak GameStatus = "quarter_break"
	StatusFinished     GameStatus = "finished"
)

// Game represents a live match. The score fields are a cached projection
// of the event log and must match it after every reconciliation.
type Game struct {
	ID               uuid.UUID     `json:"id"`
	ScorekeeperToken string        `json:"scorekeeper_token,omitempty"`
	ViewerToken      string        `json:"viewer_token,omitempty"`
	TeamAName        string        `json:"team_a_name"`
	TeamAColor       string        `json:"team_a_color"`
	TeamBName        string        `json:"team_b_name"`
	TeamBColor       string        `json:"team_b_color"`
	TeamAScore       int           `json:"team_a_score"`
	TeamBScore       int           `json:"team_b_score"`
	GameStructure    GameStructure `json:"game_structure"`
	GameStatus       GameStatus    `json:"game_status"`
	CurrentPeriod    int           `json:"current_period"`
	LastHeartbeat    time.Time     `json:"last_heartbeat"`
	CreatedAt        time.Time     `json:"created_at"`
}
