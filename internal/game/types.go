package game

import "github.com/openside/scorekeeper/internal/models"

// Default team colors applied when setup leaves them blank.
const (
	DefaultTeamAColor = "#1a5f3a"
	DefaultTeamBColor = "#c2410c"
)

// CreateGameRequest represents a request to set up a new game.
type CreateGameRequest struct {
	TeamAName     string               `json:"team_a_name"`
	TeamAColor    string               `json:"team_a_color"`
	TeamBName     string               `json:"team_b_name"`
	TeamBColor    string               `json:"team_b_color"`
	GameStructure models.GameStructure `json:"game_structure"`
}
