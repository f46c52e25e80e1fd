// Package rules holds the period/status state machine that governs which
// scorekeeper actions are legal. The transition table is pure data; both
// the forward lookup and the inverse lookup used by undo read from it.
package rules

import (
	"github.com/openside/scorekeeper/internal/models"
)

// Control event type tags, stored as event_type on game_control events.
const (
	TagKickOff          = "kick_off"
	TagEndFirstHalf     = "end_first_half"
	TagStartSecondHalf  = "start_second_half"
	TagEndQuarterOne    = "end_q1"
	TagStartQuarterTwo  = "start_q2"
	TagHalfTime         = "half_time"
	TagStartQuarterThr  = "start_q3"
	TagEndQuarterThree  = "end_q3"
	TagStartQuarterFour = "start_q4"
	TagEndGame          = "end_game"
)

// anyPeriod matches every current period in a transition's from-state.
const anyPeriod = -1

// Transition is one legal step of the game state machine.
type Transition struct {
	Tag        string
	Label      string
	FromStatus models.GameStatus
	FromPeriod int
	ToStatus   models.GameStatus
	ToPeriod   int
}

var kickOff = Transition{
	Tag: TagKickOff, Label: "Kick Off",
	FromStatus: models.StatusNotStarted, FromPeriod: anyPeriod,
	ToStatus: models.StatusInProgress, ToPeriod: 1,
}

var transitions = map[models.GameStructure][]Transition{
	models.StructureSinglePeriod: {
		kickOff,
		{Tag: TagEndGame, Label: "End Game",
			FromStatus: models.StatusInProgress, FromPeriod: 1,
			ToStatus: models.StatusFinished, ToPeriod: 1},
	},
	models.StructureTwoHalves: {
		kickOff,
		{Tag: TagEndFirstHalf, Label: "End First Half",
			FromStatus: models.StatusInProgress, FromPeriod: 1,
			ToStatus: models.StatusHalfTime, ToPeriod: 1},
		{Tag: TagStartSecondHalf, Label: "Start Second Half",
			FromStatus: models.StatusHalfTime, FromPeriod: 1,
			ToStatus: models.StatusInProgress, ToPeriod: 2},
		{Tag: TagEndGame, Label: "End Game",
			FromStatus: models.StatusInProgress, FromPeriod: 2,
			ToStatus: models.StatusFinished, ToPeriod: 2},
	},
	models.StructureFourQuarters: {
		kickOff,
		{Tag: TagEndQuarterOne, Label: "End Q1",
			FromStatus: models.StatusInProgress, FromPeriod: 1,
			ToStatus: models.StatusQuarterBreak, ToPeriod: 1},
		{Tag: TagStartQuarterTwo, Label: "Start Q2",
			FromStatus: models.StatusQuarterBreak, FromPeriod: 1,
			ToStatus: models.StatusInProgress, ToPeriod: 2},
		{Tag: TagHalfTime, Label: "Half Time",
			FromStatus: models.StatusInProgress, FromPeriod: 2,
			ToStatus: models.StatusHalfTime, ToPeriod: 2},
		{Tag: TagStartQuarterThr, Label: "Start Q3",
			FromStatus: models.StatusHalfTime, FromPeriod: 2,
			ToStatus: models.StatusInProgress, ToPeriod: 3},
		{Tag: TagEndQuarterThree, Label: "End Q3",
			FromStatus: models.StatusInProgress, FromPeriod: 3,
			ToStatus: models.StatusQuarterBreak, ToPeriod: 3},
		{Tag: TagStartQuarterFour, Label: "Start Q4",
			FromStatus: models.StatusQuarterBreak, FromPeriod: 3,
			ToStatus: models.StatusInProgress, ToPeriod: 4},
		{Tag: TagEndGame, Label: "End Game",
			FromStatus: models.StatusInProgress, FromPeriod: 4,
			ToStatus: models.StatusFinished, ToPeriod: 4},
	},
}

// Next returns the single legal transition out of (status, period) for
// the given structure, or ok=false when the game is terminal or in an
// unreachable combination.
func Next(structure models.GameStructure, status models.GameStatus, period int) (Transition, bool) {
	for _, t := range transitions[structure.Normalize()] {
		if t.FromStatus != status {
			continue
		}
		if t.FromPeriod != anyPeriod && t.FromPeriod != period {
			continue
		}
		return t, true
	}
	return Transition{}, false
}

// StateAfter returns the (status, period) a control event with the given
// tag left the game in. Undo uses it to restore state from the
// next-most-recent control event after removing the latest one.
func StateAfter(structure models.GameStructure, tag string) (models.GameStatus, int, bool) {
	for _, t := range transitions[structure.Normalize()] {
		if t.Tag == tag {
			return t.ToStatus, t.ToPeriod, true
		}
	}
	return "", 0, false
}

// InitialState is the state restored when no control events remain.
func InitialState() (models.GameStatus, int) {
	return models.StatusNotStarted, 0
}

// CanScore reports whether scoring actions are legal for the status.
// Pending-conversion gating is the session's concern, not the table's.
func CanScore(status models.GameStatus) bool {
	return status == models.StatusInProgress
}
