// Package timeline derives display quantities from the event log:
// minutes-into-period labels, running scores at each point in history,
// and event type formatting. Events are newest first throughout, the
// order the store returns them in.
package timeline

import (
	"fmt"
	"strings"

	"github.com/openside/scorekeeper/internal/models"
)

// Entry is one timeline row: an event plus the quantities derived from
// the log at that point.
type Entry struct {
	Event      models.GameEvent `json:"event"`
	TimeLabel  string           `json:"time_label"`
	TeamAScore int              `json:"team_a_score"`
	TeamBScore int              `json:"team_b_score"`
}

// Entries derives the full timeline for a log.
func Entries(events []models.GameEvent, structure models.GameStructure) []Entry {
	out := make([]Entry, len(events))
	for i, e := range events {
		a, b := ScoreAt(events, i)
		out[i] = Entry{
			Event:      e,
			TimeLabel:  TimeLabel(e, events, structure),
			TeamAScore: a,
			TeamBScore: b,
		}
	}
	return out
}

// ScoreAt returns both running scores as of the event at index, summing
// points per team from the oldest event up to and including it.
func ScoreAt(events []models.GameEvent, index int) (teamA, teamB int) {
	for i := len(events) - 1; i >= index; i-- {
		switch events[i].Team {
		case models.TeamA:
			teamA += events[i].Points
		case models.TeamB:
			teamB += events[i].Points
		}
	}
	return teamA, teamB
}

// TimeLabel renders minutes elapsed since the first event of the event's
// period. The first period is always plain minutes ("12'"); later periods
// use the structure's idiom: "HT+3'" for a second half, "Q3 7'" for
// quarters.
func TimeLabel(event models.GameEvent, events []models.GameEvent, structure models.GameStructure) string {
	first, ok := firstEventInPeriod(events, event.Period)
	if !ok {
		return "0'"
	}

	minutes := int(event.CreatedAt.Sub(first.CreatedAt).Minutes())
	if minutes < 0 {
		minutes = 0
	}

	if event.Period == 1 {
		return fmt.Sprintf("%d'", minutes)
	}
	switch structure.Normalize() {
	case models.StructureFourQuarters:
		return fmt.Sprintf("Q%d %d'", event.Period, minutes)
	case models.StructureTwoHalves:
		if event.Period == 2 {
			return fmt.Sprintf("HT+%d'", minutes)
		}
	}
	return fmt.Sprintf("%d'", minutes)
}

// FormatEventType renders a tag for display: underscores to spaces,
// words title-cased.
func FormatEventType(eventType string) string {
	words := strings.Split(eventType, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// firstEventInPeriod finds the oldest event belonging to a period.
func firstEventInPeriod(events []models.GameEvent, period int) (models.GameEvent, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Period == period {
			return events[i], true
		}
	}
	return models.GameEvent{}, false
}
