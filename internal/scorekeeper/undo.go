package scorekeeper

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/openside/scorekeeper/internal/models"
	"github.com/openside/scorekeeper/internal/rules"
	"github.com/openside/scorekeeper/internal/store"
)

// UndoLastEvent inverts the most recent event. Three mutually exclusive
// cases: a control event rolls the state machine back, a conversion
// event re-opens the pending decision, and any other scoring event rolls
// the score back. Undo on an empty log is a no-op.
//
// Undoing an event whose insert task has not finished is safe: the
// queued delete runs after the insert (strict FIFO) and resolves the
// server id through serverIDs at execution time.
func (s *Session) UndoLastEvent() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) == 0 {
		return nil
	}
	head := s.events[0]

	log.Info().
		Str("game_id", s.game.ID.String()).
		Str("team", string(head.Team)).
		Str("event_type", head.EventType).
		Msg("undoing event")

	if head.IsControl() {
		s.undoControl(head)
		return nil
	}

	switch head.EventType {
	case models.EventConversion, models.EventConversionMissed:
		s.undoConversion(head)
	default:
		s.undoScoring(head)
	}
	return nil
}

// undoControl restores the state the game was in before the most recent
// transition: the to-state of the next-most-recent control event, or the
// initial state when none remains.
func (s *Session) undoControl(head models.GameEvent) {
	status, period := rules.InitialState()
	for _, e := range s.events[1:] {
		if !e.IsControl() {
			continue
		}
		if st, p, ok := rules.StateAfter(s.game.GameStructure, e.EventType); ok {
			status, period = st, p
		}
		break
	}

	s.pending = ""
	s.removeEvent(head.LocalID)
	s.game.GameStatus = status
	s.game.CurrentPeriod = period

	s.enqueueDelete(head.LocalID, store.UpdateGameParams{
		GameStatus:    statusPtr(status),
		CurrentPeriod: intPtr(period),
	})
}

// undoConversion rolls back any awarded points and re-opens the pending
// decision for that team; the engine is intentionally left awaiting a
// re-decision rather than idle.
func (s *Session) undoConversion(head models.GameEvent) {
	s.rollbackScore(head.Team, head.Points)
	s.pending = head.Team
	s.removeEvent(head.LocalID)
	s.enqueueDelete(head.LocalID, s.scoreUpdate(head.Team))
}

// undoScoring rolls back the team's score; undoing a try also discards
// its pending conversion.
func (s *Session) undoScoring(head models.GameEvent) {
	s.rollbackScore(head.Team, head.Points)
	if head.EventType == models.EventTry {
		s.pending = ""
	}
	s.removeEvent(head.LocalID)
	s.enqueueDelete(head.LocalID, s.scoreUpdate(head.Team))
}

// rollbackScore subtracts points from the team's local score, floored
// at zero.
func (s *Session) rollbackScore(team models.Team, points int) {
	if team == models.TeamA {
		s.game.TeamAScore = max(0, s.game.TeamAScore-points)
	} else if team == models.TeamB {
		s.game.TeamBScore = max(0, s.game.TeamBScore-points)
	}
}

// enqueueDelete queues removal of the persisted row plus the trailing
// projection write. Delete by id is idempotent, so a retry after a
// partial failure re-runs both steps safely.
func (s *Session) enqueueDelete(localID uuid.UUID, update store.UpdateGameParams) {
	gameID := s.game.ID

	s.queue.enqueue(func(ctx context.Context) error {
		s.mu.Lock()
		id, known := s.serverIDs[localID]
		s.mu.Unlock()

		if known {
			if err := s.store.DeleteEvent(ctx, id); err != nil {
				return err
			}
			s.mu.Lock()
			delete(s.serverIDs, localID)
			s.mu.Unlock()
		}
		return s.store.UpdateGame(ctx, gameID, update)
	})
}
