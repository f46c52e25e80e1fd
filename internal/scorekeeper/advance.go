package scorekeeper

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/openside/scorekeeper/internal/models"
	"github.com/openside/scorekeeper/internal/rules"
	"github.com/openside/scorekeeper/internal/store"
)

// NextGameStateButton previews the next legal transition without
// applying it. ok is false when the game is terminal.
func (s *Session) NextGameStateButton() (rules.Transition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rules.Next(s.game.GameStructure, s.game.GameStatus, s.game.CurrentPeriod)
}

// AdvanceGameState applies the next legal transition for the current
// (structure, status, period), recording a zero-point game_control event
// and updating status and period with the same optimistic-then-queued
// pattern as scoring. With no legal transition it is a no-op. Advancing
// while a conversion is pending is rejected.
func (s *Session) AdvanceGameState() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != "" {
		return ErrConversionPending
	}

	t, ok := rules.Next(s.game.GameStructure, s.game.GameStatus, s.game.CurrentPeriod)
	if !ok {
		return nil
	}

	event := models.GameEvent{
		LocalID:   uuid.New(),
		GameID:    s.game.ID,
		Team:      models.TeamGameControl,
		EventType: t.Tag,
		Points:    0,
		Period:    t.ToPeriod,
		CreatedAt: s.clock.Now(),
	}

	s.events = append([]models.GameEvent{event}, s.events...)
	s.game.GameStatus = t.ToStatus
	s.game.CurrentPeriod = t.ToPeriod

	log.Info().
		Str("game_id", s.game.ID.String()).
		Str("transition", t.Label).
		Str("status", string(t.ToStatus)).
		Int("period", t.ToPeriod).
		Msg("advanced game state")

	s.enqueueInsert(event, store.UpdateGameParams{
		GameStatus:    statusPtr(t.ToStatus),
		CurrentPeriod: intPtr(t.ToPeriod),
	})
	return nil
}
