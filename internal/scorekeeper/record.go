package scorekeeper

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/openside/scorekeeper/internal/models"
	"github.com/openside/scorekeeper/internal/rules"
	"github.com/openside/scorekeeper/internal/store"
)

// RecordEvent applies a scoring event to the local view immediately and
// queues the durable write. It rejects, with no side effect, while the
// game is not in progress or a conversion is undecided.
func (s *Session) RecordEvent(team models.Team, eventType string, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != "" {
		return ErrConversionPending
	}
	return s.record(team, eventType, points)
}

// HandleTry records a five-point try and opens the pending-conversion
// state for that team. No further scoring is legal until
// HandleConversion resolves it.
func (s *Session) HandleTry(team models.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != "" {
		return ErrConversionPending
	}
	if err := s.record(team, models.EventTry, models.PointsTry); err != nil {
		return err
	}
	s.pending = team
	return nil
}

// HandleConversion resolves the outstanding conversion decision,
// recording a two-point conversion or a zero-point miss, and clears the
// pending state.
func (s *Session) HandleConversion(made bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == "" {
		return ErrNoConversionPending
	}
	team := s.pending

	eventType := models.EventConversionMissed
	points := 0
	if made {
		eventType = models.EventConversion
		points = models.PointsConversion
	}

	if err := s.record(team, eventType, points); err != nil {
		return err
	}
	s.pending = ""
	return nil
}

// record is the optimistic mutation path shared by all scoring events.
// Callers hold s.mu and have already applied conversion gating.
func (s *Session) record(team models.Team, eventType string, points int) error {
	if team != models.TeamA && team != models.TeamB {
		return ErrInvalidTeam
	}
	if points < 0 {
		return ErrInvalidPoints
	}
	if !rules.CanScore(s.game.GameStatus) {
		return ErrGameNotInPlay
	}

	event := models.GameEvent{
		LocalID:   uuid.New(),
		GameID:    s.game.ID,
		Team:      team,
		EventType: eventType,
		Points:    points,
		Period:    s.game.CurrentPeriod,
		CreatedAt: s.clock.Now(),
	}

	s.events = append([]models.GameEvent{event}, s.events...)
	if team == models.TeamA {
		s.game.TeamAScore += points
	} else {
		s.game.TeamBScore += points
	}

	log.Info().
		Str("game_id", s.game.ID.String()).
		Str("team", string(team)).
		Str("event_type", eventType).
		Int("points", points).
		Msg("recorded event")

	s.enqueueInsert(event, s.scoreUpdate(team))
	return nil
}

// enqueueInsert queues the durable write for a freshly recorded event:
// persist the row, swap in the server-assigned id, then write the score
// or status projection. The serverIDs check makes re-runs after a
// partial failure idempotent.
func (s *Session) enqueueInsert(event models.GameEvent, update store.UpdateGameParams) {
	localID := event.LocalID
	params := store.InsertEventParams{
		GameID:    event.GameID,
		Team:      event.Team,
		EventType: event.EventType,
		Points:    event.Points,
		Period:    event.Period,
	}
	gameID := s.game.ID

	s.queue.enqueue(func(ctx context.Context) error {
		s.mu.Lock()
		_, inserted := s.serverIDs[localID]
		s.mu.Unlock()

		if !inserted {
			persisted, err := s.store.InsertEvent(ctx, params)
			if err != nil {
				return err
			}
			s.reconcile(localID, persisted)
		}
		return s.store.UpdateGame(ctx, gameID, update)
	})
}

// scoreUpdate snapshots the team's local score for the trailing durable
// write. Callers hold s.mu.
func (s *Session) scoreUpdate(team models.Team) store.UpdateGameParams {
	if team == models.TeamA {
		return store.UpdateGameParams{TeamAScore: intPtr(s.game.TeamAScore)}
	}
	return store.UpdateGameParams{TeamBScore: intPtr(s.game.TeamBScore)}
}
