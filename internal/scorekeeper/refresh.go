package scorekeeper

import (
	"context"
	"fmt"

	"github.com/openside/scorekeeper/internal/store"
)

// HandleChange reacts to one store change notification for this game.
// Game-row changes refresh the game record; event-row changes trigger a
// full reload of the log. Notifications for other games are ignored.
func (s *Session) HandleChange(ctx context.Context, note store.ChangeNotification) error {
	s.mu.Lock()
	gameID := s.game.ID
	s.mu.Unlock()

	if note.GameID != gameID {
		return nil
	}

	switch note.Table {
	case store.TableGames:
		return s.RefreshGame(ctx)
	case store.TableEvents:
		return s.ReloadEvents(ctx)
	}
	return nil
}

// RefreshGame refetches the game record and replaces the local copy
// wholesale; the store is authoritative when it speaks.
func (s *Session) RefreshGame(ctx context.Context) error {
	s.mu.Lock()
	id := s.game.ID
	token := s.game.ScorekeeperToken
	s.mu.Unlock()

	game, err := s.store.GetGameByScorekeeperToken(ctx, id, token)
	if err != nil {
		return fmt.Errorf("failed to refresh game: %w", err)
	}

	s.mu.Lock()
	s.game = *game
	s.mu.Unlock()
	return nil
}

// ReloadEvents replaces the local log with the persisted one. Remote
// event changes always cause a full reload, never an incremental patch.
func (s *Session) ReloadEvents(ctx context.Context) error {
	s.mu.Lock()
	id := s.game.ID
	s.mu.Unlock()

	events, err := s.store.ListEvents(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to reload events: %w", err)
	}

	s.mu.Lock()
	s.events = events
	for _, e := range events {
		s.serverIDs[e.LocalID] = e.ID
	}
	s.mu.Unlock()
	return nil
}
