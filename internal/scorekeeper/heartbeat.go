package scorekeeper

import (
	"context"

	"github.com/rs/zerolog/log"
)

// runHeartbeat writes the liveness timestamp on a fixed interval,
// independent of the sync queue, so viewers can tell a stalled session
// from a backed-up one.
func (s *Session) runHeartbeat(ctx context.Context) {
	s.mu.Lock()
	gameID := s.game.ID
	s.mu.Unlock()

	ticker := s.clock.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := s.store.Heartbeat(ctx, gameID, s.clock.Now()); err != nil {
				log.Warn().
					Err(err).
					Str("game_id", gameID.String()).
					Msg("heartbeat write failed")
			}
		}
	}
}
