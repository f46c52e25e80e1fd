// Package viewer implements the read-only session observing a game in
// near real time: change-feed driven refresh, periodic full reloads, and
// scorekeeper staleness detection.
package viewer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/openside/scorekeeper/internal/models"
	"github.com/openside/scorekeeper/internal/store"
)

// Store defines what a viewer needs from the remote store.
type Store interface {
	GetGameByViewerToken(ctx context.Context, id uuid.UUID, token string) (*models.Game, error)
	ListEvents(ctx context.Context, gameID uuid.UUID) ([]models.GameEvent, error)
}

// Config holds viewer timing knobs.
type Config struct {
	// RefreshInterval is the periodic full-reload cadence, a safety net
	// under the change feed.
	RefreshInterval time.Duration
	// StalenessThreshold is how old last_heartbeat may be before the
	// scorekeeper session counts as stalled or gone. Default is twice
	// the heartbeat interval.
	StalenessThreshold time.Duration
	Clock              clockwork.Clock
}

// DefaultConfig returns production viewer defaults.
func DefaultConfig() Config {
	return Config{
		RefreshInterval:    10 * time.Second,
		StalenessThreshold: 60 * time.Second,
		Clock:              clockwork.NewRealClock(),
	}
}

// Viewer is one read-only session for one game.
type Viewer struct {
	store Store
	clock clockwork.Clock
	cfg   Config
	token string

	mu     sync.Mutex
	game   models.Game
	events []models.GameEvent

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Load fetches the game and events with the viewer token and starts the
// periodic reload loop. A token mismatch surfaces store.ErrNotFound.
func Load(ctx context.Context, st Store, gameID uuid.UUID, token string, cfg Config) (*Viewer, error) {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultConfig().RefreshInterval
	}
	if cfg.StalenessThreshold <= 0 {
		cfg.StalenessThreshold = DefaultConfig().StalenessThreshold
	}

	game, err := st.GetGameByViewerToken(ctx, gameID, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}
	events, err := st.ListEvents(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	v := &Viewer{
		store:  st,
		clock:  cfg.Clock,
		cfg:    cfg,
		token:  token,
		game:   *game,
		events: events,
	}

	runCtx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		v.runRefresh(runCtx)
	}()

	return v, nil
}

// Close stops the periodic reload loop.
func (v *Viewer) Close() {
	v.cancel()
	v.wg.Wait()
}

// Game returns a snapshot of the game record.
func (v *Viewer) Game() models.Game {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.game
}

// Events returns a snapshot of the event log, newest first.
func (v *Viewer) Events() []models.GameEvent {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.GameEvent, len(v.events))
	copy(out, v.events)
	return out
}

// ScorekeeperStale reports whether the scorekeeper's liveness signal has
// gone quiet past the staleness threshold.
func (v *Viewer) ScorekeeperStale() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.clock.Now().Sub(v.game.LastHeartbeat) > v.cfg.StalenessThreshold
}

// HandleChange reacts to one store change notification. Game changes
// replace the game record; event changes reload everything.
func (v *Viewer) HandleChange(ctx context.Context, note store.ChangeNotification) error {
	v.mu.Lock()
	gameID := v.game.ID
	v.mu.Unlock()

	if note.GameID != gameID {
		return nil
	}

	switch note.Table {
	case store.TableGames:
		return v.refreshGame(ctx)
	case store.TableEvents:
		return v.Reload(ctx)
	}
	return nil
}

// Reload replaces both the game record and the event log from the store.
func (v *Viewer) Reload(ctx context.Context) error {
	v.mu.Lock()
	gameID := v.game.ID
	v.mu.Unlock()

	game, err := v.store.GetGameByViewerToken(ctx, gameID, v.token)
	if err != nil {
		return fmt.Errorf("failed to reload game: %w", err)
	}
	events, err := v.store.ListEvents(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to reload events: %w", err)
	}

	v.mu.Lock()
	v.game = *game
	v.events = events
	v.mu.Unlock()
	return nil
}

func (v *Viewer) refreshGame(ctx context.Context) error {
	v.mu.Lock()
	gameID := v.game.ID
	v.mu.Unlock()

	game, err := v.store.GetGameByViewerToken(ctx, gameID, v.token)
	if err != nil {
		return fmt.Errorf("failed to refresh game: %w", err)
	}

	v.mu.Lock()
	v.game = *game
	v.mu.Unlock()
	return nil
}

func (v *Viewer) runRefresh(ctx context.Context) {
	ticker := v.clock.NewTicker(v.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := v.Reload(ctx); err != nil {
				log.Warn().Err(err).Msg("periodic viewer reload failed")
			}
		}
	}
}
