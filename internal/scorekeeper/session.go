// Package scorekeeper implements the local game-state engine for the
// single writing device: the in-memory event log, the optimistic
// mutation path, the strictly-ordered sync queue, and undo.
package scorekeeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/openside/scorekeeper/internal/models"
	"github.com/openside/scorekeeper/internal/store"
)

// Store defines what the session needs from the remote store.
type Store interface {
	GetGameByScorekeeperToken(ctx context.Context, id uuid.UUID, token string) (*models.Game, error)
	ListEvents(ctx context.Context, gameID uuid.UUID) ([]models.GameEvent, error)
	InsertEvent(ctx context.Context, params store.InsertEventParams) (*models.GameEvent, error)
	DeleteEvent(ctx context.Context, eventID uuid.UUID) error
	UpdateGame(ctx context.Context, id uuid.UUID, params store.UpdateGameParams) error
	Heartbeat(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Config holds session timing knobs.
type Config struct {
	// RetryDelay is the fixed backoff between attempts of a failed sync
	// task.
	RetryDelay time.Duration
	// HeartbeatInterval is how often the liveness signal is written,
	// independent of the sync queue.
	HeartbeatInterval time.Duration
	// Clock drives retries and heartbeats; tests inject a fake.
	Clock clockwork.Clock
}

// DefaultConfig returns production timing defaults.
func DefaultConfig() Config {
	return Config{
		RetryDelay:        2 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		Clock:             clockwork.NewRealClock(),
	}
}

// Session is the state of one active scorekeeping device for one game.
// The local view is mutated synchronously and is the user-visible truth;
// durable writes trail behind on the sync queue. A Session is owned by
// whoever loaded it and must be closed on navigation away.
type Session struct {
	store Store
	clock clockwork.Clock
	cfg   Config

	mu      sync.Mutex
	game    models.Game
	events  []models.GameEvent // newest first
	pending models.Team        // empty when no conversion outstanding

	// serverIDs maps an event's stable local correlation id to its
	// persistence id once the insert task has completed. Undo's delete
	// tasks resolve ids here at execution time, so strict queue order
	// makes undo of a not-yet-synced event safe.
	serverIDs map[uuid.UUID]uuid.UUID

	queue  *syncQueue
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Load fetches the game and its event log with the scorekeeper token and
// starts the session's sync queue and heartbeat. A token mismatch
// surfaces store.ErrNotFound and is fatal to the session.
func Load(ctx context.Context, st Store, gameID uuid.UUID, token string, cfg Config) (*Session, error) {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultConfig().RetryDelay
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultConfig().HeartbeatInterval
	}

	game, err := st.GetGameByScorekeeperToken(ctx, gameID, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}

	events, err := st.ListEvents(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	s := &Session{
		store:     st,
		clock:     cfg.Clock,
		cfg:       cfg,
		game:      *game,
		events:    events,
		serverIDs: make(map[uuid.UUID]uuid.UUID, len(events)),
		queue:     newSyncQueue(cfg.Clock, cfg.RetryDelay),
	}
	for _, e := range events {
		s.serverIDs[e.LocalID] = e.ID
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.queue.run(runCtx)
	}()
	go func() {
		defer s.wg.Done()
		s.runHeartbeat(runCtx)
	}()

	return s, nil
}

// Close stops the sync queue and heartbeat. Queued tasks that have not
// run yet are abandoned; the remote store keeps whatever was last
// persisted.
func (s *Session) Close() {
	s.cancel()
	s.wg.Wait()
}

// Game returns a snapshot of the local game record.
func (s *Session) Game() models.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game
}

// Events returns a snapshot of the event log, newest first.
func (s *Session) Events() []models.GameEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.GameEvent, len(s.events))
	copy(out, s.events)
	return out
}

// PendingConversion reports which team is awaiting a conversion
// decision, if any.
func (s *Session) PendingConversion() (models.Team, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending, s.pending != ""
}

// CountTries counts try events recorded for a team.
func (s *Session) CountTries(team models.Team) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Team == team && e.EventType == models.EventTry {
			n++
		}
	}
	return n
}

// IsGameInPlay reports whether scoring is currently possible at all.
func (s *Session) IsGameInPlay() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.GameStatus == models.StatusInProgress
}

// Unsynced reports the sync backlog, including the task currently being
// retried. A persistently growing value means the store is unreachable.
func (s *Session) Unsynced() int {
	return s.queue.Len()
}

// Flush blocks until every queued durable write has been persisted.
func (s *Session) Flush(ctx context.Context) error {
	return s.queue.Flush(ctx)
}

// reconcile swaps the temporary local event for the persisted record in
// the same log slot, keyed by the stable correlation id.
func (s *Session) reconcile(localID uuid.UUID, persisted *models.GameEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.serverIDs[localID] = persisted.ID
	for i := range s.events {
		if s.events[i].LocalID == localID {
			s.events[i].ID = persisted.ID
			s.events[i].CreatedAt = persisted.CreatedAt
			return
		}
	}
}

// removeEvent drops the event with the given correlation id from the log.
func (s *Session) removeEvent(localID uuid.UUID) {
	for i := range s.events {
		if s.events[i].LocalID == localID {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return
		}
	}
}

func intPtr(v int) *int { return &v }

func statusPtr(v models.GameStatus) *models.GameStatus { return &v }
