package scorekeeper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openside/scorekeeper/internal/models"
	"github.com/openside/scorekeeper/internal/store"
)

// fakeStore is an in-memory remote store with injectable transient
// failures, standing in for the network-reachable relational store.
type fakeStore struct {
	mu     sync.Mutex
	game   models.Game
	events []models.GameEvent // newest first

	failInserts int
	failUpdates int
	failDeletes int
	failHearts  bool

	insertCalls int
	updateCalls int
	deleteCalls int
	heartbeats  int
}

var errStoreDown = errors.New("store unreachable")

func newFakeStore() *fakeStore {
	return &fakeStore{
		game: models.Game{
			ID:               uuid.New(),
			ScorekeeperToken: "sk-token",
			ViewerToken:      "v-token",
			TeamAName:        "Harlequins",
			TeamBName:        "Saracens",
			GameStructure:    models.StructureTwoHalves,
			GameStatus:       models.StatusNotStarted,
			LastHeartbeat:    time.Now(),
		},
	}
}

func (f *fakeStore) GetGameByScorekeeperToken(ctx context.Context, id uuid.UUID, token string) (*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.game.ID || token != f.game.ScorekeeperToken {
		return nil, store.ErrNotFound
	}
	g := f.game
	return &g, nil
}

func (f *fakeStore) ListEvents(ctx context.Context, gameID uuid.UUID) ([]models.GameEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.GameEvent, len(f.events))
	copy(out, f.events)
	return out, nil
}

func (f *fakeStore) InsertEvent(ctx context.Context, params store.InsertEventParams) (*models.GameEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.failInserts > 0 {
		f.failInserts--
		return nil, errStoreDown
	}
	e := models.GameEvent{
		ID:        uuid.New(),
		GameID:    params.GameID,
		Team:      params.Team,
		EventType: params.EventType,
		Points:    params.Points,
		Period:    params.Period,
		CreatedAt: time.Now(),
	}
	e.LocalID = e.ID
	f.events = append([]models.GameEvent{e}, f.events...)
	return &e, nil
}

func (f *fakeStore) DeleteEvent(ctx context.Context, eventID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.failDeletes > 0 {
		f.failDeletes--
		return errStoreDown
	}
	for i := range f.events {
		if f.events[i].ID == eventID {
			f.events = append(f.events[:i], f.events[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) UpdateGame(ctx context.Context, id uuid.UUID, params store.UpdateGameParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.failUpdates > 0 {
		f.failUpdates--
		return errStoreDown
	}
	if params.TeamAScore != nil {
		f.game.TeamAScore = *params.TeamAScore
	}
	if params.TeamBScore != nil {
		f.game.TeamBScore = *params.TeamBScore
	}
	if params.GameStatus != nil {
		f.game.GameStatus = *params.GameStatus
	}
	if params.CurrentPeriod != nil {
		f.game.CurrentPeriod = *params.CurrentPeriod
	}
	return nil
}

func (f *fakeStore) Heartbeat(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failHearts {
		return errStoreDown
	}
	f.heartbeats++
	f.game.LastHeartbeat = at
	return nil
}

// snapshot returns copies of the persisted game and events.
func (f *fakeStore) snapshot() (models.Game, []models.GameEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	events := make([]models.GameEvent, len(f.events))
	copy(events, f.events)
	return f.game, events
}

func (f *fakeStore) setFailures(inserts, updates, deletes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failInserts = inserts
	f.failUpdates = updates
	f.failDeletes = deletes
}
