package viewer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/openside/scorekeeper/internal/models"
	"github.com/openside/scorekeeper/internal/store"
)

type fakeStore struct {
	mu     sync.Mutex
	game   models.Game
	events []models.GameEvent
	loads  int
}

func newFakeStore(now time.Time) *fakeStore {
	return &fakeStore{
		game: models.Game{
			ID:            uuid.New(),
			ViewerToken:   "v-token",
			TeamAName:     "Exeter",
			TeamBName:     "Gloucester",
			GameStructure: models.StructureTwoHalves,
			GameStatus:    models.StatusInProgress,
			CurrentPeriod: 1,
			LastHeartbeat: now,
		},
	}
}

func (f *fakeStore) GetGameByViewerToken(ctx context.Context, id uuid.UUID, token string) (*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.game.ID || token != f.game.ViewerToken {
		return nil, store.ErrNotFound
	}
	f.loads++
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

func (f *fakeStore) set(mutate func(*fakeStore)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mutate(f)
}

func loadTestViewer(t *testing.T, fs *fakeStore, clock clockwork.Clock) *Viewer {
	t.Helper()
	v, err := Load(context.Background(), fs, fs.game.ID, "v-token", Config{
		RefreshInterval:    10 * time.Second,
		StalenessThreshold: 60 * time.Second,
		Clock:              clock,
	})
	require.NoError(t, err)
	t.Cleanup(v.Close)
	return v
}

func TestLoadRejectsWrongToken(t *testing.T) {
	fs := newFakeStore(time.Now())
	_, err := Load(context.Background(), fs, fs.game.ID, "sk-token", Config{})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestHandleChangeRefreshesGameRecord(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fs := newFakeStore(clock.Now())
	v := loadTestViewer(t, fs, clock)

	fs.set(func(f *fakeStore) {
		f.game.TeamAScore = 10
		f.game.TeamBScore = 3
	})

	require.NoError(t, v.HandleChange(context.Background(), store.ChangeNotification{
		Table:  store.TableGames,
		Op:     "UPDATE",
		GameID: fs.game.ID,
	}))

	g := v.Game()
	require.Equal(t, 10, g.TeamAScore)
	require.Equal(t, 3, g.TeamBScore)
}

func TestHandleChangeReloadsEventLog(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fs := newFakeStore(clock.Now())
	v := loadTestViewer(t, fs, clock)
	require.Empty(t, v.Events())

	fs.set(func(f *fakeStore) {
		f.events = []models.GameEvent{{
			ID:        uuid.New(),
			GameID:    f.game.ID,
			Team:      models.TeamA,
			EventType: models.EventTry,
			Points:    models.PointsTry,
			Period:    1,
		}}
		f.game.TeamAScore = 5
	})

	require.NoError(t, v.HandleChange(context.Background(), store.ChangeNotification{
		Table:  store.TableEvents,
		Op:     "INSERT",
		GameID: fs.game.ID,
	}))

	require.Len(t, v.Events(), 1)
	require.Equal(t, 5, v.Game().TeamAScore)
}

func TestHandleChangeIgnoresOtherGames(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fs := newFakeStore(clock.Now())
	v := loadTestViewer(t, fs, clock)

	fs.set(func(f *fakeStore) { f.game.TeamAScore = 99 })

	require.NoError(t, v.HandleChange(context.Background(), store.ChangeNotification{
		Table:  store.TableGames,
		Op:     "UPDATE",
		GameID: uuid.New(),
	}))
	require.Equal(t, 0, v.Game().TeamAScore)
}

func TestPeriodicReloadPicksUpMissedChanges(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fs := newFakeStore(clock.Now())
	v := loadTestViewer(t, fs, clock)

	fs.set(func(f *fakeStore) { f.game.TeamBScore = 7 })

	clock.BlockUntil(1)
	clock.Advance(10 * time.Second)

	require.Eventually(t, func() bool {
		return v.Game().TeamBScore == 7
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScorekeeperStale(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fs := newFakeStore(clock.Now())
	v := loadTestViewer(t, fs, clock)

	require.False(t, v.ScorekeeperStale())

	// Within the threshold: a heartbeat 59s ago is still fresh.
	clock.Advance(59 * time.Second)
	require.False(t, v.ScorekeeperStale())

	clock.Advance(2 * time.Second)
	require.True(t, v.ScorekeeperStale())
}

func TestScorekeeperStaleClearsOnFreshHeartbeat(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fs := newFakeStore(clock.Now())
	v := loadTestViewer(t, fs, clock)

	clock.Advance(5 * time.Minute)
	require.True(t, v.ScorekeeperStale())

	fs.set(func(f *fakeStore) { f.game.LastHeartbeat = clock.Now() })
	require.NoError(t, v.HandleChange(context.Background(), store.ChangeNotification{
		Table:  store.TableGames,
		Op:     "UPDATE",
		GameID: fs.game.ID,
	}))
	require.False(t, v.ScorekeeperStale())
}
