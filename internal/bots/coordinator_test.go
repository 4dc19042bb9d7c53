// internal/bots/coordinator_test.go
package bots

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gadisaka/ethioludo-backend-sub001/internal/dispatch"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/lock"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/models"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/rooms"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/store"
)

// recordingNotifier collects dispatched events instead of broadcasting them.
type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	roomID  string
	name    string
	payload map[string]interface{}
}

func (n *recordingNotifier) Notify(roomID, event string, payload map[string]interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{roomID: roomID, name: event, payload: payload})
}

func (n *recordingNotifier) byName(name string) []recordedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []recordedEvent
	for _, e := range n.events {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func seedRoom(t *testing.T, st store.RoomStore, maxPlayers int, players ...models.Player) *models.Room {
	t.Helper()
	room := &models.Room{
		ID:         uuid.NewString(),
		Players:    players,
		GameStatus: models.StatusWaiting,
		MaxPlayers: maxPlayers,
		CreatedAt:  time.Now().UTC(),
	}
	if len(players) > 0 {
		room.CurrentTurn = players[0].ID
	}
	require.NoError(t, st.CreateRoom(context.Background(), room))
	return room
}

func human(name, color string) models.Player {
	return models.Player{ID: uuid.NewString(), Name: name, Color: color, UserID: uuid.NewString()}
}

func newTestCoordinator(st store.RoomStore, notifier dispatch.Notifier, cfg Config) (*Coordinator, *rooms.Cache) {
	cache := rooms.NewCache()
	c := NewCoordinator(st, cache, notifier, cfg, testLogger())
	return c, cache
}

func defaultCfg() Config {
	return Config{
		MaxPlayers: 4,
		MaxBots:    3,
		Difficulty: "medium",
		JoinDelay:  time.Millisecond,
		ThinkDelay: 50 * time.Millisecond,
		LockTTL:    time.Second,
	}
}

func TestJoinBotAddsSeatAndNotifies(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	c, cache := newTestCoordinator(st, notifier, defaultCfg())
	room := seedRoom(t, st, 4, human("Abel", "red"))

	bot := c.JoinBot(context.Background(), room.ID)
	require.NotNil(t, bot, "expected admission to succeed")
	assert.True(t, bot.IsBot)
	assert.Empty(t, bot.UserID, "bots must not have an owning user")
	assert.Equal(t, "medium", bot.Difficulty)
	assert.NotEqual(t, "red", bot.Color, "bot should take an unused palette color")

	stored, err := st.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Players, 2)
	assert.Equal(t, models.StatusWaiting, stored.GameStatus)

	cached, ok := cache.Get(room.ID)
	require.True(t, ok, "cache should mirror the room after admission")
	assert.Len(t, cached.Players, 2)

	joins := notifier.byName(dispatch.EventPlayerJoined)
	require.Len(t, joins, 1)
	assert.Equal(t, bot.ID, joins[0].payload["id"])
}

func TestJoinBotFillsRoomAndStartsGame(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	c, cache := newTestCoordinator(st, notifier, defaultCfg())
	host := human("Hana", "red")
	room := seedRoom(t, st, 2, host)

	var startedRoom, firstTurn string
	c.OnGameStart = func(roomID, playerID string) {
		startedRoom, firstTurn = roomID, playerID
	}

	bot := c.JoinBot(context.Background(), room.ID)
	require.NotNil(t, bot)

	stored, err := st.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPlaying, stored.GameStatus, "filling the last seat flips the room to playing")

	cached, ok := cache.Get(room.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusPlaying, cached.GameStatus)

	require.Len(t, notifier.byName(dispatch.EventGameStarted), 1)
	assert.Equal(t, room.ID, startedRoom)
	assert.Equal(t, host.ID, firstTurn, "first turn goes to the room's current turn-holder")
}

func TestConcurrentJoinBotLastSeat(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	cfg := defaultCfg()
	cfg.MaxBots = 10
	c, _ := newTestCoordinator(st, notifier, cfg)
	room := seedRoom(t, st, 2, human("Abel", "red"))

	const attempts = 16
	results := make(chan *models.Player, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- c.JoinBot(context.Background(), room.ID)
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for p := range results {
		if p != nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one admission per free seat")

	stored, err := st.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Players, 2, "capacity invariant must hold under contention")
	assert.Equal(t, models.StatusPlaying, stored.GameStatus)
}

func TestJoinBotsPartialSuccess(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	c, _ := newTestCoordinator(st, notifier, defaultCfg())
	room := seedRoom(t, st, 4, human("Abel", "red"))

	joined := c.JoinBots(context.Background(), room.ID, 3)
	require.Len(t, joined, 3)

	names := map[string]struct{}{}
	colors := map[string]struct{}{}
	for _, b := range joined {
		names[b.Name] = struct{}{}
		colors[b.Color] = struct{}{}
	}
	assert.Len(t, names, 3, "bot names must be distinct")
	assert.Len(t, colors, 3, "palette has room, colors must be distinct")

	stored, err := st.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPlaying, stored.GameStatus, "4th seat filled, game starts")

	// A full room yields nothing further; partial results are the contract.
	more := c.JoinBots(context.Background(), room.ID, 2)
	assert.Empty(t, more)
}

func TestJoinBotsStopsAtBotCap(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	cfg := defaultCfg()
	cfg.MaxBots = 2
	c, _ := newTestCoordinator(st, notifier, cfg)
	room := seedRoom(t, st, 4, human("Abel", "red"))

	joined := c.JoinBots(context.Background(), room.ID, 3)
	assert.Len(t, joined, 2, "bot cap limits admissions before capacity does")

	stored, err := st.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, stored.GameStatus)
}

func TestJoinBotRoomNotWaiting(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	c, _ := newTestCoordinator(st, notifier, defaultCfg())
	room := seedRoom(t, st, 4, human("Abel", "red"), human("Hana", "green"))

	// Fill and flip the room, then try again.
	require.NotNil(t, c.JoinBot(context.Background(), room.ID))
	require.NotNil(t, c.JoinBot(context.Background(), room.ID))
	assert.Nil(t, c.JoinBot(context.Background(), room.ID), "playing room admits no one")
}

func TestJoinBotUnknownRoom(t *testing.T) {
	st := store.NewMemoryStore()
	c, _ := newTestCoordinator(st, &recordingNotifier{}, defaultCfg())
	assert.Nil(t, c.JoinBot(context.Background(), "no-such-room"))
}

// failingStore simulates an unreachable backend.
type failingStore struct {
	store.RoomStore
}

func (failingStore) GetRoom(context.Context, string) (*models.Room, error) {
	return nil, context.DeadlineExceeded
}

func TestJoinBotStoreFailureDegradesToNil(t *testing.T) {
	c, _ := newTestCoordinator(failingStore{}, &recordingNotifier{}, defaultCfg())
	assert.NotPanics(t, func() {
		assert.Nil(t, c.JoinBot(context.Background(), "any"))
	})
}

func TestVerifyRoomEligibility(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	c, _ := newTestCoordinator(st, notifier, defaultCfg())

	elig := c.VerifyRoomEligibility(context.Background(), "missing")
	assert.Equal(t, Eligibility{CanJoin: false, Reason: "Room not found"}, elig)

	open := seedRoom(t, st, 4, human("Abel", "red"))
	elig = c.VerifyRoomEligibility(context.Background(), open.ID)
	assert.Equal(t, Eligibility{CanJoin: true, Reason: "Room eligible"}, elig)

	playing := seedRoom(t, st, 2, human("Abel", "red"))
	require.NotNil(t, c.JoinBot(context.Background(), playing.ID))
	elig = c.VerifyRoomEligibility(context.Background(), playing.ID)
	assert.Equal(t, Eligibility{CanJoin: false, Reason: "Game not in waiting status"}, elig,
		"status check outranks the capacity check")
}

func TestJoinBotLeasedContention(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	c, _ := newTestCoordinator(st, notifier, defaultCfg())
	locker := lock.NewMemoryLocker()
	c.Locker = locker
	room := seedRoom(t, st, 4, human("Abel", "red"))

	key := "ludo:lock:room:" + room.ID
	ctx := context.Background()

	// Someone else holds the lease: no blocking wait, just not-eligible.
	ok, err := locker.Acquire(ctx, key, "other-token", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, c.JoinBot(ctx, room.ID))

	released, err := locker.Release(ctx, key, "other-token")
	require.NoError(t, err)
	require.True(t, released)

	// Free lease: admission proceeds and releases afterwards.
	require.NotNil(t, c.JoinBot(ctx, room.ID))
	ok, err = locker.Acquire(ctx, key, "probe", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "coordinator must release its lease after the attempt")
}

func TestGetStatus(t *testing.T) {
	st := store.NewMemoryStore()
	c, _ := newTestCoordinator(st, &recordingNotifier{}, defaultCfg())
	status := c.GetStatus()
	assert.False(t, status.LockModeEnabled)
	assert.Equal(t, 4, status.MaxPlayers)
	assert.Equal(t, 3, status.MaxBots)

	c.Locker = lock.NewMemoryLocker()
	assert.True(t, c.GetStatus().LockModeEnabled)
}
