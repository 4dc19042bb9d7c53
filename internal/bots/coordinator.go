// internal/bots/coordinator.go
package bots

import (
	"context"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Gadisaka/ethioludo-backend-sub001/internal/dispatch"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/lock"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/models"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/rooms"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/store"
)

// Config carries the admission and scheduling knobs consumed by this package.
type Config struct {
	MaxPlayers int
	MaxBots    int
	Difficulty string
	JoinDelay  time.Duration
	ThinkDelay time.Duration
	LockTTL    time.Duration
}

// Eligibility is the advisory result of a non-mutating admission pre-check.
type Eligibility struct {
	CanJoin bool   `json:"canJoin"`
	Reason  string `json:"reason"`
}

// Status is the coordinator's introspection snapshot.
type Status struct {
	LockModeEnabled bool   `json:"lockModeEnabled"`
	JoinDelayMillis int64  `json:"joinDelayMillis"`
	MaxPlayers      int    `json:"maxPlayers"`
	MaxBots         int    `json:"maxBots"`
	Difficulty      string `json:"difficulty"`
}

// Coordinator admits bots into rooms. Correctness under contention comes
// from the store's conditional update: two concurrent JoinBot calls never
// both claim the same seat. The optional Locker adds a lease around the
// whole attempt for multi-process deployments.
//
// Every failure path degrades to a nil result. Bot admission is best-effort
// background behavior; it must never surface a fault to its caller.
type Coordinator struct {
	store    store.RoomStore
	cache    *rooms.Cache
	notifier dispatch.Notifier
	cfg      Config
	logger   *logrus.Logger

	// Locker, when non-nil, switches admission into distributed-lock mode.
	Locker lock.RoomLocker

	// Names generates unique bot display names.
	Names NameGenerator

	// Clock is injectable for tests; real time otherwise.
	Clock quartz.Clock

	// OnGameStart is invoked when an admission fills the last seat and the
	// room flips to playing. Wired to the turn scheduler so the first turn
	// becomes live.
	OnGameStart func(roomID, firstTurnPlayerID string)
}

func NewCoordinator(st store.RoomStore, cache *rooms.Cache, notifier dispatch.Notifier, cfg Config, logger *logrus.Logger) *Coordinator {
	return &Coordinator{
		store:    st,
		cache:    cache,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		Names:    DefaultNameGenerator{},
		Clock:    quartz.NewReal(),
	}
}

// JoinBot attempts to admit one bot into the room. Returns nil when the
// room is not eligible, under contention, or on any infrastructure failure.
func (c *Coordinator) JoinBot(ctx context.Context, roomID string) *models.Player {
	if c.Locker == nil {
		return c.joinBotDirect(ctx, roomID)
	}
	return c.joinBotLeased(ctx, roomID)
}

// joinBotDirect performs the admission through the store's conditional
// update alone. The read beforehand only seeds name/color synthesis and the
// advisory bot cap; the update's predicate is the sole source of truth.
func (c *Coordinator) joinBotDirect(ctx context.Context, roomID string) *models.Player {
	room, err := c.store.GetRoom(ctx, roomID)
	if err != nil {
		c.logger.Debugf("JoinBot: room %s read failed: %v", roomID, err)
		return nil
	}
	if room.GameStatus != models.StatusWaiting || room.IsFull() {
		return nil
	}
	if room.BotCount() >= c.cfg.MaxBots {
		c.logger.Debugf("JoinBot: room %s already at bot cap (%d)", roomID, c.cfg.MaxBots)
		return nil
	}

	bot := NewBotPlayer(room.Players, botNames(room.Players), c.Names, c.cfg.Difficulty)
	updated, err := c.store.AddPlayerIfWaiting(ctx, roomID, bot)
	if err != nil {
		c.logger.Warnf("JoinBot: conditional update failed for room %s: %v", roomID, err)
		return nil
	}
	if updated == nil {
		// Lost the race or the room moved on. Expected, not a fault.
		c.logger.Debugf("JoinBot: room %s not eligible at update time", roomID)
		return nil
	}

	c.finishAdmission(updated, bot)
	return &bot
}

// joinBotLeased wraps the admission in a room-scoped lease. Acquisition
// failure resolves immediately to not-eligible; retrying is the caller's
// business. The deferred release is token-checked, so an expired lease
// re-acquired by another process is never deleted from here.
func (c *Coordinator) joinBotLeased(ctx context.Context, roomID string) *models.Player {
	key := "ludo:lock:room:" + roomID
	token := uuid.NewString()

	ok, err := c.Locker.Acquire(ctx, key, token, c.cfg.LockTTL)
	if err != nil {
		c.logger.Warnf("JoinBot: lease acquire failed for room %s: %v", roomID, err)
		return nil
	}
	if !ok {
		c.logger.Debugf("JoinBot: room %s lease held elsewhere", roomID)
		return nil
	}
	defer func() {
		// Fresh context: the release must run even when the caller's
		// context is already canceled. The TTL covers a crash before this.
		relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := c.Locker.Release(relCtx, key, token); err != nil {
			c.logger.Warnf("JoinBot: lease release failed for room %s: %v", roomID, err)
		}
	}()

	return c.joinBotDirect(ctx, roomID)
}

func (c *Coordinator) finishAdmission(updated *models.Room, bot models.Player) {
	c.cache.Put(updated)
	c.notifier.Notify(updated.ID, dispatch.EventPlayerJoined, bot.Public())
	c.logger.Infof("Bot %s (%s) joined room %s (%d/%d seats)",
		bot.Name, bot.ID, updated.ID, len(updated.Players), updated.MaxPlayers)

	if updated.GameStatus == models.StatusPlaying {
		c.notifier.Notify(updated.ID, dispatch.EventGameStarted, map[string]interface{}{
			"currentTurn": updated.CurrentTurn,
		})
		if c.OnGameStart != nil {
			c.OnGameStart(updated.ID, updated.CurrentTurn)
		}
	}
}

// JoinBots admits up to count bots, one at a time, with a fixed delay
// between attempts so each join notification flushes before the next. Stops
// at the first failed admission; partial success is the contract.
func (c *Coordinator) JoinBots(ctx context.Context, roomID string, count int) []models.Player {
	var joined []models.Player
	for i := 0; i < count; i++ {
		if i > 0 && !c.waitJoinDelay(ctx) {
			break
		}
		p := c.JoinBot(ctx, roomID)
		if p == nil {
			break
		}
		joined = append(joined, *p)
	}
	return joined
}

func (c *Coordinator) waitJoinDelay(ctx context.Context) bool {
	fired := make(chan struct{})
	t := c.Clock.AfterFunc(c.cfg.JoinDelay, func() { close(fired) })
	defer t.Stop()
	select {
	case <-fired:
		return true
	case <-ctx.Done():
		return false
	}
}

// VerifyRoomEligibility is a non-mutating pre-check for callers that want a
// reason before attempting JoinBot. Inherently racy against concurrent
// mutation and therefore advisory only; the conditional update inside
// JoinBot remains the source of truth.
func (c *Coordinator) VerifyRoomEligibility(ctx context.Context, roomID string) Eligibility {
	room, err := c.store.GetRoom(ctx, roomID)
	if err != nil {
		return Eligibility{CanJoin: false, Reason: "Room not found"}
	}
	if room.GameStatus != models.StatusWaiting {
		return Eligibility{CanJoin: false, Reason: "Game not in waiting status"}
	}
	if room.IsFull() {
		return Eligibility{CanJoin: false, Reason: "Room is full"}
	}
	return Eligibility{CanJoin: true, Reason: "Room eligible"}
}

// GetStatus reports the coordinator's configuration. Introspection only.
func (c *Coordinator) GetStatus() Status {
	return Status{
		LockModeEnabled: c.Locker != nil,
		JoinDelayMillis: c.cfg.JoinDelay.Milliseconds(),
		MaxPlayers:      c.cfg.MaxPlayers,
		MaxBots:         c.cfg.MaxBots,
		Difficulty:      c.cfg.Difficulty,
	}
}
