// internal/game/automover.go
package game

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/Gadisaka/ethioludo-backend-sub001/internal/dispatch"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/models"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/rooms"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/store"
)

// AutoMover is the default bot-decision collaborator: it rolls the die,
// persists the roll and the next turn-holder through the store, mirrors the
// result into the cache, and notifies the room. Move legality beyond the
// basic turn rotation is not this component's business.
type AutoMover struct {
	store    store.RoomStore
	cache    *rooms.Cache
	notifier dispatch.Notifier
	logger   *logrus.Logger

	// Roll is injectable for tests; defaults to a fair six-sided die.
	Roll func() int

	// OnTurnChange feeds the resulting turn change back into the scheduler.
	OnTurnChange func(roomID, playerID string)
}

func NewAutoMover(st store.RoomStore, cache *rooms.Cache, notifier dispatch.Notifier, logger *logrus.Logger) *AutoMover {
	return &AutoMover{
		store:    st,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
		Roll:     func() int { return rand.Intn(6) + 1 },
	}
}

// DecideAndApplyMove rolls for the bot and advances the turn. Rolling a six
// keeps the turn, matching standard Ludo rotation.
func (m *AutoMover) DecideAndApplyMove(ctx context.Context, roomID, botPlayerID string) error {
	room, err := m.store.GetRoom(ctx, roomID)
	if err != nil {
		return fmt.Errorf("room %s read failed: %w", roomID, err)
	}
	if room.GameStatus != models.StatusPlaying || room.CurrentTurn != botPlayerID {
		// The game moved on between fire and apply. Nothing to do.
		m.logger.Debugf("AutoMover: bot %s no longer on turn in room %s", botPlayerID, roomID)
		return nil
	}

	roll := m.Roll()
	next := botPlayerID
	if roll != 6 {
		next = room.NextSeat(botPlayerID)
		if next == "" {
			return fmt.Errorf("bot %s not seated in room %s", botPlayerID, roomID)
		}
	}

	updated, err := m.store.SetTurnState(ctx, roomID, next, roll)
	if err != nil {
		return fmt.Errorf("turn update failed for room %s: %w", roomID, err)
	}
	if updated == nil {
		m.logger.Debugf("AutoMover: room %s gone or finished before turn update", roomID)
		return nil
	}

	m.cache.Put(updated)
	m.notifier.Notify(roomID, dispatch.EventDiceRolled, map[string]interface{}{
		"playerId": botPlayerID,
		"roll":     roll,
	})
	m.notifier.Notify(roomID, dispatch.EventTurnChanged, map[string]interface{}{
		"playerId": next,
	})
	if m.OnTurnChange != nil {
		m.OnTurnChange(roomID, next)
	}
	return nil
}
