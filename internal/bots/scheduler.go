// internal/bots/scheduler.go
package bots

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/sirupsen/logrus"

	"github.com/Gadisaka/ethioludo-backend-sub001/internal/dispatch"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/models"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/rooms"
)

// Mover is the external collaborator that computes and applies a bot's move
// once its turn fires. It is expected to emit the turn-change notification
// that drives the next scheduling step.
type Mover interface {
	DecideAndApplyMove(ctx context.Context, roomID, botPlayerID string) error
}

// SchedulerStatus is the scheduler's introspection snapshot.
type SchedulerStatus struct {
	ActiveRoomCount  int   `json:"activeRoomCount"`
	ThinkDelayMillis int64 `json:"thinkDelayMillis"`
}

// pendingAction is the at-most-one outstanding bot move for a room.
// Identity of the struct pointer is the cancellation handle: the fire path
// only proceeds if its action is still the one installed for the room.
type pendingAction struct {
	playerID string
	timer    *quartz.Timer
}

// TurnScheduler owns, per room, at most one pending delayed bot move. Any
// turn change for a room first cancels the previous pending action, so rapid
// repeated notifications can never produce duplicate fires. The fire path
// re-validates against the room cache before delegating to the Mover,
// closing the race where cancellation loses to the timer.
type TurnScheduler struct {
	cache  *rooms.Cache
	mover  Mover
	clock  quartz.Clock
	think  time.Duration
	logger *logrus.Logger

	mu       sync.Mutex
	pending  map[string]*pendingAction
	notifier dispatch.Notifier
}

func NewTurnScheduler(cache *rooms.Cache, mover Mover, think time.Duration, logger *logrus.Logger) *TurnScheduler {
	return &TurnScheduler{
		cache:   cache,
		mover:   mover,
		clock:   quartz.NewReal(),
		think:   think,
		logger:  logger,
		pending: make(map[string]*pendingAction),
	}
}

// SetClock swaps the clock, for tests. Must be called before any scheduling.
func (s *TurnScheduler) SetClock(clock quartz.Clock) {
	s.clock = clock
}

// Bind attaches the dispatch handle. Must be called before turn changes are
// processed; calling it again rebinds, which tests rely on.
func (s *TurnScheduler) Bind(notifier dispatch.Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = notifier
}

// HandleTurnChange reacts to the turn moving to newHolderID in the room.
// A human holder cancels any pending bot action; a bot holder replaces it
// with a freshly scheduled one after the thinking delay.
func (s *TurnScheduler) HandleTurnChange(roomID, newHolderID string) {
	room, ok := s.cache.Get(roomID)
	if !ok {
		s.CancelRoom(roomID)
		return
	}
	holder := room.PlayerByID(newHolderID)
	isBot := holder != nil && holder.IsBot

	s.mu.Lock()
	if s.notifier == nil {
		s.mu.Unlock()
		s.logger.Warnf("TurnScheduler: turn change for room %s before Bind, ignoring", roomID)
		return
	}
	if prev, exists := s.pending[roomID]; exists {
		prev.timer.Stop()
		delete(s.pending, roomID)
	}
	if !isBot {
		s.mu.Unlock()
		return
	}

	act := &pendingAction{playerID: newHolderID}
	act.timer = s.clock.AfterFunc(s.think, func() {
		s.fire(roomID, act)
	})
	s.pending[roomID] = act
	notifier := s.notifier
	s.mu.Unlock()

	notifier.Notify(roomID, dispatch.EventBotThinking, map[string]interface{}{
		"playerId": newHolderID,
		"delayMs":  s.think.Milliseconds(),
	})
	s.logger.Debugf("TurnScheduler: scheduled move for bot %s in room %s", newHolderID, roomID)
}

// fire runs when a pending action's timer elapses. It is a silent no-op if
// the action was replaced or canceled, or if re-validation shows the room
// gone, no longer playing, or the turn advanced past this bot. Those are
// legitimate races, not faults.
func (s *TurnScheduler) fire(roomID string, act *pendingAction) {
	s.mu.Lock()
	if s.pending[roomID] != act {
		s.mu.Unlock()
		return
	}
	delete(s.pending, roomID)
	s.mu.Unlock()

	room, ok := s.cache.Get(roomID)
	if !ok || room.GameStatus != models.StatusPlaying || room.CurrentTurn != act.playerID {
		s.logger.Debugf("TurnScheduler: stale fire for bot %s in room %s, dropping", act.playerID, roomID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.mover.DecideAndApplyMove(ctx, roomID, act.playerID); err != nil {
		s.logger.Warnf("TurnScheduler: move for bot %s in room %s failed: %v", act.playerID, roomID, err)
	}
}

// CancelRoom drops any pending action for a torn-down room. The scheduler
// never keeps a handle referencing a removed room.
func (s *TurnScheduler) CancelRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, exists := s.pending[roomID]; exists {
		prev.timer.Stop()
		delete(s.pending, roomID)
	}
}

// GetStatus reports how many rooms have a pending bot action.
func (s *TurnScheduler) GetStatus() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SchedulerStatus{
		ActiveRoomCount:  len(s.pending),
		ThinkDelayMillis: s.think.Milliseconds(),
	}
}
