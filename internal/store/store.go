// internal/store/store.go
package store

import (
	"context"
	"errors"

	"github.com/Gadisaka/ethioludo-backend-sub001/internal/models"
)

// ErrRoomNotFound is returned by reads when no room exists with the given ID.
var ErrRoomNotFound = errors.New("room not found")

// RoomStore is the authoritative storage for room documents. Its
// AddPlayerIfWaiting primitive is the sole source of cross-process atomicity
// for admissions: the predicate check and the mutation happen in a single
// conditional update, so two concurrent callers never both claim the last
// seat.
type RoomStore interface {
	// CreateRoom persists a new room document.
	CreateRoom(ctx context.Context, room *models.Room) error

	// GetRoom fetches a room by ID. Returns ErrRoomNotFound if absent.
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)

	// AddPlayerIfWaiting appends the player to the room's seating if and
	// only if the room is still in waiting status and has a free seat. When
	// the append fills the last seat, the same update flips the room to
	// playing. Returns the post-update document, or (nil, nil) when the
	// predicate did not hold — predicate failure is an expected outcome of
	// contention, not an error.
	AddPlayerIfWaiting(ctx context.Context, roomID string, p models.Player) (*models.Room, error)

	// SetTurnState records the last roll and hands the turn to the given
	// player. Returns the post-update document, or (nil, nil) if the room
	// is gone or no longer playing.
	SetTurnState(ctx context.Context, roomID, currentTurn string, lastRoll int) (*models.Room, error)

	// ListWaiting returns all rooms currently accepting joins.
	ListWaiting(ctx context.Context) ([]models.Room, error)

	// DeleteRoom removes a room document. Deleting an absent room is a no-op.
	DeleteRoom(ctx context.Context, roomID string) error
}
