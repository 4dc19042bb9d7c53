// internal/store/memory.go
package store

import (
	"context"
	"sync"

	"github.com/Gadisaka/ethioludo-backend-sub001/internal/models"
)

// MemoryStore is an in-process RoomStore for tests and single-node
// deployments. Every operation holds the store mutex, so the conditional
// update has the same check-then-mutate atomicity as the real backends.
type MemoryStore struct {
	mu    sync.Mutex
	rooms map[string]*models.Room
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]*models.Room)}
}

func (s *MemoryStore) CreateRoom(_ context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (s *MemoryStore) GetRoom(_ context.Context, roomID string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return cloneRoom(r), nil
}

func (s *MemoryStore) AddPlayerIfWaiting(_ context.Context, roomID string, p models.Player) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return nil, nil
	}
	if r.GameStatus != models.StatusWaiting || len(r.Players) >= r.MaxPlayers {
		return nil, nil
	}
	r.Players = append(r.Players, p)
	if len(r.Players) >= r.MaxPlayers {
		r.GameStatus = models.StatusPlaying
	}
	return cloneRoom(r), nil
}

func (s *MemoryStore) SetTurnState(_ context.Context, roomID, currentTurn string, lastRoll int) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok || r.GameStatus != models.StatusPlaying {
		return nil, nil
	}
	r.CurrentTurn = currentTurn
	r.LastRoll = lastRoll
	return cloneRoom(r), nil
}

func (s *MemoryStore) ListWaiting(_ context.Context) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Room
	for _, r := range s.rooms {
		if r.GameStatus == models.StatusWaiting {
			out = append(out, *cloneRoom(r))
		}
	}
	return out, nil
}

func (s *MemoryStore) DeleteRoom(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	return nil
}

// cloneRoom copies the document so callers never alias the stored slice.
func cloneRoom(r *models.Room) *models.Room {
	cp := *r
	cp.Players = make([]models.Player, len(r.Players))
	copy(cp.Players, r.Players)
	return &cp
}
