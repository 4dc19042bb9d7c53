// internal/rooms/cache.go
package rooms

import (
	"sync"

	"github.com/Gadisaka/ethioludo-backend-sub001/internal/models"
)

// Cache is the in-process mirror of authoritative room state. It is written
// only after a confirmed store success and read by the dispatch and
// scheduling layers, so they can act without an extra store round-trip. It
// is a fast path, never an independent source of truth.
type Cache struct {
	mu    sync.Mutex
	rooms map[string]*models.Room
}

func NewCache() *Cache {
	return &Cache{rooms: make(map[string]*models.Room)}
}

// Put mirrors the given post-update document, replacing any prior entry.
func (c *Cache) Put(room *models.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[room.ID] = clone(room)
}

// Get returns a copy of the mirrored room, if present.
func (c *Cache) Get(roomID string) (*models.Room, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rooms[roomID]
	if !ok {
		return nil, false
	}
	return clone(r), true
}

// Delete drops the mirror entry for a torn-down room.
func (c *Cache) Delete(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, roomID)
}

// Len reports how many rooms are mirrored.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rooms)
}

func clone(r *models.Room) *models.Room {
	cp := *r
	cp.Players = make([]models.Player, len(r.Players))
	copy(cp.Players, r.Players)
	return &cp
}
