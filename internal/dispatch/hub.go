// internal/dispatch/hub.go
package dispatch

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

// Hub is the WebSocket fan-out for room events. Each connection gets a
// buffered out channel; sends are non-blocking so one slow consumer can
// never stall admission or scheduling.
type Hub struct {
	logger *logrus.Logger

	mu      sync.Mutex
	members map[string]map[*Conn]struct{}
}

// Conn is a single subscriber's presence in a room.
type Conn struct {
	hub    *Hub
	roomID string
	ws     *websocket.Conn
	out    chan []byte
	cancel context.CancelFunc
}

// NewHub builds an empty hub.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		logger:  logger,
		members: make(map[string]map[*Conn]struct{}),
	}
}

// Subscribe registers a WebSocket connection as a member of the room and
// starts its write pump. The returned Conn is removed automatically when the
// pump exits.
func (h *Hub) Subscribe(ctx context.Context, roomID string, ws *websocket.Conn) *Conn {
	ctx, cancel := context.WithCancel(ctx)
	conn := &Conn{
		hub:    h,
		roomID: roomID,
		ws:     ws,
		out:    make(chan []byte, 32),
		cancel: cancel,
	}

	h.mu.Lock()
	if h.members[roomID] == nil {
		h.members[roomID] = make(map[*Conn]struct{})
	}
	h.members[roomID][conn] = struct{}{}
	h.mu.Unlock()

	go conn.writePump(ctx)
	return conn
}

// Notify broadcasts the event to every member of the room. Messages to full
// channels are dropped and logged, never waited on.
func (h *Hub) Notify(roomID, event string, payload map[string]interface{}) {
	msg, err := json.Marshal(map[string]interface{}{
		"type":    event,
		"roomId":  roomID,
		"payload": payload,
	})
	if err != nil {
		h.logger.Warnf("Hub: failed to marshal %s event for room %s: %v", event, roomID, err)
		return
	}

	h.mu.Lock()
	conns := make([]*Conn, 0, len(h.members[roomID]))
	for c := range h.members[roomID] {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		select {
		case c.out <- msg:
		default:
			h.logger.Warnf("Hub: out channel full for a member of room %s, dropped %s event", roomID, event)
		}
	}
}

// CloseRoom notifies members that the room is gone and drops them all.
func (h *Hub) CloseRoom(roomID string) {
	h.Notify(roomID, EventRoomClosed, nil)

	h.mu.Lock()
	conns := h.members[roomID]
	delete(h.members, roomID)
	h.mu.Unlock()

	for c := range conns {
		c.cancel()
	}
}

// RoomMembers reports the current subscriber count for a room.
func (h *Hub) RoomMembers(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.members[roomID])
}

// Leave removes the connection from its room and stops its pump.
func (c *Conn) Leave() {
	c.hub.mu.Lock()
	if set, ok := c.hub.members[c.roomID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(c.hub.members, c.roomID)
		}
	}
	c.hub.mu.Unlock()
	c.cancel()
}

func (c *Conn) writePump(ctx context.Context) {
	defer c.ws.Close(websocket.StatusNormalClosure, "room channel closed")
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.out:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.ws.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				c.hub.logger.Debugf("Hub: write to member of room %s failed: %v", c.roomID, err)
				c.Leave()
				return
			}
		}
	}
}
