// internal/handlers/ws.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/Gadisaka/ethioludo-backend-sub001/internal/auth"
)

// RoomWSHandler upgrades the connection and subscribes it to the room's
// event feed. Clients only receive events on this channel; all mutations go
// through the HTTP endpoints.
// GET /rooms/ws/{room_id}
func (s *Server) RoomWSHandler(w http.ResponseWriter, r *http.Request) {
	roomID := strings.TrimPrefix(r.URL.Path, "/rooms/ws/")
	if roomID == "" || strings.Contains(roomID, "/") {
		http.Error(w, "missing room_id in path (/rooms/ws/{room_id})", http.StatusBadRequest)
		return
	}
	if _, ok := s.Cache.Get(roomID); !ok {
		if _, err := s.Store.GetRoom(r.Context(), roomID); err != nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
	}

	// Identify the guest before upgrading so we can still set the cookie.
	viewerID := ensureGuest(w, r)

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{"ludo"},
		OriginPatterns: []string{"*"}, // Adjust for production security.
	})
	if err != nil {
		s.Logger.Warnf("WebSocket accept error for room %s: %v", roomID, err)
		return
	}
	if c.Subprotocol() != "ludo" {
		c.Close(websocket.StatusPolicyViolation, "client must use the 'ludo' subprotocol")
		return
	}
	s.Logger.Infof("Viewer %s connected to room %s from %s", viewerID, roomID, r.RemoteAddr)

	conn := s.Hub.Subscribe(r.Context(), roomID, c)
	defer conn.Leave()

	// Read loop exists only to observe the close; clients do not send.
	ctx := r.Context()
	for {
		if _, _, err := c.Read(ctx); err != nil {
			s.Logger.Debugf("Viewer %s left room %s: %v", viewerID, roomID, err)
			return
		}
	}
}

// ensureGuest returns the player ID from the auth cookie, minting a fresh
// guest identity (and cookie) when none is present or the token is invalid.
func ensureGuest(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie("auth_token"); err == nil {
		if id, err := auth.VerifyGuestToken(cookie.Value); err == nil {
			return id
		}
	}
	id := uuid.NewString()
	if token, err := auth.CreateGuestToken(id); err == nil {
		http.SetCookie(w, &http.Cookie{Name: "auth_token", Value: token, Path: "/"})
	}
	return id
}
