// internal/handlers/rooms.go
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Gadisaka/ethioludo-backend-sub001/internal/auth"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/bots"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/config"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/dispatch"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/models"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/rooms"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/store"
)

// Server bundles the collaborators the HTTP surface needs.
type Server struct {
	Logger      *logrus.Logger
	Store       store.RoomStore
	Cache       *rooms.Cache
	Coordinator *bots.Coordinator
	Scheduler   *bots.TurnScheduler
	Hub         *dispatch.Hub
	Cfg         config.Config
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// CreateRoomHandler builds a new waiting room seated with its human host.
// POST /rooms/create {"hostName": "...", "maxPlayers": 4}
func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		HostName   string `json:"hostName"`
		MaxPlayers int    `json:"maxPlayers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.HostName == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	maxPlayers := req.MaxPlayers
	if maxPlayers != 2 && maxPlayers != 4 {
		maxPlayers = s.Cfg.MaxPlayers
	}

	host := models.Player{
		ID:     uuid.NewString(),
		Name:   req.HostName,
		Color:  models.Palette[0],
		UserID: uuid.NewString(),
	}
	room := &models.Room{
		ID:          uuid.NewString(),
		Players:     []models.Player{host},
		GameStatus:  models.StatusWaiting,
		CurrentTurn: host.ID,
		MaxPlayers:  maxPlayers,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Store.CreateRoom(r.Context(), room); err != nil {
		s.Logger.Warnf("CreateRoom: store insert failed: %v", err)
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}
	s.Cache.Put(room)

	token, err := auth.CreateGuestToken(host.ID)
	if err == nil {
		http.SetCookie(w, &http.Cookie{Name: "auth_token", Value: token, Path: "/"})
	}
	writeJSON(w, http.StatusOK, room)
}

// ListRoomsHandler returns all rooms still accepting joins.
// GET /rooms/list
func (s *Server) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	waiting, err := s.Store.ListWaiting(r.Context())
	if err != nil {
		s.Logger.Warnf("ListRooms: store query failed: %v", err)
		http.Error(w, "failed to list rooms", http.StatusInternalServerError)
		return
	}
	if waiting == nil {
		waiting = []models.Room{}
	}
	writeJSON(w, http.StatusOK, waiting)
}

// JoinRoomHandler seats a human player through the same conditional update
// that serializes bot admissions, so humans and bots contend fairly for the
// last seat.
// POST /rooms/join {"roomId": "...", "name": "..."}
func (s *Server) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		RoomID string `json:"roomId"`
		Name   string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomID == "" || req.Name == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	room, err := s.Store.GetRoom(r.Context(), req.RoomID)
	if err != nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	player := models.Player{
		ID:     uuid.NewString(),
		Name:   req.Name,
		Color:  pickHumanColor(room.Players),
		UserID: uuid.NewString(),
	}
	updated, err := s.Store.AddPlayerIfWaiting(r.Context(), req.RoomID, player)
	if err != nil {
		s.Logger.Warnf("JoinRoom: conditional update failed for room %s: %v", req.RoomID, err)
		http.Error(w, "failed to join room", http.StatusInternalServerError)
		return
	}
	if updated == nil {
		elig := s.Coordinator.VerifyRoomEligibility(r.Context(), req.RoomID)
		writeJSON(w, http.StatusConflict, elig)
		return
	}

	s.Cache.Put(updated)
	s.Hub.Notify(updated.ID, dispatch.EventPlayerJoined, player.Public())
	if updated.GameStatus == models.StatusPlaying {
		s.Hub.Notify(updated.ID, dispatch.EventGameStarted, map[string]interface{}{
			"currentTurn": updated.CurrentTurn,
		})
		s.Scheduler.HandleTurnChange(updated.ID, updated.CurrentTurn)
	}

	token, err := auth.CreateGuestToken(player.ID)
	if err == nil {
		http.SetCookie(w, &http.Cookie{Name: "auth_token", Value: token, Path: "/"})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"room":   updated,
		"player": player,
	})
}

// AddBotsHandler admits up to count bots into a room.
// POST /rooms/bots {"roomId": "...", "count": 3}
func (s *Server) AddBotsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		RoomID string `json:"roomId"`
		Count  int    `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomID == "" || req.Count < 1 {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	joined := s.Coordinator.JoinBots(r.Context(), req.RoomID, req.Count)
	if joined == nil {
		joined = []models.Player{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"requested": req.Count,
		"joined":    joined,
	})
}

// EligibilityHandler exposes the advisory admission pre-check.
// GET /rooms/eligibility?room_id=...
func (s *Server) EligibilityHandler(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		http.Error(w, "missing room_id", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.Coordinator.VerifyRoomEligibility(r.Context(), roomID))
}

// DeleteRoomHandler tears a room down: store, cache, pending bot actions
// and the live WS channel.
// POST /rooms/delete {"roomId": "..."}
func (s *Server) DeleteRoomHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		RoomID string `json:"roomId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.Store.DeleteRoom(r.Context(), req.RoomID); err != nil {
		s.Logger.Warnf("DeleteRoom: store delete failed for %s: %v", req.RoomID, err)
		http.Error(w, "failed to delete room", http.StatusInternalServerError)
		return
	}
	s.Scheduler.CancelRoom(req.RoomID)
	s.Cache.Delete(req.RoomID)
	s.Hub.CloseRoom(req.RoomID)
	writeJSON(w, http.StatusOK, map[string]string{"deleted": req.RoomID})
}

// StatusHandler reports coordinator and scheduler introspection.
// GET /bots/status
func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"coordinator": s.Coordinator.GetStatus(),
		"scheduler":   s.Scheduler.GetStatus(),
	})
}

// pickHumanColor mirrors the bot color policy for human joins.
func pickHumanColor(existing []models.Player) string {
	taken := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		taken[p.Color] = struct{}{}
	}
	for _, c := range models.Palette {
		if _, ok := taken[c]; !ok {
			return c
		}
	}
	return models.FallbackColor
}
