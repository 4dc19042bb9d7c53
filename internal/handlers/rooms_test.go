// internal/handlers/rooms_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gadisaka/ethioludo-backend-sub001/internal/auth"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/bots"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/config"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/dispatch"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/models"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/rooms"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/store"
)

type nopMover struct{}

func (nopMover) DecideAndApplyMove(context.Context, string, string) error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	auth.Init() // ephemeral keys, no external deps

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	st := store.NewMemoryStore()
	cache := rooms.NewCache()
	hub := dispatch.NewHub(logger)

	scheduler := bots.NewTurnScheduler(cache, nopMover{}, time.Hour, logger)
	scheduler.Bind(hub)

	cfg := config.Config{MaxPlayers: 4, MaxBots: 3, BotJoinDelay: time.Millisecond}
	coordinator := bots.NewCoordinator(st, cache, hub, bots.Config{
		MaxPlayers: cfg.MaxPlayers,
		MaxBots:    cfg.MaxBots,
		Difficulty: "medium",
		JoinDelay:  cfg.BotJoinDelay,
	}, logger)
	coordinator.OnGameStart = scheduler.HandleTurnChange

	return &Server{
		Logger:      logger,
		Store:       st,
		Cache:       cache,
		Coordinator: coordinator,
		Scheduler:   scheduler,
		Hub:         hub,
		Cfg:         cfg,
	}
}

func createRoom(t *testing.T, srv *Server, hostName string, maxPlayers int) models.Room {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{
		"hostName":   hostName,
		"maxPlayers": maxPlayers,
	})
	req := httptest.NewRequest(http.MethodPost, "/rooms/create", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.CreateRoomHandler(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var room models.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))
	return room
}

func TestCreateRoom(t *testing.T) {
	srv := newTestServer(t)
	room := createRoom(t, srv, "Abel", 4)

	assert.NotEmpty(t, room.ID)
	assert.Equal(t, models.StatusWaiting, room.GameStatus)
	require.Len(t, room.Players, 1)
	assert.Equal(t, "Abel", room.Players[0].Name)
	assert.Equal(t, room.Players[0].ID, room.CurrentTurn, "host opens the rotation")

	_, ok := srv.Cache.Get(room.ID)
	assert.True(t, ok, "created room is mirrored immediately")
}

func TestCreateRoomRejectsOddCapacity(t *testing.T) {
	srv := newTestServer(t)
	room := createRoom(t, srv, "Abel", 3)
	assert.Equal(t, 4, room.MaxPlayers, "unsupported capacity falls back to the configured default")
}

func TestAddBots(t *testing.T) {
	srv := newTestServer(t)
	room := createRoom(t, srv, "Abel", 4)

	body, _ := json.Marshal(map[string]interface{}{"roomId": room.ID, "count": 2})
	req := httptest.NewRequest(http.MethodPost, "/rooms/bots", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.AddBotsHandler(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Requested int             `json:"requested"`
		Joined    []models.Player `json:"joined"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Requested)
	assert.Len(t, resp.Joined, 2)

	stored, err := srv.Store.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Players, 3)
	assert.Equal(t, models.StatusWaiting, stored.GameStatus)
}

func TestJoinRoomConflictWhenFull(t *testing.T) {
	srv := newTestServer(t)
	room := createRoom(t, srv, "Abel", 2)

	join := func(name string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]string{"roomId": room.ID, "name": name})
		req := httptest.NewRequest(http.MethodPost, "/rooms/join", bytes.NewReader(body))
		w := httptest.NewRecorder()
		srv.JoinRoomHandler(w, req)
		return w
	}

	require.Equal(t, http.StatusOK, join("Hana").Code)

	w := join("Sara")
	require.Equal(t, http.StatusConflict, w.Code)
	var elig bots.Eligibility
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &elig))
	assert.False(t, elig.CanJoin)
	assert.Equal(t, "Game not in waiting status", elig.Reason)
}

func TestEligibilityHandler(t *testing.T) {
	srv := newTestServer(t)
	room := createRoom(t, srv, "Abel", 4)

	req := httptest.NewRequest(http.MethodGet, "/rooms/eligibility?room_id="+room.ID, nil)
	w := httptest.NewRecorder()
	srv.EligibilityHandler(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var elig bots.Eligibility
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &elig))
	assert.True(t, elig.CanJoin)
	assert.Equal(t, "Room eligible", elig.Reason)
}

func TestDeleteRoom(t *testing.T) {
	srv := newTestServer(t)
	room := createRoom(t, srv, "Abel", 4)

	body, _ := json.Marshal(map[string]string{"roomId": room.ID})
	req := httptest.NewRequest(http.MethodPost, "/rooms/delete", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.DeleteRoomHandler(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	_, err := srv.Store.GetRoom(context.Background(), room.ID)
	assert.ErrorIs(t, err, store.ErrRoomNotFound)
	_, ok := srv.Cache.Get(room.ID)
	assert.False(t, ok)
}

func TestStatusHandler(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/bots/status", nil)
	w := httptest.NewRecorder()
	srv.StatusHandler(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Coordinator bots.Status          `json:"coordinator"`
		Scheduler   bots.SchedulerStatus `json:"scheduler"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Coordinator.MaxPlayers)
	assert.Equal(t, 0, resp.Scheduler.ActiveRoomCount)
}
