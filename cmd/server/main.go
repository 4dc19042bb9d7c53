// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/Gadisaka/ethioludo-backend-sub001/internal/auth"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/bots"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/config"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/dispatch"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/game"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/handlers"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/lock"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/middleware"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/rooms"
	"github.com/Gadisaka/ethioludo-backend-sub001/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	auth.Init()
	ctx := context.Background()

	var roomStore store.RoomStore
	switch cfg.StoreDriver {
	case "postgres":
		pg, err := store.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("postgres store: %v", err)
		}
		defer pg.Close()
		roomStore = pg
	case "mongo":
		mg, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Fatalf("mongo store: %v", err)
		}
		defer mg.Close(ctx)
		roomStore = mg
	case "memory":
		roomStore = store.NewMemoryStore()
	default:
		log.Fatalf("unknown store driver %q", cfg.StoreDriver)
	}
	logger.Infof("Room store driver: %s", cfg.StoreDriver)

	cache := rooms.NewCache()
	hub := dispatch.NewHub(logger)

	mover := game.NewAutoMover(roomStore, cache, hub, logger)
	scheduler := bots.NewTurnScheduler(cache, mover, cfg.BotThinkDelay, logger)
	scheduler.Bind(hub)
	mover.OnTurnChange = scheduler.HandleTurnChange

	coordinator := bots.NewCoordinator(roomStore, cache, hub, bots.Config{
		MaxPlayers: cfg.MaxPlayers,
		MaxBots:    cfg.MaxBots,
		Difficulty: cfg.BotDifficulty,
		JoinDelay:  cfg.BotJoinDelay,
		ThinkDelay: cfg.BotThinkDelay,
		LockTTL:    cfg.LockTTL,
	}, logger)
	coordinator.OnGameStart = scheduler.HandleTurnChange

	if cfg.LockMode {
		rdb, err := lock.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		coordinator.Locker = lock.NewRedisLocker(rdb)
		logger.Info("Distributed admission lock enabled")
	}

	srv := &handlers.Server{
		Logger:      logger,
		Store:       roomStore,
		Cache:       cache,
		Coordinator: coordinator,
		Scheduler:   scheduler,
		Hub:         hub,
		Cfg:         cfg,
	}

	mux := http.NewServeMux()
	logged := middleware.LogMiddleware(logger)

	mux.Handle("/rooms/create", logged(http.HandlerFunc(srv.CreateRoomHandler)))
	mux.Handle("/rooms/list", logged(http.HandlerFunc(srv.ListRoomsHandler)))
	mux.Handle("/rooms/join", logged(http.HandlerFunc(srv.JoinRoomHandler)))
	mux.Handle("/rooms/bots", logged(http.HandlerFunc(srv.AddBotsHandler)))
	mux.Handle("/rooms/eligibility", logged(http.HandlerFunc(srv.EligibilityHandler)))
	mux.Handle("/rooms/delete", logged(http.HandlerFunc(srv.DeleteRoomHandler)))
	mux.Handle("/bots/status", logged(http.HandlerFunc(srv.StatusHandler)))

	// WS route skips the logging wrapper: the recorder would hide the
	// Hijacker the upgrade needs.
	mux.Handle("/rooms/ws/", http.HandlerFunc(srv.RoomWSHandler))

	addr := ":" + cfg.Port
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
