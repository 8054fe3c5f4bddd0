// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/stakettt/internal/auth"
	"github.com/jason-s-yu/stakettt/internal/cache"
	"github.com/jason-s-yu/stakettt/internal/config"
	"github.com/jason-s-yu/stakettt/internal/database"
	"github.com/jason-s-yu/stakettt/internal/handlers"
	"github.com/jason-s-yu/stakettt/internal/kv"
	"github.com/jason-s-yu/stakettt/internal/lifecycle"
	"github.com/jason-s-yu/stakettt/internal/room"
	"github.com/jason-s-yu/stakettt/internal/sui"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()

	if err := auth.Init(); err != nil {
		logger.Fatalf("auth: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, events, cleanup, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("store backend %s: %v", cfg.StoreBackend, err)
	}
	defer cleanup()

	chain := sui.NewClient(sui.Config{
		Fullnodes:   cfg.Fullnodes,
		ExplorerURL: cfg.ExplorerURL,
		Timeout:     cfg.HTTPTimeout,
	})
	store := room.NewStore(backend, logger)
	rooms := room.NewService(store, events, logger, cfg.ControlMarker)
	ctrl := lifecycle.NewController(store, chain, events, logger)
	sched := lifecycle.NewScheduler(ctrl, cfg.PollInterval, logger)
	rooms.SetStopper(sched)

	srv := handlers.NewServer(logger, rooms, sched, chain, cfg.ControlMarker)
	srv.PingMessage = cfg.PingMessage

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(srv, cfg.AllowedOrigin),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{"addr": httpSrv.Addr, "backend": cfg.StoreBackend}).Info("Running")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	sched.StopAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
}

// openBackend builds the room registry backend and the event sink for cfg.StoreBackend.
// Events go to the Redis queue whenever Redis is the backend; otherwise they are only logged.
func openBackend(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (kv.Store, room.EventSink, func(), error) {
	logSink := room.LogSink{Log: logger}
	switch cfg.StoreBackend {
	case config.BackendRedis:
		rdb, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, nil, nil, err
		}
		return cache.NewRedisKV(rdb, cfg.RedisKeyPrefix),
			cache.NewEventQueue(rdb, cfg.EventsQueue),
			func() { closeRedis(rdb, logger) },
			nil

	case config.BackendPostgres:
		pool, err := database.ConnectDB(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, nil, err
		}
		pg := database.NewPostgresKV(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return pg, logSink, pool.Close, nil
	}
	return kv.NewMemory(), logSink, func() {}, nil
}

func closeRedis(rdb *redis.Client, logger *logrus.Logger) {
	if err := rdb.Close(); err != nil {
		logger.Warnf("redis close: %v", err)
	}
}
