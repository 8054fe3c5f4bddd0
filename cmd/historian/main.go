// cmd/historian is an asynchronous service that pops room events from a Redis queue and
// persists them to PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/stakettt/internal/cache"
	"github.com/jason-s-yu/stakettt/internal/config"
	"github.com/jason-s-yu/stakettt/internal/database"
	"github.com/jason-s-yu/stakettt/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	pool, err := database.ConnectDB(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	writer := database.NewEventWriter(pool)
	if err := writer.EnsureSchema(ctx); err != nil {
		logger.Fatalf("schema: %v", err)
	}

	hs := historian.NewService(rdb, cfg.EventsQueue, writer, logger, cfg.HistorianBatchSize, cfg.HistorianFlush)
	hs.Run(ctx)
	logger.Info("Historian shutdown complete.")
}
