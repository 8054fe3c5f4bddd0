// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/stakettt/internal/database"
	"github.com/jason-s-yu/stakettt/internal/models"
	"github.com/sirupsen/logrus"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config is the process configuration, read once from the environment at startup.
type Config struct {
	Port        string
	AppEnv      string
	LogLevel    logrus.Level
	PingMessage string

	StoreBackend   string
	RedisAddr      string
	RedisDB        int
	RedisKeyPrefix string
	EventsQueue    string
	Postgres       database.Params

	Fullnodes     map[models.Network]string
	ExplorerURL   string
	ControlMarker string
	PollInterval  time.Duration
	HTTPTimeout   time.Duration
	AllowedOrigin string

	HistorianBatchSize int
	HistorianFlush     time.Duration
}

// Load reads every setting, applying defaults. Only malformed values are errors; missing
// ones fall back.
func Load() (*Config, error) {
	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		AppEnv:      getEnv("APP_ENV", "development"),
		LogLevel:    level,
		PingMessage: getEnv("PING_MESSAGE", "ping"),

		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "ttt:"),
		EventsQueue:    getEnv("ROOM_EVENTS_QUEUE", "ttt_room_events"),
		Postgres: database.Params{
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Database: getEnv("PG_DATABASE", "stakettt"),
		},

		Fullnodes: map[models.Network]string{
			models.Mainnet: getEnv("SUI_MAINNET_URL", "https://fullnode.mainnet.sui.io:443"),
			models.Testnet: getEnv("SUI_TESTNET_URL", "https://fullnode.testnet.sui.io:443"),
		},
		ExplorerURL:   getEnv("SUI_EXPLORER_URL", "https://explorer.sui.io"),
		ControlMarker: getEnv("CONTROL_TYPE_MARKER", "::ttt::Control"),
		AllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "*"),

		HistorianBatchSize: getEnvInt("HISTORIAN_BATCH_SIZE", 20),
	}

	if cfg.PollInterval, err = getEnvDuration("POLL_INTERVAL", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getEnvDuration("HTTP_TIMEOUT", 8*time.Second); err != nil {
		return nil, err
	}
	cfg.HistorianFlush = time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond

	switch cfg.StoreBackend {
	case BackendMemory, BackendRedis, BackendPostgres:
	default:
		return nil, fmt.Errorf("STORE_BACKEND: unknown backend %q", cfg.StoreBackend)
	}
	return cfg, nil
}

// NewLogger builds the process logger: JSON in production, text otherwise.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)
	if c.AppEnv == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// getEnv retrieves an environment variable's value or returns a default.
func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

// getEnvInt retrieves an integer value from an environment variable or returns a default value.
func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}

func getEnvDuration(key string, defVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive", key)
	}
	return d, nil
}
