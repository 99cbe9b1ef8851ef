package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LogConfig holds the logger settings.
type LogConfig struct {
	Level     string
	Format    string
	Component string
	Source    bool
}

type Config struct {
	App struct {
		ENV string
	}

	Log LogConfig

	DB struct {
		Driver   string
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		Timeout  time.Duration
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	HTTP struct {
		Host string
		Port string
	}

	Likes struct {
		FreeQuota int
	}

	Typing struct {
		TTL time.Duration
	}

	Relay struct {
		QueueSize  int
		BusEnabled bool
		BusChannel string
	}
}

func New() *Config {
	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "production")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "connecta")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.Timeout = getDurationDefault("DB_TIMEOUT", 5*time.Second)
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.Driver == "sqlite" {
		cfg.DB.DSN = getEnvDefault("SQLITE_PATH", "connecta.db")
	} else if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "connecta")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getIntDefault("REDIS_DB", 0)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// HTTP (websocket + metrics)
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "127.0.0.1")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")

	cfg.Likes.FreeQuota = getIntDefault("LIKES_FREE_QUOTA", 5)
	cfg.Typing.TTL = getDurationDefault("TYPING_TTL", 10*time.Second)

	cfg.Relay.QueueSize = getIntDefault("RELAY_QUEUE_SIZE", 64)
	cfg.Relay.BusEnabled = isTruthy(os.Getenv("RELAY_BUS_ENABLED"))
	cfg.Relay.BusChannel = getEnvDefault("RELAY_BUS_CHANNEL", "connecta:relay")

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getIntDefault(k string, def int) int {
	if n, err := strconv.Atoi(getEnvDefault(k, "")); err == nil {
		return n
	}
	return def
}

// getDurationDefault accepts Go durations ("15s") or plain seconds ("15").
func getDurationDefault(k string, def time.Duration) time.Duration {
	v := getEnvDefault(k, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
