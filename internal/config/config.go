package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Feed     FeedConfig
	LiveFeed LiveFeedConfig
	Worker   WorkerConfig
	DB       DatabaseConfig
	Kafka    KafkaConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host          string
	Port          int
	RateLimitRPS  int
	AllowOrigins  []string
	ShutdownGrace time.Duration
}

// BackendConfig points at the application backend that owns SOS messages
// and announcements.
type BackendConfig struct {
	BaseURL string
}

type FeedConfig struct {
	GDACSURL string
	// RefreshInterval of 0 disables periodic refresh; the feed is then only
	// fetched on startup and on manual refresh.
	RefreshInterval time.Duration
}

type LiveFeedConfig struct {
	Enabled      bool
	PollInterval time.Duration
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type DatabaseConfig struct {
	Path string
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:          getEnv("SERVER_HOST", "localhost"),
			Port:          getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS:  getEnvInt("RATE_LIMIT_RPS", 5),
			AllowOrigins:  getEnvList("CORS_ALLOW_ORIGINS", []string{"*"}),
			ShutdownGrace: getEnvDuration("SHUTDOWN_GRACE", 10*time.Second),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:5000"), "/"),
		},
		Feed: FeedConfig{
			GDACSURL:        getEnv("GDACS_URL", "https://www.gdacs.org/gdacsapi/api/events/geteventlist/SEARCH"),
			RefreshInterval: getEnvDuration("FEED_REFRESH_INTERVAL", 0),
		},
		LiveFeed: LiveFeedConfig{
			Enabled:      getEnvBool("LIVE_FEED_ENABLED", true),
			PollInterval: getEnvDuration("LIVE_POLL_INTERVAL", 30*time.Second),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 100),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", ":memory:"),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC", "disaster-events"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("invalid rate limit: %d", c.Server.RateLimitRPS)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if _, err := url.ParseRequestURI(c.Backend.BaseURL); err != nil {
		return fmt.Errorf("invalid API_BASE_URL %q: %w", c.Backend.BaseURL, err)
	}
	if _, err := url.ParseRequestURI(c.Feed.GDACSURL); err != nil {
		return fmt.Errorf("invalid GDACS_URL %q: %w", c.Feed.GDACSURL, err)
	}

	if c.Feed.RefreshInterval != 0 && c.Feed.RefreshInterval < time.Minute {
		return fmt.Errorf("feed refresh interval must be 0 or at least 1 minute")
	}
	if c.LiveFeed.PollInterval < time.Second {
		return fmt.Errorf("live poll interval must be at least 1 second")
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Worker.BufferSize < 0 {
		return fmt.Errorf("worker buffer size must not be negative")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping blank entries.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
