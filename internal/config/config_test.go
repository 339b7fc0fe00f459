package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://www.gdacs.org/gdacsapi/api/events/geteventlist/SEARCH", cfg.Feed.GDACSURL)
	assert.Equal(t, time.Duration(0), cfg.Feed.RefreshInterval)
	assert.Equal(t, 30*time.Second, cfg.LiveFeed.PollInterval)
	assert.True(t, cfg.LiveFeed.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("API_BASE_URL", "https://backend.example.org/")
	t.Setenv("LIVE_POLL_INTERVAL", "3s")
	t.Setenv("FEED_REFRESH_INTERVAL", "15m")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://backend.example.org", cfg.Backend.BaseURL, "trailing slash is trimmed")
	assert.Equal(t, 3*time.Second, cfg.LiveFeed.PollInterval)
	assert.Equal(t, 15*time.Minute, cfg.Feed.RefreshInterval)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port out of range", "SERVER_PORT", "70000"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"relative backend url", "API_BASE_URL", "backend"},
		{"refresh too frequent", "FEED_REFRESH_INTERVAL", "10s"},
		{"poll too frequent", "LIVE_POLL_INTERVAL", "100ms"},
		{"no workers", "WORKER_COUNT", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
