package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_DefaultValues(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "BACKEND_BASE_URL", "REDIS_ENABLED", "NOTIFICATION_POLL_SECONDS", "PAYOUT_RECHECK_SECONDS", "DEFAULT_PAGE_SIZE", "DB_NAME", "MQTT_CLIENT_ID", "MQTT_QOS", "BACKEND_TIMEOUT_SECONDS"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "http://localhost:8000/api", cfg.Backend.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.False(t, cfg.RedisEnabled)
	assert.Equal(t, 30*time.Second, cfg.NotificationPoll)
	assert.Equal(t, 60*time.Second, cfg.PayoutRecheck)
	assert.Equal(t, 10, cfg.DefaultPageSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "barangay", cfg.Database.Database)
	assert.Equal(t, "barangay-console", cfg.MQTT.ClientID)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://records.example.gov/api")
	t.Setenv("BACKEND_TIMEOUT_SECONDS", "5")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("NOTIFICATION_POLL_SECONDS", "10")
	t.Setenv("PAYOUT_RECHECK_SECONDS", "-4")
	t.Setenv("DB_NAME", "records")
	t.Setenv("MQTT_REFRESH_TOPIC", "barangay/console/refresh")

	cfg := Load()
	assert.Equal(t, "https://records.example.gov/api", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 10*time.Second, cfg.NotificationPoll)
	// non-positive falls back to the default
	assert.Equal(t, 60*time.Second, cfg.PayoutRecheck)
	assert.Equal(t, "records", cfg.Database.Database)
	assert.Equal(t, "barangay/console/refresh", cfg.MQTTRefreshTopic)
}
