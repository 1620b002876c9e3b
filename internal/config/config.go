package config

import (
	"os"
	"strconv"
	"time"

	commoncfg "github.com/Maristella28/Bms-1125-sub002/common/config"
)

// Config barangay-console gateway configuration
type Config struct {
	HTTP struct {
		Addr string
	}
	Log struct {
		Level  string
		Format string
	}
	Backend commoncfg.BackendConfig

	RedisEnabled bool
	Redis        commoncfg.RedisConfig
	// SnapshotTTL lifetime of the offline resident snapshot
	SnapshotTTL time.Duration

	Database commoncfg.DatabaseConfig

	MQTTEnabled bool
	MQTT        commoncfg.MQTTConfig
	MQTTTopic   string

	// MQTTRefreshTopic inbound messages trigger an immediate notification poll; empty disables
	MQTTRefreshTopic string

	NotificationPoll time.Duration
	PayoutRecheck    time.Duration
	DefaultPageSize  int
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Backend = commoncfg.BackendConfig{BaseURL: "http://localhost:8000/api", Timeout: 15 * time.Second}
	cfg.Backend.LoadFromEnv("BACKEND")

	// Off by default: the snapshot falls back to an in-process store.
	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis = commoncfg.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")
	cfg.SnapshotTTL = seconds("SNAPSHOT_TTL_SECONDS", 24*60*60)

	cfg.Database = commoncfg.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "barangay",
		SSLMode:  "disable",
		MaxConns: 5,
		MaxIdle:  2,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.MQTTEnabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT = commoncfg.MQTTConfig{Broker: "tcp://localhost:1883", ClientID: "barangay-console", QoS: 1}
	cfg.MQTT.LoadFromEnv("MQTT")
	cfg.MQTTTopic = getEnv("MQTT_TOPIC", "barangay/console/notices")
	cfg.MQTTRefreshTopic = getEnv("MQTT_REFRESH_TOPIC", "")

	cfg.NotificationPoll = seconds("NOTIFICATION_POLL_SECONDS", 30)
	cfg.PayoutRecheck = seconds("PAYOUT_RECHECK_SECONDS", 60)
	cfg.DefaultPageSize = parseInt(getEnv("DEFAULT_PAGE_SIZE", "10"), 10)

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func seconds(key string, def int) time.Duration {
	n := parseInt(getEnv(key, strconv.Itoa(def)), def)
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}
