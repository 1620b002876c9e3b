package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig Postgres connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// RedisConfig Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT broker settings
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// BackendConfig settings for the records REST backend
type BackendConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// GetDSN returns the lib/pq connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// LoadFromEnv reads <prefix>_HOST, _PORT, _USER, _PASSWORD, _NAME, _SSLMODE,
// _MAX_CONNS and _MAX_IDLE; unset or unparsable values keep the current field
func (c *DatabaseConfig) LoadFromEnv(prefix string) {
	overrideString(&c.Host, prefix+"_HOST")
	overrideInt(&c.Port, prefix+"_PORT")
	overrideString(&c.User, prefix+"_USER")
	overrideString(&c.Password, prefix+"_PASSWORD")
	overrideString(&c.Database, prefix+"_NAME")
	overrideString(&c.SSLMode, prefix+"_SSLMODE")
	overrideInt(&c.MaxConns, prefix+"_MAX_CONNS")
	overrideInt(&c.MaxIdle, prefix+"_MAX_IDLE")
}

// LoadFromEnv reads <prefix>_ADDR, _PASSWORD and _DB
func (c *RedisConfig) LoadFromEnv(prefix string) {
	overrideString(&c.Addr, prefix+"_ADDR")
	overrideString(&c.Password, prefix+"_PASSWORD")
	overrideInt(&c.DB, prefix+"_DB")
}

// LoadFromEnv reads <prefix>_BROKER, _CLIENT_ID, _USERNAME, _PASSWORD and _QOS (0-2)
func (c *MQTTConfig) LoadFromEnv(prefix string) {
	overrideString(&c.Broker, prefix+"_BROKER")
	overrideString(&c.ClientID, prefix+"_CLIENT_ID")
	overrideString(&c.Username, prefix+"_USERNAME")
	overrideString(&c.Password, prefix+"_PASSWORD")
	qos := int(c.QoS)
	overrideInt(&qos, prefix+"_QOS")
	if qos >= 0 && qos <= 2 {
		c.QoS = byte(qos)
	}
}

// LoadFromEnv reads <prefix>_BASE_URL, _TOKEN and _TIMEOUT_SECONDS; a
// non-positive timeout is ignored
func (c *BackendConfig) LoadFromEnv(prefix string) {
	overrideString(&c.BaseURL, prefix+"_BASE_URL")
	overrideString(&c.Token, prefix+"_TOKEN")
	secs := 0
	overrideInt(&secs, prefix+"_TIMEOUT_SECONDS")
	if secs > 0 {
		c.Timeout = time.Duration(secs) * time.Second
	}
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}
