package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV":                "test",
		"APP_PORT":               "8080",
		"DB_USER":                "root",
		"DB_HOST":                "localhost",
		"DB_PORT":                "3306",
		"DB_NAME":                "tickets",
		"JWT_SECRET":             "secret",
		"ACCESS_TOKEN_TTL_MIN":   "15",
		"REFRESH_TOKEN_TTL_DAYS": "7",
		"BCRYPT_COST":            "4",
	} {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("GATEWAY_SERVER_KEY", "sk")
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15, cfg.AccessTTLMin)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, "sk", cfg.Gateway.ServerKey)
	assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
	assert.True(t, cfg.Gateway.VerifySignature)
	assert.Empty(t, cfg.RabbitMQ.URL)
	assert.Equal(t, "tickets.issued", cfg.RabbitMQ.TicketsQueue)
	assert.Equal(t, "logs", cfg.RabbitMQ.LogDir)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("GATEWAY_VERIFY_SIGNATURE", "off")
	t.Setenv("RABBITMQ_URL", "amqp://u:p@mq:5672/")
	t.Setenv("DB_AUTO_MIGRATE", "0")

	cfg := Load()
	assert.Equal(t, 3*time.Second, cfg.Gateway.Timeout)
	assert.False(t, cfg.Gateway.VerifySignature)
	assert.Equal(t, "amqp://u:p@mq:5672/", cfg.RabbitMQ.URL)
	assert.False(t, cfg.AutoMigrate)
}

func TestLoadRateLimitConfig_Normalises(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)

	w := cfg.WebhookRateLimit()
	assert.Equal(t, "ip_route", w.KeyStrategy)
	assert.Equal(t, "rl:webhook", w.Prefix)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_ENABLED", "false")

	cfg := LoadCacheConfig()
	assert.False(t, cfg.Enabled)
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
}
