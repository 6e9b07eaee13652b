package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "session:", cfg.SessionPrefix)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.RateLimitUserPerWindow)
	assert.Equal(t, 100, cfg.RateLimitGlobalPerWindow)
	assert.Equal(t, 60*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, 30*time.Minute, cfg.APIKeyMaxAge)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("REDIS_READ_TIMEOUT", "250ms")
	t.Setenv("RATE_LIMIT_USER_PER_WINDOW", "5")
	t.Setenv("RATE_LIMIT_WINDOW_MS", "1500")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	assert.Equal(t, "9090", cfg.AppPort)
	assert.Equal(t, "redis:6380", cfg.RedisAddr)
	assert.Equal(t, 250*time.Millisecond, cfg.RedisReadTimeout)
	assert.Equal(t, 5, cfg.RateLimitUserPerWindow)
	assert.Equal(t, 1500*time.Millisecond, cfg.RateLimitWindow)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,, b "))
}
