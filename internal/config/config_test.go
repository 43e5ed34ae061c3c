package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Success loading from env", func(t *testing.T) {
		// t.Setenv restores the variable automatically afterwards.
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("DB_USER", "testuser")
		t.Setenv("DB_PASSWORD", "testpass")
		t.Setenv("DB_NAME", "testdb")
		t.Setenv("DB_PORT", "5432")
		t.Setenv("APP_PORT", "8080")
		t.Setenv("APP_ENV", "test")
		t.Setenv("LOG_LEVEL", "warn")
		t.Setenv("API_BASE_URL", "https://api.example.test")
		t.Setenv("PUSH_URL", "wss://push.example.test/ws")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("INTERNAL_SECRET_KEY", "svc-key")
		t.Setenv("NOTIFICATION_POLL_INTERVAL", "10s")
		t.Setenv("ORDER_VIEW_CACHE_SIZE", "64")

		cfg := LoadConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "localhost", cfg.DBHost)
		assert.Equal(t, "testuser", cfg.DBUser)
		assert.Equal(t, "testpass", cfg.DBPassword)
		assert.Equal(t, "testdb", cfg.DBName)
		assert.Equal(t, "5432", cfg.DBPort)
		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, "test", cfg.AppEnv)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, "https://api.example.test", cfg.APIBaseURL)
		assert.Equal(t, "wss://push.example.test/ws", cfg.PushURL)
		assert.Equal(t, "secret", cfg.JWTSecret)
		assert.Equal(t, "svc-key", cfg.InternalServiceKey)
		assert.Equal(t, "postgres", cfg.GuestCartBackend)
		assert.Equal(t, 10*time.Second, cfg.PollInterval)
		assert.Equal(t, 64, cfg.OrderViewSize)
	})

	t.Run("Defaults for optional values", func(t *testing.T) {
		t.Setenv("API_BASE_URL", "https://api.example.test")
		t.Setenv("GUEST_CART_BACKEND", "memory")
		t.Setenv("DB_HOST", "")
		t.Setenv("NOTIFICATION_POLL_INTERVAL", "not-a-duration")
		t.Setenv("ORDER_VIEW_CACHE_SIZE", "")

		cfg := LoadConfig()

		assert.Equal(t, "memory", cfg.GuestCartBackend)
		assert.Equal(t, 30*time.Second, cfg.PollInterval)
		assert.Equal(t, 15*time.Second, cfg.APITimeout)
		assert.Equal(t, 50, cfg.NotificationPage)
		assert.Equal(t, time.Minute, cfg.OrderViewTTL)
		assert.Equal(t, 1024, cfg.OrderViewSize)
	})
}
