package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string
	LogLevel   string

	// Remote commerce API.
	APIBaseURL string
	PushURL    string
	APITimeout time.Duration

	JWTSecret string

	// Shared secret of trusted internal callers (rate limit tier).
	InternalServiceKey string

	// "postgres" (default) or "memory".
	GuestCartBackend string

	PollInterval     time.Duration
	NotificationPage int
	OrderViewTTL     time.Duration
	OrderViewSize    int
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:             os.Getenv("DB_HOST"),
		DBUser:             os.Getenv("DB_USER"),
		DBPassword:         os.Getenv("DB_PASSWORD"),
		DBName:             os.Getenv("DB_NAME"),
		DBPort:             os.Getenv("DB_PORT"),
		AppPort:            os.Getenv("APP_PORT"),
		AppEnv:             os.Getenv("APP_ENV"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		APIBaseURL:         os.Getenv("API_BASE_URL"),
		PushURL:            os.Getenv("PUSH_URL"),
		APITimeout:         durationEnv("API_TIMEOUT", 15*time.Second),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		InternalServiceKey: os.Getenv("INTERNAL_SECRET_KEY"),
		GuestCartBackend:   stringEnv("GUEST_CART_BACKEND", "postgres"),
		PollInterval:       durationEnv("NOTIFICATION_POLL_INTERVAL", 30*time.Second),
		NotificationPage:   intEnv("NOTIFICATION_PAGE_SIZE", 50),
		OrderViewTTL:       durationEnv("ORDER_VIEW_TTL", time.Minute),
		OrderViewSize:      intEnv("ORDER_VIEW_CACHE_SIZE", 1024),
	}

	if cfg.APIBaseURL == "" {
		log.Fatal("API_BASE_URL is not set")
	}
	if cfg.GuestCartBackend == "postgres" && cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func intEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}
