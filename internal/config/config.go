package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Webhook relay. Optional: when empty the service runs degraded and
	// /api/chat reports a configuration error.
	WebhookURL string

	// Redis. Optional: when set the chat rate limiter is backed by Redis
	// instead of process memory.
	RedisURL string

	// HTTP
	CORSOrigin    string
	StaticDir     string
	ChatRateLimit int // requests per minute per client on /api/chat
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:          getEnvOrDefault("PORT", "3000"),
		Env:           getEnvOrDefault("ENV", "development"),
		DatabaseURL:   mustGetEnv("DATABASE_URL"),
		WebhookURL:    getEnvOrDefault("WEBHOOK_URL", ""),
		RedisURL:      getEnvOrDefault("REDIS_URL", ""),
		CORSOrigin:    getEnvOrDefault("CORS_ORIGIN", "*"),
		StaticDir:     getEnvOrDefault("STATIC_DIR", "./public"),
		ChatRateLimit: getEnvAsIntOrDefault("CHAT_RATE_LIMIT", 30),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
