package config

import (
	"os"
	"strconv"
)

type Config struct {
	ServerAddr    string
	RedisAddr     string
	RedisPassword string
	DatabaseURL   string
	SMTPAddr      string
	SMTPFrom      string
	EmailWorkers  int
}

// Load reads configuration from the environment with code defaults.
func Load() Config {
	cfg := Config{
		ServerAddr:    getenv("SERVER_ADDR", ":8080"),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SMTPAddr:      getenv("SMTP_ADDR", "localhost:25"),
		SMTPFrom:      getenv("SMTP_FROM", "noreply@example.com"),
	}
	workers, err := strconv.Atoi(os.Getenv("EMAIL_WORKER_COUNT"))
	if err != nil || workers <= 0 {
		workers = 5
	}
	cfg.EmailWorkers = workers
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
