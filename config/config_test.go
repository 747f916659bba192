package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("SERVER_ADDR", "")
	t.Setenv("EMAIL_WORKER_COUNT", "garbage")

	cfg := Load()
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("expected default redis addr, got %q", cfg.RedisAddr)
	}
	if cfg.ServerAddr != ":8080" {
		t.Errorf("expected default server addr, got %q", cfg.ServerAddr)
	}
	if cfg.EmailWorkers != 5 {
		t.Errorf("expected default worker count 5, got %d", cfg.EmailWorkers)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("EMAIL_WORKER_COUNT", "2")

	cfg := Load()
	if cfg.RedisAddr != "redis.internal:6380" {
		t.Errorf("unexpected redis addr %q", cfg.RedisAddr)
	}
	if cfg.EmailWorkers != 2 {
		t.Errorf("unexpected worker count %d", cfg.EmailWorkers)
	}
}
