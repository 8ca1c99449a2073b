package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_NAME", "APP_VERSION", "PORT", "GIN_MODE",
		"CORS_ALLOWED_ORIGINS",
		"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "BROKER_DB", "RESULT_DB",
		"RESULT_EXPIRE_MINUTES", "TASK_TIME_LIMIT_MINUTES", "WORKER_CONCURRENCY",
		"RATE_LIMIT_PER_MINUTE",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Port = %s, want 8000", cfg.Port)
	}
	if cfg.RedisHost != "127.0.0.1" || cfg.RedisPort != 6379 {
		t.Errorf("Redis = %s:%d", cfg.RedisHost, cfg.RedisPort)
	}
	if cfg.BrokerDB != 1 || cfg.ResultDB != 2 {
		t.Errorf("BrokerDB = %d, ResultDB = %d", cfg.BrokerDB, cfg.ResultDB)
	}
	if cfg.ResultExpireMinutes != 60 {
		t.Errorf("ResultExpireMinutes = %d, want 60", cfg.ResultExpireMinutes)
	}
	if cfg.TaskTimeLimitMinutes != 30 {
		t.Errorf("TaskTimeLimitMinutes = %d, want 30", cfg.TaskTimeLimitMinutes)
	}
	if cfg.WorkerConcurrency != 4 {
		t.Errorf("WorkerConcurrency = %d, want 4", cfg.WorkerConcurrency)
	}
	if cfg.RateLimitPerMinute != 60 {
		t.Errorf("RateLimitPerMinute = %d, want 60", cfg.RateLimitPerMinute)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("WORKER_CONCURRENCY", "16")
	t.Setenv("RESULT_EXPIRE_MINUTES", "120")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.RedisHost != "redis.internal" || cfg.RedisPort != 6380 {
		t.Errorf("Redis = %s:%d", cfg.RedisHost, cfg.RedisPort)
	}
	if cfg.WorkerConcurrency != 16 {
		t.Errorf("WorkerConcurrency = %d, want 16", cfg.WorkerConcurrency)
	}
	if cfg.ResultExpire() != 120*time.Minute {
		t.Errorf("ResultExpire = %v", cfg.ResultExpire())
	}
}

func TestLoadIgnoresInvalidInt(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.RedisPort != 6379 {
		t.Errorf("RedisPort = %d, want default 6379", cfg.RedisPort)
	}
}

func TestRedisURLWithoutPassword(t *testing.T) {
	cfg := &Config{RedisHost: "127.0.0.1", RedisPort: 6379, BrokerDB: 1, ResultDB: 2}

	if got := cfg.BrokerURL(); got != "redis://127.0.0.1:6379/1" {
		t.Errorf("BrokerURL = %s", got)
	}
	if got := cfg.ResultBackendURL(); got != "redis://127.0.0.1:6379/2" {
		t.Errorf("ResultBackendURL = %s", got)
	}
}

func TestRedisURLWithPassword(t *testing.T) {
	cfg := &Config{RedisHost: "redis.internal", RedisPort: 6380, RedisPassword: "secret", BrokerDB: 1, ResultDB: 2}

	if got := cfg.BrokerURL(); got != "redis://:secret@redis.internal:6380/1" {
		t.Errorf("BrokerURL = %s", got)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid",
			cfg:  Config{RedisHost: "127.0.0.1", RedisPort: 6379, WorkerConcurrency: 4},
		},
		{
			name:    "missing host",
			cfg:     Config{RedisPort: 6379, WorkerConcurrency: 4},
			wantErr: "REDIS_HOST",
		},
		{
			name:    "bad port",
			cfg:     Config{RedisHost: "127.0.0.1", RedisPort: 70000, WorkerConcurrency: 4},
			wantErr: "REDIS_PORT",
		},
		{
			name:    "zero concurrency",
			cfg:     Config{RedisHost: "127.0.0.1", RedisPort: 6379},
			wantErr: "WORKER_CONCURRENCY",
		},
		{
			name:    "release mode without password",
			cfg:     Config{RedisHost: "127.0.0.1", RedisPort: 6379, WorkerConcurrency: 4, GinMode: "release"},
			wantErr: "REDIS_PASSWORD",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate returned error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate error = %v, want mention of %s", err, tc.wantErr)
			}
		})
	}
}
