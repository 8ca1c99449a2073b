// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// アプリケーション設定
	AppName    string // サービス名
	AppVersion string // バージョン文字列

	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// Redis設定（ブローカーと結果バックエンドの接続先）
	RedisHost     string
	RedisPort     int
	RedisPassword string
	BrokerDB      int // ブローカー用の論理DB番号
	ResultDB      int // 結果バックエンド用の論理DB番号

	// ジョブ設定
	ResultExpireMinutes  int // 終端状態後のレコード保持期間（分）
	TaskTimeLimitMinutes int // 1ジョブの最大実行時間（分）
	WorkerConcurrency    int // ワーカープロセス内の並列実行数

	// レートリミット設定
	RateLimitPerMinute int // クライアントIPあたりの毎分リクエスト上限
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		// アプリケーション設定
		AppName:    getEnv("APP_NAME", "task-forge"),
		AppVersion: getEnv("APP_VERSION", "0.1.0"),

		// サーバー設定
		Port:    getEnv("PORT", "8000"),
		GinMode: getEnv("GIN_MODE", "debug"),

		// CORS設定
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		// Redis設定
		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnvAsInt("REDIS_PORT", 6379),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		BrokerDB:      getEnvAsInt("BROKER_DB", 1),
		ResultDB:      getEnvAsInt("RESULT_DB", 2),

		// ジョブ設定
		ResultExpireMinutes:  getEnvAsInt("RESULT_EXPIRE_MINUTES", 60),
		TaskTimeLimitMinutes: getEnvAsInt("TASK_TIME_LIMIT_MINUTES", 30),
		WorkerConcurrency:    getEnvAsInt("WORKER_CONCURRENCY", 4),

		// レートリミット設定
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// BrokerURL はブローカー用のRedis接続URLを組み立てます。
func (c *Config) BrokerURL() string {
	return c.redisURL(c.BrokerDB)
}

// ResultBackendURL は結果バックエンド用のRedis接続URLを組み立てます。
func (c *Config) ResultBackendURL() string {
	return c.redisURL(c.ResultDB)
}

func (c *Config) redisURL(db int) string {
	if c.RedisPassword != "" {
		return fmt.Sprintf("redis://:%s@%s:%d/%d", c.RedisPassword, c.RedisHost, c.RedisPort, db)
	}
	return fmt.Sprintf("redis://%s:%d/%d", c.RedisHost, c.RedisPort, db)
}

// ResultExpire は終端状態後のレコード保持期間を返します。
func (c *Config) ResultExpire() time.Duration {
	return time.Duration(c.ResultExpireMinutes) * time.Minute
}

// TaskTimeLimit は1ジョブの最大実行時間を返します。
func (c *Config) TaskTimeLimit() time.Duration {
	return time.Duration(c.TaskTimeLimitMinutes) * time.Minute
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("REDIS_PORT must be a valid port number")
	}
	if c.WorkerConcurrency <= 0 {
		return fmt.Errorf("WORKER_CONCURRENCY must be positive")
	}
	// 本番では認証付きRedisを前提とする
	if c.GinMode == "release" && c.RedisPassword == "" {
		return fmt.Errorf("REDIS_PASSWORD is required in release mode")
	}
	return nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
