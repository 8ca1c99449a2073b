package main

import (
	"log"

	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/task-forge/internal/config"
	"github.com/yourusername/task-forge/internal/jobs"
)

// setupQueue は結果バックエンドとブローカーへの接続を組み立てて
// キュークライアントを作成します。
func setupQueue(cfg *config.Config) (*jobs.Client, error) {
	opt, err := redis.ParseURL(cfg.ResultBackendURL())
	if err != nil {
		return nil, err
	}

	store := jobs.NewStore(redis.NewClient(opt), cfg.ResultExpire())
	return jobs.NewClient(cfg, store, log.Default())
}
