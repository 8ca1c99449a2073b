// Package main はジョブを実行するワーカープロセスのエントリーポイントです。
// APIサーバーとは独立にスケールし、同じブローカーからジョブを取り出します。
package main

import (
	"log"

	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/task-forge/internal/config"
	"github.com/yourusername/task-forge/internal/jobs"
	"github.com/yourusername/task-forge/internal/tasks"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 結果バックエンド（ジョブレコード保存先）への接続
	opt, err := redis.ParseURL(cfg.ResultBackendURL())
	if err != nil {
		log.Fatalf("Failed to parse result backend url: %v", err)
	}
	store := jobs.NewStore(redis.NewClient(opt), cfg.ResultExpire())

	// ジョブ種別の静的レジストリを起動時に組み立てる
	registry := jobs.NewRegistry()
	if err := tasks.NewService().Register(registry); err != nil {
		log.Fatalf("Failed to register job types: %v", err)
	}

	worker, err := jobs.NewWorker(cfg, store, registry, log.Default())
	if err != nil {
		log.Fatalf("Failed to create worker: %v", err)
	}

	// Run は停止シグナル（SIGTERM/SIGINT）を受けるまでブロックする
	log.Printf("Starting worker (concurrency: %d, types: %v)", cfg.WorkerConcurrency, registry.Types())
	if err := worker.Run(); err != nil {
		log.Fatalf("Worker stopped with error: %v", err)
	}
}
