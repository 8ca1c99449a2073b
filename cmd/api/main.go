// Package main はジョブ投入APIサーバーのエントリーポイントです。
package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/task-forge/internal/config"
	"github.com/yourusername/task-forge/internal/ratelimit"
	"github.com/yourusername/task-forge/internal/tasks"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()

	// CORSミドルウェアの設定（カンマ区切りの文字列を配列に変換）
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// クライアントIP単位のレートリミット
	limiter := ratelimit.New(cfg.RateLimitPerMinute)
	router.Use(limiter.Middleware())

	// キュークライアントの組み立て（ハンドラーへ明示的に渡す）
	queue, err := setupQueue(cfg)
	if err != nil {
		log.Fatalf("Failed to set up job queue client: %v", err)
	}
	defer queue.Close()

	// ルーティングの設定
	setupRoutes(router, cfg, queue)

	// サーバーの起動
	addr := ":" + cfg.Port
	log.Printf("Starting API server on %s (mode: %s)", addr, cfg.GinMode)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRoutes は API グループの配線を行います。ジョブの実行はすべて
// ワーカープロセス側で行われ、APIは投入と照会だけを担当します。
func setupRoutes(router *gin.Engine, cfg *config.Config, queue tasks.JobQueue) {
	router.GET("/", rootHandler(cfg))
	router.GET("/health", healthHandler(cfg))

	api := router.Group("/api/jobs")
	{
		api.POST("/items/process", tasks.ProcessItemHandler(queue))
		api.POST("/items/bulk-import", tasks.BulkImportHandler(queue))
		api.POST("/files/process", tasks.ProcessFileHandler(queue))
		api.POST("/files/cleanup", tasks.CleanupFilesHandler(queue))

		api.GET("/status/:id", tasks.StatusHandler(queue))
		api.DELETE("/revoke/:id", tasks.RevokeHandler(queue))
	}
}

// rootHandler はルートエンドポイントのハンドラーです。
func rootHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to " + cfg.AppName,
			"version": cfg.AppVersion,
		})
	}
}

// healthHandler はヘルスチェックエンドポイントのハンドラーです。
func healthHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": cfg.AppName,
			"version": cfg.AppVersion,
		})
	}
}
