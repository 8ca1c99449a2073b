package tasks

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/task-forge/internal/jobs"
)

// JobQueue はHTTPハンドラーが利用するキュークライアントの操作です。
type JobQueue interface {
	Submit(ctx context.Context, taskType string, args any) (string, error)
	GetStatus(ctx context.Context, jobID string) (*jobs.Record, error)
	Revoke(ctx context.Context, jobID string) error
}

type processItemRequest struct {
	ItemID    *int   `json:"item_id" binding:"required"`
	Operation string `json:"operation"`
}

type bulkImportRequest struct {
	Items []map[string]any `json:"items" binding:"required"`
}

type processFileRequest struct {
	Filename  string `json:"filename" binding:"required"`
	Operation string `json:"operation"`
}

type cleanupFilesRequest struct {
	MaxAgeDays int `json:"max_age_days"`
}

// ProcessItemHandler は POST /api/jobs/items/process のハンドラーを返します。
func ProcessItemHandler(queue JobQueue) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req processItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalidInput(c, "item_id を含むJSONボディを送ってください。")
			return
		}
		submitJob(c, queue, TypeProcessItem, ProcessItemArgs{
			ItemID:    *req.ItemID,
			Operation: req.Operation,
		})
	}
}

// BulkImportHandler は POST /api/jobs/items/bulk-import のハンドラーを返します。
func BulkImportHandler(queue JobQueue) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bulkImportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalidInput(c, "items を含むJSONボディを送ってください。")
			return
		}
		submitJob(c, queue, TypeBulkImport, BulkImportArgs{Items: req.Items})
	}
}

// ProcessFileHandler は POST /api/jobs/files/process のハンドラーを返します。
func ProcessFileHandler(queue JobQueue) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req processFileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalidInput(c, "filename を含むJSONボディを送ってください。")
			return
		}
		submitJob(c, queue, TypeProcessFile, ProcessFileArgs{
			Filename:  req.Filename,
			Operation: req.Operation,
		})
	}
}

// CleanupFilesHandler は POST /api/jobs/files/cleanup のハンドラーを返します。
func CleanupFilesHandler(queue JobQueue) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cleanupFilesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalidInput(c, "JSONボディを送ってください。")
			return
		}
		submitJob(c, queue, TypeCleanupFiles, CleanupFilesArgs{MaxAgeDays: req.MaxAgeDays})
	}
}

// StatusHandler は GET /api/jobs/status/:id のハンドラーを返します。
func StatusHandler(queue JobQueue) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := strings.TrimSpace(c.Param("id"))
		if jobID == "" {
			respondInvalidInput(c, "job_id を指定してください。")
			return
		}

		record, err := queue.GetStatus(c.Request.Context(), jobID)
		if err != nil {
			respondQueueError(c, err)
			return
		}

		payload := gin.H{
			"job_id": record.JobID,
			"status": record.Status,
		}
		switch record.Status {
		case jobs.StatusUnknown:
			c.JSON(http.StatusNotFound, payload)
			return
		case jobs.StatusSuccess:
			payload["result"] = record.Result
		case jobs.StatusFailure:
			payload["error"] = record.Error
		case jobs.StatusProgress:
			// 進捗は result フィールドに載せて返す（別フィールドは設けない）。
			payload["result"] = record.Progress
		}
		c.JSON(http.StatusOK, payload)
	}
}

// RevokeHandler は DELETE /api/jobs/revoke/:id のハンドラーを返します。
func RevokeHandler(queue JobQueue) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := strings.TrimSpace(c.Param("id"))
		if jobID == "" {
			respondInvalidInput(c, "job_id を指定してください。")
			return
		}

		if err := queue.Revoke(c.Request.Context(), jobID); err != nil {
			switch {
			case errors.Is(err, jobs.ErrUnknownJob):
				c.JSON(http.StatusNotFound, gin.H{
					"code":    "JOB_NOT_FOUND",
					"message": "指定されたジョブは存在しません。",
				})
			case errors.Is(err, jobs.ErrAlreadyTerminal):
				c.JSON(http.StatusBadRequest, gin.H{
					"code":    "JOB_ALREADY_FINISHED",
					"message": "ジョブはすでに完了しています。",
				})
			default:
				respondQueueError(c, err)
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"job_id": jobID,
			"status": "revoked",
		})
	}
}

func submitJob(c *gin.Context, queue JobQueue, taskType string, args any) {
	jobID, err := queue.Submit(c.Request.Context(), taskType, args)
	if err != nil {
		respondQueueError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"job_id": jobID,
		"status": jobs.StatusPending,
	})
}

func respondInvalidInput(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    "INVALID_INPUT",
		"message": message,
	})
}

func respondQueueError(c *gin.Context, err error) {
	if errors.Is(err, jobs.ErrQueueUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":    "QUEUE_UNAVAILABLE",
			"message": "ジョブキューに接続できません。",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "INTERNAL_ERROR",
		"message": "サーバー内部でエラーが発生しました。",
	})
}
