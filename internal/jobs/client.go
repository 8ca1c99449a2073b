package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/yourusername/task-forge/internal/config"
)

// queueName はジョブを流すブローカー側キューの名前です。
const queueName = "jobs"

// taskEnvelope はブローカーを流れるペイロードです。ジョブ識別子と
// ジョブ種別ごとの引数（JSON）のみを運びます。
type taskEnvelope struct {
	JobID string          `json:"job_id"`
	Args  json.RawMessage `json:"args"`
}

// enqueuer は asynq.Client のうち Client が利用する操作です。
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// taskController は asynq.Inspector のうち取り消しに利用する操作です。
type taskController interface {
	DeleteTask(queue, id string) error
	CancelProcessing(id string) error
}

// Client はブローカーへのジョブ投入・状態照会・取り消しをまとめた
// キュークライアントです。プロセス全体のグローバルとしては持たず、
// 明示的に生成してAPIハンドラーへ渡します。
type Client struct {
	client    enqueuer
	inspector taskController
	store     RecordStore
	timeLimit time.Duration
	logger    *log.Logger
	closers   []io.Closer
}

// NewClient は設定からブローカー接続を組み立てて Client を作成します。
func NewClient(cfg *config.Config, store RecordStore, logger *log.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if store == nil {
		return nil, errors.New("store is nil")
	}
	opt, err := asynq.ParseRedisURI(cfg.BrokerURL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse broker url: %w", err)
	}

	client := asynq.NewClient(opt)
	inspector := asynq.NewInspector(opt)
	return &Client{
		client:    client,
		inspector: inspector,
		store:     store,
		timeLimit: cfg.TaskTimeLimit(),
		logger:    logger,
		closers:   []io.Closer{client, inspector},
	}, nil
}

// Close はブローカーとの接続を閉じます。
func (c *Client) Close() error {
	var firstErr error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Submit はジョブを直列化してブローカーへ発行し、採番したジョブ識別子を
// 即座に返します。実行完了を待つことはありません。ブローカーに到達できない
// 場合のみ ErrQueueUnavailable で失敗します。
func (c *Client) Submit(ctx context.Context, taskType string, args any) (string, error) {
	if taskType == "" {
		return "", fmt.Errorf("taskType is required")
	}
	rawArgs, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("failed to serialize args: %w", err)
	}

	jobID := uuid.NewString()

	// レコードを先に作る。逆順にするとワーカー側の STARTED 書き込みを
	// PENDING で上書きしてしまう可能性がある。
	record := &Record{
		JobID:  jobID,
		Task:   taskType,
		Status: StatusPending,
	}
	if err := c.store.Create(ctx, record); err != nil {
		return "", fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	payload, err := json.Marshal(taskEnvelope{JobID: jobID, Args: rawArgs})
	if err != nil {
		return "", err
	}

	opts := []asynq.Option{
		asynq.Queue(queueName),
		asynq.TaskID(jobID),
		asynq.MaxRetry(0),
	}
	if c.timeLimit > 0 {
		opts = append(opts, asynq.Timeout(c.timeLimit))
	}

	task := asynq.NewTask(taskType, payload)
	if _, err := c.client.EnqueueContext(ctx, task, opts...); err != nil {
		if delErr := c.store.Delete(ctx, jobID); delErr != nil && c.logger != nil {
			c.logger.Printf("failed to roll back record job=%s: %v", jobID, delErr)
		}
		return "", fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}
	return jobID, nil
}

// GetStatus は現在のジョブレコードを返します。レコードが存在しない識別子には
// PENDING と区別できるよう UNKNOWN 状態の合成レコードを返します。
func (c *Client) GetStatus(ctx context.Context, jobID string) (*Record, error) {
	record, err := c.store.Get(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}
	if record == nil {
		return &Record{JobID: jobID, Status: StatusUnknown}, nil
	}
	return record, nil
}

// Revoke はジョブの取り消しを要求します。まだキューに残っているジョブは
// 確実に実行開始を防ぎます。すでにワーカーへ渡ったジョブへの取り消しは
// 協調的でベストエフォートです。終端状態のジョブには ErrAlreadyTerminal を、
// レコードが存在しない識別子には ErrUnknownJob を返します。
func (c *Client) Revoke(ctx context.Context, jobID string) error {
	record, err := c.store.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}
	if record == nil {
		return fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
	}
	if record.Status.Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrAlreadyTerminal, jobID, record.Status)
	}

	// キューに残っているうちは削除で確実に止められる。
	if err := c.inspector.DeleteTask(queueName, jobID); err == nil {
		return c.store.MarkRevoked(ctx, jobID)
	}

	// すでにワーカーへ渡っている場合はコンテキストのキャンセルを依頼する。
	// ジョブ本体がキャンセルを確認した時点でワーカー側が REVOKED を記録する。
	if err := c.inspector.CancelProcessing(jobID); err != nil && c.logger != nil {
		c.logger.Printf("failed to request cancellation job=%s: %v", jobID, err)
	}
	return nil
}
