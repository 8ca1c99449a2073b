// Package jobs は非同期ジョブのキュー投入・状態管理・実行基盤を提供します。
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/yourusername/task-forge/internal/config"
)

// Worker はブローカーからジョブを取り出して実行するワーカープロセスの
// 中核です。1つのジョブの失敗はそのジョブの FAILURE として隔離され、
// ワーカー自体や他のジョブには波及しません。
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	store    RecordStore
	registry *Registry
	logger   *log.Logger
}

// NewWorker はレジストリに登録済みの全ジョブ種別を配線したワーカーを作成します。
func NewWorker(cfg *config.Config, store RecordStore, registry *Registry, logger *log.Logger) (*Worker, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if registry == nil {
		return nil, errors.New("registry is nil")
	}

	opt, err := asynq.ParseRedisURI(cfg.BrokerURL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse broker url: %w", err)
	}

	server := asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				queueName: 1,
			},
		},
	)

	worker := &Worker{
		server:   server,
		mux:      asynq.NewServeMux(),
		store:    store,
		registry: registry,
		logger:   logger,
	}
	for _, taskType := range registry.Types() {
		handler, err := registry.Resolve(taskType)
		if err != nil {
			return nil, err
		}
		worker.mux.Handle(taskType, worker.process(taskType, handler))
	}
	return worker, nil
}

// Run はワーカーを起動し、停止シグナルを受けるまでブロックします。
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Shutdown はワーカーを停止します。
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

// process は1件のジョブ実行を状態遷移の管理で包みます。終端状態はここで
// 必ず記録されるため、失敗時も asynq 側の再試行には頼りません。
func (w *Worker) process(taskType string, handler Handler) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var envelope taskEnvelope
		if err := json.Unmarshal(task.Payload(), &envelope); err != nil {
			return fmt.Errorf("invalid payload for %s: %v: %w", taskType, err, asynq.SkipRetry)
		}
		if envelope.JobID == "" {
			return fmt.Errorf("missing job_id in %s payload: %w", taskType, asynq.SkipRetry)
		}
		jobID := envelope.JobID

		if err := w.store.MarkStarted(ctx, jobID, taskType); err != nil {
			if errors.Is(err, ErrAlreadyTerminal) {
				// 取り消し済みジョブの再配送。実行せずに破棄する。
				return nil
			}
			return err
		}

		report := func(meta ProgressMeta) {
			if meta.Percent < 0 {
				meta.Percent = 0
			}
			if meta.Percent > 100 {
				meta.Percent = 100
			}
			if err := w.store.UpdateProgress(ctx, jobID, meta); err != nil && w.logger != nil {
				w.logger.Printf("failed to update progress job=%s: %v", jobID, err)
			}
		}

		result, err := invoke(ctx, handler, envelope.Args, report)

		// 実行後の記録はジョブ自身のキャンセル/期限に縛られないようにする。
		recordCtx := context.Background()
		switch {
		case err == nil:
			return w.store.MarkSuccess(recordCtx, jobID, result)
		case errors.Is(err, context.Canceled):
			if markErr := w.store.MarkRevoked(recordCtx, jobID); markErr != nil && !errors.Is(markErr, ErrAlreadyTerminal) {
				return markErr
			}
			return fmt.Errorf("job %s revoked: %w", jobID, asynq.SkipRetry)
		case errors.Is(err, context.DeadlineExceeded):
			cause := fmt.Sprintf("time limit exceeded: %v", err)
			if markErr := w.store.MarkFailed(recordCtx, jobID, cause); markErr != nil && !errors.Is(markErr, ErrAlreadyTerminal) {
				return markErr
			}
			return fmt.Errorf("job %s timed out: %w", jobID, asynq.SkipRetry)
		default:
			if markErr := w.store.MarkFailed(recordCtx, jobID, err.Error()); markErr != nil && !errors.Is(markErr, ErrAlreadyTerminal) {
				return markErr
			}
			return fmt.Errorf("job %s failed: %v: %w", jobID, err, asynq.SkipRetry)
		}
	}
}

// invoke はジョブ本体を panic 隔離付きで実行します。
func invoke(ctx context.Context, handler Handler, args json.RawMessage, report ProgressReporter) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handler(ctx, args, report)
}
