package tasks

import (
	"context"
	"time"

	"github.com/yourusername/task-forge/internal/jobs"
)

// Service は参照ジョブ本体をまとめたものです。待ち時間を差し替えられる
// ようにしてあり、テストではスリープなしで実行できます。
type Service struct {
	sleep func(ctx context.Context, d time.Duration) error
}

// NewService は本番用の Service を作成します。
func NewService() *Service {
	return &Service{sleep: sleepContext}
}

// Register はすべてのジョブ種別をレジストリへ登録します。
func (s *Service) Register(registry *jobs.Registry) error {
	entries := map[string]jobs.Handler{
		TypeProcessItem:  s.ProcessItem,
		TypeBulkImport:   s.BulkImport,
		TypeProcessFile:  s.ProcessFile,
		TypeCleanupFiles: s.CleanupFiles,
	}
	for taskType, handler := range entries {
		if err := registry.Register(taskType, handler); err != nil {
			return err
		}
	}
	return nil
}

// sleepContext はキャンセルと実行期限に反応するスリープです。
// ジョブ本体が取り消しシグナルを確認する協調ポイントでもあります。
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
