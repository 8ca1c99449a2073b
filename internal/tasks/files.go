package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yourusername/task-forge/internal/jobs"
)

const (
	defaultFileOperation = "analyze"
	defaultFileDuration  = 2 * time.Second
	cleanupDuration      = 3 * time.Second
	defaultMaxAgeDays    = 30
)

// fileOperationDurations は操作ごとの模擬処理時間です。
var fileOperationDurations = map[string]time.Duration{
	"analyze":  2 * time.Second,
	"scan":     3 * time.Second,
	"convert":  5 * time.Second,
	"compress": 4 * time.Second,
}

// ProcessFile はウイルススキャンや形式変換などを模した単一ファイル処理
// ジョブです。未知の操作は既定の処理時間にフォールバックします。
func (s *Service) ProcessFile(ctx context.Context, rawArgs json.RawMessage, _ jobs.ProgressReporter) (any, error) {
	var args ProcessFileArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return nil, fmt.Errorf("invalid args: %w", err)
	}
	if args.Filename == "" {
		return nil, fmt.Errorf("filename is required")
	}
	if args.Operation == "" {
		args.Operation = defaultFileOperation
	}

	duration, ok := fileOperationDurations[args.Operation]
	if !ok {
		duration = defaultFileDuration
	}
	if err := s.sleep(ctx, duration); err != nil {
		return nil, err
	}

	return ProcessFileResult{
		Filename:  args.Filename,
		Operation: args.Operation,
		Status:    statusCompleted,
	}, nil
}

// CleanupFiles は保持期限を過ぎたファイルの一括削除を模したジョブです。
func (s *Service) CleanupFiles(ctx context.Context, rawArgs json.RawMessage, _ jobs.ProgressReporter) (any, error) {
	var args CleanupFilesArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return nil, fmt.Errorf("invalid args: %w", err)
	}
	if args.MaxAgeDays <= 0 {
		args.MaxAgeDays = defaultMaxAgeDays
	}

	if err := s.sleep(ctx, cleanupDuration); err != nil {
		return nil, err
	}

	// 実際のファイル走査は持たないため削除件数は常に0。
	return CleanupFilesResult{
		MaxAgeDays:   args.MaxAgeDays,
		DeletedCount: 0,
	}, nil
}
