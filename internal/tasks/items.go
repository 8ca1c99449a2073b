package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yourusername/task-forge/internal/jobs"
)

const (
	statusCompleted = "completed"

	defaultItemOperation = "validate"
	processItemDuration  = 2 * time.Second
	bulkImportPerItem    = 500 * time.Millisecond
)

// itemOperations は items:process が受け付ける操作の集合です。
var itemOperations = map[string]struct{}{
	"validate": {},
	"enrich":   {},
	"sync":     {},
}

// ProcessItem は単一アイテムの検証・補完・同期を模したジョブ本体です。
// 未対応の操作はジョブ内部の失敗として伝播します。
func (s *Service) ProcessItem(ctx context.Context, rawArgs json.RawMessage, _ jobs.ProgressReporter) (any, error) {
	var args ProcessItemArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return nil, fmt.Errorf("invalid args: %w", err)
	}
	if args.Operation == "" {
		args.Operation = defaultItemOperation
	}
	if _, ok := itemOperations[args.Operation]; !ok {
		return nil, fmt.Errorf("unsupported operation: %s", args.Operation)
	}

	if err := s.sleep(ctx, processItemDuration); err != nil {
		return nil, err
	}

	return ProcessItemResult{
		ItemID:    args.ItemID,
		Operation: args.Operation,
		Status:    statusCompleted,
	}, nil
}

// BulkImport は要素ごとに進捗を1回ずつ公開する一括取り込みジョブです。
func (s *Service) BulkImport(ctx context.Context, rawArgs json.RawMessage, report jobs.ProgressReporter) (any, error) {
	var args BulkImportArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return nil, fmt.Errorf("invalid args: %w", err)
	}

	total := len(args.Items)
	processed := 0
	for i := range args.Items {
		if err := s.sleep(ctx, bulkImportPerItem); err != nil {
			return nil, err
		}
		processed++
		report(jobs.ProgressMeta{
			Current: i + 1,
			Total:   total,
			Percent: float64(i+1) / float64(total) * 100,
		})
	}

	return BulkImportResult{
		TotalItems: total,
		Processed:  processed,
	}, nil
}
