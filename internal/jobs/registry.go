package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// ProgressReporter は実行中のジョブ本体が進捗を公開するためのコールバックです。
// 呼び出すたびに状態照会側から見える進捗スナップショットが置き換わります。
type ProgressReporter func(meta ProgressMeta)

// Handler は1つのジョブ種別の本体です。引数はキューのワイヤ形式（JSON）で
// 受け取り、戻り値はJSONに直列化可能な値を返します。エラーを返した場合は
// そのジョブだけが FAILURE となり、ワーカー本体には波及しません。
type Handler func(ctx context.Context, args json.RawMessage, report ProgressReporter) (any, error)

// Registry はジョブ種別名からハンドラーへの静的な対応表です。
// 起動時に組み立てられ、以後変更されません。
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry は空のレジストリを作成します。
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register はジョブ種別を登録します。重複登録はエラーです。
func (r *Registry) Register(taskType string, handler Handler) error {
	if taskType == "" {
		return fmt.Errorf("task type is required")
	}
	if handler == nil {
		return fmt.Errorf("handler is nil for task type %q", taskType)
	}
	if _, ok := r.handlers[taskType]; ok {
		return fmt.Errorf("task type %q already registered", taskType)
	}
	r.handlers[taskType] = handler
	return nil
}

// Resolve は登録済みハンドラーを返します。未登録の種別は ErrUnknownJobType です。
func (r *Registry) Resolve(taskType string) (Handler, error) {
	handler, ok := r.handlers[taskType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJobType, taskType)
	}
	return handler, nil
}

// Types は登録済みのジョブ種別名を返します。
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}
