package jobs

import "errors"

var (
	// ErrQueueUnavailable はブローカーまたは結果バックエンドへの到達に
	// 失敗したことを示します。
	ErrQueueUnavailable = errors.New("job queue unavailable")

	// ErrUnknownJob は該当するジョブレコードが存在しないことを示します。
	ErrUnknownJob = errors.New("unknown job")

	// ErrAlreadyTerminal は終端状態に達したジョブへの変更操作を示します。
	ErrAlreadyTerminal = errors.New("job already in terminal state")

	// ErrUnknownJobType はレジストリに未登録のジョブ種別を示します。
	ErrUnknownJobType = errors.New("unknown job type")
)
