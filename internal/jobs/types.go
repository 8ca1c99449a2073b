package jobs

import (
	"encoding/json"
	"time"
)

// Status はジョブのライフサイクル状態を表します。
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusStarted  Status = "STARTED"
	StatusProgress Status = "PROGRESS"
	StatusSuccess  Status = "SUCCESS"
	StatusFailure  Status = "FAILURE"
	StatusRevoked  Status = "REVOKED"

	// StatusUnknown はバックエンドにレコードが存在しない識別子を表します。
	// 一度も投入されていないか、保持期間を過ぎて破棄されたかのいずれかで、
	// 投入直後の PENDING とは区別されます。
	StatusUnknown Status = "UNKNOWN"
)

// Terminal は終端状態（以後いかなる遷移もしない状態）かどうかを返します。
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailure, StatusRevoked:
		return true
	default:
		return false
	}
}

// ProgressMeta は実行中ジョブの最新進捗スナップショットです。
// 更新のたびに上書きされ、履歴としては蓄積されません。
type ProgressMeta struct {
	Current int     `json:"current"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// Record はジョブ識別子をキーとするジョブの現在状態です。
// 書き込むのは実行中のワーカー（および取り消し経路）のみで、
// 状態照会側は読み取り専用です。
type Record struct {
	JobID     string          `json:"job_id"`
	Task      string          `json:"task"`
	Status    Status          `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Progress  *ProgressMeta   `json:"progress,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}
