package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const jobKeyPrefix = "job:"

// RecordStore はジョブレコードの読み書き操作です。キュークライアントと
// ワーカーはこのインターフェース経由でレコードを操作します。
type RecordStore interface {
	Get(ctx context.Context, jobID string) (*Record, error)
	Create(ctx context.Context, record *Record) error
	Delete(ctx context.Context, jobID string) error
	MarkStarted(ctx context.Context, jobID, task string) error
	UpdateProgress(ctx context.Context, jobID string, meta ProgressMeta) error
	MarkSuccess(ctx context.Context, jobID string, result any) error
	MarkFailed(ctx context.Context, jobID, cause string) error
	MarkRevoked(ctx context.Context, jobID string) error
}

// Store はジョブレコードを Redis（結果バックエンド）に保存します。
// レコードはJSONの単一キーとして保持され、書き込みのたびにTTLが
// 保持期間へ更新されるため、終端状態のレコードは保持期間経過後に
// バックエンドから自動的に破棄されます。
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ RecordStore = (*Store)(nil)

// NewStore は Store を作成します。ttl は終端状態後の保持期間です。
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{
		rdb: rdb,
		ttl: ttl,
	}
}

// Get はジョブレコードを取得します。存在しない場合は nil を返します。
func (s *Store) Get(ctx context.Context, jobID string) (*Record, error) {
	if jobID == "" {
		return nil, fmt.Errorf("jobID is required")
	}
	data, err := s.rdb.Get(ctx, jobKey(jobID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create は投入直後の PENDING レコードを保存します。
func (s *Store) Create(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	if record.JobID == "" {
		return fmt.Errorf("record.JobID is required")
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	if s.ttl > 0 {
		record.ExpiresAt = now.Add(s.ttl)
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, jobKey(record.JobID), payload, s.ttl).Err()
}

// Delete はレコードを削除します。投入失敗時の巻き戻しに使用します。
func (s *Store) Delete(ctx context.Context, jobID string) error {
	return s.rdb.Del(ctx, jobKey(jobID)).Err()
}

// MarkStarted はワーカーによる実行開始を記録します。レコードが保持期間
// 切れで消えている場合（クラッシュ後の再配送など）は作り直します。
func (s *Store) MarkStarted(ctx context.Context, jobID, task string) error {
	err := s.updatePartial(ctx, jobID, func(record *Record) {
		record.Status = StatusStarted
		record.Progress = nil
		record.Result = nil
		record.Error = ""
	})
	if errors.Is(err, errRecordMissing) {
		return s.Create(ctx, &Record{
			JobID:  jobID,
			Task:   task,
			Status: StatusStarted,
		})
	}
	return err
}

// UpdateProgress は最新の進捗スナップショットで上書きします。
func (s *Store) UpdateProgress(ctx context.Context, jobID string, meta ProgressMeta) error {
	return s.updatePartial(ctx, jobID, func(record *Record) {
		record.Status = StatusProgress
		record.Progress = &meta
	})
}

// MarkSuccess はジョブ本体の戻り値を直列化して SUCCESS を記録します。
func (s *Store) MarkSuccess(ctx context.Context, jobID string, result any) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.updatePartial(ctx, jobID, func(record *Record) {
		record.Status = StatusSuccess
		record.Result = payload
		record.Progress = nil
		record.Error = ""
	})
}

// MarkFailed は失敗原因の文字列とともに FAILURE を記録します。
func (s *Store) MarkFailed(ctx context.Context, jobID, cause string) error {
	return s.updatePartial(ctx, jobID, func(record *Record) {
		record.Status = StatusFailure
		record.Error = cause
		record.Progress = nil
		record.Result = nil
	})
}

// MarkRevoked は取り消しの確定を記録します。
func (s *Store) MarkRevoked(ctx context.Context, jobID string) error {
	return s.updatePartial(ctx, jobID, func(record *Record) {
		record.Status = StatusRevoked
		record.Progress = nil
	})
}

var errRecordMissing = errors.New("job record missing")

// updatePartial は既存レコードを読み出して部分更新します。終端状態の
// レコードは状態遷移の単調性を守るため変更を拒否します。
func (s *Store) updatePartial(ctx context.Context, jobID string, mutate func(*Record)) error {
	key := jobKey(jobID)
	for {
		tx := s.rdb.TxPipeline()
		data, err := s.rdb.Get(ctx, key).Bytes()
		if err != nil {
			if err == redis.Nil {
				return errRecordMissing
			}
			return err
		}
		var record Record
		if err := json.Unmarshal(data, &record); err != nil {
			return err
		}
		if record.Status.Terminal() {
			return fmt.Errorf("%w: %s is %s", ErrAlreadyTerminal, jobID, record.Status)
		}
		mutate(&record)
		record.UpdatedAt = time.Now().UTC()
		payload, err := json.Marshal(&record)
		if err != nil {
			return err
		}
		tx.Set(ctx, key, payload, s.ttl)
		_, err = tx.Exec(ctx)
		if err == redis.TxFailedErr {
			continue
		}
		return err
	}
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}
