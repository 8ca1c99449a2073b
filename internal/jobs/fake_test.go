package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// fakeStore は RecordStore のインメモリ実装です。実ストアと同じく
// 終端状態のレコードへの変更を拒否します。
type fakeStore struct {
	mu       sync.Mutex
	records  map[string]*Record
	progress []ProgressMeta

	getErr    error
	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*Record)}
}

func (f *fakeStore) Get(_ context.Context, jobID string) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	record, ok := f.records[jobID]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (f *fakeStore) Create(_ context.Context, record *Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	copied := *record
	f.records[record.JobID] = &copied
	return nil
}

func (f *fakeStore) Delete(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, jobID)
	return nil
}

func (f *fakeStore) MarkStarted(_ context.Context, jobID, task string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[jobID]
	if !ok {
		f.records[jobID] = &Record{JobID: jobID, Task: task, Status: StatusStarted}
		return nil
	}
	if record.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrAlreadyTerminal, jobID)
	}
	record.Status = StatusStarted
	return nil
}

func (f *fakeStore) UpdateProgress(_ context.Context, jobID string, meta ProgressMeta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[jobID]
	if !ok {
		return errRecordMissing
	}
	if record.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrAlreadyTerminal, jobID)
	}
	record.Status = StatusProgress
	record.Progress = &meta
	f.progress = append(f.progress, meta)
	return nil
}

func (f *fakeStore) MarkSuccess(_ context.Context, jobID string, result any) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[jobID]
	if !ok {
		return errRecordMissing
	}
	if record.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrAlreadyTerminal, jobID)
	}
	record.Status = StatusSuccess
	record.Result = payload
	record.Progress = nil
	return nil
}

func (f *fakeStore) MarkFailed(_ context.Context, jobID, cause string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[jobID]
	if !ok {
		return errRecordMissing
	}
	if record.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrAlreadyTerminal, jobID)
	}
	record.Status = StatusFailure
	record.Error = cause
	record.Progress = nil
	return nil
}

func (f *fakeStore) MarkRevoked(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[jobID]
	if !ok {
		return errRecordMissing
	}
	if record.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrAlreadyTerminal, jobID)
	}
	record.Status = StatusRevoked
	record.Progress = nil
	return nil
}

// record はテストの検証用にレコードのコピーを返します。
func (f *fakeStore) record(jobID string) *Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[jobID]
	if !ok {
		return nil
	}
	copied := *record
	return &copied
}

// put はテストの前提となるレコードを直接登録します。
func (f *fakeStore) put(record *Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *record
	f.records[record.JobID] = &copied
}
