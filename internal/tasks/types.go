// Package tasks はジョブ種別ごとの本体と、それを投入するHTTPハンドラーを
// 提供します。ジョブ本体はいずれも処理時間をシミュレートする参照実装で、
// キュー投入から進捗・結果・失敗の伝播までの契約を端から端まで通すための
// ものです。
package tasks

// ジョブ種別名。ワーカーのディスパッチに使う安定した識別子です。
const (
	TypeProcessItem  = "items:process"
	TypeBulkImport   = "items:bulk_import"
	TypeProcessFile  = "files:process"
	TypeCleanupFiles = "files:cleanup"
)

// ProcessItemArgs は items:process の引数です。
type ProcessItemArgs struct {
	ItemID    int    `json:"item_id"`
	Operation string `json:"operation"`
}

// ProcessItemResult は items:process の結果です。
type ProcessItemResult struct {
	ItemID    int    `json:"item_id"`
	Operation string `json:"operation"`
	Status    string `json:"status"`
}

// BulkImportArgs は items:bulk_import の引数です。要素はJSONオブジェクトで
// あれば中身は問いません。
type BulkImportArgs struct {
	Items []map[string]any `json:"items"`
}

// BulkImportResult は items:bulk_import の結果です。
type BulkImportResult struct {
	TotalItems int `json:"total_items"`
	Processed  int `json:"processed"`
}

// ProcessFileArgs は files:process の引数です。
type ProcessFileArgs struct {
	Filename  string `json:"filename"`
	Operation string `json:"operation"`
}

// ProcessFileResult は files:process の結果です。
type ProcessFileResult struct {
	Filename  string `json:"filename"`
	Operation string `json:"operation"`
	Status    string `json:"status"`
}

// CleanupFilesArgs は files:cleanup の引数です。
type CleanupFilesArgs struct {
	MaxAgeDays int `json:"max_age_days"`
}

// CleanupFilesResult は files:cleanup の結果です。
type CleanupFilesResult struct {
	MaxAgeDays   int `json:"max_age_days"`
	DeletedCount int `json:"deleted_count"`
}
