package model

import "time"

// ImportStatus 导入状态
type ImportStatus string

const (
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusImported   ImportStatus = "imported"
	ImportStatusRejected   ImportStatus = "rejected" // 文件格式错误，未写入
	ImportStatusFailed     ImportStatus = "failed"   // 存储失败
)

// ImportResult Excel 导入结果
type ImportResult struct {
	Inserted int `json:"inserted"` // 写入的去重后记录数
}

// ImportLog 导入日志
type ImportLog struct {
	ID            string       `json:"id"`
	Filename      string       `json:"filename"`
	FileSize      int64        `json:"fileSize"`
	Status        ImportStatus `json:"status"`
	HeaderRow     int          `json:"headerRow"`     // 从 1 开始，未定位时为 0
	ArticleColumn int          `json:"articleColumn"` // 从 1 开始，未定位时为 0
	DateColumns   int          `json:"dateColumns"`
	Extracted     int          `json:"extracted"` // 去重前记录数
	Inserted      int          `json:"inserted"`
	ErrorMessage  string       `json:"errorMessage,omitempty"`
	StartedAt     time.Time    `json:"startedAt"`
	CompletedAt   *time.Time   `json:"completedAt,omitempty"`
}
