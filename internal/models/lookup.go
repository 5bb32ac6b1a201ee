package models

import "time"

// 查询类型
const (
	LookupKindDetails = "details"
	LookupKindReport  = "report"
)

// 查询结果
const (
	LookupStatusOK     = "ok"
	LookupStatusFailed = "failed"
)

// Lookup VIN 查询记录，只保存结果摘要，不保存供应商原始数据
type Lookup struct {
	ID         int64     `json:"id" db:"id"`
	LookupID   string    `json:"lookup_id" db:"lookup_id"`
	VIN        string    `json:"vin" db:"vin"`
	Kind       string    `json:"kind" db:"kind"`     // details, report
	Status     string    `json:"status" db:"status"` // ok, failed
	Error      *string   `json:"error,omitempty" db:"error"`
	Make       *string   `json:"make,omitempty" db:"make"`
	Model      *string   `json:"model,omitempty" db:"model"`
	Year       *int      `json:"year,omitempty" db:"year"`
	DurationMs int64     `json:"duration_ms" db:"duration_ms"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
