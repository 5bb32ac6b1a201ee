package chromedata

import (
	"errors"
	"fmt"

	"github.com/langchou/autodata/internal/jsonvalue"
)

// VehicleRecord 供应商返回的 result 对象，字段均可能缺失
type VehicleRecord struct {
	Raw jsonvalue.Value
}

// Year 原始 year 字段
func (r *VehicleRecord) Year() jsonvalue.Value { return r.Raw.Get("year") }

// Make 原始 make 字段
func (r *VehicleRecord) Make() jsonvalue.Value { return r.Raw.Get("make") }

// Model 原始 model 字段
func (r *VehicleRecord) Model() jsonvalue.Value { return r.Raw.Get("model") }

// ValidVin 仅当 validVin 为 true 时返回 true
func (r *VehicleRecord) ValidVin() bool { return r.Raw.Get("validVin").Bool() }

// Vehicles 车型变体列表
func (r *VehicleRecord) Vehicles() []jsonvalue.Value { return r.Raw.Get("vehicles").Elements() }

// ExteriorColors 外观颜色列表
func (r *VehicleRecord) ExteriorColors() []jsonvalue.Value {
	return r.Raw.Get("exteriorColors").Elements()
}

// envelope 响应外层结构
type envelope struct {
	Error  jsonvalue.Value `json:"error"`
	Result jsonvalue.Value `json:"result"`
}

// 错误定义
var (
	ErrInvalidPayload = errors.New("invalid response payload")
	ErrInvalidVIN     = errors.New("invalid vin")
)

// ProviderError 调用供应商失败，StatusCode 为 0 表示传输层错误
type ProviderError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("chromedata request failed: %v", e.Err)
	}
	return fmt.Sprintf("chromedata request failed: status=%d body=%s", e.StatusCode, e.Body)
}

func (e *ProviderError) Unwrap() error { return e.Err }
