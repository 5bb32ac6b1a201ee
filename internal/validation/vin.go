// Package validation 请求参数校验
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"
)

// VIN 长度固定 17 位，不含 I、O、Q
var vinPattern = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)

// ErrInvalidVIN VIN 格式错误
var ErrInvalidVIN = errors.New("invalid vin")

// vinRules 校验规则
var vinRules = []validation.Rule{
	validation.Required.Error("vin is required"),
	validation.Length(17, 17).Error("vin must be exactly 17 characters"),
	validation.Match(vinPattern).Error("vin contains characters that are not allowed"),
}

// NormalizeVIN 去掉空白并转大写
func NormalizeVIN(vin string) string {
	return strings.ToUpper(strings.TrimSpace(vin))
}

// ValidateVIN 校验 VIN 格式，调用方应先 NormalizeVIN
func ValidateVIN(vin string) error {
	if err := validation.Validate(vin, vinRules...); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidVIN, err)
	}
	return nil
}
