package vehicle

import (
	"math"
	"strconv"
	"strings"

	"github.com/langchou/autodata/internal/api/chromedata"
	"github.com/langchou/autodata/internal/jsonvalue"
)

// Details 对外返回的车辆信息
type Details struct {
	VIN      string  `json:"vin"`
	Year     *int    `json:"year,omitempty"`
	Make     *string `json:"make,omitempty"`
	Model    *string `json:"model,omitempty"`
	Trim     *string `json:"trim,omitempty"`
	Color    *string `json:"color,omitempty"`
	ColorHex string  `json:"colorHex"`
	StyleID  string  `json:"styleId"`
}

// Normalize 将供应商记录映射为 Details，缺失的子结构降级为空字段
func Normalize(record *chromedata.VehicleRecord, vin string) Details {
	d := Details{VIN: vin}
	if record == nil {
		return d
	}

	d.Year = parseYear(record.Year())
	d.Make = optionalText(record.Make())
	d.Model = optionalText(record.Model())

	if vehicles := record.Vehicles(); len(vehicles) > 0 {
		d.Trim = optionalText(vehicles[0].Get("trim"))
		d.StyleID = vehicles[0].Get("styleId").Text()
	}

	if colors := record.ExteriorColors(); len(colors) > 0 {
		d.Color = optionalText(colors[0].Get("genericDesc"))
		d.ColorHex = colors[0].Get("rgbHexValue").Text()
	}

	return d
}

// parseYear 数字或数字字符串转为整数，其它情况返回 nil
func parseYear(v jsonvalue.Value) *int {
	var text string
	switch v.Kind() {
	case jsonvalue.Number:
		text, _ = v.NumberText()
	case jsonvalue.String:
		text, _ = v.Str()
		text = strings.TrimSpace(text)
	default:
		return nil
	}

	if n, err := strconv.Atoi(text); err == nil {
		return &n
	}

	// "2014.0"、"2.014e3" 这类整数值也接受
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}

// optionalText 标量转字符串，null 或容器返回 nil
func optionalText(v jsonvalue.Value) *string {
	if v.IsNull() || !v.IsScalar() {
		return nil
	}
	s := v.Text()
	return &s
}
