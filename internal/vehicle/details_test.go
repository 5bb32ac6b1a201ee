package vehicle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/autodata/internal/api/chromedata"
	"github.com/langchou/autodata/internal/jsonvalue"
)

func record(t *testing.T, raw string) *chromedata.VehicleRecord {
	t.Helper()
	v, err := jsonvalue.Parse([]byte(raw))
	require.NoError(t, err)
	return &chromedata.VehicleRecord{Raw: v}
}

func TestNormalize_FullRecord(t *testing.T) {
	rec := record(t, `{
		"validVin": true,
		"year": "2014",
		"make": "Ford",
		"model": "F-150",
		"vehicles": [{"trim": "XL", "styleId": "123"}, {"trim": "XLT", "styleId": "456"}],
		"exteriorColors": [{"genericDesc": "Red", "rgbHexValue": "#FF0000"}]
	}`)

	d := Normalize(rec, "1FTFW1ET1EFA00001")

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"vin": "1FTFW1ET1EFA00001",
		"year": 2014,
		"make": "Ford",
		"model": "F-150",
		"trim": "XL",
		"color": "Red",
		"colorHex": "#FF0000",
		"styleId": "123"
	}`, string(out))
}

func TestNormalize_EmptySequences(t *testing.T) {
	d := Normalize(record(t, `{"validVin":true,"year":"2020","vehicles":[],"exteriorColors":[]}`), "VIN")

	assert.Nil(t, d.Trim)
	assert.Nil(t, d.Color)
	assert.Equal(t, "", d.ColorHex)
	assert.Equal(t, "", d.StyleID)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"vin":"VIN","year":2020,"colorHex":"","styleId":""}`, string(out))
}

func TestNormalize_MissingSubstructures(t *testing.T) {
	d := Normalize(record(t, `{"validVin":true}`), "VIN")

	assert.Nil(t, d.Year)
	assert.Nil(t, d.Make)
	assert.Nil(t, d.Model)
	assert.Nil(t, d.Trim)
	assert.Nil(t, d.Color)
	assert.Equal(t, "", d.ColorHex)
	assert.Equal(t, "", d.StyleID)
}

func TestNormalize_NumericStyleID(t *testing.T) {
	d := Normalize(record(t, `{"vehicles":[{"trim":"Base","styleId":382817}]}`), "VIN")
	assert.Equal(t, "382817", d.StyleID)
}

func TestNormalize_NilRecord(t *testing.T) {
	d := Normalize(nil, "VIN")
	assert.Equal(t, Details{VIN: "VIN"}, d)
}

func TestParseYear(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want *int
	}{
		{"numeric string", `"2020"`, intPtr(2020)},
		{"padded string", `" 2019 "`, intPtr(2019)},
		{"number", `2014`, intPtr(2014)},
		{"integral float", `"2014.0"`, intPtr(2014)},
		{"not a number", `"N/A"`, nil},
		{"fraction", `"2014.5"`, nil},
		{"empty string", `""`, nil},
		{"nan", `"NaN"`, nil},
		{"null", `null`, nil},
		{"bool", `true`, nil},
		{"object", `{"y":2014}`, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := jsonvalue.Parse([]byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, parseYear(v))
		})
	}
}

func intPtr(n int) *int { return &n }
