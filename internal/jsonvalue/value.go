// Package jsonvalue 提供保留对象键顺序的 JSON 值
package jsonvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/tidwall/gjson"
)

// Kind 值类型
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Object
	Array
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Object:
		return "object"
	case Array:
		return "array"
	}
	return "unknown"
}

// Member 对象成员
type Member struct {
	Key   string
	Value Value
}

// Value JSON 值，对象成员按原始顺序保存
type Value struct {
	kind    Kind
	boolean bool
	text    string // Number 的原始文本或 String 的内容
	members []Member
	elems   []Value
}

// 构造函数，主要给测试和调用方拼装数据用
func NullValue() Value { return Value{kind: Null} }
func BoolValue(b bool) Value { return Value{kind: Bool, boolean: b} }
func StringValue(s string) Value { return Value{kind: String, text: s} }
func NumberValue(n string) Value { return Value{kind: Number, text: n} }
func IntValue(n int64) Value { return NumberValue(strconv.FormatInt(n, 10)) }
func ArrayValue(v ...Value) Value { return Value{kind: Array, elems: v} }
func ObjectValue(m ...Member) Value { return Value{kind: Object, members: m} }

// Kind 返回值类型
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool   { return v.kind == Null }
func (v Value) IsObject() bool { return v.kind == Object }
func (v Value) IsArray() bool  { return v.kind == Array }

// IsScalar 非对象、非数组
func (v Value) IsScalar() bool { return v.kind != Object && v.kind != Array }

// Bool 返回布尔值，非 Bool 类型返回 false
func (v Value) Bool() bool { return v.kind == Bool && v.boolean }

// Truthy 按 JavaScript 的真值规则判断
func (v Value) Truthy() bool {
	switch v.kind {
	case Null:
		return false
	case Bool:
		return v.boolean
	case Number:
		f, err := strconv.ParseFloat(v.text, 64)
		return err == nil && f != 0
	case String:
		return v.text != ""
	}
	return true
}

// Str 返回字符串内容，仅 String 类型 ok 为 true
func (v Value) Str() (string, bool) {
	if v.kind != String {
		return "", false
	}
	return v.text, true
}

// NumberText 返回数字原文，仅 Number 类型 ok 为 true
func (v Value) NumberText() (string, bool) {
	if v.kind != Number {
		return "", false
	}
	return v.text, true
}

// Get 读取对象成员，不存在或非对象时返回 Null
func (v Value) Get(key string) Value {
	if v.kind != Object {
		return Value{}
	}
	for _, m := range v.members {
		if m.Key == key {
			return m.Value
		}
	}
	return Value{}
}

// Has 对象是否包含 key
func (v Value) Has(key string) bool {
	if v.kind != Object {
		return false
	}
	for _, m := range v.members {
		if m.Key == key {
			return true
		}
	}
	return false
}

// Index 读取数组元素，越界或非数组时返回 Null
func (v Value) Index(i int) Value {
	if v.kind != Array || i < 0 || i >= len(v.elems) {
		return Value{}
	}
	return v.elems[i]
}

// Len 数组长度或对象成员数
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.elems)
	case Object:
		return len(v.members)
	}
	return 0
}

// Members 对象成员（保持原顺序）
func (v Value) Members() []Member {
	if v.kind != Object {
		return nil
	}
	return v.members
}

// Keys 对象键（保持原顺序）
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.members))
	for _, m := range v.Members() {
		keys = append(keys, m.Key)
	}
	return keys
}

// Elements 数组元素
func (v Value) Elements() []Value {
	if v.kind != Array {
		return nil
	}
	return v.elems
}

// IsArrayOfObjects 非空且所有元素都是对象
func (v Value) IsArrayOfObjects() bool {
	if v.kind != Array || len(v.elems) == 0 {
		return false
	}
	for _, e := range v.elems {
		if e.kind != Object {
			return false
		}
	}
	return true
}

// Text 标量的展示文本；null 为空串，容器返回紧凑 JSON
func (v Value) Text() string {
	switch v.kind {
	case Null:
		return ""
	case Bool:
		return strconv.FormatBool(v.boolean)
	case Number, String:
		return v.text
	}
	return v.JSON()
}

// JSON 紧凑 JSON，不转义 HTML 字符
func (v Value) JSON() string {
	var buf bytes.Buffer
	v.encode(&buf)
	return buf.String()
}

// MarshalJSON 实现 json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	v.encode(&buf)
	return buf.Bytes(), nil
}

// UnmarshalJSON 实现 json.Unmarshaler
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Value) encode(buf *bytes.Buffer) {
	switch v.kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(v.boolean))
	case Number:
		buf.WriteString(v.text)
	case String:
		writeString(buf, v.text)
	case Array:
		buf.WriteByte('[')
		for i, e := range v.elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			e.encode(buf)
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, m.Key)
			buf.WriteByte(':')
			m.Value.encode(buf)
		}
		buf.WriteByte('}')
	}
}

func writeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	// Encoder 会追加换行
	buf.Truncate(buf.Len() - 1)
}

// ErrInvalidJSON 输入不是单个合法的 JSON 值
var ErrInvalidJSON = errors.New("jsonvalue: invalid json")

// Parse 解析 JSON，保留对象键顺序与数字原文
func Parse(data []byte) (Value, error) {
	if !gjson.ValidBytes(data) {
		return Value{}, ErrInvalidJSON
	}
	return fromResult(gjson.ParseBytes(data)), nil
}

func fromResult(r gjson.Result) Value {
	switch r.Type {
	case gjson.Null:
		return NullValue()
	case gjson.False:
		return BoolValue(false)
	case gjson.True:
		return BoolValue(true)
	case gjson.Number:
		return NumberValue(r.Raw)
	case gjson.String:
		return StringValue(r.Str)
	}

	if r.IsArray() {
		arr := Value{kind: Array, elems: []Value{}}
		r.ForEach(func(_, elem gjson.Result) bool {
			arr.elems = append(arr.elems, fromResult(elem))
			return true
		})
		return arr
	}

	obj := Value{kind: Object}
	index := make(map[string]int)
	r.ForEach(func(key, val gjson.Result) bool {
		// 重复键：保留首次出现的位置，取最后一次的值
		if i, dup := index[key.Str]; dup {
			obj.members[i].Value = fromResult(val)
			return true
		}
		index[key.Str] = len(obj.members)
		obj.members = append(obj.members, Member{Key: key.Str, Value: fromResult(val)})
		return true
	})
	return obj
}
