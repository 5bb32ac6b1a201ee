package report

import (
	"errors"
	"strings"

	"github.com/langchou/autodata/internal/jsonvalue"
)

// OverviewTitle 顶层标量汇总表标题
const OverviewTitle = "Overview"

// Section 报告中的一节：标题 + 表格
type Section struct {
	Title  string
	Header []string   // 为空时不输出表头行
	Rows   [][]string // 每行单元格
}

// Columns 表格列数
func (s Section) Columns() int {
	n := len(s.Header)
	for _, row := range s.Rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// ErrNotObject 报告输入必须是 JSON 对象
var ErrNotObject = errors.New("report input must be a JSON object")

// Build 将任意 JSON 对象展开为若干节
//
// 顶层标量合并到 Overview 表（key, value 两列），对象和数组各自成节，按键顺序输出。
func Build(doc jsonvalue.Value) ([]Section, error) {
	if !doc.IsObject() {
		return nil, ErrNotObject
	}

	overview := Section{Title: OverviewTitle}
	var sections []Section

	for _, m := range doc.Members() {
		if m.Value.IsScalar() {
			overview.Rows = append(overview.Rows, []string{m.Key, m.Value.Text()})
			continue
		}
		sections = append(sections, buildSection(m.Key, m.Value))
	}

	if len(overview.Rows) > 0 {
		sections = append([]Section{overview}, sections...)
	}
	return sections, nil
}

func buildSection(title string, v jsonvalue.Value) Section {
	s := Section{Title: title}

	switch {
	case v.IsObject():
		// 单个对象按只有一个元素的对象数组处理
		return objectTable(title, []jsonvalue.Value{v})
	case v.IsArrayOfObjects():
		return objectTable(title, v.Elements())
	case v.Len() > 0:
		row := make([]string, 0, v.Len())
		for _, e := range v.Elements() {
			row = append(row, cellText(e))
		}
		s.Rows = [][]string{row}
	}
	return s
}

func objectTable(title string, objects []jsonvalue.Value) Section {
	header := Header(objects)
	rows := make([][]string, 0, len(objects))

	for _, obj := range objects {
		row := make([]string, len(header))
		for i, key := range header {
			row[i] = cellText(obj.Get(key))
		}
		rows = append(rows, row)
	}

	return Section{Title: title, Header: header, Rows: rows}
}

// Header 所有对象键的并集，按首次出现的顺序去重
func Header(objects []jsonvalue.Value) []string {
	seen := make(map[string]struct{})
	var header []string

	for _, obj := range objects {
		for _, key := range obj.Keys() {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			header = append(header, key)
		}
	}
	return header
}

// cellText 单元格文本
//
// 对象数组折叠为 JSON：只有一个元素时取该元素本身，否则取整个数组。
func cellText(v jsonvalue.Value) string {
	switch {
	case v.IsArrayOfObjects():
		if v.Len() == 1 {
			return v.Index(0).JSON()
		}
		return v.JSON()
	case v.IsObject():
		return v.JSON()
	case v.IsArray():
		parts := make([]string, 0, v.Len())
		for _, e := range v.Elements() {
			parts = append(parts, cellText(e))
		}
		return strings.Join(parts, ", ")
	}
	return v.Text()
}
