package report

// 表格尺寸，单位 mm
const (
	// 少于该列数时按内容计算列宽
	fixedLayoutColumns = 10

	smallFontSize = 8.0
	tinyFontSize  = 6.0

	cellMargin  = 1.0
	minColWidth = 12.0
	maxColWidth = 90.0
)

// fixedWidths 十列及以上表格前十列的固定宽度
var fixedWidths = [fixedLayoutColumns]float64{32, 30, 28, 26, 26, 26, 26, 26, 24, 24}

// fontSizeFor 按列数选择字号
func fontSizeFor(columns int) float64 {
	if columns < fixedLayoutColumns {
		return smallFontSize
	}
	return tinyFontSize
}

// lineHeightFor 字号对应的行高（pt 转 mm 并留出行距）
func lineHeightFor(fontSize float64) float64 {
	return fontSize * 0.3528 * 1.25
}

// naturalWidth 文本宽度加单元格边距，限制在 [minColWidth, maxColWidth]
func naturalWidth(textWidth float64) float64 {
	w := textWidth + 2*cellMargin
	if w < minColWidth {
		return minColWidth
	}
	if w > maxColWidth {
		return maxColWidth
	}
	return w
}

// columnWidths 计算列宽
//
// 少于十列时使用内容宽度；十列及以上前十列使用固定宽度，其余列仍按内容。
// 总宽超过可打印宽度时按比例缩小。
func columnWidths(natural []float64, printable float64) []float64 {
	widths := make([]float64, len(natural))
	copy(widths, natural)

	if len(widths) >= fixedLayoutColumns {
		for i := 0; i < fixedLayoutColumns; i++ {
			widths[i] = fixedWidths[i]
		}
	}

	var total float64
	for _, w := range widths {
		total += w
	}
	if total > printable && total > 0 {
		scale := printable / total
		for i := range widths {
			widths[i] *= scale
		}
	}
	return widths
}

// wrapText 按宽度折行，最多保留 limit 行，超出时末行以省略号结尾
//
// 文本已转换为单字节编码，split 为 fpdf 的 SplitLines，width 含单元格边距。
// minGlyph 是当前字体最窄字符的宽度，折行前先截掉肯定放不下的部分。
func wrapText(split func([]byte, float64) [][]byte, text string, width, minGlyph float64, limit int) []string {
	if limit < 1 {
		limit = 1
	}

	data := []byte(text)
	cut := false
	if minGlyph > 0 {
		perLine := int((width-2*cellMargin)/minGlyph) + 2
		if perLine < 2 {
			perLine = 2
		}
		if budget := (limit + 2) * perLine; len(data) > budget {
			data = data[:budget]
			cut = true
		}
	}

	parts := split(data, width)
	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		lines = append(lines, string(part))
	}
	if len(lines) == 0 {
		return []string{""}
	}

	if cut && len(lines) <= limit {
		lines[len(lines)-1] += "..."
		return lines
	}
	return truncateLines(lines, limit)
}

// truncateLines 行数超出上限时截断并以省略号结尾
func truncateLines(lines []string, limit int) []string {
	if limit < 1 {
		limit = 1
	}
	if len(lines) <= limit {
		return lines
	}
	out := make([]string, limit)
	copy(out, lines[:limit])
	out[limit-1] += "..."
	return out
}
