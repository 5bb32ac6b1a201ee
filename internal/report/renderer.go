package report

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/langchou/autodata/internal/jsonvalue"
	"github.com/langchou/autodata/internal/metrics"
)

// ErrReportGeneration 报告生成失败，不返回部分文档
var ErrReportGeneration = errors.New("could not generate report")

// 页面参数，单位 mm
const (
	pageMargin    = 10.0
	titleHeight   = 10.0
	headingHeight = 8.0
	sectionGap    = 4.0
	fontFamily    = "Helvetica"
)

// Renderer PDF 报告生成器
type Renderer struct {
	title  string
	logger *zap.Logger
	now    func() time.Time
}

// NewRenderer 创建报告生成器，title 为文档标题前缀
func NewRenderer(title string, logger *zap.Logger) *Renderer {
	if title == "" {
		title = "Vehicle Report"
	}
	return &Renderer{
		title:  title,
		logger: logger,
		now:    time.Now,
	}
}

// Render 将供应商原始数据渲染为横向 PDF
func (r *Renderer) Render(vin string, doc jsonvalue.Value) (out []byte, err error) {
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrReportGeneration, rec)
		}

		status := "ok"
		if err != nil {
			status = "failed"
			r.logger.Error("Failed to render report", zap.String("vin", vin), zap.Error(err))
		} else {
			r.logger.Debug("Report rendered",
				zap.String("vin", vin),
				zap.Int("bytes", len(out)),
				zap.Duration("duration", time.Since(start)),
			)
		}
		metrics.ReportsTotal.WithLabelValues(status).Inc()
	}()

	sections, err := Build(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReportGeneration, err)
	}

	title := r.title
	if vin != "" {
		title = fmt.Sprintf("%s: %s", r.title, vin)
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.SetCellMargin(cellMargin)
	pdf.SetTitle(title, true)
	pdf.SetCreator("autodata", false)
	pdf.SetCreationDate(r.now())

	w := newTableWriter(pdf)
	pdf.AddPage()
	pdf.SetFont(fontFamily, "B", 16)
	pdf.CellFormat(0, titleHeight, w.tr(title), "", 1, "L", false, 0, "")

	for _, s := range sections {
		w.section(s)
		if pdf.Err() {
			break
		}
	}

	if pdf.Err() {
		return nil, fmt.Errorf("%w: %v", ErrReportGeneration, pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReportGeneration, err)
	}
	return buf.Bytes(), nil
}

// tableWriter 负责在页面上绘制标题和表格，处理换页
type tableWriter struct {
	pdf       *fpdf.Fpdf
	tr        func(string) string
	left      float64
	top       float64
	bottom    float64
	printable float64
}

func newTableWriter(pdf *fpdf.Fpdf) *tableWriter {
	pageW, pageH := pdf.GetPageSize()
	return &tableWriter{
		pdf:       pdf,
		tr:        pdf.UnicodeTranslatorFromDescriptor(""),
		left:      pageMargin,
		top:       pageMargin,
		bottom:    pageH - pageMargin,
		printable: pageW - 2*pageMargin,
	}
}

// preparedRow 已折行、已计算高度的一行
type preparedRow struct {
	lines  [][]string
	height float64
	header bool
}

func (w *tableWriter) section(s Section) {
	columns := s.Columns()
	fontSize := fontSizeFor(columns)
	lineH := lineHeightFor(fontSize)

	// 标题不单独留在页尾
	w.ensureSpace(sectionGap + headingHeight + 2*lineH + 2*cellMargin)
	w.pdf.SetY(w.pdf.GetY() + sectionGap)
	w.pdf.SetX(w.left)
	w.pdf.SetFont(fontFamily, "B", 12)
	w.pdf.CellFormat(0, headingHeight, w.tr(s.Title), "", 1, "L", false, 0, "")

	if columns == 0 {
		w.pdf.SetFont(fontFamily, "I", smallFontSize)
		w.pdf.CellFormat(0, lineH, "(no entries)", "", 1, "L", false, 0, "")
		return
	}

	header := w.translate(s.Header)
	rows := make([][]string, len(s.Rows))
	for i, row := range s.Rows {
		rows[i] = w.translate(row)
	}

	widths := columnWidths(w.naturalWidths(columns, header, rows, fontSize), w.printable)

	pageH := w.bottom - w.top

	// 表头最多占半页
	var headerRow *preparedRow
	headerH := 0.0
	if len(header) > 0 {
		w.pdf.SetFont(fontFamily, "B", fontSize)
		hr := w.prepare(header, widths, lineH, linesFor(pageH/2, lineH), true)
		headerRow = &hr
		headerH = hr.height
		w.ensureSpace(hr.height + lineH + 2*cellMargin)
		w.draw(hr, widths, lineH, fontSize)
	}

	// 换页后重复表头，数据行高度要留出表头的位置
	w.pdf.SetFont(fontFamily, "", fontSize)
	rowLines := linesFor(pageH-headerH, lineH)
	for _, row := range rows {
		pr := w.prepare(row, widths, lineH, rowLines, false)
		if w.pdf.GetY()+pr.height > w.bottom {
			w.pdf.AddPage()
			if headerRow != nil {
				w.draw(*headerRow, widths, lineH, fontSize)
			}
		}
		w.draw(pr, widths, lineH, fontSize)
	}
}

// naturalWidths 每列按最长文本计算的宽度
func (w *tableWriter) naturalWidths(columns int, header []string, rows [][]string, fontSize float64) []float64 {
	natural := make([]float64, columns)

	w.pdf.SetFont(fontFamily, "B", fontSize)
	for i, text := range header {
		natural[i] = w.pdf.GetStringWidth(text)
	}

	w.pdf.SetFont(fontFamily, "", fontSize)
	for _, row := range rows {
		for i, text := range row {
			if tw := w.pdf.GetStringWidth(text); tw > natural[i] {
				natural[i] = tw
			}
		}
	}

	for i := range natural {
		natural[i] = naturalWidth(natural[i])
	}
	return natural
}

// linesFor 高度 h 内单元格最多能放的行数，至少 1 行
func linesFor(h, lineH float64) int {
	n := int((h - 2*cellMargin) / lineH)
	if n < 1 {
		return 1
	}
	return n
}

// prepare 按当前字体折行，每个单元格最多 maxLines 行
func (w *tableWriter) prepare(cells []string, widths []float64, lineH float64, maxLines int, header bool) preparedRow {
	minGlyph := narrowestGlyph(w.pdf)
	lines := make([][]string, len(widths))
	count := 1

	for i, cw := range widths {
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		lines[i] = wrapText(w.pdf.SplitLines, text, cw, minGlyph, maxLines)
		if len(lines[i]) > count {
			count = len(lines[i])
		}
	}

	return preparedRow{
		lines:  lines,
		height: float64(count)*lineH + 2*cellMargin,
		header: header,
	}
}

// narrowestGlyph 当前字体最窄字符的宽度，存在零宽字符时返回 0
func narrowestGlyph(pdf *fpdf.Fpdf) float64 {
	narrowest := 0.0
	for c := 1; c < 256; c++ {
		gw := pdf.GetStringWidth(string([]byte{byte(c)}))
		if gw <= 0 {
			return 0
		}
		if narrowest == 0 || gw < narrowest {
			narrowest = gw
		}
	}
	return narrowest
}

func (w *tableWriter) draw(row preparedRow, widths []float64, lineH, fontSize float64) {
	pdf := w.pdf
	style := "D"
	if row.header {
		pdf.SetFont(fontFamily, "B", fontSize)
		pdf.SetFillColor(225, 230, 238)
		style = "FD"
	} else {
		pdf.SetFont(fontFamily, "", fontSize)
	}

	x, y := w.left, pdf.GetY()
	for i, cw := range widths {
		pdf.Rect(x, y, cw, row.height, style)
		for j, line := range row.lines[i] {
			pdf.SetXY(x, y+cellMargin+float64(j)*lineH)
			pdf.CellFormat(cw, lineH, line, "", 0, "L", false, 0, "")
		}
		x += cw
	}
	pdf.SetXY(w.left, y+row.height)
}

func (w *tableWriter) ensureSpace(h float64) {
	if w.pdf.GetY()+h > w.bottom {
		w.pdf.AddPage()
	}
}

func (w *tableWriter) translate(cells []string) []string {
	if cells == nil {
		return nil
	}
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = w.tr(c)
	}
	return out
}
