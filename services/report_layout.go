package services

import (
	"strings"

	"github.com/phpdave11/gofpdf"
)

// Page geometry in millimetres (A4 portrait).
const (
	pageMarginX      = 10.0
	pageTopOffset    = 15.0
	pageBottomMargin = 15.0
	footerOffset     = 8.0
	cellPadding      = 1.2
	minFontSize      = 5.0
	truncationMark   = "..."
)

// BlockKind names the kind of content a Block records.
type BlockKind string

const (
	BlockMasthead BlockKind = "masthead"
	BlockTitle    BlockKind = "title"
	BlockInfo     BlockKind = "info"
	BlockSection  BlockKind = "section"
	BlockHeading  BlockKind = "heading"
	BlockTable    BlockKind = "table"
	BlockSummary  BlockKind = "summary"
	BlockPhoto    BlockKind = "photo"
	BlockFooter   BlockKind = "footer"
)

// Block records one drawn piece of the document: where it starts, how tall
// it is and the text it carries. A table split across pages records one
// block per page.
type Block struct {
	Kind   BlockKind
	Page   int
	Y      float64
	Height float64
	Cells  []string
}

// Bottom is the y coordinate the block extends to.
func (b Block) Bottom() float64 {
	return b.Y + b.Height
}

type rgb struct{ r, g, b int }

var (
	colorMasthead = rgb{204, 0, 0}
	colorBudget   = rgb{0, 82, 155}
	colorOpname   = rgb{0, 128, 64}
	colorAppendix = rgb{230, 120, 0}
	colorHeader   = rgb{220, 226, 235}
	colorSubtotal = rgb{235, 235, 235}
	colorGrand    = rgb{255, 242, 204}
	colorBorder   = rgb{150, 150, 150}
	colorMuted    = rgb{120, 120, 120}
	colorText     = rgb{0, 0, 0}
	colorWhite    = rgb{255, 255, 255}
)

// layout owns the PDF and the cursor. It is used by one goroutine only.
type layout struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	pageW  float64
	pageH  float64
	y      float64
	page   int
	footed int
	footer func(page int) string
	blocks []Block
}

func newLayout(pdf *gofpdf.Fpdf, footer func(page int) string) *layout {
	w, h := pdf.GetPageSize()
	return &layout{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		pageW:  w,
		pageH:  h,
		footer: footer,
	}
}

func (l *layout) contentWidth() float64 {
	return l.pageW - 2*pageMarginX
}

// limit is the lowest y content may reach.
func (l *layout) limit() float64 {
	return l.pageH - pageBottomMargin
}

func (l *layout) remaining() float64 {
	return l.limit() - l.y
}

// newPage finishes the current page and starts the next one with the
// cursor at the top content offset.
func (l *layout) newPage() {
	l.finishPage()
	l.pdf.AddPage()
	l.page++
	l.y = pageTopOffset
}

// finishPage draws the footer of the current page once.
func (l *layout) finishPage() {
	if l.page == 0 || l.footed == l.page {
		return
	}
	text := l.footer(l.page)
	y := l.pageH - footerOffset
	l.setFont("I", 7)
	l.setTextColor(colorMuted)
	l.pdf.SetXY(pageMarginX, y)
	l.pdf.CellFormat(l.contentWidth(), 4, l.tr(text), "", 0, "C", false, 0, "")
	l.setTextColor(colorText)
	l.blocks = append(l.blocks, Block{Kind: BlockFooter, Page: l.page, Y: y, Height: 4, Cells: []string{text}})
	l.footed = l.page
}

// ensure starts a new page when fewer than h millimetres remain.
func (l *layout) ensure(h float64) {
	if l.y+h > l.limit() {
		l.newPage()
	}
}

func (l *layout) record(kind BlockKind, y, h float64, cells []string) {
	l.blocks = append(l.blocks, Block{Kind: kind, Page: l.page, Y: y, Height: h, Cells: cells})
}

func (l *layout) setFont(style string, size float64) {
	l.pdf.SetFont("Helvetica", style, size)
}

func (l *layout) setFill(c rgb)      { l.pdf.SetFillColor(c.r, c.g, c.b) }
func (l *layout) setTextColor(c rgb) { l.pdf.SetTextColor(c.r, c.g, c.b) }
func (l *layout) setDraw(c rgb)      { l.pdf.SetDrawColor(c.r, c.g, c.b) }

// measure returns the width of s in the current font.
func (l *layout) measure(s string) float64 {
	return l.pdf.GetStringWidth(l.tr(s))
}

// wrap splits s into lines that fit w in the current font, leaving room
// for cell padding. Empty text yields one empty line so rows keep a height.
func (l *layout) wrap(s string, w float64) []string {
	lines := WrapLines(s, w-2*cellPadding, l.measure)
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

// text draws one line at (x, y) in a box of width w.
func (l *layout) text(x, y, w, h float64, s, align string) {
	l.pdf.SetXY(x, y)
	l.pdf.CellFormat(w, h, l.tr(s), "", 0, align, false, 0, "")
}

// --- Bands and blocks ---

// band draws a full-width coloured bar with centred white text lines.
func (l *layout) band(kind BlockKind, c rgb, lines []string, sizes []float64, keep float64) {
	lineH := 6.0
	h := float64(len(lines))*lineH + 3
	l.ensure(h + keep)

	y := l.y
	l.setFill(c)
	l.pdf.Rect(pageMarginX, y, l.contentWidth(), h, "F")
	l.setTextColor(colorWhite)
	for i, line := range lines {
		l.setFont("B", sizes[i])
		l.text(pageMarginX, y+1.5+float64(i)*lineH, l.contentWidth(), lineH, line, "C")
	}
	l.setTextColor(colorText)

	l.record(kind, y, h, lines)
	l.y = y + h + 3
}

// title draws centred bold text.
func (l *layout) title(s string) {
	h := 8.0
	l.ensure(h)
	y := l.y
	l.setFont("B", 13)
	l.text(pageMarginX, y, l.contentWidth(), h, s, "C")
	l.record(BlockTitle, y, h, []string{s})
	l.y = y + h + 3
}

type infoRow struct {
	label string
	value string
}

// info draws a two-column label/value block with bold labels.
func (l *layout) info(rows []infoRow) {
	const labelW, lineH = 35.0, 5.0
	valueW := l.contentWidth() - labelW - 4

	l.setFont("", 9)
	wrapped := make([][]string, len(rows))
	h := 0.0
	for i, r := range rows {
		wrapped[i] = l.wrap(r.value, valueW)
		h += float64(len(wrapped[i])) * lineH
	}
	l.ensure(h)

	y := l.y
	var cells []string
	for i, r := range rows {
		l.setFont("B", 9)
		l.text(pageMarginX, l.y, labelW, lineH, r.label, "L")
		l.text(pageMarginX+labelW, l.y, 4, lineH, ":", "L")
		l.setFont("", 9)
		for _, line := range wrapped[i] {
			l.text(pageMarginX+labelW+4, l.y, valueW, lineH, line, "L")
			l.y += lineH
		}
		cells = append(cells, r.label, r.value)
	}
	l.record(BlockInfo, y, h, cells)
	l.y += 4
}

// heading draws a bold line kept together with the keep millimetres that
// follow it.
func (l *layout) heading(s string, keep float64) {
	h := 7.0
	l.ensure(h + keep)
	y := l.y
	l.setFont("B", 9)
	l.text(pageMarginX, y, l.contentWidth(), h, s, "L")
	l.record(BlockHeading, y, h, []string{s})
	l.y = y + h
}

// --- Tables ---

type tableColumn struct {
	title string
	group string
	width float64
	align string
	wrap  bool
}

type tableRow struct {
	cells []string
	bold  bool
	fill  *rgb
	// span merges the first span cells into one left-aligned cell.
	span int
}

type tableSpec struct {
	columns  []tableColumn
	fontSize float64
	lineH    float64
	headerH  float64
}

func (t tableSpec) grouped() bool {
	for _, c := range t.columns {
		if c.group != "" {
			return true
		}
	}
	return false
}

// headerHeight is the height of the header rows drawn on every fragment.
func (t tableSpec) headerHeight() float64 {
	if t.grouped() {
		return 2 * t.headerH
	}
	return t.headerH
}

// rowHeight measures a row with wrapped cells.
func (l *layout) rowHeight(ts tableSpec, row tableRow) float64 {
	l.rowFont(ts, row)
	lines := 1
	for i, col := range l.rowColumns(ts, row) {
		if !col.wrap {
			continue
		}
		if n := len(l.cellLines(ts, row.cells[i], col.width)); n > lines {
			lines = n
		}
	}
	return float64(lines)*ts.lineH + 2*cellPadding
}

func (l *layout) rowFont(ts tableSpec, row tableRow) {
	style := ""
	if row.bold {
		style = "B"
	}
	l.setFont(style, ts.fontSize)
}

// maxRowLines is the number of wrapped lines a row may hold. A row never
// takes more than half the printable height, so it always fits on a fresh
// page together with the table header and the band or heading above it.
func (l *layout) maxRowLines(ts tableSpec) int {
	n := int(((l.limit()-pageTopOffset)/2 - 2*cellPadding) / ts.lineH)
	return max(n, 1)
}

// cellLines wraps s into a column of width w, truncated to maxRowLines.
func (l *layout) cellLines(ts tableSpec, s string, w float64) []string {
	return l.clampLines(l.wrap(s, w), w, l.maxRowLines(ts))
}

// clampLines keeps the first n lines and ends the last kept line with
// truncationMark when lines were dropped.
func (l *layout) clampLines(lines []string, w float64, n int) []string {
	if len(lines) <= n {
		return lines
	}
	lines = lines[:n:n]
	last := []rune(lines[n-1])
	for len(last) > 0 && l.measure(string(last)+truncationMark) > w-2*cellPadding {
		last = last[:len(last)-1]
	}
	lines[n-1] = strings.TrimRight(string(last), " ") + truncationMark
	return lines
}

// fitFont shrinks the current font until s fits w, down to minFontSize.
// Callers restore the row font afterwards.
func (l *layout) fitFont(s string, w float64) {
	size, _ := l.pdf.GetFontSize()
	for size > minFontSize && l.measure(s) > w {
		size = max(size-0.5, minFontSize)
		l.pdf.SetFontSize(size)
	}
}

// rowColumns returns the effective columns of a row after merging spans.
func (l *layout) rowColumns(ts tableSpec, row tableRow) []tableColumn {
	if row.span <= 1 {
		return ts.columns
	}
	merged := tableColumn{align: "L", wrap: true}
	for _, c := range ts.columns[:row.span] {
		merged.width += c.width
	}
	return append([]tableColumn{merged}, ts.columns[row.span:]...)
}

func (l *layout) drawHeader(ts tableSpec) {
	l.setFont("B", ts.fontSize)
	l.setFill(colorHeader)
	l.setDraw(colorBorder)

	x := pageMarginX
	y := l.y
	hh := ts.headerH
	if !ts.grouped() {
		for _, c := range ts.columns {
			l.pdf.Rect(x, y, c.width, hh, "FD")
			l.text(x, y, c.width, hh, c.title, "C")
			x += c.width
		}
		l.y = y + hh
		return
	}

	for i := 0; i < len(ts.columns); {
		c := ts.columns[i]
		if c.group == "" {
			l.pdf.Rect(x, y, c.width, 2*hh, "FD")
			l.text(x, y, c.width, 2*hh, c.title, "C")
			x += c.width
			i++
			continue
		}
		groupW := 0.0
		j := i
		for ; j < len(ts.columns) && ts.columns[j].group == c.group; j++ {
			sub := ts.columns[j]
			l.pdf.Rect(x+groupW, y+hh, sub.width, hh, "FD")
			l.text(x+groupW, y+hh, sub.width, hh, sub.title, "C")
			groupW += sub.width
		}
		l.pdf.Rect(x, y, groupW, hh, "FD")
		l.text(x, y, groupW, hh, c.group, "C")
		x += groupW
		i = j
	}
	l.y = y + 2*hh
}

func (l *layout) drawRow(ts tableSpec, row tableRow, h float64) {
	l.rowFont(ts, row)
	l.setDraw(colorBorder)
	style := "D"
	if row.fill != nil {
		l.setFill(*row.fill)
		style = "FD"
	}

	x := pageMarginX
	for i, col := range l.rowColumns(ts, row) {
		l.pdf.Rect(x, l.y, col.width, h, style)
		lines := []string{row.cells[i]}
		if col.wrap {
			lines = l.cellLines(ts, row.cells[i], col.width)
		} else {
			l.fitFont(row.cells[i], col.width-2*cellPadding)
		}
		for n, line := range lines {
			l.text(x+cellPadding, l.y+cellPadding+float64(n)*ts.lineH, col.width-2*cellPadding, ts.lineH, line, col.align)
		}
		l.rowFont(ts, row)
		x += col.width
	}
	l.y += h
}

// table draws rows under a header. Pages break between rows only and the
// header is repeated at the top of every continuation page. Each page's
// part of the table is recorded as its own block.
func (l *layout) table(ts tableSpec, rows []tableRow) {
	if len(rows) == 0 {
		return
	}
	heights := make([]float64, len(rows))
	for i, r := range rows {
		heights[i] = l.rowHeight(ts, r)
	}
	l.ensure(ts.headerHeight() + heights[0])

	start := l.y
	var cells []string
	l.drawHeader(ts)
	for i, r := range rows {
		if l.y+heights[i] > l.limit() {
			l.record(BlockTable, start, l.y-start, cells)
			l.newPage()
			start, cells = l.y, nil
			l.drawHeader(ts)
		}
		l.drawRow(ts, r, heights[i])
		cells = append(cells, r.cells...)
	}
	l.record(BlockTable, start, l.y-start, cells)
	l.y += 2
}

// minTableHeight is the space a table needs before it may start.
func (l *layout) minTableHeight(ts tableSpec, rows []tableRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	return ts.headerHeight() + l.rowHeight(ts, rows[0])
}

// summary draws the TOTAL / PPN 11% / GRAND TOTAL block right-aligned under
// a table. The three rows stay on one page.
func (l *layout) summary(t Totals) {
	const rowH, valueW = 6.0, 45.0
	labelW := l.contentWidth() - valueW
	rows := []struct {
		label string
		value string
		fill  *rgb
	}{
		{"TOTAL", FormatRupiah(t.Total), nil},
		{"PPN 11%", FormatRupiah(t.PPN), nil},
		{"GRAND TOTAL", FormatRupiah(t.GrandTotal), &colorGrand},
	}
	h := float64(len(rows)) * rowH
	l.ensure(h)

	y := l.y
	var cells []string
	l.setDraw(colorBorder)
	for _, r := range rows {
		style := "D"
		if r.fill != nil {
			l.setFill(*r.fill)
			style = "FD"
		}
		l.setFont("B", 9)
		l.pdf.Rect(pageMarginX, l.y, labelW, rowH, style)
		l.pdf.Rect(pageMarginX+labelW, l.y, valueW, rowH, style)
		l.text(pageMarginX+cellPadding, l.y, labelW-2*cellPadding, rowH, r.label, "R")
		l.text(pageMarginX+labelW+cellPadding, l.y, valueW-2*cellPadding, rowH, r.value, "R")
		l.y += rowH
		cells = append(cells, r.label, r.value)
	}
	l.record(BlockSummary, y, h, cells)
	l.y += 5
}

// blockText joins block cells for logs and tests.
func blockText(b Block) string {
	return strings.Join(b.Cells, " | ")
}
