package services

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// RABSheetName is the single sheet of the RAB workbook.
const RABSheetName = "RAB"

// RABExcelFilename is the download name of the RAB workbook.
func RABExcelFilename(storeCode string) string {
	return "RAB_" + SanitizeFilename(storeCode) + ".xlsx"
}

// GenerateRABExcel writes the categorized budget of a store as a workbook:
// one block per category with a SUB TOTAL row, then TOTAL, PPN and
// GRAND TOTAL.
func GenerateRABExcel(store StoreDescriptor, summary BudgetSummary, printedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := RABSheetName
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	// Column references (A through I).
	columns := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I"}
	lastCol := columns[len(columns)-1]

	widths := []float64{6, 44, 9, 10, 16, 16, 18, 18, 20}
	for i, col := range columns {
		if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	// ── Styles ──────────────────────────────────────────────────────────

	styles, err := newRABStyles(f)
	if err != nil {
		return nil, err
	}

	// ── Header Rows (1-3) ───────────────────────────────────────────────

	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheet, "A1", "RAB FINAL")
	f.SetCellStyle(sheet, "A1", lastCol+"1", styles.title)

	if err := f.MergeCell(sheet, "A2", lastCol+"2"); err != nil {
		return nil, fmt.Errorf("merge store: %w", err)
	}
	f.SetCellValue(sheet, "A2", sanitizeExcelCell(fmt.Sprintf("%s - %s", store.StoreCode, store.StoreName)))
	f.SetCellStyle(sheet, "A2", lastCol+"2", styles.subtitle)

	if err := f.MergeCell(sheet, "A3", lastCol+"3"); err != nil {
		return nil, fmt.Errorf("merge date: %w", err)
	}
	f.SetCellValue(sheet, "A3", "Tanggal: "+FormatDateID(printedAt))
	f.SetCellStyle(sheet, "A3", lastCol+"3", styles.subtitle)

	// ── Row 5: Column Headers ───────────────────────────────────────────

	headers := []string{"No", "Jenis Pekerjaan", "Satuan", "Volume",
		"Harga Material", "Harga Upah", "Total Material", "Total Upah", "Total Harga"}
	for i, h := range headers {
		f.SetCellValue(sheet, columns[i]+"5", h)
	}
	f.SetCellStyle(sheet, "A5", lastCol+"5", styles.header)

	// ── Category Blocks (starting row 6) ────────────────────────────────

	row := 6
	for gi, g := range summary.Groups {
		r := strconv.Itoa(row)
		if err := f.MergeCell(sheet, "A"+r, lastCol+r); err != nil {
			return nil, fmt.Errorf("merge category: %w", err)
		}
		f.SetCellValue(sheet, "A"+r, fmt.Sprintf("%d. %s", gi+1, g.Category))
		f.SetCellStyle(sheet, "A"+r, lastCol+r, styles.category)
		row++

		material, labor := decimal.Zero, decimal.Zero
		for i, item := range g.Items {
			r = strconv.Itoa(row)
			material = material.Add(item.MaterialSubtotal())
			labor = labor.Add(item.LaborSubtotal())

			f.SetCellValue(sheet, "A"+r, i+1)
			f.SetCellValue(sheet, "B"+r, sanitizeExcelCell(item.Description))
			f.SetCellValue(sheet, "C"+r, sanitizeExcelCell(item.Unit))
			f.SetCellValue(sheet, "D"+r, item.Volume.InexactFloat64())
			f.SetCellValue(sheet, "E"+r, item.UnitPriceMaterial.InexactFloat64())
			f.SetCellValue(sheet, "F"+r, item.UnitPriceLabor.InexactFloat64())
			f.SetCellValue(sheet, "G"+r, item.MaterialSubtotal().InexactFloat64())
			f.SetCellValue(sheet, "H"+r, item.LaborSubtotal().InexactFloat64())
			f.SetCellValue(sheet, "I"+r, item.LineTotal().InexactFloat64())
			f.SetCellStyle(sheet, "A"+r, "C"+r, styles.item)
			f.SetCellStyle(sheet, "D"+r, lastCol+r, styles.amount)
			row++
		}

		r = strconv.Itoa(row)
		if err := f.MergeCell(sheet, "A"+r, "F"+r); err != nil {
			return nil, fmt.Errorf("merge subtotal: %w", err)
		}
		f.SetCellValue(sheet, "A"+r, LabelSubtotal)
		f.SetCellValue(sheet, "G"+r, material.InexactFloat64())
		f.SetCellValue(sheet, "H"+r, labor.InexactFloat64())
		f.SetCellValue(sheet, "I"+r, g.Subtotal.InexactFloat64())
		f.SetCellStyle(sheet, "A"+r, "F"+r, styles.subtotalLabel)
		f.SetCellStyle(sheet, "G"+r, lastCol+r, styles.subtotalValue)
		row += 2
	}

	// ── Summary Rows ────────────────────────────────────────────────────

	totals := []struct {
		label string
		value decimal.Decimal
	}{
		{"TOTAL", summary.Totals.Total},
		{"PPN 11%", summary.Totals.PPN},
		{"GRAND TOTAL", summary.Totals.GrandTotal},
	}
	for _, t := range totals {
		r := strconv.Itoa(row)
		f.SetCellValue(sheet, "H"+r, t.label)
		f.SetCellStyle(sheet, "H"+r, "H"+r, styles.summaryLabel)
		f.SetCellValue(sheet, "I"+r, t.value.InexactFloat64())
		f.SetCellStyle(sheet, "I"+r, "I"+r, styles.summaryValue)
		row++
	}

	// ── Write to buffer ─────────────────────────────────────────────────

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

type rabStyles struct {
	title, subtitle, header, category int
	item, amount                      int
	subtotalLabel, subtotalValue      int
	summaryLabel, summaryValue        int
}

// rupiahFormat shows whole rupiah with thousands grouping.
var rupiahFormat = "#,##0"

func newRABStyles(f *excelize.File) (rabStyles, error) {
	var s rabStyles
	defs := []struct {
		dst   *int
		name  string
		style *excelize.Style
	}{
		{&s.title, "title", &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}},
		{&s.subtitle, "subtitle", &excelize.Style{Font: &excelize.Font{Size: 11}}},
		{&s.header, "header", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E51E25"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
			Border:    thinBorders(),
		}},
		{&s.category, "category", &excelize.Style{
			Font:   &excelize.Font{Bold: true, Size: 10},
			Fill:   excelize.Fill{Type: "pattern", Color: []string{"#F2F2F2"}, Pattern: 1},
			Border: thinBorders(),
		}},
		{&s.item, "item", &excelize.Style{
			Font:      &excelize.Font{Size: 10},
			Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
			Border:    thinBorders(),
		}},
		{&s.amount, "amount", &excelize.Style{
			Font:         &excelize.Font{Size: 10},
			CustomNumFmt: &rupiahFormat,
			Border:       thinBorders(),
		}},
		{&s.subtotalLabel, "subtotal label", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 10},
			Alignment: &excelize.Alignment{Horizontal: "right"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFF2CC"}, Pattern: 1},
			Border:    thinBorders(),
		}},
		{&s.subtotalValue, "subtotal value", &excelize.Style{
			Font:         &excelize.Font{Bold: true, Size: 10},
			Fill:         excelize.Fill{Type: "pattern", Color: []string{"#FFF2CC"}, Pattern: 1},
			CustomNumFmt: &rupiahFormat,
			Border:       thinBorders(),
		}},
		{&s.summaryLabel, "summary label", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11},
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
		{&s.summaryValue, "summary value", &excelize.Style{
			Font:         &excelize.Font{Bold: true, Size: 11},
			CustomNumFmt: &rupiahFormat,
		}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return s, fmt.Errorf("create %s style: %w", d.name, err)
		}
		*d.dst = id
	}
	return s, nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1,
		}
	}
	return borders
}
