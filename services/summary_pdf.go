package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// OpnameSummaryFilename is the download name of the final opname table.
func OpnameSummaryFilename(storeCode string) string {
	return "Opname_Final_" + SanitizeFilename(storeCode) + ".pdf"
}

// GenerateOpnameSummaryPDF renders the approved submissions of a store as a
// single table using maroto/v2.
func GenerateOpnameSummaryPDF(store StoreDescriptor, submissions []ApprovedSubmission, printedAt time.Time) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(14).
		WithTopMargin(14).
		WithRightMargin(14).
		WithPageNumber(props.PageNumber{
			Pattern: "Halaman {current} dari {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	// --- Header Section ---
	addSummaryHeader(m, store, printedAt)

	// --- Table Header ---
	addSummaryTableHeader(m)

	// --- Table Body ---
	for i, s := range submissions {
		addSummaryTableRow(m, i+1, s)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate opname summary PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func addSummaryHeader(m core.Maroto, store StoreDescriptor, printedAt time.Time) {
	m.AddRows(
		row.New(10).Add(
			col.New(12).Add(
				text.New("Laporan Opname Final", props.Text{
					Size:  18,
					Style: fontstyle.Bold,
				}),
			),
		),
		row.New(7).Add(
			col.New(12).Add(
				text.New(fmt.Sprintf("Toko: %s - %s", store.StoreCode, store.StoreName), props.Text{
					Size: 12,
				}),
			),
		),
		row.New(6).Add(
			col.New(12).Add(
				text.New("Tanggal Cetak: "+FormatDateID(printedAt), props.Text{
					Size:  10,
					Color: &props.Color{Red: 80, Green: 80, Blue: 80},
				}),
			),
		),
	)

	// Spacer
	m.AddRows(row.New(6))
}

// summaryColumns are the grid widths of the seven table columns.
var summaryColumns = [...]int{1, 2, 3, 2, 1, 1, 2}

func addSummaryTableHeader(m core.Maroto) {
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
		Top:   1.5,
	}
	headerCell := props.Cell{BackgroundColor: &props.Color{Red: 229, Green: 30, Blue: 37}}

	titles := [...]string{"No", "Kategori", "Jenis Pekerjaan", "Vol RAB", "Volume Akhir", "Selisih", "Tgl Submit"}
	r := row.New(8)
	for i, title := range titles {
		r.Add(col.New(summaryColumns[i]).Add(text.New(title, headerText)).WithStyle(&headerCell))
	}
	m.AddRows(r)
}

func addSummaryTableRow(m core.Maroto, n int, s ApprovedSubmission) {
	base := props.Text{Size: 7, Align: align.Center, Top: 1}
	left := base
	left.Align = align.Left
	left.Left = 1

	volRAB := FormatQty(s.BudgetVolume)
	if s.Unit != "" {
		volRAB += " " + s.Unit
	}

	cells := [...]struct {
		value string
		style props.Text
	}{
		{strconv.Itoa(n), base},
		{s.Category, left},
		{s.WorkDescription, left},
		{volRAB, base},
		{FormatQty(s.FinalVolume), base},
		{FormatVariance(s.Variance, ""), base},
		{s.SubmittedAt, base},
	}

	grid := &props.Cell{
		BorderType:  border.Full,
		BorderColor: &props.Color{Red: 200, Green: 200, Blue: 200},
	}
	r := row.New(rowHeightFor(s.WorkDescription))
	for i, c := range cells {
		r.Add(col.New(summaryColumns[i]).Add(text.New(c.value, c.style)).WithStyle(grid))
	}
	m.AddRows(r)
}

// rowHeightFor grows a row for long work descriptions that wrap in the
// narrow description column.
func rowHeightFor(desc string) float64 {
	lines := 1 + len([]rune(desc))/34
	return float64(lines)*3.5 + 3
}
