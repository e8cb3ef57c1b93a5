package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"opname/config"
)

// Section labels of the combined report.
const (
	LabelBudgetSection = "RAB FINAL"
	LabelOpnameSection = "LAPORAN OPNAME FINAL (APPROVED)"
	LabelAppendix      = "LAMPIRAN FOTO BUKTI"
	LabelSubtotal      = "SUB TOTAL"
)

// Letterhead is the fixed text printed at the top of the report.
type Letterhead struct {
	CompanyName string
	BranchLine  string
	Title       string
}

// Compositor produces the combined opname and RAB report.
type Compositor struct {
	Budget     BudgetSource
	People     PicContractorSource
	Photos     *PhotoLoader
	Letterhead Letterhead
	Location   *time.Location
	Clock      func() time.Time
	Logger     *slog.Logger
}

// NewCompositor wires a compositor reading from store and fetching photos
// as configured.
func NewCompositor(cfg *config.Config, store *SheetStore, logger *slog.Logger) *Compositor {
	return &Compositor{
		Budget: store,
		People: store,
		Photos: &PhotoLoader{
			Proxy: &HTTPPhotoProxy{
				Endpoint: cfg.PhotoProxyURL,
				Client:   &http.Client{Timeout: cfg.PhotoTimeout},
				MaxBytes: cfg.PhotoMaxBytes,
			},
			MaxPixels:   cfg.PhotoMaxPixels,
			Concurrency: cfg.PhotoConcurrency,
			Logger:      logger,
		},
		Letterhead: Letterhead{
			CompanyName: cfg.CompanyName,
			BranchLine:  cfg.BranchLine,
			Title:       cfg.ReportTitle,
		},
		Location: cfg.Location(),
		Logger:   logger,
	}
}

// Report is a generated document and what was laid out in it.
type Report struct {
	Filename      string
	PDF           []byte
	PageCount     int
	Blocks        []Block
	Budget        BudgetSummary
	Opname        Totals
	People        PicContractorInfo
	PhotoCount    int
	MissingPhotos int
}

// BlocksOf returns the blocks of one kind in drawing order.
func (r *Report) BlocksOf(kind BlockKind) []Block {
	var out []Block
	for _, b := range r.Blocks {
		if b.Kind == kind {
			out = append(out, b)
		}
	}
	return out
}

// ReportFilename is the download name of the combined report.
func ReportFilename(storeCode string) string {
	return "Laporan_Opname_dan_RAB_" + SanitizeFilename(storeCode) + ".pdf"
}

func (c *Compositor) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Compositor) now() time.Time {
	now := time.Now
	if c.Clock != nil {
		now = c.Clock
	}
	loc := c.Location
	if loc == nil {
		loc = config.DefaultLocation()
	}
	return now().In(loc)
}

// Generate lays out the report for store. Budget lines and the PIC and
// contractor are fetched here; when they cannot be read the report is
// produced without them. Only an invalid store or a PDF engine failure
// is returned as an error.
func (c *Compositor) Generate(ctx context.Context, submissions []ApprovedSubmission, store StoreDescriptor) (*Report, error) {
	if err := store.Validate(); err != nil {
		return nil, err
	}

	items, people := c.fetchSources(ctx, store)
	now := c.now()
	stamp := FormatTimestampID(now)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMarginX, pageTopOffset, pageMarginX)
	pdf.SetAutoPageBreak(false, pageBottomMargin)
	pdf.SetCreationDate(now)
	pdf.SetModificationDate(now)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(ReportFilename(store.StoreCode), true)
	pdf.SetAuthor(c.Letterhead.CompanyName, true)

	l := newLayout(pdf, func(page int) string {
		return fmt.Sprintf("Page %d - printed at %s", page, stamp)
	})

	report := &Report{
		Filename: ReportFilename(store.StoreCode),
		Budget:   SummarizeBudget(items),
		Opname:   SummarizeOpname(submissions),
		People:   people,
	}

	// --- Page 1: masthead and project info ---
	l.newPage()
	c.drawMasthead(l)
	l.title(c.title())
	l.info([]infoRow{
		{"Nama Proyek", store.StoreName},
		{"Kode Toko", store.StoreCode},
		{"No. Ulok", NotAvailableIfBlank(store.ProjectReference)},
		{"Alamat", store.DisplayAddress()},
		{"Tanggal", FormatDateID(now)},
		{"PIC", people.PicName},
		{"Kontraktor", people.ContractorName},
	})

	// --- RAB ---
	if len(report.Budget.Groups) > 0 {
		drawBudgetSection(l, report.Budget)
	}

	// --- Final opname ---
	if len(submissions) > 0 {
		l.newPage()
		drawOpnameSection(l, submissions, report.Opname)
	}

	// --- Photo appendix ---
	report.PhotoCount, report.MissingPhotos = c.drawPhotoAppendix(ctx, l, submissions, store)

	l.finishPage()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: render pdf: %w", err)
	}

	report.PDF = buf.Bytes()
	report.PageCount = l.page
	report.Blocks = l.blocks
	return report, nil
}

// Export generates the report and saves it to sink. Nothing is saved when
// generation fails.
func (c *Compositor) Export(ctx context.Context, sink DocumentSink, submissions []ApprovedSubmission, store StoreDescriptor) (*Report, error) {
	report, err := c.Generate(ctx, submissions, store)
	if err != nil {
		return nil, err
	}
	if err := sink.Save(report.Filename, report.PDF); err != nil {
		return nil, fmt.Errorf("report: save %s: %w", report.Filename, err)
	}
	return report, nil
}

// fetchSources reads budget lines and the PIC/contractor concurrently.
// Failures degrade to an empty list and N/A names.
func (c *Compositor) fetchSources(ctx context.Context, store StoreDescriptor) ([]BudgetItem, PicContractorInfo) {
	var (
		items  []BudgetItem
		people = UnknownPicContractor
	)

	var g errgroup.Group
	if c.Budget != nil {
		g.Go(func() error {
			got, err := c.Budget.BudgetItems(ctx, store.StoreCode)
			if err != nil {
				c.logger().Warn("budget items unavailable", "store", store.StoreCode, "error", err)
				return nil
			}
			items = got
			return nil
		})
	}
	if c.People != nil {
		g.Go(func() error {
			got, err := c.People.PicContractor(ctx, store.ProjectReference)
			if err != nil {
				c.logger().Warn("pic/contractor unavailable", "ulok", store.ProjectReference, "error", err)
				return nil
			}
			people = PicContractorInfo{
				PicName:        NotAvailableIfBlank(got.PicName),
				ContractorName: NotAvailableIfBlank(got.ContractorName),
			}
			return nil
		})
	}
	_ = g.Wait()
	return items, people
}

func (c *Compositor) title() string {
	if c.Letterhead.Title != "" {
		return c.Letterhead.Title
	}
	return "LAPORAN OPNAME FINAL & RAB"
}

func (c *Compositor) drawMasthead(l *layout) {
	lines := []string{c.Letterhead.CompanyName}
	sizes := []float64{14}
	if c.Letterhead.BranchLine != "" {
		lines = append(lines, c.Letterhead.BranchLine)
		sizes = append(sizes, 9)
	}
	l.band(BlockMasthead, colorMasthead, lines, sizes, 0)
}

var budgetTable = tableSpec{
	columns: []tableColumn{
		{title: "No", width: 8, align: "C"},
		{title: "Jenis Pekerjaan", width: 40, align: "L", wrap: true},
		{title: "Satuan", width: 12, align: "C"},
		{title: "Volume", width: 14, align: "R"},
		{title: "Material", group: "Harga Satuan", width: 22, align: "R"},
		{title: "Upah", group: "Harga Satuan", width: 22, align: "R"},
		{title: "Material", group: "Total Harga", width: 24, align: "R"},
		{title: "Upah", group: "Total Harga", width: 24, align: "R"},
		{title: "Total", group: "Total Harga", width: 24, align: "R"},
	},
	fontSize: 7,
	lineH:    3.6,
	headerH:  5,
}

// budgetRows builds the rows of one category table, ending with its
// SUB TOTAL row.
func budgetRows(g CategoryGroup) []tableRow {
	rows := make([]tableRow, 0, len(g.Items)+1)
	material, labor := decimal.Zero, decimal.Zero
	for i, item := range g.Items {
		material = material.Add(item.MaterialSubtotal())
		labor = labor.Add(item.LaborSubtotal())
		rows = append(rows, tableRow{cells: []string{
			strconv.Itoa(i + 1),
			item.Description,
			item.Unit,
			FormatQty(item.Volume),
			FormatRupiah(item.UnitPriceMaterial),
			FormatRupiah(item.UnitPriceLabor),
			FormatRupiah(item.MaterialSubtotal()),
			FormatRupiah(item.LaborSubtotal()),
			FormatRupiah(item.LineTotal()),
		}})
	}
	rows = append(rows, tableRow{
		cells: []string{LabelSubtotal, FormatRupiah(material), FormatRupiah(labor), FormatRupiah(g.Subtotal)},
		bold:  true,
		fill:  &colorSubtotal,
		span:  6,
	})
	return rows
}

func drawBudgetSection(l *layout, summary BudgetSummary) {
	first := budgetRows(summary.Groups[0])
	l.band(BlockSection, colorBudget, []string{LabelBudgetSection}, []float64{11}, 7+l.minTableHeight(budgetTable, first))

	for i, g := range summary.Groups {
		rows := budgetRows(g)
		l.heading(fmt.Sprintf("%d. %s", i+1, g.Category), l.minTableHeight(budgetTable, rows))
		l.table(budgetTable, rows)
	}
	l.summary(summary.Totals)
}

var opnameTable = tableSpec{
	columns: []tableColumn{
		{title: "No", width: 8, align: "C"},
		{title: "Jenis Pekerjaan", width: 62, align: "L", wrap: true},
		{title: "Vol RAB", width: 18, align: "R"},
		{title: "Satuan", width: 15, align: "C"},
		{title: "Volume Akhir", width: 20, align: "R"},
		{title: "Selisih", width: 27, align: "R"},
		{title: "Total Harga Akhir", width: 40, align: "R"},
	},
	fontSize: 7.5,
	lineH:    3.8,
	headerH:  7,
}

func opnameRows(submissions []ApprovedSubmission) []tableRow {
	rows := make([]tableRow, 0, len(submissions))
	for i, s := range submissions {
		rows = append(rows, tableRow{cells: []string{
			strconv.Itoa(i + 1),
			s.WorkDescription,
			FormatQty(s.BudgetVolume),
			s.Unit,
			FormatQty(s.FinalVolume),
			FormatVariance(s.Variance, s.Unit),
			FormatRupiah(s.FinalTotalPrice),
		}})
	}
	return rows
}

func drawOpnameSection(l *layout, submissions []ApprovedSubmission, totals Totals) {
	rows := opnameRows(submissions)
	l.band(BlockSection, colorOpname, []string{LabelOpnameSection}, []float64{11}, l.minTableHeight(opnameTable, rows))
	l.table(opnameTable, rows)
	l.summary(totals)
}
