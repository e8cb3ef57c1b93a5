package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"opname/collections"
)

// SheetStore reads the RAB and final-opname collections and maps every
// record into a typed entity before returning it.
type SheetStore struct {
	session *Session
}

// NewSheetStore returns a store reading through session.
func NewSheetStore(session *Session) *SheetStore {
	return &SheetStore{session: session}
}

var (
	_ BudgetSource        = (*SheetStore)(nil)
	_ PicContractorSource = (*SheetStore)(nil)
)

func (s *SheetStore) app(ctx context.Context) (core.App, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := CheckSession(s.session); err != nil {
		return nil, err
	}
	return s.session.App(), nil
}

// BudgetItems returns the RAB lines of a store in sheet order.
func (s *SheetStore) BudgetItems(ctx context.Context, storeCode string) ([]BudgetItem, error) {
	return s.BudgetItemsByProject(ctx, storeCode, "")
}

// BudgetItemsByProject narrows BudgetItems to one project reference when
// projectReference is not empty.
func (s *SheetStore) BudgetItemsByProject(ctx context.Context, storeCode, projectReference string) ([]BudgetItem, error) {
	app, err := s.app(ctx)
	if err != nil {
		return nil, err
	}

	filter := "kode_toko = {:kode}"
	params := map[string]any{"kode": storeCode}
	if projectReference != "" {
		filter += " && no_ulok = {:ulok}"
		params["ulok"] = projectReference
	}

	records, err := app.FindRecordsByFilter(collections.DataRAB, filter, "sort_order,created", 0, 0, params)
	if err != nil {
		return nil, fmt.Errorf("sheet store: query %s for %s: %w", collections.DataRAB, storeCode, err)
	}

	items := make([]BudgetItem, 0, len(records))
	for _, rec := range records {
		items = append(items, budgetItemFromRecord(rec))
	}
	return items, nil
}

// PicContractor resolves the PIC and contractor of a project. Blank names
// are reported as N/A; a project without RAB rows is ErrNotFound.
func (s *SheetStore) PicContractor(ctx context.Context, projectReference string) (PicContractorInfo, error) {
	app, err := s.app(ctx)
	if err != nil {
		return UnknownPicContractor, err
	}
	if projectReference == "" {
		return UnknownPicContractor, fmt.Errorf("sheet store: empty project reference: %w", ErrNotFound)
	}

	rec, err := app.FindFirstRecordByFilter(collections.DataRAB, "no_ulok = {:ulok}", map[string]any{"ulok": projectReference})
	if err != nil {
		return UnknownPicContractor, fmt.Errorf("sheet store: pic for %s: %w", projectReference, ErrNotFound)
	}

	return PicContractorInfo{
		PicName:        NotAvailableIfBlank(rec.GetString("pic_username")),
		ContractorName: NotAvailableIfBlank(rec.GetString("kontraktor_username")),
	}, nil
}

// ApprovedSubmissions returns the approved final-opname rows of a store in
// submission order.
func (s *SheetStore) ApprovedSubmissions(ctx context.Context, storeCode string) ([]ApprovedSubmission, error) {
	app, err := s.app(ctx)
	if err != nil {
		return nil, err
	}

	records, err := app.FindRecordsByFilter(
		collections.OpnameFinal,
		"kode_toko = {:kode} && approval_status = {:status}",
		"created", 0, 0,
		map[string]any{"kode": storeCode, "status": collections.StatusApproved},
	)
	if err != nil {
		return nil, fmt.Errorf("sheet store: query %s for %s: %w", collections.OpnameFinal, storeCode, err)
	}

	subs := make([]ApprovedSubmission, 0, len(records))
	for _, rec := range records {
		subs = append(subs, submissionFromRecord(rec))
	}
	return subs, nil
}

// Store builds the descriptor of a store from its first RAB row.
func (s *SheetStore) Store(ctx context.Context, storeCode string) (StoreDescriptor, error) {
	app, err := s.app(ctx)
	if err != nil {
		return StoreDescriptor{}, err
	}

	rec, err := app.FindFirstRecordByFilter(collections.DataRAB, "kode_toko = {:kode}", map[string]any{"kode": storeCode})
	if err != nil {
		return StoreDescriptor{}, fmt.Errorf("sheet store: store %s: %w", storeCode, ErrNotFound)
	}
	return StoreDescriptor{
		StoreCode:        rec.GetString("kode_toko"),
		StoreName:        rec.GetString("nama_toko"),
		ProjectReference: rec.GetString("no_ulok"),
		Address:          rec.GetString("alamat"),
	}, nil
}

// StoreSummary is a store with RAB lines and the number of its lines and
// approved submissions.
type StoreSummary struct {
	StoreDescriptor
	Items    int
	Approved int
}

// Stores lists every store that has RAB lines, ordered by store code.
func (s *SheetStore) Stores(ctx context.Context) ([]StoreSummary, error) {
	app, err := s.app(ctx)
	if err != nil {
		return nil, err
	}

	records, err := app.FindAllRecords(collections.DataRAB)
	if err != nil {
		return nil, fmt.Errorf("sheet store: list %s: %w", collections.DataRAB, err)
	}

	byCode := make(map[string]*StoreSummary)
	for _, rec := range records {
		code := rec.GetString("kode_toko")
		if code == "" {
			continue
		}
		sum, ok := byCode[code]
		if !ok {
			sum = &StoreSummary{StoreDescriptor: StoreDescriptor{
				StoreCode:        code,
				StoreName:        rec.GetString("nama_toko"),
				ProjectReference: rec.GetString("no_ulok"),
				Address:          rec.GetString("alamat"),
			}}
			byCode[code] = sum
		}
		sum.Items++
	}

	approved, err := app.FindRecordsByFilter(collections.OpnameFinal,
		"approval_status = {:status}", "", 0, 0,
		map[string]any{"status": collections.StatusApproved},
	)
	if err != nil {
		return nil, fmt.Errorf("sheet store: list %s: %w", collections.OpnameFinal, err)
	}
	for _, rec := range approved {
		if sum, ok := byCode[rec.GetString("kode_toko")]; ok {
			sum.Approved++
		}
	}

	out := make([]StoreSummary, 0, len(byCode))
	for _, sum := range byCode {
		out = append(out, *sum)
	}
	slices.SortFunc(out, func(a, b StoreSummary) int {
		return strings.Compare(a.StoreCode, b.StoreCode)
	})
	return out, nil
}

func budgetItemFromRecord(rec *core.Record) BudgetItem {
	return BudgetItem{
		CategoryHint:      strings.TrimSpace(rec.GetString("kategori_pekerjaan")),
		Description:       strings.TrimSpace(rec.GetString("jenis_pekerjaan")),
		Unit:              rec.GetString("satuan"),
		Volume:            decimal.NewFromFloat(rec.GetFloat("vol_rab")),
		UnitPriceMaterial: decimal.NewFromFloat(rec.GetFloat("harga_material")),
		UnitPriceLabor:    decimal.NewFromFloat(rec.GetFloat("harga_upah")),
	}
}

func submissionFromRecord(rec *core.Record) ApprovedSubmission {
	budget := decimal.NewFromFloat(rec.GetFloat("vol_rab"))
	final := decimal.NewFromFloat(rec.GetFloat("volume_akhir"))

	total := decimal.NewFromFloat(rec.GetFloat("total_harga_akhir"))
	if total.IsZero() {
		unitPrice := decimal.NewFromFloat(rec.GetFloat("harga_material")).
			Add(decimal.NewFromFloat(rec.GetFloat("harga_upah")))
		total = final.Mul(unitPrice)
	}

	return ApprovedSubmission{
		Category:        strings.TrimSpace(rec.GetString("kategori_pekerjaan")),
		WorkDescription: strings.TrimSpace(rec.GetString("jenis_pekerjaan")),
		BudgetVolume:    budget,
		Unit:            rec.GetString("satuan"),
		FinalVolume:     final,
		Variance:        final.Sub(budget),
		FinalTotalPrice: total,
		SubmittedAt:     rec.GetString("tanggal_submit"),
		PhotoURL:        strings.TrimSpace(rec.GetString("foto_url")),
	}
}

// NotAvailableIfBlank returns s, or N/A when s is blank.
func NotAvailableIfBlank(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}
