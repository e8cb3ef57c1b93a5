package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"opname/services"
	"opname/templates"
)

// HandleFinalOpnameView renders the approved submissions of a store with
// links to the report downloads.
func HandleFinalOpnameView(store *services.SheetStore) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ctx := e.Request.Context()

		// 1. Resolve the store
		desc, err := findStore(e, store)
		if err != nil {
			return storeError(e, "opname_view", err)
		}

		// 2. Fetch approved submissions and the PIC/contractor
		subs, err := store.ApprovedSubmissions(ctx, desc.StoreCode)
		if err != nil {
			return storeError(e, "opname_view", err)
		}
		people, err := store.PicContractor(ctx, desc.ProjectReference)
		if err != nil {
			log.Printf("opname_view: pic/kontraktor %s: %v", desc.ProjectReference, err)
			people = services.UnknownPicContractor
		}

		// 3. Build view rows
		rows := make([]templates.FinalOpnameRow, 0, len(subs))
		for i, s := range subs {
			rows = append(rows, templates.FinalOpnameRow{
				Index:       i + 1,
				Category:    s.Category,
				Description: s.WorkDescription,
				BudgetVol:   services.FormatQty(s.BudgetVolume),
				Unit:        s.Unit,
				FinalVol:    services.FormatQty(s.FinalVolume),
				Variance:    services.FormatVariance(s.Variance, s.Unit),
				Total:       services.FormatRupiah(s.FinalTotalPrice),
				SubmittedAt: s.SubmittedAt,
				PhotoURL:    s.PhotoURL,
			})
		}
		totals := services.SummarizeOpname(subs)

		base := "/stores/" + desc.StoreCode
		data := templates.FinalOpnameData{
			StoreCode:  desc.StoreCode,
			StoreName:  desc.StoreName,
			Ulok:       services.NotAvailableIfBlank(desc.ProjectReference),
			Address:    desc.DisplayAddress(),
			PIC:        people.PicName,
			Contractor: people.ContractorName,
			Rows:       rows,
			Total:      services.FormatRupiah(totals.Total),
			PPN:        services.FormatRupiah(totals.PPN),
			GrandTotal: services.FormatRupiah(totals.GrandTotal),
			ReportURL:  base + "/report",
			ExcelURL:   base + "/rab/excel",
			ImageProxy: "/api/image-proxy",
		}
		if len(subs) > 0 {
			data.SummaryURL = base + "/opname-final/pdf"
		}

		// 4. Render
		return templates.FinalOpnamePage(data).Render(ctx, e.Response)
	}
}

// HandleStoreList renders every store that has RAB lines.
func HandleStoreList(store *services.SheetStore) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		stores, err := store.Stores(e.Request.Context())
		if err != nil {
			log.Printf("store_list: %v", err)
			return e.String(http.StatusInternalServerError, "Terjadi kesalahan pada server.")
		}

		items := make([]templates.StoreListItem, 0, len(stores))
		for _, s := range stores {
			items = append(items, templates.StoreListItem{
				Code:     s.StoreCode,
				Name:     s.StoreName,
				Ulok:     s.ProjectReference,
				Items:    s.Items,
				Approved: s.Approved,
			})
		}
		return templates.StoreListPage(items).Render(e.Request.Context(), e.Response)
	}
}
