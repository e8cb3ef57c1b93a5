package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"opname/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// findStore resolves the {kode} path value to a store with RAB lines.
func findStore(e *core.RequestEvent, store *services.SheetStore) (services.StoreDescriptor, error) {
	code := e.Request.PathValue("kode")
	if code == "" {
		return services.StoreDescriptor{}, fmt.Errorf("missing store code: %w", services.ErrInvalidStore)
	}
	return store.Store(e.Request.Context(), code)
}

// storeError maps store lookup failures to a response.
func storeError(e *core.RequestEvent, area string, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidStore):
		return e.String(http.StatusBadRequest, "Kode toko diperlukan.")
	case errors.Is(err, services.ErrNotFound):
		return e.String(http.StatusNotFound, "Toko tidak ditemukan.")
	case errors.Is(err, services.ErrSessionNotReady):
		return e.String(http.StatusServiceUnavailable, "Data belum siap.")
	default:
		log.Printf("%s: %v", area, err)
		return e.String(http.StatusInternalServerError, "Terjadi kesalahan pada server.")
	}
}

func sendAttachment(e *core.RequestEvent, contentType, filename string, data []byte) error {
	e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	return e.Blob(http.StatusOK, contentType, data)
}

// HandleReportExport returns a handler that generates the combined opname
// and RAB report of a store and downloads it.
func HandleReportExport(store *services.SheetStore, compositor *services.Compositor) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		desc, err := findStore(e, store)
		if err != nil {
			return storeError(e, "export_report", err)
		}

		subs, err := store.ApprovedSubmissions(e.Request.Context(), desc.StoreCode)
		if err != nil {
			return storeError(e, "export_report", err)
		}

		sink := &services.MemorySink{}
		report, err := compositor.Export(e.Request.Context(), sink, subs, desc)
		if err != nil {
			log.Printf("export_report: failed to generate %s: %v", desc.StoreCode, err)
			return e.String(http.StatusInternalServerError, "Gagal membuat laporan.")
		}
		pdf, _ := sink.Get(report.Filename)

		log.Printf("export_report: %s pages=%d photos=%d missing=%d", desc.StoreCode, report.PageCount, report.PhotoCount, report.MissingPhotos)
		return sendAttachment(e, "application/pdf", report.Filename, pdf)
	}
}

// HandleOpnameSummaryPDF returns a handler that downloads the final opname
// table of a store as a PDF.
func HandleOpnameSummaryPDF(store *services.SheetStore, loc *time.Location) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		desc, err := findStore(e, store)
		if err != nil {
			return storeError(e, "export_opname", err)
		}

		subs, err := store.ApprovedSubmissions(e.Request.Context(), desc.StoreCode)
		if err != nil {
			return storeError(e, "export_opname", err)
		}

		pdfBytes, err := services.GenerateOpnameSummaryPDF(desc, subs, time.Now().In(loc))
		if err != nil {
			log.Printf("export_opname: failed to generate: %v", err)
			return e.String(http.StatusInternalServerError, "Gagal membuat PDF.")
		}
		return sendAttachment(e, "application/pdf", services.OpnameSummaryFilename(desc.StoreCode), pdfBytes)
	}
}

// HandleRABExcel returns a handler that downloads the categorized RAB of a
// store as an Excel workbook.
func HandleRABExcel(store *services.SheetStore, loc *time.Location) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		desc, err := findStore(e, store)
		if err != nil {
			return storeError(e, "export_rab", err)
		}

		items, err := store.BudgetItems(e.Request.Context(), desc.StoreCode)
		if err != nil {
			return storeError(e, "export_rab", err)
		}

		xlsxBytes, err := services.GenerateRABExcel(desc, services.SummarizeBudget(items), time.Now().In(loc))
		if err != nil {
			log.Printf("export_rab: failed to generate: %v", err)
			return e.String(http.StatusInternalServerError, "Gagal membuat file Excel.")
		}
		return sendAttachment(e, xlsxContentType, services.RABExcelFilename(desc.StoreCode), xlsxBytes)
	}
}
