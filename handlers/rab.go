package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"opname/services"
)

// rabItemJSON is one RAB line as returned by /api/rab.
type rabItemJSON struct {
	Category      string `json:"kategori_pekerjaan"`
	Group         string `json:"kategori_laporan"`
	Description   string `json:"jenis_pekerjaan"`
	Unit          string `json:"satuan"`
	Volume        string `json:"volume"`
	MaterialPrice string `json:"harga_material"`
	LaborPrice    string `json:"harga_upah"`
	Total         string `json:"total_harga"`
}

// submissionJSON is one approved submission as returned by /api/opname/final.
type submissionJSON struct {
	Category      string `json:"kategori_pekerjaan"`
	Description   string `json:"jenis_pekerjaan"`
	BudgetVolume  string `json:"vol_rab"`
	Unit          string `json:"satuan"`
	FinalVolume   string `json:"volume_akhir"`
	Variance      string `json:"selisih"`
	Total         string `json:"total_harga_akhir"`
	PhotoURL      string `json:"foto_url"`
	SubmittedAt   string `json:"tanggal_submit"`
	ApprovalState string `json:"approval_status"`
}

func message(msg string) map[string]string {
	return map[string]string{"message": msg}
}

// HandleRABList returns the RAB lines of a store, optionally narrowed to one
// project reference.
func HandleRABList(store *services.SheetStore) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		code := e.Request.URL.Query().Get("kode_toko")
		if code == "" {
			return e.JSON(http.StatusBadRequest, message("Kode toko diperlukan."))
		}

		items, err := store.BudgetItemsByProject(e.Request.Context(), code, e.Request.URL.Query().Get("no_ulok"))
		if err != nil {
			log.Printf("rab: list %s: %v", code, err)
			return e.JSON(http.StatusInternalServerError, message("Terjadi kesalahan pada server."))
		}

		out := make([]rabItemJSON, 0, len(items))
		for _, item := range items {
			out = append(out, rabItemJSON{
				Category:      item.CategoryHint,
				Group:         services.ClassifyItem(item).String(),
				Description:   item.Description,
				Unit:          item.Unit,
				Volume:        item.Volume.String(),
				MaterialPrice: item.UnitPriceMaterial.String(),
				LaborPrice:    item.UnitPriceLabor.String(),
				Total:         item.LineTotal().String(),
			})
		}
		return e.JSON(http.StatusOK, out)
	}
}

// HandlePicContractor resolves the PIC and contractor of a project. Every
// response carries both names, N/A when unknown.
func HandlePicContractor(store *services.SheetStore) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ulok := e.Request.URL.Query().Get("no_ulok")
		if ulok == "" {
			return e.JSON(http.StatusBadRequest, message("No. Ulok diperlukan."))
		}

		info, err := store.PicContractor(e.Request.Context(), ulok)
		body := map[string]string{
			"pic_username":        info.PicName,
			"kontraktor_username": info.ContractorName,
		}
		switch {
		case err == nil:
			return e.JSON(http.StatusOK, body)
		case errors.Is(err, services.ErrNotFound):
			body["message"] = "Data tidak ditemukan untuk no_ulok tersebut."
			return e.JSON(http.StatusNotFound, body)
		default:
			log.Printf("rab: pic/kontraktor %s: %v", ulok, err)
			body["message"] = "Terjadi kesalahan pada server."
			return e.JSON(http.StatusInternalServerError, body)
		}
	}
}

// HandleFinalOpnameList returns the approved submissions of a store.
func HandleFinalOpnameList(store *services.SheetStore) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		code := e.Request.URL.Query().Get("kode_toko")
		if code == "" {
			return e.JSON(http.StatusBadRequest, message("Kode toko diperlukan."))
		}

		subs, err := store.ApprovedSubmissions(e.Request.Context(), code)
		if err != nil {
			log.Printf("rab: opname final %s: %v", code, err)
			return e.JSON(http.StatusInternalServerError, message("Terjadi kesalahan pada server saat membaca data final."))
		}

		out := make([]submissionJSON, 0, len(subs))
		for _, s := range subs {
			out = append(out, submissionJSON{
				Category:      s.Category,
				Description:   s.WorkDescription,
				BudgetVolume:  s.BudgetVolume.String(),
				Unit:          s.Unit,
				FinalVolume:   s.FinalVolume.String(),
				Variance:      s.Variance.String(),
				Total:         s.FinalTotalPrice.String(),
				PhotoURL:      s.PhotoURL,
				SubmittedAt:   s.SubmittedAt,
				ApprovalState: "Approved",
			})
		}
		return e.JSON(http.StatusOK, out)
	}
}
