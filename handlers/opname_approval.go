package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"opname/collections"
	"opname/services"
)

// pendingJSON is one row awaiting a decision, as returned by
// /api/opname/pending.
type pendingJSON struct {
	ItemID      string `json:"item_id"`
	StoreCode   string `json:"kode_toko"`
	StoreName   string `json:"nama_toko"`
	PIC         string `json:"pic_username"`
	SubmittedAt string `json:"tanggal_submit"`
	Description string `json:"jenis_pekerjaan"`
	Unit        string `json:"satuan"`
	FinalVolume string `json:"volume_akhir"`
	Variance    string `json:"selisih"`
	PhotoURL    string `json:"foto_url"`
}

type decisionRequest struct {
	ItemID string `json:"item_id" form:"item_id"`
}

var decisionMessages = map[string]string{
	collections.StatusApproved: "Opname berhasil di-approve.",
	collections.StatusRejected: "Opname berhasil di-reject.",
}

// HandlePendingList lists the rows awaiting a decision, optionally narrowed
// to one store.
func HandlePendingList(store *services.SheetStore) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		code := e.Request.URL.Query().Get("kode_toko")

		pending, err := store.PendingSubmissions(e.Request.Context(), code)
		if err != nil {
			log.Printf("opname_pending: list %q: %v", code, err)
			return e.JSON(http.StatusInternalServerError, message("Terjadi kesalahan pada server."))
		}

		out := make([]pendingJSON, 0, len(pending))
		for _, p := range pending {
			out = append(out, pendingJSON{
				ItemID:      p.ItemID,
				StoreCode:   p.StoreCode,
				StoreName:   p.StoreName,
				PIC:         p.PIC,
				SubmittedAt: p.SubmittedAt,
				Description: p.WorkDescription,
				Unit:        p.Unit,
				FinalVolume: p.FinalVolume.String(),
				Variance:    p.Variance.String(),
				PhotoURL:    p.PhotoURL,
			})
		}
		return e.JSON(http.StatusOK, out)
	}
}

// HandlePendingCounts returns the number of pending rows per store of the
// stores assigned to a contractor.
func HandlePendingCounts(store *services.SheetStore) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		username := e.Request.URL.Query().Get("username")
		if username == "" {
			return e.JSON(http.StatusBadRequest, message("Username Kontraktor diperlukan."))
		}

		counts, err := store.PendingCounts(e.Request.Context(), username)
		if err != nil {
			log.Printf("opname_pending: counts for %s: %v", username, err)
			return e.JSON(http.StatusInternalServerError, message("Terjadi kesalahan pada server."))
		}
		return e.JSON(http.StatusOK, counts)
	}
}

// HandleOpnameDecision moves a pending row to status. Decided rows are
// final; a row that is no longer pending is answered with 409.
func HandleOpnameDecision(store *services.SheetStore, status string) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req decisionRequest
		if err := e.BindBody(&req); err != nil {
			log.Printf("opname_decision: bind body: %v", err)
			return e.JSON(http.StatusBadRequest, message("Format data tidak valid."))
		}
		itemID := strings.TrimSpace(req.ItemID)
		if itemID == "" {
			return e.JSON(http.StatusBadRequest, message("Item ID diperlukan."))
		}

		sub, err := store.DecideOpname(e.Request.Context(), itemID, status)
		switch {
		case errors.Is(err, services.ErrNotFound):
			return e.JSON(http.StatusNotFound, message("Item opname tidak ditemukan."))
		case errors.Is(err, services.ErrInvalidTransition):
			log.Printf("opname_decision: %v", err)
			return e.JSON(http.StatusConflict, message("Opname ini sudah diputuskan sebelumnya."))
		case err != nil:
			log.Printf("opname_decision: %s: %v", itemID, err)
			return e.JSON(http.StatusInternalServerError, message("Terjadi kesalahan pada server."))
		}

		log.Printf("opname_decision: %s is now %s", sub.ItemID, sub.Status)
		return e.JSON(http.StatusOK, map[string]string{
			"message":         decisionMessages[status],
			"item_id":         sub.ItemID,
			"approval_status": sub.Status,
		})
	}
}
