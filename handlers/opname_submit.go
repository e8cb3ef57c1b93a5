package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"opname/services"
)

// opnameTaskJSON is one RAB line of a store with its submission state, as
// returned by /api/opname.
type opnameTaskJSON struct {
	Category       string  `json:"kategori_pekerjaan"`
	Description    string  `json:"jenis_pekerjaan"`
	BudgetVolume   string  `json:"vol_rab"`
	Unit           string  `json:"satuan"`
	MaterialPrice  string  `json:"harga_material"`
	LaborPrice     string  `json:"harga_upah"`
	ItemID         *string `json:"item_id"`
	FinalVolume    string  `json:"volume_akhir"`
	Variance       string  `json:"selisih"`
	Submitted      bool    `json:"isSubmitted"`
	ApprovalStatus string  `json:"approval_status"`
	SubmittedAt    *string `json:"submissionTime"`
}

// storeJSON is one assigned store as returned by /api/toko.
type storeJSON struct {
	StoreCode string `json:"kode_toko"`
	StoreName string `json:"nama_toko"`
	Ulok      string `json:"no_ulok"`
}

// HandleOpnameTasks lists the RAB lines of a store with the latest opname
// row of each, so the PIC can see what is left to submit.
func HandleOpnameTasks(store *services.SheetStore) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		code := e.Request.URL.Query().Get("kode_toko")
		if code == "" {
			return e.JSON(http.StatusBadRequest, message("Kode toko diperlukan."))
		}

		tasks, err := store.OpnameTasks(e.Request.Context(), code)
		if err != nil {
			log.Printf("opname_tasks: list %s: %v", code, err)
			return e.JSON(http.StatusInternalServerError, message("Terjadi kesalahan pada server."))
		}

		out := make([]opnameTaskJSON, 0, len(tasks))
		for _, task := range tasks {
			row := opnameTaskJSON{
				Category:       task.Item.CategoryHint,
				Description:    task.Item.Description,
				BudgetVolume:   task.Item.Volume.String(),
				Unit:           task.Item.Unit,
				MaterialPrice:  task.Item.UnitPriceMaterial.String(),
				LaborPrice:     task.Item.UnitPriceLabor.String(),
				ApprovalStatus: task.Status(),
			}
			if sub := task.Submission; sub != nil {
				row.ItemID = &sub.ItemID
				row.FinalVolume = sub.FinalVolume.String()
				row.Variance = sub.Variance.String()
				row.Submitted = true
				row.SubmittedAt = &sub.SubmittedAt
			}
			out = append(out, row)
		}
		return e.JSON(http.StatusOK, out)
	}
}

// HandleOpnameSubmit saves the final volume a PIC measured for one work
// item. The row starts Pending and waits for the contractor's decision.
func HandleOpnameSubmit(store *services.SheetStore, loc *time.Location) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		// 1. Decode body
		var in services.SubmissionInput
		if err := e.BindBody(&in); err != nil {
			log.Printf("opname_submit: bind body: %v", err)
			return e.JSON(http.StatusBadRequest, message("Format data tidak valid."))
		}

		// 2. Save as pending
		sub, err := store.SubmitOpname(e.Request.Context(), in, time.Now().In(loc))
		switch {
		case errors.Is(err, services.ErrIncompleteSubmission):
			return e.JSON(http.StatusBadRequest, message("Data item tidak lengkap."))
		case errors.Is(err, services.ErrDuplicateSubmission):
			return e.JSON(http.StatusConflict, message("Pekerjaan ini sudah pernah disimpan sebelumnya oleh PIC yang sama."))
		case err != nil:
			log.Printf("opname_submit: %v", err)
			return e.JSON(http.StatusInternalServerError, message("Terjadi kesalahan pada server."))
		}

		log.Printf("opname_submit: %s submitted %s for %s", sub.PIC, sub.ItemID, sub.StoreCode)
		return e.JSON(http.StatusCreated, map[string]string{
			"message":        fmt.Sprintf("Pekerjaan \"%s\" berhasil disimpan.", sub.WorkDescription),
			"item_id":        sub.ItemID,
			"submission_id":  sub.SubmissionID,
			"tanggal_submit": sub.SubmittedAt,
		})
	}
}

// HandlePICStores lists the stores assigned to a PIC.
func HandlePICStores(store *services.SheetStore) func(*core.RequestEvent) error {
	return handleAssignedStores("Username PIC diperlukan.", store.StoresByPIC)
}

// HandleContractorStores lists the stores assigned to a contractor.
func HandleContractorStores(store *services.SheetStore) func(*core.RequestEvent) error {
	return handleAssignedStores("Username Kontraktor diperlukan.", store.StoresByContractor)
}

func handleAssignedStores(missing string, find func(ctx context.Context, username string) ([]services.StoreDescriptor, error)) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		username := e.Request.URL.Query().Get("username")
		if username == "" {
			return e.JSON(http.StatusBadRequest, message(missing))
		}

		stores, err := find(e.Request.Context(), username)
		if err != nil {
			log.Printf("stores: assigned to %s: %v", username, err)
			return e.JSON(http.StatusInternalServerError, message("Terjadi kesalahan pada server."))
		}

		out := make([]storeJSON, 0, len(stores))
		for _, s := range stores {
			out = append(out, storeJSON{StoreCode: s.StoreCode, StoreName: s.StoreName, Ulok: s.ProjectReference})
		}
		return e.JSON(http.StatusOK, out)
	}
}
