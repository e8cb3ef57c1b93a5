// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"opname/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// RABRow describes a data_rab record for tests. Zero values are saved as-is.
type RABRow struct {
	StoreCode   string
	StoreName   string
	Ulok        string
	Address     string
	Category    string
	Description string
	Unit        string
	Volume      float64
	Material    float64
	Labor       float64
	PIC         string
	Contractor  string
	SortOrder   int
}

// CreateTestRABItem saves a data_rab record and returns it.
func CreateTestRABItem(t *testing.T, app *pocketbase.PocketBase, row RABRow) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collections.DataRAB)
	if err != nil {
		t.Fatalf("failed to find data_rab collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("kode_toko", row.StoreCode)
	record.Set("nama_toko", row.StoreName)
	record.Set("no_ulok", row.Ulok)
	record.Set("alamat", row.Address)
	record.Set("kategori_pekerjaan", row.Category)
	record.Set("jenis_pekerjaan", row.Description)
	record.Set("satuan", row.Unit)
	record.Set("vol_rab", row.Volume)
	record.Set("harga_material", row.Material)
	record.Set("harga_upah", row.Labor)
	record.Set("pic_username", row.PIC)
	record.Set("kontraktor_username", row.Contractor)
	record.Set("sort_order", row.SortOrder)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test RAB item: %v", err)
	}

	return record
}

// SubmissionRow describes an opname_final record for tests. An empty Status
// is saved as Approved.
type SubmissionRow struct {
	ItemID      string
	PIC         string
	StoreCode   string
	StoreName   string
	Description string
	Category    string
	Unit        string
	BudgetVol   float64
	FinalVol    float64
	Material    float64
	Labor       float64
	Total       float64
	SubmittedAt string
	PhotoURL    string
	Status      string
}

// CreateTestSubmission saves an opname_final record and returns it.
func CreateTestSubmission(t *testing.T, app *pocketbase.PocketBase, row SubmissionRow) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collections.OpnameFinal)
	if err != nil {
		t.Fatalf("failed to find opname_final collection: %v", err)
	}

	status := row.Status
	if status == "" {
		status = collections.StatusApproved
	}

	record := core.NewRecord(col)
	record.Set("item_id", row.ItemID)
	record.Set("pic_username", row.PIC)
	record.Set("kode_toko", row.StoreCode)
	record.Set("nama_toko", row.StoreName)
	record.Set("jenis_pekerjaan", row.Description)
	record.Set("kategori_pekerjaan", row.Category)
	record.Set("satuan", row.Unit)
	record.Set("vol_rab", row.BudgetVol)
	record.Set("volume_akhir", row.FinalVol)
	record.Set("selisih", row.FinalVol-row.BudgetVol)
	record.Set("harga_material", row.Material)
	record.Set("harga_upah", row.Labor)
	record.Set("total_harga_akhir", row.Total)
	record.Set("tanggal_submit", row.SubmittedAt)
	record.Set("foto_url", row.PhotoURL)
	record.Set("approval_status", status)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test submission: %v", err)
	}

	return record
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
