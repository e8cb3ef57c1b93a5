package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
)

// ── Definition structs ───────────────────────────────────────────────────

type rabDef struct {
	category    string
	description string
	unit        string
	volume      float64
	material    float64
	labor       float64
}

type opnameDef struct {
	item        int // index into the RAB lines
	finalVolume float64
	submittedAt string
	status      string
}

const (
	seedStoreCode  = "TZ01"
	seedStoreName  = "Alfamart Melati Raya"
	seedUlok       = "Z001-2510-0001"
	seedAddress    = "Jl. Melati Raya No. 12, Bekasi"
	seedPIC        = "pic.bekasi"
	seedContractor = "cv.karya.mandiri"
)

var seedRAB = []rabDef{
	{"PEKERJAAN PERSIAPAN", "Pembersihan lokasi dan buang puing", "ls", 1, 0, 750000},
	{"PEKERJAAN PERSIAPAN", "Pagar pengaman proyek seng gelombang", "m1", 24, 65000, 20000},
	{"PEKERJAAN BONGKARAN", "Bongkar keramik lantai lama", "m2", 86, 0, 18000},
	{"PEKERJAAN PASANGAN", "Pasang bata ringan dinding gudang", "m2", 32, 95000, 45000},
	{"PEKERJAAN PASANGAN", "Pasang keramik lantai 60x60", "m2", 86, 145000, 55000},
	{"PEKERJAAN PLESTERAN", "Plester dan acian dinding gudang", "m2", 64, 38000, 32000},
	{"PEKERJAAN PLAFOND", "Rangka hollow dan plafon gypsum 9 mm", "m2", 90, 98000, 42000},
	{"PEKERJAAN PENGECATAN", "Pengecatan dinding interior 2 lapis", "m2", 180, 16000, 12000},
	{"PEKERJAAN INSTALASI", "Instalasi titik lampu LED", "titik", 18, 185000, 65000},
	{"PEKERJAAN INSTALASI", "Instalasi stop kontak", "titik", 12, 120000, 55000},
	{"PEKERJAAN KUSEN, PINTU & JENDELA", "Rolling door besi gudang", "unit", 1, 4200000, 650000},
	{"", "Pembuatan signage neon box", "unit", 1, 3500000, 500000},
}

var seedOpname = []opnameDef{
	{0, 1, "06/10/2026 09.12.44", StatusApproved},
	{2, 86, "07/10/2026 10.03.10", StatusApproved},
	{4, 88.5, "10/10/2026 15.41.02", StatusApproved},
	{6, 90, "12/10/2026 11.20.37", StatusApproved},
	{7, 172, "14/10/2026 16.05.19", StatusPending},
	{8, 20, "14/10/2026 16.12.51", StatusRejected},
}

// Seed inserts a demo store with its RAB lines and final-opname rows. It is
// safe to call on every startup because it returns early if data_rab
// already has records.
func Seed(app core.App) error {
	// ── idempotency: skip if data_rab already has rows ───────────────
	rabCol, err := app.FindCollectionByNameOrId(DataRAB)
	if err != nil {
		return fmt.Errorf("seed: could not find %s collection: %w", DataRAB, err)
	}
	total, err := app.CountRecords(rabCol)
	if err != nil {
		return fmt.Errorf("seed: could not count %s: %w", DataRAB, err)
	}
	if total > 0 {
		return nil // already seeded
	}

	opnameCol, err := app.FindCollectionByNameOrId(OpnameFinal)
	if err != nil {
		return fmt.Errorf("seed: could not find %s collection: %w", OpnameFinal, err)
	}

	log.Printf("seed: %s is empty, inserting demo store %s", DataRAB, seedStoreCode)

	return app.RunInTransaction(func(txApp core.App) error {
		itemIDs := make([]string, len(seedRAB))
		for i, d := range seedRAB {
			r := core.NewRecord(rabCol)
			r.Set("kode_toko", seedStoreCode)
			r.Set("nama_toko", seedStoreName)
			r.Set("no_ulok", seedUlok)
			r.Set("alamat", seedAddress)
			r.Set("kategori_pekerjaan", d.category)
			r.Set("jenis_pekerjaan", d.description)
			r.Set("satuan", d.unit)
			r.Set("vol_rab", d.volume)
			r.Set("harga_material", d.material)
			r.Set("harga_upah", d.labor)
			r.Set("pic_username", seedPIC)
			r.Set("kontraktor_username", seedContractor)
			r.Set("sort_order", i+1)
			if err := txApp.Save(r); err != nil {
				return fmt.Errorf("seed: save rab line %q: %w", d.description, err)
			}
			itemIDs[i] = r.Id
		}

		for i, d := range seedOpname {
			item := seedRAB[d.item]
			r := core.NewRecord(opnameCol)
			r.Set("submission_id", fmt.Sprintf("SUB-%s-%03d", seedStoreCode, i+1))
			r.Set("item_id", itemIDs[d.item])
			r.Set("kode_toko", seedStoreCode)
			r.Set("nama_toko", seedStoreName)
			r.Set("pic_username", seedPIC)
			r.Set("tanggal_submit", d.submittedAt)
			r.Set("kategori_pekerjaan", item.category)
			r.Set("jenis_pekerjaan", item.description)
			r.Set("vol_rab", item.volume)
			r.Set("satuan", item.unit)
			r.Set("volume_akhir", d.finalVolume)
			r.Set("selisih", d.finalVolume-item.volume)
			r.Set("harga_material", item.material)
			r.Set("harga_upah", item.labor)
			r.Set("total_harga_akhir", d.finalVolume*(item.material+item.labor))
			r.Set("approval_status", d.status)
			if err := txApp.Save(r); err != nil {
				return fmt.Errorf("seed: save opname row %q: %w", item.description, err)
			}
		}
		return nil
	})
}
