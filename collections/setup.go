package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
)

// Collection names shared with the services layer.
const (
	DataRAB     = "data_rab"
	OpnameFinal = "opname_final"
)

// Approval states of an opname_final row.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// Setup programmatically creates/ensures the data_rab and opname_final
// collections exist. They mirror the RAB and final-opname sheets.
func Setup(app core.App) {
	ensureCollection(app, DataRAB, func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "kode_toko", Required: true})
		c.Fields.Add(&core.TextField{Name: "nama_toko", Required: true})
		c.Fields.Add(&core.TextField{Name: "no_ulok", Required: false})
		c.Fields.Add(&core.TextField{Name: "alamat", Required: false})
		c.Fields.Add(&core.TextField{Name: "kategori_pekerjaan", Required: false})
		c.Fields.Add(&core.TextField{Name: "jenis_pekerjaan", Required: true})
		c.Fields.Add(&core.TextField{Name: "satuan", Required: false})
		c.Fields.Add(&core.NumberField{Name: "vol_rab", Required: false})
		c.Fields.Add(&core.NumberField{Name: "harga_material", Required: false})
		c.Fields.Add(&core.NumberField{Name: "harga_upah", Required: false})
		c.Fields.Add(&core.TextField{Name: "pic_username", Required: false})
		c.Fields.Add(&core.TextField{Name: "kontraktor_username", Required: false})
		c.Fields.Add(&core.NumberField{Name: "sort_order", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_data_rab_kode_toko", false, "kode_toko", "")
	})

	ensureCollection(app, OpnameFinal, func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "submission_id", Required: false})
		c.Fields.Add(&core.TextField{Name: "item_id", Required: false})
		c.Fields.Add(&core.TextField{Name: "kode_toko", Required: true})
		c.Fields.Add(&core.TextField{Name: "nama_toko", Required: false})
		c.Fields.Add(&core.TextField{Name: "pic_username", Required: false})
		c.Fields.Add(&core.TextField{Name: "tanggal_submit", Required: false})
		c.Fields.Add(&core.TextField{Name: "kategori_pekerjaan", Required: false})
		c.Fields.Add(&core.TextField{Name: "jenis_pekerjaan", Required: true})
		c.Fields.Add(&core.NumberField{Name: "vol_rab", Required: false})
		c.Fields.Add(&core.TextField{Name: "satuan", Required: false})
		c.Fields.Add(&core.NumberField{Name: "volume_akhir", Required: false})
		c.Fields.Add(&core.NumberField{Name: "selisih", Required: false})
		c.Fields.Add(&core.NumberField{Name: "harga_material", Required: false})
		c.Fields.Add(&core.NumberField{Name: "harga_upah", Required: false})
		c.Fields.Add(&core.NumberField{Name: "total_harga_akhir", Required: false})
		c.Fields.Add(&core.URLField{Name: "foto_url", Required: false})
		c.Fields.Add(&core.SelectField{
			Name:      "approval_status",
			Required:  true,
			Values:    []string{StatusPending, StatusApproved, StatusRejected},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_opname_final_kode_toko", false, "kode_toko", "")
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app core.App, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("collections: %q already exists, skipping creation", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("collections: failed to create %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
