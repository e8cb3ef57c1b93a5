package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"opname/collections"
	"opname/testhelpers"
)

func TestValidateRABRows(t *testing.T) {
	headers := []string{"Kategori", "Jenis Pekerjaan", "Satuan", "Volume", "Harga Material", "Harga Upah"}
	rows := [][]string{
		{"PEKERJAAN PASANGAN", "Pasang keramik", "m2", "10", "Rp 100000", "50000"},
		{"", "", "", "", "", ""},
		{"", "Cat dinding", "", "abc", "", ""},
		{"", "Bongkar plafon", "m2", "5,5", "-1", ""},
		{"", "Galian tanah", "m3", "2"},
	}

	result, err := ValidateRABRows(headers, rows)
	if err != nil {
		t.Fatalf("ValidateRABRows() error = %v", err)
	}

	if result.TotalRows != 4 {
		t.Errorf("TotalRows = %d, want 4", result.TotalRows)
	}
	if result.ValidRows != 2 || result.ErrorRows != 2 {
		t.Errorf("ValidRows/ErrorRows = %d/%d, want 2/2", result.ValidRows, result.ErrorRows)
	}
	if len(result.Errors) != 3 {
		t.Fatalf("Errors = %+v, want 3", result.Errors)
	}
	if result.Errors[0].Row != 4 || result.Errors[0].Field != "Satuan" {
		t.Errorf("first error = %+v", result.Errors[0])
	}
	if result.Errors[1].Field != "Volume" || !strings.Contains(result.Errors[1].Message, "bukan angka") {
		t.Errorf("second error = %+v", result.Errors[1])
	}
	if result.Errors[2].Row != 5 || result.Errors[2].Field != "Harga Material" {
		t.Errorf("third error = %+v", result.Errors[2])
	}

	first := result.Rows[0]
	if !first.Volume.Equal(dec("10")) || !first.Material.Equal(dec("100000")) || !first.Labor.Equal(dec("50000")) {
		t.Errorf("first row amounts = %s/%s/%s", first.Volume, first.Material, first.Labor)
	}
	if result.Rows[1].Row != 6 || !result.Rows[1].Labor.IsZero() {
		t.Errorf("short row = %+v", result.Rows[1])
	}
}

func TestValidateRABRows_MissingColumns(t *testing.T) {
	_, err := ValidateRABRows([]string{"Jenis Pekerjaan"}, [][]string{{"Cat"}})
	if err == nil {
		t.Fatal("expected error for missing columns")
	}
	if !strings.Contains(err.Error(), "Satuan") || !strings.Contains(err.Error(), "Volume") {
		t.Errorf("error = %v", err)
	}
}

func TestValidateRABFile(t *testing.T) {
	csv := "Jenis Pekerjaan;Satuan;Volume;Harga Upah\nCat dinding;m2;12,5;30000\n"
	result, err := ValidateRABFile(strings.NewReader(csv), "rab.csv")
	if err != nil {
		t.Fatalf("ValidateRABFile() error = %v", err)
	}
	if result.ValidRows != 1 || !result.Rows[0].Volume.Equal(dec("12.5")) {
		t.Errorf("result = %+v", result)
	}
}

func TestImportRAB(t *testing.T) {
	app, store := newTestStore(t)
	testhelpers.CreateTestRABItem(t, app, testhelpers.RABRow{
		StoreCode: "TZ01", StoreName: "Alfamart Melati", Ulok: "UL-01", Address: "Jl. Melati 1",
		Description: "Pembersihan lokasi", Unit: "ls", Volume: 1, Labor: 500000, SortOrder: 3,
	})

	result, err := ValidateRABRows(
		[]string{"Jenis Pekerjaan", "Satuan", "Volume", "Harga Material", "Harga Upah"},
		[][]string{
			{"Pasang keramik", "m2", "10", "100000", "50000"},
			{"Cat dinding", "m2", "20", "15000", "10000"},
		},
	)
	if err != nil {
		t.Fatalf("ValidateRABRows() error = %v", err)
	}

	n, err := ImportRAB(app, "TZ01", result.Rows)
	if err != nil {
		t.Fatalf("ImportRAB() error = %v", err)
	}
	if n != 2 {
		t.Errorf("imported = %d, want 2", n)
	}

	items, err := store.BudgetItemsByProject(context.Background(), "TZ01", "UL-01")
	if err != nil {
		t.Fatalf("BudgetItemsByProject() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	if items[1].Description != "Pasang keramik" || items[2].Description != "Cat dinding" {
		t.Errorf("order = %q, %q", items[1].Description, items[2].Description)
	}
	if !items[2].LineTotal().Equal(dec("500000")) {
		t.Errorf("line total = %s", items[2].LineTotal())
	}

	got, err := store.Store(context.Background(), "TZ01")
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if got.StoreName != "Alfamart Melati" {
		t.Errorf("store name = %q", got.StoreName)
	}
}

func TestImportRAB_ConcurrentSortOrder(t *testing.T) {
	app, _ := newTestStore(t)

	result, err := ValidateRABRows(
		[]string{"Jenis Pekerjaan", "Satuan", "Volume"},
		[][]string{{"Cat dinding", "m2", "20"}, {"Cat plafon", "m2", "15"}},
	)
	if err != nil {
		t.Fatalf("ValidateRABRows() error = %v", err)
	}

	const imports = 4
	var wg sync.WaitGroup
	errs := make(chan error, imports)
	for range imports {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ImportRAB(app, "TZ09", result.Rows); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("ImportRAB() error = %v", err)
	}

	records, err := app.FindAllRecords(collections.DataRAB)
	if err != nil {
		t.Fatalf("FindAllRecords() error = %v", err)
	}
	if len(records) != imports*2 {
		t.Fatalf("rows = %d, want %d", len(records), imports*2)
	}
	seen := make(map[int]bool)
	for _, rec := range records {
		order := rec.GetInt("sort_order")
		if seen[order] {
			t.Errorf("sort_order %d assigned twice", order)
		}
		seen[order] = true
	}
	for order := 1; order <= imports*2; order++ {
		if !seen[order] {
			t.Errorf("sort_order %d missing", order)
		}
	}
}

func TestImportRAB_Guards(t *testing.T) {
	app, _ := newTestStore(t)

	if _, err := ImportRAB(app, " ", []RABImportRow{{Row: 2}}); !errors.Is(err, ErrInvalidStore) {
		t.Errorf("blank store error = %v", err)
	}
	n, err := ImportRAB(app, "TZ01", nil)
	if err != nil || n != 0 {
		t.Errorf("empty import = %d, %v", n, err)
	}
}
