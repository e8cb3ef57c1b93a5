package services

import (
	"context"
	"errors"
	"testing"

	"github.com/pocketbase/pocketbase"

	"opname/collections"
	"opname/testhelpers"
)

func newTestStore(t *testing.T) (*pocketbase.PocketBase, *SheetStore) {
	t.Helper()
	app := testhelpers.NewTestApp(t)
	session := NewSession(app)
	if err := session.Open(); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return app, NewSheetStore(session)
}

func TestSession_States(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	session := NewSession(app)

	if state, _ := session.State(); state != SessionUninitialized {
		t.Fatalf("initial state = %s", state)
	}
	if err := CheckSession(session); !errors.Is(err, ErrSessionNotReady) {
		t.Errorf("CheckSession(uninitialized) = %v", err)
	}

	if err := session.Open(); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := CheckSession(session); err != nil {
		t.Errorf("CheckSession(ready) = %v", err)
	}

	session.Fail(errors.New("token expired"))
	state, reason := session.State()
	if state != SessionFailed || reason == nil {
		t.Errorf("after Fail: state %s, reason %v", state, reason)
	}
	if err := CheckSession(session); !errors.Is(err, ErrSessionNotReady) {
		t.Errorf("CheckSession(failed) = %v", err)
	}
}

func TestCheckSession_Nil(t *testing.T) {
	if err := CheckSession(nil); !errors.Is(err, ErrSessionNotReady) {
		t.Errorf("CheckSession(nil) = %v", err)
	}
}

func TestSession_OpenWithoutApp(t *testing.T) {
	session := NewSession(nil)
	if err := session.Open(); err == nil {
		t.Fatal("expected error opening session without app")
	}
	if state, _ := session.State(); state != SessionFailed {
		t.Errorf("state = %s, want failed", state)
	}
}

func TestSheetStore_NotReady(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	store := NewSheetStore(NewSession(app))

	if _, err := store.BudgetItems(context.Background(), "TZ01"); !errors.Is(err, ErrSessionNotReady) {
		t.Errorf("BudgetItems() error = %v, want ErrSessionNotReady", err)
	}
	info, err := store.PicContractor(context.Background(), "ULOK-1")
	if !errors.Is(err, ErrSessionNotReady) {
		t.Errorf("PicContractor() error = %v", err)
	}
	if info != UnknownPicContractor {
		t.Errorf("PicContractor() info = %+v", info)
	}
}

func TestSheetStore_BudgetItems(t *testing.T) {
	app, store := newTestStore(t)
	testhelpers.CreateTestRABItem(t, app, testhelpers.RABRow{
		StoreCode: "TZ01", StoreName: "Alfamart Cempaka", Ulok: "ULOK-1",
		Category: "PEKERJAAN LANTAI", Description: "Pasang Keramik Lantai", Unit: "m2",
		Volume: 10, Material: 100000, Labor: 20000, SortOrder: 2,
	})
	testhelpers.CreateTestRABItem(t, app, testhelpers.RABRow{
		StoreCode: "TZ01", StoreName: "Alfamart Cempaka", Ulok: "ULOK-1",
		Description: "Pembersihan lokasi", Unit: "ls", Volume: 1, Labor: 500000, SortOrder: 1,
	})
	testhelpers.CreateTestRABItem(t, app, testhelpers.RABRow{
		StoreCode: "TZ02", StoreName: "Alfamart Melati", Ulok: "ULOK-2",
		Description: "Cat tembok", Unit: "m2", Volume: 5, Material: 10000,
	})

	items, err := store.BudgetItems(context.Background(), "TZ01")
	if err != nil {
		t.Fatalf("BudgetItems() error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Description != "Pembersihan lokasi" {
		t.Errorf("first item = %q, want sort_order 1 first", items[0].Description)
	}
	keramik := items[1]
	if keramik.CategoryHint != "PEKERJAAN LANTAI" || keramik.Unit != "m2" {
		t.Errorf("keramik = %+v", keramik)
	}
	if !keramik.LineTotal().Equal(dec("1200000")) {
		t.Errorf("keramik line total = %s", keramik.LineTotal())
	}

	filtered, err := store.BudgetItemsByProject(context.Background(), "TZ01", "ULOK-X")
	if err != nil {
		t.Fatalf("BudgetItemsByProject() error: %v", err)
	}
	if len(filtered) != 0 {
		t.Errorf("expected no items for unknown ulok, got %d", len(filtered))
	}
}

func TestSheetStore_PicContractor(t *testing.T) {
	app, store := newTestStore(t)
	testhelpers.CreateTestRABItem(t, app, testhelpers.RABRow{
		StoreCode: "TZ01", StoreName: "Alfamart Cempaka", Ulok: "ULOK-1",
		Description: "Bongkar", PIC: "budi", Contractor: "",
	})

	info, err := store.PicContractor(context.Background(), "ULOK-1")
	if err != nil {
		t.Fatalf("PicContractor() error: %v", err)
	}
	if info.PicName != "budi" || info.ContractorName != NotAvailable {
		t.Errorf("info = %+v", info)
	}

	info, err = store.PicContractor(context.Background(), "ULOK-404")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown ulok error = %v, want ErrNotFound", err)
	}
	if info != UnknownPicContractor {
		t.Errorf("unknown ulok info = %+v", info)
	}
}

func TestSheetStore_ApprovedSubmissions(t *testing.T) {
	app, store := newTestStore(t)
	testhelpers.CreateTestSubmission(t, app, testhelpers.SubmissionRow{
		StoreCode: "TZ01", Description: "Pasang Keramik Lantai", Unit: "m2",
		BudgetVol: 10, FinalVol: 12, Material: 100000, Labor: 20000,
		SubmittedAt: "07/10/2026 10.00.00", PhotoURL: "https://example.com/a.jpg",
	})
	testhelpers.CreateTestSubmission(t, app, testhelpers.SubmissionRow{
		StoreCode: "TZ01", Description: "Cat tembok", Unit: "m2",
		BudgetVol: 5, FinalVol: 5, Total: 90000, Status: collections.StatusPending,
	})

	subs, err := store.ApprovedSubmissions(context.Background(), "TZ01")
	if err != nil {
		t.Fatalf("ApprovedSubmissions() error: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("got %d submissions, want 1 approved", len(subs))
	}
	s := subs[0]
	if !s.Variance.Equal(dec("2")) {
		t.Errorf("variance = %s, want 2", s.Variance)
	}
	if !s.FinalTotalPrice.Equal(dec("1440000")) {
		t.Errorf("final total = %s, want 1440000", s.FinalTotalPrice)
	}
	if !s.HasPhoto() || s.SubmittedAt != "07/10/2026 10.00.00" {
		t.Errorf("submission = %+v", s)
	}
}

func TestSheetStore_Store(t *testing.T) {
	app, store := newTestStore(t)
	testhelpers.CreateTestRABItem(t, app, testhelpers.RABRow{
		StoreCode: "TZ01", StoreName: "Alfamart Cempaka", Ulok: "ULOK-1",
		Address: "Jl. Cempaka No. 1", Description: "Bongkar",
	})

	desc, err := store.Store(context.Background(), "TZ01")
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}
	want := StoreDescriptor{StoreCode: "TZ01", StoreName: "Alfamart Cempaka", ProjectReference: "ULOK-1", Address: "Jl. Cempaka No. 1"}
	if desc != want {
		t.Errorf("Store() = %+v, want %+v", desc, want)
	}

	if _, err := store.Store(context.Background(), "NOPE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Store(unknown) error = %v", err)
	}
}

func TestSheetStore_Stores(t *testing.T) {
	app, store := newTestStore(t)
	testhelpers.CreateTestRABItem(t, app, testhelpers.RABRow{StoreCode: "TZ02", StoreName: "Mawar", Description: "Cat"})
	testhelpers.CreateTestRABItem(t, app, testhelpers.RABRow{StoreCode: "TZ01", StoreName: "Melati", Ulok: "UL-01", Description: "Galian"})
	testhelpers.CreateTestRABItem(t, app, testhelpers.RABRow{StoreCode: "TZ01", StoreName: "Melati", Ulok: "UL-01", Description: "Urugan"})
	testhelpers.CreateTestSubmission(t, app, testhelpers.SubmissionRow{StoreCode: "TZ01", Description: "Galian"})
	testhelpers.CreateTestSubmission(t, app, testhelpers.SubmissionRow{StoreCode: "TZ01", Description: "Urugan", Status: collections.StatusPending})

	stores, err := store.Stores(context.Background())
	if err != nil {
		t.Fatalf("Stores() error: %v", err)
	}
	if len(stores) != 2 {
		t.Fatalf("len(stores) = %d, want 2", len(stores))
	}
	if stores[0].StoreCode != "TZ01" || stores[0].Items != 2 || stores[0].Approved != 1 || stores[0].ProjectReference != "UL-01" {
		t.Errorf("stores[0] = %+v", stores[0])
	}
	if stores[1].StoreCode != "TZ02" || stores[1].Items != 1 || stores[1].Approved != 0 {
		t.Errorf("stores[1] = %+v", stores[1])
	}
}

func TestStoreDescriptor_Validate(t *testing.T) {
	tests := []struct {
		name    string
		store   StoreDescriptor
		wantErr bool
	}{
		{"complete", StoreDescriptor{StoreCode: "TZ01", StoreName: "Cempaka"}, false},
		{"missing code", StoreDescriptor{StoreName: "Cempaka"}, true},
		{"missing name", StoreDescriptor{StoreCode: "TZ01"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.store.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidStore) {
				t.Errorf("error %v does not wrap ErrInvalidStore", err)
			}
		})
	}
	if got := (StoreDescriptor{StoreName: "Cempaka"}).DisplayAddress(); got != "Cempaka" {
		t.Errorf("DisplayAddress fallback = %q", got)
	}
}
