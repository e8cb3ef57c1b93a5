package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"opname/collections"
	"opname/testhelpers"
)

var submitTime = time.Date(2026, 10, 17, 14, 5, 9, 0, time.UTC)

func TestIsValidApprovalTransition(t *testing.T) {
	tests := []struct {
		current string
		next    string
		want    bool
	}{
		{collections.StatusPending, collections.StatusApproved, true},
		{collections.StatusPending, collections.StatusRejected, true},
		{collections.StatusPending, collections.StatusPending, false},
		{collections.StatusApproved, collections.StatusRejected, false},
		{collections.StatusApproved, collections.StatusApproved, false},
		{collections.StatusRejected, collections.StatusApproved, false},
		{"", collections.StatusApproved, false},
		{collections.StatusPending, "Archived", false},
	}
	for _, tt := range tests {
		t.Run(tt.current+"->"+tt.next, func(t *testing.T) {
			if got := IsValidApprovalTransition(tt.current, tt.next); got != tt.want {
				t.Errorf("IsValidApprovalTransition(%q, %q) = %v, want %v", tt.current, tt.next, got, tt.want)
			}
		})
	}
}

func TestSheetAmount_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{`12.5`, "12.5", false},
		{`"12,5"`, "12.5", false},
		{`"1.250.000"`, "1250000", false},
		{`"Rp 1.250.000"`, "1250000", false},
		{`""`, "0", false},
		{`null`, "0", false},
		{`"dua"`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var a SheetAmount
			err := json.Unmarshal([]byte(tt.input), &a)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && !a.Equal(dec(tt.want)) {
				t.Errorf("Unmarshal(%s) = %s, want %s", tt.input, a.Decimal, tt.want)
			}
		})
	}
}

func seedSubmitStore(t *testing.T) *SheetStore {
	t.Helper()
	app, store := newTestStore(t)
	testhelpers.CreateTestRABItem(t, app, testhelpers.RABRow{
		StoreCode: "TZ01", StoreName: "Alfamart Cempaka", Ulok: "ULOK-1",
		Category: "PEKERJAAN LANTAI", Description: "Pasang Keramik Lantai", Unit: "m2",
		Volume: 10, Material: 100000, Labor: 20000, SortOrder: 1,
		PIC: "pic.bekasi", Contractor: "cv.karya",
	})
	testhelpers.CreateTestRABItem(t, app, testhelpers.RABRow{
		StoreCode: "TZ01", StoreName: "Alfamart Cempaka", Ulok: "ULOK-1",
		Description: "Cat tembok", Unit: "m2", Volume: 5, Material: 10000, SortOrder: 2,
		PIC: "pic.bekasi", Contractor: "cv.karya",
	})
	testhelpers.CreateTestRABItem(t, app, testhelpers.RABRow{
		StoreCode: "TZ02", StoreName: "Alfamart Melati", Description: "Bongkar",
		Unit: "ls", Volume: 1, Labor: 300000, PIC: "pic.depok", Contractor: "cv.karya",
	})
	testhelpers.CreateTestRABItem(t, app, testhelpers.RABRow{
		StoreCode: "TZ03", StoreName: "Alfamart Mawar", Description: "Bongkar",
		Unit: "ls", Volume: 1, Labor: 300000, PIC: "pic.depok", Contractor: "cv.lain",
	})
	return store
}

func finalVolume(v string) SheetAmount {
	return SheetAmount{Decimal: dec(v)}
}

func TestSheetStore_SubmitOpname(t *testing.T) {
	store := seedSubmitStore(t)
	ctx := context.Background()

	sub, err := store.SubmitOpname(ctx, SubmissionInput{
		StoreCode:       "TZ01",
		WorkDescription: "Pasang Keramik Lantai",
		FinalVolume:     finalVolume("12"),
	}, submitTime)
	if err != nil {
		t.Fatalf("SubmitOpname() error: %v", err)
	}

	if sub.Status != collections.StatusPending {
		t.Errorf("status = %q, want Pending", sub.Status)
	}
	if sub.ItemID != "TZ01-Pasang-Keramik-Lantai-1792245909000" {
		t.Errorf("item_id = %q", sub.ItemID)
	}
	if !strings.HasPrefix(sub.SubmissionID, "SUB-1792245909000-") || len(sub.SubmissionID) != len("SUB-1792245909000-")+9 {
		t.Errorf("submission_id = %q", sub.SubmissionID)
	}
	if sub.SubmittedAt != "17/10/2026 14.05.09" {
		t.Errorf("tanggal_submit = %q", sub.SubmittedAt)
	}

	// blanks are filled from the RAB line
	if sub.StoreName != "Alfamart Cempaka" || sub.PIC != "pic.bekasi" || sub.Unit != "m2" || sub.Category != "PEKERJAAN LANTAI" {
		t.Errorf("row not filled from RAB: %+v", sub)
	}
	if !sub.BudgetVolume.Equal(dec("10")) || !sub.Variance.Equal(dec("2")) {
		t.Errorf("budget %s variance %s, want 10 and 2", sub.BudgetVolume, sub.Variance)
	}
	if !sub.FinalTotalPrice.Equal(dec("1440000")) {
		t.Errorf("total = %s, want 1440000", sub.FinalTotalPrice)
	}
}

func TestSheetStore_SubmitOpname_Rules(t *testing.T) {
	store := seedSubmitStore(t)
	ctx := context.Background()
	in := SubmissionInput{StoreCode: "TZ01", WorkDescription: "Cat tembok", PIC: "pic.bekasi", FinalVolume: finalVolume("5")}

	if _, err := store.SubmitOpname(ctx, SubmissionInput{StoreCode: "TZ01"}, submitTime); !errors.Is(err, ErrIncompleteSubmission) {
		t.Errorf("missing description error = %v, want ErrIncompleteSubmission", err)
	}
	if _, err := store.SubmitOpname(ctx, SubmissionInput{WorkDescription: "Cat tembok"}, submitTime); !errors.Is(err, ErrIncompleteSubmission) {
		t.Errorf("missing store error = %v, want ErrIncompleteSubmission", err)
	}

	first, err := store.SubmitOpname(ctx, in, submitTime)
	if err != nil {
		t.Fatalf("first submit error: %v", err)
	}
	if _, err := store.SubmitOpname(ctx, in, submitTime.Add(time.Minute)); !errors.Is(err, ErrDuplicateSubmission) {
		t.Errorf("second submit error = %v, want ErrDuplicateSubmission", err)
	}

	other := in
	other.PIC = "pic.depok"
	if _, err := store.SubmitOpname(ctx, other, submitTime.Add(time.Minute)); err != nil {
		t.Errorf("submit by another PIC error: %v", err)
	}

	if _, err := store.DecideOpname(ctx, first.ItemID, collections.StatusRejected); err != nil {
		t.Fatalf("reject error: %v", err)
	}
	if _, err := store.SubmitOpname(ctx, in, submitTime.Add(2*time.Minute)); err != nil {
		t.Errorf("resubmit after rejection error: %v", err)
	}
}

func TestSheetStore_DecideOpname(t *testing.T) {
	store := seedSubmitStore(t)
	ctx := context.Background()

	sub, err := store.SubmitOpname(ctx, SubmissionInput{
		StoreCode: "TZ01", WorkDescription: "Cat tembok", FinalVolume: finalVolume("5"),
	}, submitTime)
	if err != nil {
		t.Fatalf("SubmitOpname() error: %v", err)
	}

	decided, err := store.DecideOpname(ctx, sub.ItemID, collections.StatusApproved)
	if err != nil {
		t.Fatalf("approve error: %v", err)
	}
	if decided.Status != collections.StatusApproved {
		t.Errorf("status = %q, want Approved", decided.Status)
	}

	approved, err := store.ApprovedSubmissions(ctx, "TZ01")
	if err != nil {
		t.Fatalf("ApprovedSubmissions() error: %v", err)
	}
	if len(approved) != 1 || approved[0].WorkDescription != "Cat tembok" {
		t.Errorf("approved = %+v", approved)
	}

	if _, err := store.DecideOpname(ctx, sub.ItemID, collections.StatusRejected); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("reject approved row error = %v, want ErrInvalidTransition", err)
	}
	if _, err := store.DecideOpname(ctx, "TZ01-missing", collections.StatusApproved); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown item error = %v, want ErrNotFound", err)
	}
}

func TestSheetStore_PendingSubmissions(t *testing.T) {
	store := seedSubmitStore(t)
	ctx := context.Background()

	for i, in := range []SubmissionInput{
		{StoreCode: "TZ01", WorkDescription: "Pasang Keramik Lantai", FinalVolume: finalVolume("12")},
		{StoreCode: "TZ01", WorkDescription: "Cat tembok", FinalVolume: finalVolume("5")},
		{StoreCode: "TZ02", WorkDescription: "Bongkar", FinalVolume: finalVolume("1")},
		{StoreCode: "TZ03", WorkDescription: "Bongkar", FinalVolume: finalVolume("1")},
	} {
		if _, err := store.SubmitOpname(ctx, in, submitTime.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("submit %d error: %v", i, err)
		}
	}

	all, err := store.PendingSubmissions(ctx, "")
	if err != nil {
		t.Fatalf("PendingSubmissions() error: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("len(all) = %d, want 4", len(all))
	}
	for _, p := range all {
		if p.StoreCode == "TZ01" && p.WorkDescription == "Pasang Keramik Lantai" {
			if _, err := store.DecideOpname(ctx, p.ItemID, collections.StatusApproved); err != nil {
				t.Fatalf("approve error: %v", err)
			}
		}
	}

	tz01, err := store.PendingSubmissions(ctx, "TZ01")
	if err != nil {
		t.Fatalf("PendingSubmissions(TZ01) error: %v", err)
	}
	if len(tz01) != 1 || tz01[0].WorkDescription != "Cat tembok" {
		t.Errorf("pending TZ01 = %+v", tz01)
	}

	counts, err := store.PendingCounts(ctx, "cv.karya")
	if err != nil {
		t.Fatalf("PendingCounts() error: %v", err)
	}
	if len(counts) != 2 || counts["TZ01"] != 1 || counts["TZ02"] != 1 {
		t.Errorf("counts = %v, want TZ01:1 TZ02:1", counts)
	}

	none, err := store.PendingCounts(ctx, "cv.kosong")
	if err != nil {
		t.Fatalf("PendingCounts(unknown) error: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("counts for unknown contractor = %v", none)
	}
}

func TestSheetStore_OpnameTasks(t *testing.T) {
	store := seedSubmitStore(t)
	ctx := context.Background()

	if _, err := store.SubmitOpname(ctx, SubmissionInput{
		StoreCode: "TZ01", WorkDescription: "Cat tembok", FinalVolume: finalVolume("4"),
	}, submitTime); err != nil {
		t.Fatalf("SubmitOpname() error: %v", err)
	}

	tasks, err := store.OpnameTasks(ctx, "TZ01")
	if err != nil {
		t.Fatalf("OpnameTasks() error: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("len(tasks) = %d, want 2", len(tasks))
	}
	if tasks[0].Item.Description != "Pasang Keramik Lantai" || tasks[0].Status() != StatusNotSubmitted {
		t.Errorf("tasks[0] = %s %q", tasks[0].Item.Description, tasks[0].Status())
	}
	cat := tasks[1]
	if cat.Submission == nil || cat.Status() != collections.StatusPending {
		t.Fatalf("tasks[1] status = %q", cat.Status())
	}
	if !cat.Submission.Variance.Equal(dec("-1")) {
		t.Errorf("variance = %s, want -1", cat.Submission.Variance)
	}
}

func TestSheetStore_AssignedStores(t *testing.T) {
	store := seedSubmitStore(t)
	ctx := context.Background()

	pic, err := store.StoresByPIC(ctx, "pic.depok")
	if err != nil {
		t.Fatalf("StoresByPIC() error: %v", err)
	}
	if len(pic) != 2 || pic[0].StoreCode != "TZ02" || pic[1].StoreCode != "TZ03" {
		t.Errorf("StoresByPIC(pic.depok) = %+v", pic)
	}

	contractor, err := store.StoresByContractor(ctx, "cv.karya")
	if err != nil {
		t.Fatalf("StoresByContractor() error: %v", err)
	}
	if len(contractor) != 2 || contractor[0].StoreCode != "TZ01" || contractor[0].StoreName != "Alfamart Cempaka" {
		t.Errorf("StoresByContractor(cv.karya) = %+v", contractor)
	}

	none, err := store.StoresByPIC(ctx, "nobody")
	if err != nil {
		t.Fatalf("StoresByPIC(nobody) error: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("StoresByPIC(nobody) = %+v", none)
	}
}
