package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/security"
	"github.com/shopspring/decimal"

	"opname/collections"
)

var (
	// ErrIncompleteSubmission is returned when a submission lacks its store
	// code or work description.
	ErrIncompleteSubmission = errors.New("incomplete opname submission")
	// ErrDuplicateSubmission is returned when the same PIC already has a
	// pending or approved row for the work item.
	ErrDuplicateSubmission = errors.New("opname item already submitted")
	// ErrInvalidTransition is returned when an approval decision does not
	// follow Pending -> Approved or Pending -> Rejected.
	ErrInvalidTransition = errors.New("invalid approval transition")
)

// StatusNotSubmitted is the state of a RAB line without an opname row.
const StatusNotSubmitted = "Not Submitted"

const submissionIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Submission is one opname_final row in any approval state.
type Submission struct {
	ApprovedSubmission
	ID                string
	SubmissionID      string
	ItemID            string
	StoreCode         string
	StoreName         string
	PIC               string
	UnitPriceMaterial decimal.Decimal
	UnitPriceLabor    decimal.Decimal
	Status            string
}

// SubmissionInput is what a PIC sends for one work item. Values left empty
// are taken from the store's RAB line with the same work description.
type SubmissionInput struct {
	StoreCode         string      `json:"kode_toko"`
	StoreName         string      `json:"nama_toko"`
	PIC               string      `json:"pic_username"`
	Category          string      `json:"kategori_pekerjaan"`
	WorkDescription   string      `json:"jenis_pekerjaan"`
	Unit              string      `json:"satuan"`
	BudgetVolume      SheetAmount `json:"vol_rab"`
	FinalVolume       SheetAmount `json:"volume_akhir"`
	UnitPriceMaterial SheetAmount `json:"harga_material"`
	UnitPriceLabor    SheetAmount `json:"harga_upah"`
	FinalTotalPrice   SheetAmount `json:"total_harga_akhir"`
	PhotoURL          string      `json:"foto_url"`
}

// OpnameTask is a RAB line of a store with its latest opname row, if any.
type OpnameTask struct {
	Item       BudgetItem
	Submission *Submission
}

// Status is the approval state of the task's row, or StatusNotSubmitted.
func (t OpnameTask) Status() string {
	if t.Submission == nil {
		return StatusNotSubmitted
	}
	return t.Submission.Status
}

// IsValidApprovalTransition reports whether a row may move from current to
// next. Only pending rows are decided and a decision is final:
//   - Pending → Approved
//   - Pending → Rejected
func IsValidApprovalTransition(current, next string) bool {
	if current != collections.StatusPending {
		return false
	}
	return next == collections.StatusApproved || next == collections.StatusRejected
}

// SubmitOpname saves a PIC's final volume for one work item as a pending
// row. A PIC may submit an item again only after the earlier row was
// rejected.
func (s *SheetStore) SubmitOpname(ctx context.Context, in SubmissionInput, now time.Time) (Submission, error) {
	in.StoreCode = strings.TrimSpace(in.StoreCode)
	in.WorkDescription = strings.TrimSpace(in.WorkDescription)
	in.PIC = strings.TrimSpace(in.PIC)
	if in.StoreCode == "" || in.WorkDescription == "" {
		return Submission{}, ErrIncompleteSubmission
	}

	app, err := s.app(ctx)
	if err != nil {
		return Submission{}, err
	}
	col, err := app.FindCollectionByNameOrId(collections.OpnameFinal)
	if err != nil {
		return Submission{}, fmt.Errorf("submit opname: find collection: %w", err)
	}

	var saved *core.Record
	err = app.RunInTransaction(func(txApp core.App) error {
		line, err := rabLine(txApp, in.StoreCode, in.WorkDescription)
		if err != nil {
			return err
		}
		if line != nil {
			fillFromRAB(&in, line)
		}

		existing, err := txApp.FindRecordsByFilter(collections.OpnameFinal,
			"kode_toko = {:kode} && jenis_pekerjaan = {:desc} && pic_username = {:pic} && approval_status != {:rejected}",
			"", 1, 0,
			map[string]any{
				"kode":     in.StoreCode,
				"desc":     in.WorkDescription,
				"pic":      in.PIC,
				"rejected": collections.StatusRejected,
			},
		)
		if err != nil {
			return fmt.Errorf("query existing rows: %w", err)
		}
		if len(existing) > 0 {
			return ErrDuplicateSubmission
		}

		record := core.NewRecord(col)
		setSubmission(record, in, now)
		if err := txApp.Save(record); err != nil {
			return fmt.Errorf("save row: %w", err)
		}
		saved = record
		return nil
	})
	if err != nil {
		return Submission{}, fmt.Errorf("submit opname %s/%s: %w", in.StoreCode, in.WorkDescription, err)
	}
	return submissionRowFromRecord(saved), nil
}

// DecideOpname approves or rejects the pending row with itemID.
func (s *SheetStore) DecideOpname(ctx context.Context, itemID, status string) (Submission, error) {
	app, err := s.app(ctx)
	if err != nil {
		return Submission{}, err
	}

	var decided *core.Record
	err = app.RunInTransaction(func(txApp core.App) error {
		records, err := txApp.FindRecordsByFilter(collections.OpnameFinal,
			"item_id = {:id}", "", 1, 0,
			map[string]any{"id": itemID},
		)
		if err != nil {
			return fmt.Errorf("query row: %w", err)
		}
		if len(records) == 0 {
			return ErrNotFound
		}

		record := records[0]
		current := record.GetString("approval_status")
		if !IsValidApprovalTransition(current, status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current, status)
		}
		record.Set("approval_status", status)
		if err := txApp.Save(record); err != nil {
			return fmt.Errorf("save row: %w", err)
		}
		decided = record
		return nil
	})
	if err != nil {
		return Submission{}, fmt.Errorf("decide opname %s: %w", itemID, err)
	}
	return submissionRowFromRecord(decided), nil
}

// PendingSubmissions returns the rows awaiting a decision in submission
// order, narrowed to one store when storeCode is not empty.
func (s *SheetStore) PendingSubmissions(ctx context.Context, storeCode string) ([]Submission, error) {
	app, err := s.app(ctx)
	if err != nil {
		return nil, err
	}

	filter := "approval_status = {:status}"
	params := map[string]any{"status": collections.StatusPending}
	if storeCode != "" {
		filter += " && kode_toko = {:kode}"
		params["kode"] = storeCode
	}
	records, err := app.FindRecordsByFilter(collections.OpnameFinal, filter, "created", 0, 0, params)
	if err != nil {
		return nil, fmt.Errorf("sheet store: query pending rows: %w", err)
	}

	out := make([]Submission, 0, len(records))
	for _, rec := range records {
		out = append(out, submissionRowFromRecord(rec))
	}
	return out, nil
}

// PendingCounts counts the pending rows per store of the stores assigned
// to contractor.
func (s *SheetStore) PendingCounts(ctx context.Context, contractor string) (map[string]int, error) {
	stores, err := s.StoresByContractor(ctx, contractor)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	if len(stores) == 0 {
		return counts, nil
	}
	assigned := make(map[string]bool, len(stores))
	for _, st := range stores {
		assigned[st.StoreCode] = true
	}

	pending, err := s.PendingSubmissions(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, p := range pending {
		if assigned[p.StoreCode] {
			counts[p.StoreCode]++
		}
	}
	return counts, nil
}

// OpnameTasks returns every RAB line of a store in sheet order with the
// latest opname row submitted for it.
func (s *SheetStore) OpnameTasks(ctx context.Context, storeCode string) ([]OpnameTask, error) {
	items, err := s.BudgetItems(ctx, storeCode)
	if err != nil {
		return nil, err
	}
	app, err := s.app(ctx)
	if err != nil {
		return nil, err
	}

	records, err := app.FindRecordsByFilter(collections.OpnameFinal,
		"kode_toko = {:kode}", "created", 0, 0,
		map[string]any{"kode": storeCode},
	)
	if err != nil {
		return nil, fmt.Errorf("sheet store: query %s for %s: %w", collections.OpnameFinal, storeCode, err)
	}
	latest := make(map[string]*Submission, len(records))
	for _, rec := range records {
		row := submissionRowFromRecord(rec)
		latest[row.WorkDescription] = &row
	}

	tasks := make([]OpnameTask, 0, len(items))
	for _, item := range items {
		tasks = append(tasks, OpnameTask{Item: item, Submission: latest[item.Description]})
	}
	return tasks, nil
}

// StoresByPIC returns the stores whose RAB names username as PIC.
func (s *SheetStore) StoresByPIC(ctx context.Context, username string) ([]StoreDescriptor, error) {
	return s.assignedStores(ctx, "pic_username", username)
}

// StoresByContractor returns the stores whose RAB names username as
// contractor.
func (s *SheetStore) StoresByContractor(ctx context.Context, username string) ([]StoreDescriptor, error) {
	return s.assignedStores(ctx, "kontraktor_username", username)
}

func (s *SheetStore) assignedStores(ctx context.Context, field, username string) ([]StoreDescriptor, error) {
	app, err := s.app(ctx)
	if err != nil {
		return nil, err
	}

	records, err := app.FindRecordsByFilter(collections.DataRAB,
		field+" = {:user}", "kode_toko,sort_order", 0, 0,
		map[string]any{"user": username},
	)
	if err != nil {
		return nil, fmt.Errorf("sheet store: query stores of %s: %w", username, err)
	}

	var out []StoreDescriptor
	seen := make(map[string]bool)
	for _, rec := range records {
		code := rec.GetString("kode_toko")
		if seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, StoreDescriptor{
			StoreCode:        code,
			StoreName:        rec.GetString("nama_toko"),
			ProjectReference: rec.GetString("no_ulok"),
			Address:          rec.GetString("alamat"),
		})
	}
	return out, nil
}

// rabLine finds the RAB line of a store with the given work description.
// It returns nil when the store has no such line.
func rabLine(txApp core.App, storeCode, description string) (*core.Record, error) {
	records, err := txApp.FindRecordsByFilter(collections.DataRAB,
		"kode_toko = {:kode} && jenis_pekerjaan = {:desc}", "sort_order", 1, 0,
		map[string]any{"kode": storeCode, "desc": description},
	)
	if err != nil {
		return nil, fmt.Errorf("query rab line: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func fillFromRAB(in *SubmissionInput, line *core.Record) {
	if in.StoreName == "" {
		in.StoreName = line.GetString("nama_toko")
	}
	if in.PIC == "" {
		in.PIC = line.GetString("pic_username")
	}
	if in.Category == "" {
		in.Category = line.GetString("kategori_pekerjaan")
	}
	if in.Unit == "" {
		in.Unit = line.GetString("satuan")
	}
	if in.BudgetVolume.IsZero() {
		in.BudgetVolume.Decimal = decimal.NewFromFloat(line.GetFloat("vol_rab"))
	}
	if in.UnitPriceMaterial.IsZero() {
		in.UnitPriceMaterial.Decimal = decimal.NewFromFloat(line.GetFloat("harga_material"))
	}
	if in.UnitPriceLabor.IsZero() {
		in.UnitPriceLabor.Decimal = decimal.NewFromFloat(line.GetFloat("harga_upah"))
	}
}

func setSubmission(record *core.Record, in SubmissionInput, now time.Time) {
	total := in.FinalTotalPrice.Decimal
	if total.IsZero() {
		total = in.FinalVolume.Mul(in.UnitPriceMaterial.Add(in.UnitPriceLabor.Decimal))
	}
	millis := strconv.FormatInt(now.UnixMilli(), 10)

	record.Set("submission_id", "SUB-"+millis+"-"+security.RandomStringWithAlphabet(9, submissionIDAlphabet))
	record.Set("item_id", in.StoreCode+"-"+itemSlug(in.WorkDescription)+"-"+millis)
	record.Set("kode_toko", in.StoreCode)
	record.Set("nama_toko", in.StoreName)
	record.Set("pic_username", in.PIC)
	record.Set("tanggal_submit", FormatTimestampID(now))
	record.Set("kategori_pekerjaan", in.Category)
	record.Set("jenis_pekerjaan", in.WorkDescription)
	record.Set("vol_rab", in.BudgetVolume.InexactFloat64())
	record.Set("satuan", in.Unit)
	record.Set("volume_akhir", in.FinalVolume.InexactFloat64())
	record.Set("selisih", in.FinalVolume.Sub(in.BudgetVolume.Decimal).InexactFloat64())
	record.Set("harga_material", in.UnitPriceMaterial.InexactFloat64())
	record.Set("harga_upah", in.UnitPriceLabor.InexactFloat64())
	record.Set("total_harga_akhir", total.InexactFloat64())
	record.Set("foto_url", strings.TrimSpace(in.PhotoURL))
	record.Set("approval_status", collections.StatusPending)
}

// itemSlug replaces every character of s that is not a letter or digit
// with a dash.
func itemSlug(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, s)
}

func submissionRowFromRecord(rec *core.Record) Submission {
	return Submission{
		ApprovedSubmission: submissionFromRecord(rec),
		ID:                 rec.Id,
		SubmissionID:       rec.GetString("submission_id"),
		ItemID:             rec.GetString("item_id"),
		StoreCode:          rec.GetString("kode_toko"),
		StoreName:          rec.GetString("nama_toko"),
		PIC:                rec.GetString("pic_username"),
		UnitPriceMaterial:  decimal.NewFromFloat(rec.GetFloat("harga_material")),
		UnitPriceLabor:     decimal.NewFromFloat(rec.GetFloat("harga_upah")),
		Status:             rec.GetString("approval_status"),
	}
}
