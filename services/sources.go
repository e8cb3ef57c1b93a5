package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned by sources when no row matches the key.
	ErrNotFound = errors.New("not found")
	// ErrInvalidStore marks a store descriptor without a code or a name.
	ErrInvalidStore = errors.New("invalid store descriptor")
)

// NotAvailable is shown wherever a looked-up value could not be resolved.
const NotAvailable = "N/A"

// ApprovedSubmission is one approved final-opname line.
type ApprovedSubmission struct {
	Category        string
	WorkDescription string
	BudgetVolume    decimal.Decimal
	Unit            string
	FinalVolume     decimal.Decimal
	Variance        decimal.Decimal
	FinalTotalPrice decimal.Decimal
	SubmittedAt     string
	PhotoURL        string
}

// HasPhoto reports whether the submission carries a photo URL.
func (s ApprovedSubmission) HasPhoto() bool {
	return s.PhotoURL != ""
}

// StoreDescriptor identifies the store a report is produced for.
type StoreDescriptor struct {
	StoreCode        string
	StoreName        string
	ProjectReference string
	Address          string
}

// Validate checks the fields a report cannot be produced without.
func (s StoreDescriptor) Validate() error {
	if s.StoreCode == "" {
		return errors.Join(ErrInvalidStore, errors.New("store code is required"))
	}
	if s.StoreName == "" {
		return errors.Join(ErrInvalidStore, errors.New("store name is required"))
	}
	return nil
}

// DisplayAddress is the address, or the store name when no address is known.
func (s StoreDescriptor) DisplayAddress() string {
	if s.Address != "" {
		return s.Address
	}
	return s.StoreName
}

// PicContractorInfo names the PIC and the contractor of a project.
type PicContractorInfo struct {
	PicName        string
	ContractorName string
}

// UnknownPicContractor is used when a project has no resolvable PIC row.
var UnknownPicContractor = PicContractorInfo{PicName: NotAvailable, ContractorName: NotAvailable}

// BudgetSource reads RAB lines for a store.
type BudgetSource interface {
	BudgetItems(ctx context.Context, storeCode string) ([]BudgetItem, error)
}

// PicContractorSource resolves PIC and contractor by project reference.
type PicContractorSource interface {
	PicContractor(ctx context.Context, projectReference string) (PicContractorInfo, error)
}

// DocumentSink stores a finished document under a file name.
type DocumentSink interface {
	Save(name string, data []byte) error
}
