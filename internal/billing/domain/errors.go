package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Violation codes carried inside an AllocationError.
const (
	ViolationOverQuantity    = "over_quantity"
	ViolationInvalidQuantity = "invalid_quantity"
	ViolationDuplicateItem   = "duplicate_item"
	ViolationGSTMismatch     = "gst_mismatch"
	ViolationInvalidGSTType  = "invalid_gst_type"
	ViolationInvalidGSTRate  = "invalid_gst_rate"
)

// Violation describes one rejected line. Requested/Available are quantities
// for quantity codes and rates for GST codes.
type Violation struct {
	ItemID    string           `json:"item_id"`
	Code      string           `json:"code"`
	Requested decimal.Decimal  `json:"requested"`
	Available *decimal.Decimal `json:"available,omitempty"`
	Message   string           `json:"message"`
}

// AllocationError rejects an entire proposed invoice. Validation is
// all-or-nothing: every offending line is listed and no line is committed.
type AllocationError struct {
	Violations []Violation
}

func (e *AllocationError) Error() string {
	if len(e.Violations) == 0 {
		return "allocation rejected"
	}
	codes := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		codes = append(codes, fmt.Sprintf("%s:%s", v.ItemID, v.Code))
	}
	return fmt.Sprintf("allocation rejected: %s", strings.Join(codes, ", "))
}

// AsAllocationError unwraps err to an AllocationError, if it is one.
func AsAllocationError(err error) *AllocationError {
	var allocErr *AllocationError
	if errors.As(err, &allocErr) {
		return allocErr
	}
	return nil
}

var (
	// ErrEmptyAllocation rejects proposals with no positive quantity.
	ErrEmptyAllocation = errors.New("empty_allocation")
	// ErrUnknownItem means an allocation references an item that is not in
	// the registry. Ledger corruption or a stale client; never retried.
	ErrUnknownItem = errors.New("unknown_item")
	// ErrConcurrentModification means the append lost the per-project
	// serialization race. Safe to retry once against a fresh balance.
	ErrConcurrentModification = errors.New("concurrent_modification")

	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidProject      = errors.New("invalid_project")
	ErrInvalidInvoiceType  = errors.New("invalid_invoice_type")
	ErrProjectNotFound     = errors.New("project_not_found")
)
