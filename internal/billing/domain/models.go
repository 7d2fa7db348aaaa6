// Package domain defines the running-account billing engine's types.
//
// The engine owns three invariants: an item's billed quantity can never
// exceed its BOQ quantity, an item's GST terms are fixed by the first tax
// invoice that bills it, and RA numbers per project are strictly increasing.
package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/sitebill/rabill/internal/invoice/domain"
	projectdomain "github.com/sitebill/rabill/internal/project/domain"
)

// GSTTerms is a resolved (type, rate) pair.
type GSTTerms struct {
	Type invoicedomain.GSTType `json:"type"`
	Rate decimal.Decimal       `json:"rate"`
}

// ItemBalance is the derived billing state of one BOQ item, recomputed from
// the ledger on every read.
type ItemBalance struct {
	Item              projectdomain.Item `json:"item"`
	BilledQuantity    decimal.Decimal    `json:"billed_quantity"`
	RemainingQuantity decimal.Decimal    `json:"remaining_quantity"`
	LockedGST         *GSTTerms          `json:"locked_gst,omitempty"`
	InvoiceCount      int                `json:"invoice_count"`
}

// GSTEditable reports whether the caller may still choose GST terms for the
// item. False once any tax invoice has billed it.
func (b ItemBalance) GSTEditable() bool {
	return b.LockedGST == nil
}

// ProposedLine is one requested allocation in a new invoice.
type ProposedLine struct {
	ItemID   string                `json:"item_id"`
	Quantity decimal.Decimal       `json:"quantity"`
	GSTType  invoicedomain.GSTType `json:"gst_type"`
	GSTRate  decimal.Decimal       `json:"gst_rate"`
}

// BillingStatus is the read-model served to the allocation screen.
type BillingStatus struct {
	ProjectID       snowflake.ID  `json:"project_id"`
	Items           []ItemBalance `json:"items"`
	NextSequenceTag string        `json:"next_sequence_tag"`
	TaxInvoiceCount int           `json:"tax_invoice_count"`
}

// ValidationResult reports a dry-run validation outcome.
type ValidationResult struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations,omitempty"`
}

type GetBillingStatusRequest struct {
	ProjectID string
}

type ValidateAllocationRequest struct {
	ProjectID string
	Type      invoicedomain.InvoiceType
	Lines     []ProposedLine
}

type CreateInvoiceRequest struct {
	ProjectID string
	Type      invoicedomain.InvoiceType
	Lines     []ProposedLine
	Metadata  map[string]any
}

type Service interface {
	// GetBillingStatus folds the ledger into per-item balances. Read-only.
	GetBillingStatus(ctx context.Context, req GetBillingStatusRequest) (BillingStatus, error)
	// ValidateAllocation dry-runs a proposal against the current balances.
	ValidateAllocation(ctx context.Context, req ValidateAllocationRequest) (ValidationResult, error)
	// CreateInvoice validates and persists a new invoice atomically; invoice
	// creation per project is serialized.
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (invoicedomain.Invoice, error)
}
