// Package domain contains persistence models for the invoice ledger.
//
// Invoices are append-only: once a row and its allocations are inserted they
// are never updated. Billed-quantity state is always reconstructed from this
// ledger, never stored as a mutable counter.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// InvoiceType distinguishes quantity-consuming tax invoices from
// informational proforma invoices.
type InvoiceType string

const (
	InvoiceTypeProforma   InvoiceType = "proforma"
	InvoiceTypeTaxInvoice InvoiceType = "tax_invoice"
)

// GSTType is the tax split applied to a line.
type GSTType string

const (
	GSTTypeCGSTSGST GSTType = "cgst_sgst" // intra-state, rate split in half
	GSTTypeIGST     GSTType = "igst"      // inter-state, full rate
)

// ProformaSequenceTag marks invoices outside the RA sequence.
const ProformaSequenceTag = "Proforma"

// Invoice is one running-account bill. SequenceNo is set only for tax
// invoices; the unique index makes a lost serialization race surface as a
// duplicate-key insert instead of a double-issued RA number.
type Invoice struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID      `gorm:"not null;index" json:"organization_id"`
	ProjectID   snowflake.ID      `gorm:"not null;index;uniqueIndex:ux_invoices_project_seq" json:"project_id"`
	Type        InvoiceType       `gorm:"type:text;not null" json:"type"`
	SequenceNo  *int64            `gorm:"uniqueIndex:ux_invoices_project_seq" json:"sequence_no,omitempty"`
	SequenceTag string            `gorm:"type:text;not null" json:"sequence_tag"`
	Subtotal    decimal.Decimal   `gorm:"type:numeric(20,6);not null" json:"subtotal"`
	CGSTAmount  decimal.Decimal   `gorm:"type:numeric(20,6);not null" json:"cgst_amount"`
	SGSTAmount  decimal.Decimal   `gorm:"type:numeric(20,6);not null" json:"sgst_amount"`
	IGSTAmount  decimal.Decimal   `gorm:"type:numeric(20,6);not null" json:"igst_amount"`
	TotalAmount decimal.Decimal   `gorm:"type:numeric(20,6);not null" json:"total_amount"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Allocations []LineAllocation `gorm:"foreignKey:InvoiceID" json:"allocations,omitempty"`
}

func (Invoice) TableName() string { return "invoices" }

// LineAllocation records the quantity an invoice consumed from one BOQ item.
// RateUsed and the GST terms are snapshots taken at creation time.
type LineAllocation struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID          snowflake.ID    `gorm:"not null;index" json:"organization_id"`
	InvoiceID      snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	ItemID         snowflake.ID    `gorm:"not null;index" json:"item_id"`
	Position       int             `gorm:"not null" json:"position"`
	QuantityBilled decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"quantity_billed"`
	RateUsed       decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"rate_used"`
	GSTType        GSTType         `gorm:"type:text;not null" json:"gst_type"`
	GSTRate        decimal.Decimal `gorm:"type:numeric(6,3);not null" json:"gst_rate"`
	Amount         decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"amount"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (LineAllocation) TableName() string { return "invoice_allocations" }
