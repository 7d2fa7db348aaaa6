package service

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	billingdomain "github.com/sitebill/rabill/internal/billing/domain"
	invoicedomain "github.com/sitebill/rabill/internal/invoice/domain"
	"gorm.io/datatypes"
)

// buildInvoice materializes a validated allocation into an invoice record.
//
// Line amounts are computed from the registry's current rate, never from a
// caller-supplied figure or a historical invoice. Tax components keep full
// decimal precision; nothing here rounds. Only tax invoices receive an RA
// sequence number.
func buildInvoice(
	genID *snowflake.Node,
	orgID, projectID snowflake.ID,
	invType invoicedomain.InvoiceType,
	sequenceNo int64,
	index map[snowflake.ID]*billingdomain.ItemBalance,
	parsed []parsedLine,
	metadata map[string]any,
	now time.Time,
) invoicedomain.Invoice {
	invoice := invoicedomain.Invoice{
		ID:          genID.Generate(),
		OrgID:       orgID,
		ProjectID:   projectID,
		Type:        invType,
		SequenceTag: invoicedomain.ProformaSequenceTag,
		Subtotal:    decimal.Zero,
		CGSTAmount:  decimal.Zero,
		SGSTAmount:  decimal.Zero,
		IGSTAmount:  decimal.Zero,
		TotalAmount: decimal.Zero,
		Metadata:    datatypes.JSONMap(metadata),
		CreatedAt:   now,
	}
	if invoice.Metadata == nil {
		invoice.Metadata = datatypes.JSONMap{}
	}
	if invType == invoicedomain.InvoiceTypeTaxInvoice {
		seq := sequenceNo
		invoice.SequenceNo = &seq
		invoice.SequenceTag = fmt.Sprintf("RA%d", seq)
	}

	for i, entry := range parsed {
		balance := index[entry.itemID]
		line := entry.line

		rate := balance.Item.Rate
		amount := line.Quantity.Mul(rate)
		cgst, sgst, igst := splitGST(line.GSTType, line.GSTRate, amount)

		invoice.Allocations = append(invoice.Allocations, invoicedomain.LineAllocation{
			ID:             genID.Generate(),
			OrgID:          orgID,
			InvoiceID:      invoice.ID,
			ItemID:         entry.itemID,
			Position:       i + 1,
			QuantityBilled: line.Quantity,
			RateUsed:       rate,
			GSTType:        line.GSTType,
			GSTRate:        line.GSTRate,
			Amount:         amount,
			CreatedAt:      now,
		})

		invoice.Subtotal = invoice.Subtotal.Add(amount)
		invoice.CGSTAmount = invoice.CGSTAmount.Add(cgst)
		invoice.SGSTAmount = invoice.SGSTAmount.Add(sgst)
		invoice.IGSTAmount = invoice.IGSTAmount.Add(igst)
	}

	invoice.TotalAmount = invoice.Subtotal.
		Add(invoice.CGSTAmount).
		Add(invoice.SGSTAmount).
		Add(invoice.IGSTAmount)

	return invoice
}
