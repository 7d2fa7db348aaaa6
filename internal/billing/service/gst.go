package service

import (
	"fmt"

	"github.com/shopspring/decimal"
	billingdomain "github.com/sitebill/rabill/internal/billing/domain"
	invoicedomain "github.com/sitebill/rabill/internal/invoice/domain"
)

var twoHundred = decimal.NewFromInt(200)
var oneHundred = decimal.NewFromInt(100)

// resolveGST checks one line's requested GST terms against the item's lock
// state and the configured rate whitelist. A locked item must be billed at
// exactly its locked terms; mismatches are violations, never silent overrides.
func resolveGST(balance *billingdomain.ItemBalance, line billingdomain.ProposedLine, allowedRates []decimal.Decimal) *billingdomain.Violation {
	if locked := balance.LockedGST; locked != nil {
		if line.GSTType != locked.Type || !line.GSTRate.Equal(locked.Rate) {
			lockedRate := locked.Rate
			return &billingdomain.Violation{
				ItemID:    balance.Item.ID.String(),
				Code:      billingdomain.ViolationGSTMismatch,
				Requested: line.GSTRate,
				Available: &lockedRate,
				Message: fmt.Sprintf("item is locked to %s at %s%%, requested %s at %s%%",
					locked.Type, locked.Rate, line.GSTType, line.GSTRate),
			}
		}
		return nil
	}

	if line.GSTType != invoicedomain.GSTTypeCGSTSGST && line.GSTType != invoicedomain.GSTTypeIGST {
		return &billingdomain.Violation{
			ItemID:    balance.Item.ID.String(),
			Code:      billingdomain.ViolationInvalidGSTType,
			Requested: line.GSTRate,
			Message:   fmt.Sprintf("unknown gst type %q", line.GSTType),
		}
	}

	for _, rate := range allowedRates {
		if line.GSTRate.Equal(rate) {
			return nil
		}
	}
	return &billingdomain.Violation{
		ItemID:    balance.Item.ID.String(),
		Code:      billingdomain.ViolationInvalidGSTRate,
		Requested: line.GSTRate,
		Message:   fmt.Sprintf("gst rate %s%% is not in the configured whitelist", line.GSTRate),
	}
}

// splitGST computes the tax components for a line amount. The CGST+SGST split
// is exact (amount x rate / 200 per half); intermediate values keep full
// decimal precision so per-item halves never drift across lines.
func splitGST(gstType invoicedomain.GSTType, rate, amount decimal.Decimal) (cgst, sgst, igst decimal.Decimal) {
	switch gstType {
	case invoicedomain.GSTTypeCGSTSGST:
		half := amount.Mul(rate).Div(twoHundred)
		return half, half, decimal.Zero
	case invoicedomain.GSTTypeIGST:
		return decimal.Zero, decimal.Zero, amount.Mul(rate).Div(oneHundred)
	default:
		return decimal.Zero, decimal.Zero, decimal.Zero
	}
}
