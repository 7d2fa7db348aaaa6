package service

import (
	"fmt"
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	billingdomain "github.com/sitebill/rabill/internal/billing/domain"
	invoicedomain "github.com/sitebill/rabill/internal/invoice/domain"
	projectdomain "github.com/sitebill/rabill/internal/project/domain"
)

// computeBalances folds the invoice ledger into per-item balances.
//
// Only tax invoices consume quantity; proforma invoices are skipped entirely.
// The first tax-invoice allocation against an item fixes its GST terms. The
// fold is deterministic over the snapshot it is given and holds no state, so
// it can never drift from the ledger.
func computeBalances(items []projectdomain.Item, invoices []invoicedomain.Invoice) ([]billingdomain.ItemBalance, error) {
	balances := make([]billingdomain.ItemBalance, len(items))
	index := make(map[snowflake.ID]*billingdomain.ItemBalance, len(items))
	for i, item := range items {
		balances[i] = billingdomain.ItemBalance{
			Item:              item,
			BilledQuantity:    decimal.Zero,
			RemainingQuantity: item.OriginalQuantity,
		}
		index[item.ID] = &balances[i]
	}

	ordered := make([]invoicedomain.Invoice, len(invoices))
	copy(ordered, invoices)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	for _, inv := range ordered {
		if inv.Type != invoicedomain.InvoiceTypeTaxInvoice {
			continue
		}
		touched := make(map[snowflake.ID]bool, len(inv.Allocations))
		for _, alloc := range inv.Allocations {
			balance, ok := index[alloc.ItemID]
			if !ok {
				return nil, fmt.Errorf("invoice %s allocation references item %s: %w",
					inv.ID, alloc.ItemID, billingdomain.ErrUnknownItem)
			}

			balance.BilledQuantity = balance.BilledQuantity.Add(alloc.QuantityBilled)
			if balance.LockedGST == nil && alloc.QuantityBilled.IsPositive() {
				balance.LockedGST = &billingdomain.GSTTerms{
					Type: alloc.GSTType,
					Rate: alloc.GSTRate,
				}
			}
			if !touched[alloc.ItemID] {
				touched[alloc.ItemID] = true
				balance.InvoiceCount++
			}
		}
	}

	for i := range balances {
		remaining := balances[i].Item.OriginalQuantity.Sub(balances[i].BilledQuantity)
		if remaining.IsNegative() {
			// A correct ledger never goes below zero.
			remaining = decimal.Zero
		}
		balances[i].RemainingQuantity = remaining
	}

	return balances, nil
}

func balanceIndex(balances []billingdomain.ItemBalance) map[snowflake.ID]*billingdomain.ItemBalance {
	index := make(map[snowflake.ID]*billingdomain.ItemBalance, len(balances))
	for i := range balances {
		index[balances[i].Item.ID] = &balances[i]
	}
	return index
}

func countTaxInvoices(invoices []invoicedomain.Invoice) int {
	count := 0
	for _, inv := range invoices {
		if inv.Type == invoicedomain.InvoiceTypeTaxInvoice {
			count++
		}
	}
	return count
}
