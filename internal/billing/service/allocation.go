package service

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	billingdomain "github.com/sitebill/rabill/internal/billing/domain"
)

type parsedLine struct {
	itemID snowflake.ID
	line   billingdomain.ProposedLine
}

// parseLines rejects proposals that are empty or reference items outside the
// registry before any per-line checks run. An unknown item is an integrity
// fault (stale client or corrupted ledger), not a recoverable violation.
func parseLines(index map[snowflake.ID]*billingdomain.ItemBalance, lines []billingdomain.ProposedLine) ([]parsedLine, error) {
	hasPositive := false
	for _, line := range lines {
		if line.Quantity.IsPositive() {
			hasPositive = true
			break
		}
	}
	if !hasPositive {
		return nil, billingdomain.ErrEmptyAllocation
	}

	parsed := make([]parsedLine, 0, len(lines))
	for _, line := range lines {
		itemID, err := snowflake.ParseString(line.ItemID)
		if err != nil {
			return nil, fmt.Errorf("item id %q: %w", line.ItemID, billingdomain.ErrUnknownItem)
		}
		if _, ok := index[itemID]; !ok {
			return nil, fmt.Errorf("item %s not in registry: %w", itemID, billingdomain.ErrUnknownItem)
		}
		parsed = append(parsed, parsedLine{itemID: itemID, line: line})
	}
	return parsed, nil
}

// validateAllocation applies the all-or-nothing contract: every line must be
// within the item's remaining balance and satisfy the GST policy, or the
// whole proposal is rejected with the complete violation list.
func validateAllocation(index map[snowflake.ID]*billingdomain.ItemBalance, parsed []parsedLine, allowedRates []decimal.Decimal) error {
	violations := make([]billingdomain.Violation, 0)
	seen := make(map[snowflake.ID]bool, len(parsed))

	for _, entry := range parsed {
		balance := index[entry.itemID]
		line := entry.line

		if seen[entry.itemID] {
			violations = append(violations, billingdomain.Violation{
				ItemID:    entry.itemID.String(),
				Code:      billingdomain.ViolationDuplicateItem,
				Requested: line.Quantity,
				Message:   "item appears more than once in the proposal",
			})
			continue
		}
		seen[entry.itemID] = true

		if !line.Quantity.IsPositive() {
			violations = append(violations, billingdomain.Violation{
				ItemID:    entry.itemID.String(),
				Code:      billingdomain.ViolationInvalidQuantity,
				Requested: line.Quantity,
				Message:   "quantity must be greater than zero",
			})
			continue
		}

		if line.Quantity.GreaterThan(balance.RemainingQuantity) {
			available := balance.RemainingQuantity
			violations = append(violations, billingdomain.Violation{
				ItemID:    entry.itemID.String(),
				Code:      billingdomain.ViolationOverQuantity,
				Requested: line.Quantity,
				Available: &available,
				Message: fmt.Sprintf("requested %s exceeds remaining balance %s",
					line.Quantity, available),
			})
		}

		if v := resolveGST(balance, line, allowedRates); v != nil {
			violations = append(violations, *v)
		}
	}

	if len(violations) > 0 {
		return &billingdomain.AllocationError{Violations: violations}
	}
	return nil
}
