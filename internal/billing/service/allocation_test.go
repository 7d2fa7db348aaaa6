package service

import (
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	billingdomain "github.com/sitebill/rabill/internal/billing/domain"
	"github.com/sitebill/rabill/internal/config"
	invoicedomain "github.com/sitebill/rabill/internal/invoice/domain"
	projectdomain "github.com/sitebill/rabill/internal/project/domain"
	"github.com/stretchr/testify/assert"
)

func testAllowedRates() []decimal.Decimal {
	return config.DefaultBillingConfig().AllowedGSTRates()
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func testBalances(node *snowflake.Node, items ...projectdomain.Item) ([]billingdomain.ItemBalance, map[snowflake.ID]*billingdomain.ItemBalance) {
	balances, err := computeBalances(items, nil)
	if err != nil {
		panic(err)
	}
	return balances, balanceIndex(balances)
}

func TestParseLinesEmptyProposal(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	item := testItem(node, "100", "500")
	_, index := testBalances(node, item)

	_, err := parseLines(index, nil)
	assert.True(t, errors.Is(err, billingdomain.ErrEmptyAllocation))

	// All-zero quantities are an empty proposal too.
	_, err = parseLines(index, []billingdomain.ProposedLine{
		{ItemID: item.ID.String(), Quantity: dec("0")},
	})
	assert.True(t, errors.Is(err, billingdomain.ErrEmptyAllocation))
}

func TestParseLinesUnknownItem(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	item := testItem(node, "100", "500")
	_, index := testBalances(node, item)

	_, err := parseLines(index, []billingdomain.ProposedLine{
		{ItemID: node.Generate().String(), Quantity: dec("1")},
	})
	assert.True(t, errors.Is(err, billingdomain.ErrUnknownItem))

	_, err = parseLines(index, []billingdomain.ProposedLine{
		{ItemID: "not-a-snowflake", Quantity: dec("1")},
	})
	assert.True(t, errors.Is(err, billingdomain.ErrUnknownItem))
}

func TestValidateAllocationOverQuantity(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	item := testItem(node, "40", "500")
	_, index := testBalances(node, item)
	rates := testAllowedRates()

	parsed, err := parseLines(index, []billingdomain.ProposedLine{
		{ItemID: item.ID.String(), Quantity: dec("45"), GSTType: invoicedomain.GSTTypeCGSTSGST, GSTRate: dec("18")},
	})
	assert.NoError(t, err)

	err = validateAllocation(index, parsed, rates)
	allocErr := billingdomain.AsAllocationError(err)
	assert.NotNil(t, allocErr)
	assert.Len(t, allocErr.Violations, 1)

	v := allocErr.Violations[0]
	assert.Equal(t, billingdomain.ViolationOverQuantity, v.Code)
	assert.Equal(t, item.ID.String(), v.ItemID)
	assert.True(t, v.Requested.Equal(dec("45")))
	assert.NotNil(t, v.Available)
	assert.True(t, v.Available.Equal(dec("40")))
}

func TestValidateAllocationExactRemainingSucceeds(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	item := testItem(node, "40", "500")
	_, index := testBalances(node, item)

	parsed, err := parseLines(index, []billingdomain.ProposedLine{
		{ItemID: item.ID.String(), Quantity: dec("40"), GSTType: invoicedomain.GSTTypeCGSTSGST, GSTRate: dec("18")},
	})
	assert.NoError(t, err)

	assert.NoError(t, validateAllocation(index, parsed, testAllowedRates()))
}

func TestValidateAllocationCollectsAllViolations(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	a := testItem(node, "10", "100")
	b := testItem(node, "20", "200")
	_, index := testBalances(node, a, b)

	parsed, err := parseLines(index, []billingdomain.ProposedLine{
		{ItemID: a.ID.String(), Quantity: dec("15"), GSTType: invoicedomain.GSTTypeCGSTSGST, GSTRate: dec("18")},
		{ItemID: b.ID.String(), Quantity: dec("5"), GSTType: invoicedomain.GSTTypeIGST, GSTRate: dec("17")},
		{ItemID: b.ID.String(), Quantity: dec("1"), GSTType: invoicedomain.GSTTypeIGST, GSTRate: dec("18")},
	})
	assert.NoError(t, err)

	err = validateAllocation(index, parsed, testAllowedRates())
	allocErr := billingdomain.AsAllocationError(err)
	assert.NotNil(t, allocErr)

	codes := make([]string, 0, len(allocErr.Violations))
	for _, v := range allocErr.Violations {
		codes = append(codes, v.Code)
	}
	assert.Contains(t, codes, billingdomain.ViolationOverQuantity)
	assert.Contains(t, codes, billingdomain.ViolationInvalidGSTRate)
	assert.Contains(t, codes, billingdomain.ViolationDuplicateItem)
}

func TestValidateAllocationGSTMismatchOnLockedItem(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	item := testItem(node, "100", "500")

	locked := taxInvoice(node, nowUTC(), invoicedomain.LineAllocation{
		ItemID:         item.ID,
		QuantityBilled: dec("10"),
		GSTType:        invoicedomain.GSTTypeCGSTSGST,
		GSTRate:        dec("18"),
	})
	balances, err := computeBalances([]projectdomain.Item{item}, []invoicedomain.Invoice{locked})
	assert.NoError(t, err)
	index := balanceIndex(balances)

	parsed, err := parseLines(index, []billingdomain.ProposedLine{
		{ItemID: item.ID.String(), Quantity: dec("5"), GSTType: invoicedomain.GSTTypeIGST, GSTRate: dec("12")},
	})
	assert.NoError(t, err)

	err = validateAllocation(index, parsed, testAllowedRates())
	allocErr := billingdomain.AsAllocationError(err)
	assert.NotNil(t, allocErr)
	assert.Equal(t, billingdomain.ViolationGSTMismatch, allocErr.Violations[0].Code)

	// Matching the locked terms passes even though a different rate is
	// requested elsewhere in the whitelist.
	parsed, err = parseLines(index, []billingdomain.ProposedLine{
		{ItemID: item.ID.String(), Quantity: dec("5"), GSTType: invoicedomain.GSTTypeCGSTSGST, GSTRate: dec("18")},
	})
	assert.NoError(t, err)
	assert.NoError(t, validateAllocation(index, parsed, testAllowedRates()))
}

func TestValidateAllocationInvalidGSTType(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	item := testItem(node, "100", "500")
	_, index := testBalances(node, item)

	parsed, err := parseLines(index, []billingdomain.ProposedLine{
		{ItemID: item.ID.String(), Quantity: dec("5"), GSTType: invoicedomain.GSTType("vat"), GSTRate: dec("18")},
	})
	assert.NoError(t, err)

	err = validateAllocation(index, parsed, testAllowedRates())
	allocErr := billingdomain.AsAllocationError(err)
	assert.NotNil(t, allocErr)
	assert.Equal(t, billingdomain.ViolationInvalidGSTType, allocErr.Violations[0].Code)
}
