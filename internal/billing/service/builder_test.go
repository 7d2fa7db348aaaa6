package service

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/sitebill/rabill/internal/billing/domain"
	invoicedomain "github.com/sitebill/rabill/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
)

func TestSplitGSTHalves(t *testing.T) {
	cgst, sgst, igst := splitGST(invoicedomain.GSTTypeCGSTSGST, dec("18"), dec("30000"))
	assert.True(t, cgst.Equal(dec("2700")))
	assert.True(t, sgst.Equal(dec("2700")))
	assert.True(t, igst.IsZero())
}

func TestSplitGSTIntegrated(t *testing.T) {
	cgst, sgst, igst := splitGST(invoicedomain.GSTTypeIGST, dec("18"), dec("30000"))
	assert.True(t, cgst.IsZero())
	assert.True(t, sgst.IsZero())
	assert.True(t, igst.Equal(dec("5400")))
}

func TestSplitGSTOddAmountKeepsExactHalves(t *testing.T) {
	// 333.33 x 18 / 200 = 29.9997 per half; no rounding happens here.
	cgst, sgst, _ := splitGST(invoicedomain.GSTTypeCGSTSGST, dec("18"), dec("333.33"))
	assert.True(t, cgst.Equal(dec("29.9997")))
	assert.True(t, cgst.Equal(sgst))
}

func TestBuildInvoiceTaxInvoiceTotals(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	orgID := node.Generate()
	projectID := node.Generate()
	item := testItem(node, "100", "500")
	_, index := testBalances(node, item)

	parsed, err := parseLines(index, []billingdomain.ProposedLine{
		{ItemID: item.ID.String(), Quantity: dec("60"), GSTType: invoicedomain.GSTTypeCGSTSGST, GSTRate: dec("18")},
	})
	assert.NoError(t, err)

	inv := buildInvoice(node, orgID, projectID, invoicedomain.InvoiceTypeTaxInvoice, 1, index, parsed, nil, nowUTC())

	assert.Equal(t, invoicedomain.InvoiceTypeTaxInvoice, inv.Type)
	assert.NotNil(t, inv.SequenceNo)
	assert.Equal(t, int64(1), *inv.SequenceNo)
	assert.Equal(t, "RA1", inv.SequenceTag)

	assert.Len(t, inv.Allocations, 1)
	alloc := inv.Allocations[0]
	assert.True(t, alloc.QuantityBilled.Equal(dec("60")))
	assert.True(t, alloc.RateUsed.Equal(dec("500")))
	assert.True(t, alloc.Amount.Equal(dec("30000")))
	assert.Equal(t, 1, alloc.Position)

	assert.True(t, inv.Subtotal.Equal(dec("30000")))
	assert.True(t, inv.CGSTAmount.Equal(dec("2700")))
	assert.True(t, inv.SGSTAmount.Equal(dec("2700")))
	assert.True(t, inv.IGSTAmount.IsZero())
	assert.True(t, inv.TotalAmount.Equal(dec("35400")))
}

func TestBuildInvoiceUsesRegistryRate(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	item := testItem(node, "10", "123.45")
	_, index := testBalances(node, item)

	parsed, err := parseLines(index, []billingdomain.ProposedLine{
		{ItemID: item.ID.String(), Quantity: dec("2.5"), GSTType: invoicedomain.GSTTypeIGST, GSTRate: dec("12")},
	})
	assert.NoError(t, err)

	inv := buildInvoice(node, node.Generate(), node.Generate(), invoicedomain.InvoiceTypeTaxInvoice, 3, index, parsed, nil, nowUTC())

	assert.Equal(t, "RA3", inv.SequenceTag)
	assert.True(t, inv.Allocations[0].Amount.Equal(dec("308.625")))
	assert.True(t, inv.IGSTAmount.Equal(dec("37.035")))
	assert.True(t, inv.TotalAmount.Equal(dec("345.66")))
}

func TestBuildInvoiceProformaHasNoSequence(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	item := testItem(node, "100", "500")
	_, index := testBalances(node, item)

	parsed, err := parseLines(index, []billingdomain.ProposedLine{
		{ItemID: item.ID.String(), Quantity: dec("60"), GSTType: invoicedomain.GSTTypeCGSTSGST, GSTRate: dec("18")},
	})
	assert.NoError(t, err)

	inv := buildInvoice(node, node.Generate(), node.Generate(), invoicedomain.InvoiceTypeProforma, 1, index, parsed, nil, nowUTC())

	assert.Nil(t, inv.SequenceNo)
	assert.Equal(t, invoicedomain.ProformaSequenceTag, inv.SequenceTag)
	assert.True(t, inv.TotalAmount.Equal(dec("35400")))
}

func TestBuildInvoiceMultiLinePositions(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	a := testItem(node, "10", "100")
	b := testItem(node, "20", "50")
	_, index := testBalances(node, a, b)

	parsed, err := parseLines(index, []billingdomain.ProposedLine{
		{ItemID: a.ID.String(), Quantity: dec("1"), GSTType: invoicedomain.GSTTypeCGSTSGST, GSTRate: dec("5")},
		{ItemID: b.ID.String(), Quantity: dec("2"), GSTType: invoicedomain.GSTTypeIGST, GSTRate: dec("18")},
	})
	assert.NoError(t, err)

	inv := buildInvoice(node, node.Generate(), node.Generate(), invoicedomain.InvoiceTypeTaxInvoice, 1, index, parsed, nil, nowUTC())

	assert.Len(t, inv.Allocations, 2)
	assert.Equal(t, 1, inv.Allocations[0].Position)
	assert.Equal(t, 2, inv.Allocations[1].Position)
	assert.True(t, inv.Subtotal.Equal(dec("200")))
	assert.True(t, inv.CGSTAmount.Equal(dec("2.5")))
	assert.True(t, inv.SGSTAmount.Equal(dec("2.5")))
	assert.True(t, inv.IGSTAmount.Equal(dec("18")))
	assert.True(t, inv.TotalAmount.Equal(dec("223")))
}
