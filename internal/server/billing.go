package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	billingdomain "github.com/sitebill/rabill/internal/billing/domain"
	invoicedomain "github.com/sitebill/rabill/internal/invoice/domain"
)

type proposedLineRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity string `json:"quantity" binding:"required,decimal"`
	GSTType  string `json:"gst_type" binding:"required,oneof=cgst_sgst igst"`
	GSTRate  string `json:"gst_rate" binding:"required,decimal"`
}

type validateAllocationRequest struct {
	Type  string                `json:"type" binding:"required,oneof=proforma tax_invoice"`
	Lines []proposedLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type createInvoiceRequest struct {
	Type     string                `json:"type" binding:"required,oneof=proforma tax_invoice"`
	Lines    []proposedLineRequest `json:"lines" binding:"required,min=1,dive"`
	Metadata map[string]any        `json:"metadata"`
}

func (s *Server) GetBillingStatus(c *gin.Context) {
	projectID := strings.TrimSpace(c.Param("id"))
	resp, err := s.billingSvc.GetBillingStatus(c.Request.Context(), billingdomain.GetBillingStatusRequest{
		ProjectID: projectID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ValidateAllocation(c *gin.Context) {
	projectID := strings.TrimSpace(c.Param("id"))

	var req validateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	lines, err := parseProposedLines(req.Lines)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.billingSvc.ValidateAllocation(c.Request.Context(), billingdomain.ValidateAllocationRequest{
		ProjectID: projectID,
		Type:      invoicedomain.InvoiceType(req.Type),
		Lines:     lines,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateInvoice(c *gin.Context) {
	projectID := strings.TrimSpace(c.Param("id"))

	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	lines, err := parseProposedLines(req.Lines)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.billingSvc.CreateInvoice(c.Request.Context(), billingdomain.CreateInvoiceRequest{
		ProjectID: projectID,
		Type:      invoicedomain.InvoiceType(req.Type),
		Lines:     lines,
		Metadata:  req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func parseProposedLines(rows []proposedLineRequest) ([]billingdomain.ProposedLine, error) {
	lines := make([]billingdomain.ProposedLine, 0, len(rows))
	for _, row := range rows {
		qty, err := decimal.NewFromString(row.Quantity)
		if err != nil {
			return nil, newValidationError("quantity", "invalid_quantity", "invalid quantity")
		}
		rate, err := decimal.NewFromString(row.GSTRate)
		if err != nil {
			return nil, newValidationError("gst_rate", "invalid_gst_rate", "invalid gst rate")
		}

		lines = append(lines, billingdomain.ProposedLine{
			ItemID:   strings.TrimSpace(row.ItemID),
			Quantity: qty,
			GSTType:  invoicedomain.GSTType(row.GSTType),
			GSTRate:  rate,
		})
	}
	return lines, nil
}
