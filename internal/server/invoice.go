package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/sitebill/rabill/internal/invoice/domain"
)

func (s *Server) ListProjectInvoices(c *gin.Context) {
	projectID := strings.TrimSpace(c.Param("id"))

	var query struct {
		Type string `form:"type" binding:"omitempty,oneof=proforma tax_invoice"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := invoicedomain.ListInvoiceRequest{ProjectID: projectID}
	if query.Type != "" {
		invType := invoicedomain.InvoiceType(query.Type)
		req.Type = &invType
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
