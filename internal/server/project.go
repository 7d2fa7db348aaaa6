package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	projectdomain "github.com/sitebill/rabill/internal/project/domain"
	"github.com/sitebill/rabill/pkg/db/pagination"
)

type boqRowRequest struct {
	Description      string `json:"description" binding:"required"`
	Unit             string `json:"unit"`
	OriginalQuantity string `json:"original_quantity" binding:"required,decimal"`
	Rate             string `json:"rate" binding:"required,decimal"`
	DefaultGSTRate   string `json:"default_gst_rate" binding:"omitempty,decimal"`
}

type createProjectRequest struct {
	Name     string          `json:"name" binding:"required"`
	ClientID string          `json:"client_id" binding:"required"`
	Location string          `json:"location"`
	Items    []boqRowRequest `json:"items" binding:"required,min=1,dive"`
}

func (s *Server) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	rows := make([]projectdomain.BOQRow, 0, len(req.Items))
	for _, item := range req.Items {
		qty, err := decimal.NewFromString(item.OriginalQuantity)
		if err != nil {
			AbortWithError(c, newValidationError("original_quantity", "invalid_quantity", "invalid quantity"))
			return
		}
		rate, err := decimal.NewFromString(item.Rate)
		if err != nil {
			AbortWithError(c, newValidationError("rate", "invalid_rate", "invalid rate"))
			return
		}
		gstRate := decimal.Zero
		if strings.TrimSpace(item.DefaultGSTRate) != "" {
			gstRate, err = decimal.NewFromString(item.DefaultGSTRate)
			if err != nil {
				AbortWithError(c, newValidationError("default_gst_rate", "invalid_gst_rate", "invalid gst rate"))
				return
			}
		}

		rows = append(rows, projectdomain.BOQRow{
			Description:      strings.TrimSpace(item.Description),
			Unit:             strings.TrimSpace(item.Unit),
			OriginalQuantity: qty,
			Rate:             rate,
			DefaultGSTRate:   gstRate,
		})
	}

	resp, err := s.projectSvc.Create(c.Request.Context(), projectdomain.CreateProjectRequest{
		Name:     strings.TrimSpace(req.Name),
		ClientID: strings.TrimSpace(req.ClientID),
		Location: strings.TrimSpace(req.Location),
		Items:    rows,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListProjects(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name     string `form:"name"`
		ClientID string `form:"client_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.projectSvc.List(c.Request.Context(), projectdomain.ListProjectRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
		Name:      strings.TrimSpace(query.Name),
		ClientID:  strings.TrimSpace(query.ClientID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetProjectByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.projectSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListProjectItems(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	items, err := s.projectSvc.ListItems(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"items": items}})
}
