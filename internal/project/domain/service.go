package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/sitebill/rabill/pkg/db/pagination"
)

// BOQRow is one already-parsed row of an imported bill of quantities.
// Spreadsheet parsing happens upstream; rows arrive structured and validated.
type BOQRow struct {
	Description      string
	Unit             string
	OriginalQuantity decimal.Decimal
	Rate             decimal.Decimal
	DefaultGSTRate   decimal.Decimal
}

type CreateProjectRequest struct {
	Name     string
	ClientID string
	Location string
	Items    []BOQRow
}

type ListProjectRequest struct {
	PageToken string
	PageSize  int
	Name      string
	ClientID  string
}

type ListProjectResponse struct {
	pagination.PageInfo
	Projects []Project `json:"projects"`
}

type Service interface {
	Create(ctx context.Context, req CreateProjectRequest) (Project, error)
	List(ctx context.Context, req ListProjectRequest) (ListProjectResponse, error)
	GetByID(ctx context.Context, id string) (Project, error)
	ListItems(ctx context.Context, projectID string) ([]Item, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidClient       = errors.New("invalid_client")
	ErrInvalidID           = errors.New("invalid_id")
	ErrEmptyBOQ            = errors.New("empty_boq")
	ErrInvalidBOQRow       = errors.New("invalid_boq_row")
	ErrNotFound            = errors.New("not_found")
)
