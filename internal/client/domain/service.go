package domain

import (
	"context"
	"errors"

	"github.com/sitebill/rabill/pkg/db/pagination"
)

type CreateClientRequest struct {
	Name        string
	Email       string
	GSTIN       string
	AddressLine string
	State       string
	StateCode   string
}

type ListClientRequest struct {
	PageToken string
	PageSize  int
	Name      string
}

type ListClientResponse struct {
	pagination.PageInfo
	Clients []Client `json:"clients"`
}

type Service interface {
	Create(ctx context.Context, req CreateClientRequest) (Client, error)
	List(ctx context.Context, req ListClientRequest) (ListClientResponse, error)
	GetByID(ctx context.Context, id string) (Client, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
)
