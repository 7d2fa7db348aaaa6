// Package domain contains persistence models for projects and their BOQ items.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Project is a construction contract billed against a fixed bill of quantities.
type Project struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID      `gorm:"not null;index" json:"organization_id"`
	ClientID  snowflake.ID      `gorm:"not null;index" json:"client_id"`
	Name      string            `gorm:"not null" json:"name"`
	Location  string            `gorm:"type:text" json:"location,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

// Item is one BOQ line. Rows are written once at project creation and never
// updated or deleted afterwards; consumed quantity lives in the invoice ledger,
// not here.
type Item struct {
	ID               snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID            snowflake.ID    `gorm:"not null;index" json:"organization_id"`
	ProjectID        snowflake.ID    `gorm:"not null;index" json:"project_id"`
	Position         int             `gorm:"not null" json:"position"`
	Description      string          `gorm:"type:text;not null" json:"description"`
	Unit             string          `gorm:"type:text;not null" json:"unit"`
	OriginalQuantity decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"original_quantity"`
	Rate             decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"rate"`
	DefaultGSTRate   decimal.Decimal `gorm:"type:numeric(6,3);not null" json:"default_gst_rate"`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Item) TableName() string { return "project_items" }
