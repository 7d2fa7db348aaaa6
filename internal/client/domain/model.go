// Package domain contains persistence models for billing clients.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Client is the party a project is billed to.
// StateCode is the two-digit GST state code; a client in the supplier's own
// state is normally billed CGST+SGST, an out-of-state client IGST. The engine
// does not enforce that mapping, it only enforces rate lock-in per item.
type Client struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID      `gorm:"not null;index" json:"organization_id"`
	Name        string            `gorm:"not null" json:"name"`
	Email       string            `gorm:"not null" json:"email"`
	GSTIN       string            `gorm:"type:text" json:"gstin,omitempty"`
	AddressLine string            `gorm:"type:text" json:"address_line,omitempty"`
	State       string            `gorm:"type:text" json:"state,omitempty"`
	StateCode   string            `gorm:"type:text" json:"state_code,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Client) TableName() string { return "clients" }
