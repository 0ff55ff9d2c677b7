package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/workflow"
)

// Statuses of a tracked serial number.
const (
	SerialAvailable workflow.Status = "AVAILABLE"
	SerialAllocated workflow.Status = "ALLOCATED"
	SerialInstalled workflow.Status = "INSTALLED"
)

// SerialWorkflow declares the serial number status set.
var SerialWorkflow = workflow.New("serial number",
	SerialAvailable, SerialAllocated, SerialInstalled,
)

// Item is a stocked product.
type Item struct {
	ID          uuid.UUID `json:"id"`
	OrgID       uuid.UUID `json:"org_id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	UnitPrice   float64   `json:"unit_price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SerialNumber tracks one physical unit of an item.
type SerialNumber struct {
	ID             uuid.UUID       `json:"id"`
	OrgID          uuid.UUID       `json:"org_id"`
	ItemID         uuid.UUID       `json:"item_id"`
	Serial         string          `json:"serial"`
	Status         workflow.Status `json:"status"`
	SalesOrderID   *uuid.UUID      `json:"sales_order_id,omitempty"`
	InstallationID *uuid.UUID      `json:"installation_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CreateItemRequest is the item creation payload.
type CreateItemRequest struct {
	SKU         string  `json:"sku" validate:"required,max=64"`
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description,omitempty"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

// RegisterSerialRequest registers one unit against an item.
type RegisterSerialRequest struct {
	ItemID uuid.UUID `json:"item_id" validate:"required"`
	Serial string    `json:"serial" validate:"required,max=128"`
}

// UpdateSerialRequest moves a unit through its lifecycle.
type UpdateSerialRequest struct {
	Status         *string    `json:"status,omitempty"`
	SalesOrderID   *uuid.UUID `json:"sales_order_id,omitempty"`
	InstallationID *uuid.UUID `json:"installation_id,omitempty"`
}

// ListItemsRequest carries listing filters.
type ListItemsRequest struct {
	Search  string `json:"search,omitempty"`
	Page    int    `json:"page" validate:"gte=0"`
	PerPage int    `json:"per_page" validate:"gte=0,lte=200"`
}
