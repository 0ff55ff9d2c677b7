package salesorders

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/workflow"
)

// CodePrefix is the sales order number prefix (SO-YYYYMMDD-NNNN).
const CodePrefix = "SO"

// Statuses of the sales order lifecycle.
const (
	StatusDraft        workflow.Status = "DRAFT"
	StatusPending      workflow.Status = "PENDING"
	StatusConfirmed    workflow.Status = "CONFIRMED"
	StatusInProduction workflow.Status = "IN_PRODUCTION"
	StatusReadyToShip  workflow.Status = "READY_TO_SHIP"
	StatusShipped      workflow.Status = "SHIPPED"
	StatusDelivered    workflow.Status = "DELIVERED"
	StatusCancelled    workflow.Status = "CANCELLED"
)

// Workflow declares the sales order status set.
var Workflow = workflow.New("sales order",
	StatusDraft, StatusPending, StatusConfirmed, StatusInProduction,
	StatusReadyToShip, StatusShipped, StatusDelivered, StatusCancelled,
).Terminal(StatusDelivered, StatusCancelled)

// SalesOrder is a confirmed order carrying a sequential order number.
type SalesOrder struct {
	ID          uuid.UUID       `json:"id"`
	OrgID       uuid.UUID       `json:"org_id"`
	Code        string          `json:"order_number"`
	Title       string          `json:"title"`
	Status      workflow.Status `json:"status"`
	Amount      float64         `json:"amount"`
	AccountID   *uuid.UUID      `json:"account_id,omitempty"`
	ContactID   *uuid.UUID      `json:"contact_id,omitempty"`
	QuoteID     *uuid.UUID      `json:"quote_id,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	CreatedByID uuid.UUID       `json:"created_by_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateSalesOrderRequest is the creation payload.
type CreateSalesOrderRequest struct {
	Title     string     `json:"title" validate:"required,max=200"`
	Amount    float64    `json:"amount" validate:"gte=0"`
	AccountID *uuid.UUID `json:"account_id,omitempty"`
	ContactID *uuid.UUID `json:"contact_id,omitempty"`
	QuoteID   *uuid.UUID `json:"quote_id,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

// UpdateSalesOrderRequest is a partial update payload. A status value routes
// through the workflow engine.
type UpdateSalesOrderRequest struct {
	Title     *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Status    *string    `json:"status,omitempty"`
	Amount    *float64   `json:"amount,omitempty" validate:"omitempty,gte=0"`
	AccountID *uuid.UUID `json:"account_id,omitempty"`
	ContactID *uuid.UUID `json:"contact_id,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}

// ListSalesOrdersRequest carries listing filters.
type ListSalesOrdersRequest struct {
	Status  string `json:"status,omitempty"`
	Search  string `json:"search,omitempty"`
	Page    int    `json:"page" validate:"gte=0"`
	PerPage int    `json:"per_page" validate:"gte=0,lte=200"`
}
