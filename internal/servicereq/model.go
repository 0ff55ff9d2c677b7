package servicereq

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/workflow"
)

// CodePrefix is the ticket number prefix (SR-YYYYMMDD-NNNN).
const CodePrefix = "SR"

// Statuses of the service request lifecycle.
const (
	StatusOpen       workflow.Status = "OPEN"
	StatusInProgress workflow.Status = "IN_PROGRESS"
	StatusOnHold     workflow.Status = "ON_HOLD"
	StatusResolved   workflow.Status = "RESOLVED"
	StatusClosed     workflow.Status = "CLOSED"
)

// Workflow declares the service request status set.
var Workflow = workflow.New("service request",
	StatusOpen, StatusInProgress, StatusOnHold, StatusResolved, StatusClosed,
).Terminal(StatusClosed)

// Priorities accepted on a ticket.
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// ServiceRequest is a support ticket carrying a sequential ticket number.
type ServiceRequest struct {
	ID           uuid.UUID       `json:"id"`
	OrgID        uuid.UUID       `json:"org_id"`
	Code         string          `json:"ticket_number"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Priority     string          `json:"priority"`
	Status       workflow.Status `json:"status"`
	AccountID    *uuid.UUID      `json:"account_id,omitempty"`
	ContactID    *uuid.UUID      `json:"contact_id,omitempty"`
	AssignedToID *uuid.UUID      `json:"assigned_to_id,omitempty"`
	ResolvedAt   *time.Time      `json:"resolved_at,omitempty"`
	CreatedByID  uuid.UUID       `json:"created_by_id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CreateServiceRequestRequest is the creation payload.
type CreateServiceRequestRequest struct {
	Title        string     `json:"title" validate:"required,max=200"`
	Description  string     `json:"description,omitempty"`
	Priority     string     `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	AccountID    *uuid.UUID `json:"account_id,omitempty"`
	ContactID    *uuid.UUID `json:"contact_id,omitempty"`
	AssignedToID *uuid.UUID `json:"assigned_to_id,omitempty"`
}

// UpdateServiceRequestRequest is a partial update payload. A status value
// routes through the workflow engine.
type UpdateServiceRequestRequest struct {
	Title        *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Description  *string    `json:"description,omitempty"`
	Priority     *string    `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Status       *string    `json:"status,omitempty"`
	AccountID    *uuid.UUID `json:"account_id,omitempty"`
	ContactID    *uuid.UUID `json:"contact_id,omitempty"`
	AssignedToID *uuid.UUID `json:"assigned_to_id,omitempty"`
}

// ListServiceRequestsRequest carries listing filters.
type ListServiceRequestsRequest struct {
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
	Search   string `json:"search,omitempty"`
	Page     int    `json:"page" validate:"gte=0"`
	PerPage  int    `json:"per_page" validate:"gte=0,lte=200"`
}
