package leads

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/workflow"
)

// Statuses of the lead pipeline.
const (
	StatusNew       workflow.Status = "NEW"
	StatusContacted workflow.Status = "CONTACTED"
	StatusQualified workflow.Status = "QUALIFIED"
	StatusConverted workflow.Status = "CONVERTED"
	StatusLost      workflow.Status = "LOST"
)

// Workflow declares the lead status set.
var Workflow = workflow.New("lead",
	StatusNew, StatusContacted, StatusQualified, StatusConverted, StatusLost,
).Terminal(StatusConverted, StatusLost)

// Lead is an unqualified prospect.
type Lead struct {
	ID           uuid.UUID       `json:"id"`
	OrgID        uuid.UUID       `json:"org_id"`
	Name         string          `json:"name"`
	Company      string          `json:"company,omitempty"`
	Email        string          `json:"email,omitempty"`
	Phone        string          `json:"phone,omitempty"`
	Source       string          `json:"source,omitempty"`
	Status       workflow.Status `json:"status"`
	AssignedToID *uuid.UUID      `json:"assigned_to_id,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	CreatedByID  uuid.UUID       `json:"created_by_id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CreateLeadRequest is the creation payload.
type CreateLeadRequest struct {
	Name         string     `json:"name" validate:"required,max=200"`
	Company      string     `json:"company,omitempty" validate:"max=200"`
	Email        string     `json:"email,omitempty" validate:"omitempty,email"`
	Phone        string     `json:"phone,omitempty" validate:"max=30"`
	Source       string     `json:"source,omitempty" validate:"max=100"`
	AssignedToID *uuid.UUID `json:"assigned_to_id,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

// UpdateLeadRequest is a partial update payload. A status value routes
// through the workflow engine.
type UpdateLeadRequest struct {
	Name         *string    `json:"name,omitempty" validate:"omitempty,max=200"`
	Company      *string    `json:"company,omitempty"`
	Email        *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone        *string    `json:"phone,omitempty"`
	Source       *string    `json:"source,omitempty"`
	Status       *string    `json:"status,omitempty"`
	AssignedToID *uuid.UUID `json:"assigned_to_id,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
}

// ListLeadsRequest carries listing filters.
type ListLeadsRequest struct {
	Status  string `json:"status,omitempty"`
	Search  string `json:"search,omitempty"`
	Page    int    `json:"page" validate:"gte=0"`
	PerPage int    `json:"per_page" validate:"gte=0,lte=200"`
}
