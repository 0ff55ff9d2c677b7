package contracts

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/workflow"
)

// CodePrefix is the contract number prefix (CON-YYYYMMDD-NNNN).
const CodePrefix = "CON"

// Statuses of the contract lifecycle.
const (
	StatusDraft           workflow.Status = "DRAFT"
	StatusPendingApproval workflow.Status = "PENDING_APPROVAL"
	StatusActive          workflow.Status = "ACTIVE"
	StatusExpired         workflow.Status = "EXPIRED"
	StatusTerminated      workflow.Status = "TERMINATED"
)

// Workflow declares the contract status set.
var Workflow = workflow.New("contract",
	StatusDraft, StatusPendingApproval, StatusActive, StatusExpired, StatusTerminated,
).Terminal(StatusExpired, StatusTerminated)

// Contract is a service agreement carrying a sequential contract number.
type Contract struct {
	ID            uuid.UUID       `json:"id"`
	OrgID         uuid.UUID       `json:"org_id"`
	Code          string          `json:"contract_number"`
	Title         string          `json:"title"`
	Status        workflow.Status `json:"status"`
	Value         float64         `json:"value"`
	EffectiveDate *time.Time      `json:"effective_date,omitempty"`
	EndDate       *time.Time      `json:"end_date,omitempty"`
	Terms         string          `json:"terms,omitempty"`
	AccountID     *uuid.UUID      `json:"account_id,omitempty"`
	DealID        *uuid.UUID      `json:"deal_id,omitempty"`
	CreatedByID   uuid.UUID       `json:"created_by_id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CreateContractRequest is the creation payload.
type CreateContractRequest struct {
	Title         string     `json:"title" validate:"required,max=200"`
	Value         float64    `json:"value" validate:"gte=0"`
	EffectiveDate *time.Time `json:"effective_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Terms         string     `json:"terms,omitempty"`
	AccountID     *uuid.UUID `json:"account_id,omitempty"`
	DealID        *uuid.UUID `json:"deal_id,omitempty"`
}

// UpdateContractRequest is a partial update payload. A status value routes
// through the workflow engine.
type UpdateContractRequest struct {
	Title         *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Status        *string    `json:"status,omitempty"`
	Value         *float64   `json:"value,omitempty" validate:"omitempty,gte=0"`
	EffectiveDate *time.Time `json:"effective_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Terms         *string    `json:"terms,omitempty"`
	AccountID     *uuid.UUID `json:"account_id,omitempty"`
	DealID        *uuid.UUID `json:"deal_id,omitempty"`
}

// ListContractsRequest carries listing filters.
type ListContractsRequest struct {
	Status    string     `json:"status,omitempty"`
	AccountID *uuid.UUID `json:"account_id,omitempty"`
	Search    string     `json:"search,omitempty"`
	Page      int        `json:"page" validate:"gte=0"`
	PerPage   int        `json:"per_page" validate:"gte=0,lte=200"`
}
