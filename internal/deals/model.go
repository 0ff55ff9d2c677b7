package deals

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/workflow"
)

// Stages of the deal pipeline.
const (
	StageProspecting workflow.Status = "PROSPECTING"
	StageProposal    workflow.Status = "PROPOSAL"
	StageNegotiation workflow.Status = "NEGOTIATION"
	StageWon         workflow.Status = "WON"
	StageLost        workflow.Status = "LOST"
)

// Workflow declares the deal stage set.
var Workflow = workflow.New("deal",
	StageProspecting, StageProposal, StageNegotiation, StageWon, StageLost,
).Terminal(StageWon, StageLost)

// Deal is a qualified sales opportunity.
type Deal struct {
	ID                uuid.UUID       `json:"id"`
	OrgID             uuid.UUID       `json:"org_id"`
	Title             string          `json:"title"`
	Stage             workflow.Status `json:"stage"`
	Amount            float64         `json:"amount"`
	AccountID         *uuid.UUID      `json:"account_id,omitempty"`
	ContactID         *uuid.UUID      `json:"contact_id,omitempty"`
	ExpectedCloseDate *time.Time      `json:"expected_close_date,omitempty"`
	AssignedToID      *uuid.UUID      `json:"assigned_to_id,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	CreatedByID       uuid.UUID       `json:"created_by_id"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// CreateDealRequest is the creation payload.
type CreateDealRequest struct {
	Title             string     `json:"title" validate:"required,max=200"`
	Amount            float64    `json:"amount" validate:"gte=0"`
	AccountID         *uuid.UUID `json:"account_id,omitempty"`
	ContactID         *uuid.UUID `json:"contact_id,omitempty"`
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`
	AssignedToID      *uuid.UUID `json:"assigned_to_id,omitempty"`
	Notes             string     `json:"notes,omitempty"`
}

// UpdateDealRequest is a partial update payload. A stage value routes
// through the workflow engine.
type UpdateDealRequest struct {
	Title             *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Stage             *string    `json:"stage,omitempty"`
	Amount            *float64   `json:"amount,omitempty" validate:"omitempty,gte=0"`
	AccountID         *uuid.UUID `json:"account_id,omitempty"`
	ContactID         *uuid.UUID `json:"contact_id,omitempty"`
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`
	AssignedToID      *uuid.UUID `json:"assigned_to_id,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
}

// ListDealsRequest carries listing filters.
type ListDealsRequest struct {
	Stage     string     `json:"stage,omitempty"`
	AccountID *uuid.UUID `json:"account_id,omitempty"`
	Search    string     `json:"search,omitempty"`
	Page      int        `json:"page" validate:"gte=0"`
	PerPage   int        `json:"per_page" validate:"gte=0,lte=200"`
}
