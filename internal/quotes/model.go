package quotes

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/workflow"
)

// CodePrefix is the quote number prefix (QT-YYYYMMDD-NNNN).
const CodePrefix = "QT"

// Statuses of the quote lifecycle.
const (
	StatusDraft    workflow.Status = "DRAFT"
	StatusSent     workflow.Status = "SENT"
	StatusAccepted workflow.Status = "ACCEPTED"
	StatusRejected workflow.Status = "REJECTED"
	StatusExpired  workflow.Status = "EXPIRED"
)

// Workflow declares the quote status set.
var Workflow = workflow.New("quote",
	StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusExpired,
).Terminal(StatusAccepted, StatusRejected, StatusExpired)

// Quote is a priced offer carrying a sequential quote number.
type Quote struct {
	ID          uuid.UUID       `json:"id"`
	OrgID       uuid.UUID       `json:"org_id"`
	Code        string          `json:"quote_number"`
	Title       string          `json:"title"`
	Status      workflow.Status `json:"status"`
	Amount      float64         `json:"amount"`
	ValidUntil  *time.Time      `json:"valid_until,omitempty"`
	AccountID   *uuid.UUID      `json:"account_id,omitempty"`
	ContactID   *uuid.UUID      `json:"contact_id,omitempty"`
	DealID      *uuid.UUID      `json:"deal_id,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	CreatedByID uuid.UUID       `json:"created_by_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateQuoteRequest is the creation payload.
type CreateQuoteRequest struct {
	Title      string     `json:"title" validate:"required,max=200"`
	Amount     float64    `json:"amount" validate:"gte=0"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	AccountID  *uuid.UUID `json:"account_id,omitempty"`
	ContactID  *uuid.UUID `json:"contact_id,omitempty"`
	DealID     *uuid.UUID `json:"deal_id,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// UpdateQuoteRequest is a partial update payload. A status value routes
// through the workflow engine.
type UpdateQuoteRequest struct {
	Title      *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Status     *string    `json:"status,omitempty"`
	Amount     *float64   `json:"amount,omitempty" validate:"omitempty,gte=0"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	AccountID  *uuid.UUID `json:"account_id,omitempty"`
	ContactID  *uuid.UUID `json:"contact_id,omitempty"`
	DealID     *uuid.UUID `json:"deal_id,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

// ListQuotesRequest carries listing filters.
type ListQuotesRequest struct {
	Status  string `json:"status,omitempty"`
	Search  string `json:"search,omitempty"`
	Page    int    `json:"page" validate:"gte=0"`
	PerPage int    `json:"per_page" validate:"gte=0,lte=200"`
}
