package installations

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/workflow"
)

// CodePrefix is the work order number prefix (WO-YYYYMMDD-NNNN).
const CodePrefix = "WO"

// Statuses of the installation work order lifecycle.
const (
	StatusPlanning   workflow.Status = "PLANNING"
	StatusScheduled  workflow.Status = "SCHEDULED"
	StatusInProgress workflow.Status = "IN_PROGRESS"
	StatusCompleted  workflow.Status = "COMPLETED"
	StatusCancelled  workflow.Status = "CANCELLED"
)

// Workflow declares the installation status set.
var Workflow = workflow.New("installation",
	StatusPlanning, StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled,
).Terminal(StatusCompleted, StatusCancelled)

// Installation is a field work order carrying a sequential work order number.
type Installation struct {
	ID            uuid.UUID       `json:"id"`
	OrgID         uuid.UUID       `json:"org_id"`
	Code          string          `json:"work_order_number"`
	Title         string          `json:"title"`
	Status        workflow.Status `json:"status"`
	ScheduledDate *time.Time      `json:"scheduled_date,omitempty"`
	DispatchDate  *time.Time      `json:"dispatch_date,omitempty"`
	EngineerTeam  []string        `json:"engineer_team,omitempty"`
	SiteAddress   string          `json:"site_address,omitempty"`
	AccountID     *uuid.UUID      `json:"account_id,omitempty"`
	ContactID     *uuid.UUID      `json:"contact_id,omitempty"`
	SalesOrderID  *uuid.UUID      `json:"sales_order_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedByID   uuid.UUID       `json:"created_by_id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CreateInstallationRequest is the creation payload.
type CreateInstallationRequest struct {
	Title         string     `json:"title" validate:"required,max=200"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	EngineerTeam  []string   `json:"engineer_team,omitempty"`
	SiteAddress   string     `json:"site_address,omitempty"`
	AccountID     *uuid.UUID `json:"account_id,omitempty"`
	ContactID     *uuid.UUID `json:"contact_id,omitempty"`
	SalesOrderID  *uuid.UUID `json:"sales_order_id,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// UpdateInstallationRequest is a partial update payload. A status value
// routes through the workflow engine.
type UpdateInstallationRequest struct {
	Title         *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Status        *string    `json:"status,omitempty"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	DispatchDate  *time.Time `json:"dispatch_date,omitempty"`
	EngineerTeam  []string   `json:"engineer_team,omitempty"`
	SiteAddress   *string    `json:"site_address,omitempty"`
	AccountID     *uuid.UUID `json:"account_id,omitempty"`
	ContactID     *uuid.UUID `json:"contact_id,omitempty"`
	SalesOrderID  *uuid.UUID `json:"sales_order_id,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

// ListInstallationsRequest carries listing filters.
type ListInstallationsRequest struct {
	Status  string `json:"status,omitempty"`
	Search  string `json:"search,omitempty"`
	Page    int    `json:"page" validate:"gte=0"`
	PerPage int    `json:"per_page" validate:"gte=0,lte=200"`
}
