package accounts

import (
	"time"

	"github.com/google/uuid"
)

// Account is a customer company inside one organization.
type Account struct {
	ID             uuid.UUID `json:"id"`
	OrgID          uuid.UUID `json:"org_id"`
	Name           string    `json:"name"`
	Industry       string    `json:"industry,omitempty"`
	Website        string    `json:"website,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Email          string    `json:"email,omitempty"`
	BillingAddress string    `json:"billing_address,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedByID    uuid.UUID `json:"created_by_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateAccountRequest is the creation payload.
type CreateAccountRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	Industry       string `json:"industry,omitempty" validate:"max=100"`
	Website        string `json:"website,omitempty" validate:"omitempty,url"`
	Phone          string `json:"phone,omitempty" validate:"max=30"`
	Email          string `json:"email,omitempty" validate:"omitempty,email"`
	BillingAddress string `json:"billing_address,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// UpdateAccountRequest is a partial update payload.
type UpdateAccountRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Industry       *string `json:"industry,omitempty"`
	Website        *string `json:"website,omitempty" validate:"omitempty,url"`
	Phone          *string `json:"phone,omitempty"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email"`
	BillingAddress *string `json:"billing_address,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// ListAccountsRequest carries listing filters. Search matches name and
// industry case-insensitively.
type ListAccountsRequest struct {
	Search  string `json:"search,omitempty"`
	Page    int    `json:"page" validate:"gte=0"`
	PerPage int    `json:"per_page" validate:"gte=0,lte=200"`
}
