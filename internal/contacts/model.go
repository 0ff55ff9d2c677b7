package contacts

import (
	"time"

	"github.com/google/uuid"
)

// Contact is a person, optionally linked to an account.
type Contact struct {
	ID          uuid.UUID  `json:"id"`
	OrgID       uuid.UUID  `json:"org_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Designation string     `json:"designation,omitempty"`
	AccountID   *uuid.UUID `json:"account_id,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedByID uuid.UUID  `json:"created_by_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateContactRequest is the creation payload.
type CreateContactRequest struct {
	FirstName   string     `json:"first_name" validate:"required,max=100"`
	LastName    string     `json:"last_name" validate:"required,max=100"`
	Email       string     `json:"email,omitempty" validate:"omitempty,email"`
	Phone       string     `json:"phone,omitempty" validate:"max=30"`
	Designation string     `json:"designation,omitempty" validate:"max=100"`
	AccountID   *uuid.UUID `json:"account_id,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

// UpdateContactRequest is a partial update payload.
type UpdateContactRequest struct {
	FirstName   *string    `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName    *string    `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Email       *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string    `json:"phone,omitempty"`
	Designation *string    `json:"designation,omitempty"`
	AccountID   *uuid.UUID `json:"account_id,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

// ListContactsRequest carries listing filters. Search matches first name,
// last name and email case-insensitively.
type ListContactsRequest struct {
	AccountID *uuid.UUID `json:"account_id,omitempty"`
	Search    string     `json:"search,omitempty"`
	Page      int        `json:"page" validate:"gte=0"`
	PerPage   int        `json:"per_page" validate:"gte=0,lte=200"`
}
