package contacts

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/activity"
	"github.com/meridian-crm/meridian/internal/shared"
)

// AccountChecker verifies that a referenced account exists within the
// caller's organization.
type AccountChecker interface {
	Exists(ctx context.Context, orgID, id uuid.UUID) (bool, error)
}

// Service orchestrates contact operations.
type Service struct {
	repo     Repository
	accounts AccountChecker
	recorder *activity.Recorder
}

// NewService constructs a Service.
func NewService(repo Repository, accounts AccountChecker, recorder *activity.Recorder) *Service {
	return &Service{repo: repo, accounts: accounts, recorder: recorder}
}

// Create persists a new contact owned by the caller's organization.
func (s *Service) Create(ctx context.Context, id shared.Identity, req CreateContactRequest) (*Contact, error) {
	if err := s.checkAccount(ctx, id.OrgID, req.AccountID); err != nil {
		return nil, err
	}

	c := Contact{
		ID:          uuid.New(),
		OrgID:       id.OrgID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		Designation: req.Designation,
		AccountID:   req.AccountID,
		Notes:       req.Notes,
		CreatedByID: id.UserID,
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	s.recorder.Created(ctx, id, activity.EntityContact, c.ID,
		"Contact Created: "+c.FirstName+" "+c.LastName, "")
	return s.repo.Get(ctx, id.OrgID, c.ID)
}

// Get returns one contact within the caller's organization.
func (s *Service) Get(ctx context.Context, id shared.Identity, contactID uuid.UUID) (*Contact, error) {
	return s.repo.Get(ctx, id.OrgID, contactID)
}

// List returns contacts within the caller's organization, newest first.
func (s *Service) List(ctx context.Context, id shared.Identity, req ListContactsRequest) ([]Contact, int, error) {
	return s.repo.List(ctx, id.OrgID, req)
}

// Update applies a partial update within the caller's organization.
func (s *Service) Update(ctx context.Context, id shared.Identity, contactID uuid.UUID, req UpdateContactRequest) (*Contact, error) {
	if err := s.checkAccount(ctx, id.OrgID, req.AccountID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Designation != nil {
		updates["designation"] = *req.Designation
	}
	if req.AccountID != nil {
		updates["account_id"] = *req.AccountID
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id.OrgID, contactID, updates); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, id.OrgID, contactID)
}

// Delete removes a contact within the caller's organization.
func (s *Service) Delete(ctx context.Context, id shared.Identity, contactID uuid.UUID) error {
	return s.repo.Delete(ctx, id.OrgID, contactID)
}

func (s *Service) checkAccount(ctx context.Context, orgID uuid.UUID, accountID *uuid.UUID) error {
	if accountID == nil {
		return nil
	}
	ok, err := s.accounts.Exists(ctx, orgID, *accountID)
	if err != nil {
		return fmt.Errorf("verify account: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: account %s", shared.ErrReferentialIntegrity, accountID)
	}
	return nil
}
