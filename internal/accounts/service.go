package accounts

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/activity"
	"github.com/meridian-crm/meridian/internal/shared"
)

// Service orchestrates account operations. The caller's identity carries the
// tenant scope and is a mandatory parameter on every operation.
type Service struct {
	repo     Repository
	recorder *activity.Recorder
}

// NewService constructs a Service.
func NewService(repo Repository, recorder *activity.Recorder) *Service {
	return &Service{repo: repo, recorder: recorder}
}

// Create persists a new account owned by the caller's organization.
func (s *Service) Create(ctx context.Context, id shared.Identity, req CreateAccountRequest) (*Account, error) {
	a := Account{
		ID:             uuid.New(),
		OrgID:          id.OrgID,
		Name:           req.Name,
		Industry:       req.Industry,
		Website:        req.Website,
		Phone:          req.Phone,
		Email:          req.Email,
		BillingAddress: req.BillingAddress,
		Notes:          req.Notes,
		CreatedByID:    id.UserID,
	}
	if err := s.repo.Insert(ctx, a); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	s.recorder.Created(ctx, id, activity.EntityAccount, a.ID,
		"Account Created: "+a.Name, "")
	return s.repo.Get(ctx, id.OrgID, a.ID)
}

// Get returns one account within the caller's organization.
func (s *Service) Get(ctx context.Context, id shared.Identity, accountID uuid.UUID) (*Account, error) {
	return s.repo.Get(ctx, id.OrgID, accountID)
}

// List returns accounts within the caller's organization, newest first.
func (s *Service) List(ctx context.Context, id shared.Identity, req ListAccountsRequest) ([]Account, int, error) {
	return s.repo.List(ctx, id.OrgID, req)
}

// Update applies a partial update within the caller's organization.
func (s *Service) Update(ctx context.Context, id shared.Identity, accountID uuid.UUID, req UpdateAccountRequest) (*Account, error) {
	updates := map[string]any{}
	setIfPresent(updates, "name", req.Name)
	setIfPresent(updates, "industry", req.Industry)
	setIfPresent(updates, "website", req.Website)
	setIfPresent(updates, "phone", req.Phone)
	setIfPresent(updates, "email", req.Email)
	setIfPresent(updates, "billing_address", req.BillingAddress)
	setIfPresent(updates, "notes", req.Notes)

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id.OrgID, accountID, updates); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, id.OrgID, accountID)
}

// Delete removes an account within the caller's organization.
func (s *Service) Delete(ctx context.Context, id shared.Identity, accountID uuid.UUID) error {
	return s.repo.Delete(ctx, id.OrgID, accountID)
}

func setIfPresent(updates map[string]any, col string, v *string) {
	if v != nil {
		updates[col] = *v
	}
}
