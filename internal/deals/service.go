package deals

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/activity"
	"github.com/meridian-crm/meridian/internal/shared"
	"github.com/meridian-crm/meridian/internal/workflow"
)

// ReferenceChecker verifies that a referenced record exists within the
// caller's organization.
type ReferenceChecker interface {
	Exists(ctx context.Context, orgID, id uuid.UUID) (bool, error)
}

// Service orchestrates deal operations.
type Service struct {
	repo     Repository
	accounts ReferenceChecker
	contacts ReferenceChecker
	recorder *activity.Recorder
}

// NewService constructs a Service.
func NewService(repo Repository, accounts, contacts ReferenceChecker, recorder *activity.Recorder) *Service {
	return &Service{repo: repo, accounts: accounts, contacts: contacts, recorder: recorder}
}

// Create persists a new deal in the initial pipeline stage.
func (s *Service) Create(ctx context.Context, id shared.Identity, req CreateDealRequest) (*Deal, error) {
	if err := s.checkRef(ctx, id.OrgID, s.accounts, "account", req.AccountID); err != nil {
		return nil, err
	}
	if err := s.checkRef(ctx, id.OrgID, s.contacts, "contact", req.ContactID); err != nil {
		return nil, err
	}

	d := Deal{
		ID:                uuid.New(),
		OrgID:             id.OrgID,
		Title:             req.Title,
		Stage:             Workflow.Initial(),
		Amount:            req.Amount,
		AccountID:         req.AccountID,
		ContactID:         req.ContactID,
		ExpectedCloseDate: req.ExpectedCloseDate,
		AssignedToID:      req.AssignedToID,
		Notes:             req.Notes,
		CreatedByID:       id.UserID,
	}
	if err := s.repo.Insert(ctx, d); err != nil {
		return nil, fmt.Errorf("create deal: %w", err)
	}
	s.recorder.Created(ctx, id, activity.EntityDeal, d.ID, "Deal Created: "+d.Title, "")
	return s.repo.Get(ctx, id.OrgID, d.ID)
}

// Get returns one deal within the caller's organization.
func (s *Service) Get(ctx context.Context, id shared.Identity, dealID uuid.UUID) (*Deal, error) {
	return s.repo.Get(ctx, id.OrgID, dealID)
}

// List returns deals within the caller's organization, newest first.
func (s *Service) List(ctx context.Context, id shared.Identity, req ListDealsRequest) ([]Deal, int, error) {
	return s.repo.List(ctx, id.OrgID, req)
}

// Update applies a partial update. A stage value is validated against the
// pipeline and a change is logged to the deal's activity feed.
func (s *Service) Update(ctx context.Context, id shared.Identity, dealID uuid.UUID, req UpdateDealRequest) (*Deal, error) {
	current, err := s.repo.Get(ctx, id.OrgID, dealID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRef(ctx, id.OrgID, s.accounts, "account", req.AccountID); err != nil {
		return nil, err
	}
	if err := s.checkRef(ctx, id.OrgID, s.contacts, "contact", req.ContactID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Amount != nil {
		updates["amount"] = *req.Amount
	}
	if req.AccountID != nil {
		updates["account_id"] = *req.AccountID
	}
	if req.ContactID != nil {
		updates["contact_id"] = *req.ContactID
	}
	if req.ExpectedCloseDate != nil {
		updates["expected_close_date"] = *req.ExpectedCloseDate
	}
	if req.AssignedToID != nil {
		updates["assigned_to_id"] = *req.AssignedToID
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	var stageChanged bool
	if req.Stage != nil {
		next := workflow.Status(*req.Stage)
		stageChanged, err = Workflow.Transition(current.Stage, next)
		if err != nil {
			return nil, err
		}
		updates["stage"] = string(next)
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id.OrgID, dealID, updates); err != nil {
			return nil, err
		}
	}
	if stageChanged {
		s.recorder.StatusChanged(ctx, id, activity.EntityDeal, dealID,
			string(current.Stage), *req.Stage)
	}
	return s.repo.Get(ctx, id.OrgID, dealID)
}

// Delete removes a deal within the caller's organization.
func (s *Service) Delete(ctx context.Context, id shared.Identity, dealID uuid.UUID) error {
	return s.repo.Delete(ctx, id.OrgID, dealID)
}

func (s *Service) checkRef(ctx context.Context, orgID uuid.UUID, checker ReferenceChecker, kind string, refID *uuid.UUID) error {
	if refID == nil || checker == nil {
		return nil
	}
	ok, err := checker.Exists(ctx, orgID, *refID)
	if err != nil {
		return fmt.Errorf("verify %s: %w", kind, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s %s", shared.ErrReferentialIntegrity, kind, refID)
	}
	return nil
}
