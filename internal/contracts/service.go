package contracts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/activity"
	"github.com/meridian-crm/meridian/internal/docnum"
	"github.com/meridian-crm/meridian/internal/observability"
	"github.com/meridian-crm/meridian/internal/shared"
	"github.com/meridian-crm/meridian/internal/workflow"
)

// ReferenceChecker verifies that a referenced record exists within the
// caller's organization.
type ReferenceChecker interface {
	Exists(ctx context.Context, orgID, id uuid.UUID) (bool, error)
}

// Service orchestrates contract operations.
type Service struct {
	repo      Repository
	generator *docnum.Generator
	accounts  ReferenceChecker
	deals     ReferenceChecker
	recorder  *activity.Recorder
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, generator *docnum.Generator,
	accounts, deals ReferenceChecker, recorder *activity.Recorder, metrics *observability.Metrics) *Service {
	return &Service{
		repo:      repo,
		generator: generator,
		accounts:  accounts,
		deals:     deals,
		recorder:  recorder,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Create persists a new contract with the next sequential contract number
// for the organization and day.
func (s *Service) Create(ctx context.Context, id shared.Identity, req CreateContractRequest) (*Contract, error) {
	if err := s.checkRef(ctx, id.OrgID, s.accounts, "account", req.AccountID); err != nil {
		return nil, err
	}
	if err := s.checkRef(ctx, id.OrgID, s.deals, "deal", req.DealID); err != nil {
		return nil, err
	}

	c := Contract{
		ID:            uuid.New(),
		OrgID:         id.OrgID,
		Title:         req.Title,
		Status:        Workflow.Initial(),
		Value:         req.Value,
		EffectiveDate: req.EffectiveDate,
		EndDate:       req.EndDate,
		Terms:         req.Terms,
		AccountID:     req.AccountID,
		DealID:        req.DealID,
		CreatedByID:   id.UserID,
	}

	day := s.now().UTC()
	err := s.generator.Lease(ctx, id.OrgID, CodePrefix, day, func(ctx context.Context) error {
		code, err := s.generator.Next(ctx, s.repo, id.OrgID, CodePrefix, day)
		if err != nil {
			return err
		}
		c.Code = code
		return s.repo.Insert(ctx, c)
	})
	if err != nil {
		return nil, fmt.Errorf("create contract: %w", err)
	}

	s.recorder.Created(ctx, id, activity.EntityContract, c.ID,
		"Contract Created: "+c.Code, c.Title)
	s.metrics.DocumentCreated(CodePrefix)
	return s.repo.Get(ctx, id.OrgID, c.ID)
}

// Get returns one contract within the caller's organization.
func (s *Service) Get(ctx context.Context, id shared.Identity, contractID uuid.UUID) (*Contract, error) {
	return s.repo.Get(ctx, id.OrgID, contractID)
}

// List returns contracts within the caller's organization, newest first.
func (s *Service) List(ctx context.Context, id shared.Identity, req ListContractsRequest) ([]Contract, int, error) {
	return s.repo.List(ctx, id.OrgID, req)
}

// Update applies a partial update. A status value is validated against the
// lifecycle and a change is logged to the contract's activity feed. Moving
// back out of a terminal state is permitted; each hop writes its own entry.
func (s *Service) Update(ctx context.Context, id shared.Identity, contractID uuid.UUID, req UpdateContractRequest) (*Contract, error) {
	current, err := s.repo.Get(ctx, id.OrgID, contractID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRef(ctx, id.OrgID, s.accounts, "account", req.AccountID); err != nil {
		return nil, err
	}
	if err := s.checkRef(ctx, id.OrgID, s.deals, "deal", req.DealID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Value != nil {
		updates["value"] = *req.Value
	}
	if req.EffectiveDate != nil {
		updates["effective_date"] = *req.EffectiveDate
	}
	if req.EndDate != nil {
		updates["end_date"] = *req.EndDate
	}
	if req.Terms != nil {
		updates["terms"] = *req.Terms
	}
	if req.AccountID != nil {
		updates["account_id"] = *req.AccountID
	}
	if req.DealID != nil {
		updates["deal_id"] = *req.DealID
	}

	var statusChanged bool
	if req.Status != nil {
		next := workflow.Status(*req.Status)
		statusChanged, err = Workflow.Transition(current.Status, next)
		if err != nil {
			return nil, err
		}
		updates["status"] = string(next)
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id.OrgID, contractID, updates); err != nil {
			return nil, err
		}
	}
	if statusChanged {
		s.recorder.StatusChanged(ctx, id, activity.EntityContract, contractID,
			string(current.Status), *req.Status)
	}
	return s.repo.Get(ctx, id.OrgID, contractID)
}

// Delete removes a contract within the caller's organization.
func (s *Service) Delete(ctx context.Context, id shared.Identity, contractID uuid.UUID) error {
	return s.repo.Delete(ctx, id.OrgID, contractID)
}

// ListExpiring returns the active contracts ending within the window. The
// renewal scan job calls this across organizations.
func (s *Service) ListExpiring(ctx context.Context, window time.Duration) ([]Contract, error) {
	return s.repo.ListExpiring(ctx, s.now().UTC().Add(window))
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
