package salesorders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/activity"
	"github.com/meridian-crm/meridian/internal/docnum"
	"github.com/meridian-crm/meridian/internal/observability"
	"github.com/meridian-crm/meridian/internal/quotes"
	"github.com/meridian-crm/meridian/internal/shared"
	"github.com/meridian-crm/meridian/internal/workflow"
)

// ReferenceChecker verifies that a referenced record exists within the
// caller's organization.
type ReferenceChecker interface {
	Exists(ctx context.Context, orgID, id uuid.UUID) (bool, error)
}

// QuoteDirectory reads and updates quotes during conversion. The quotes
// repository satisfies it.
type QuoteDirectory interface {
	Get(ctx context.Context, orgID, id uuid.UUID) (*quotes.Quote, error)
	Update(ctx context.Context, orgID, id uuid.UUID, updates map[string]any) error
}

// Service orchestrates sales order operations.
type Service struct {
	repo      Repository
	generator *docnum.Generator
	accounts  ReferenceChecker
	contacts  ReferenceChecker
	quotes    QuoteDirectory
	recorder  *activity.Recorder
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, generator *docnum.Generator,
	accounts, contacts ReferenceChecker, quoteDir QuoteDirectory,
	recorder *activity.Recorder, metrics *observability.Metrics) *Service {
	return &Service{
		repo:      repo,
		generator: generator,
		accounts:  accounts,
		contacts:  contacts,
		quotes:    quoteDir,
		recorder:  recorder,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Create persists a new sales order with the next sequential order number
// for the organization and day.
func (s *Service) Create(ctx context.Context, id shared.Identity, req CreateSalesOrderRequest) (*SalesOrder, error) {
	if err := s.checkRef(ctx, id.OrgID, s.accounts, "account", req.AccountID); err != nil {
		return nil, err
	}
	if err := s.checkRef(ctx, id.OrgID, s.contacts, "contact", req.ContactID); err != nil {
		return nil, err
	}
	if req.QuoteID != nil {
		if _, err := s.quotes.Get(ctx, id.OrgID, *req.QuoteID); err != nil {
			return nil, fmt.Errorf("%w: quote %s", shared.ErrReferentialIntegrity, req.QuoteID)
		}
	}

	so := SalesOrder{
		ID:          uuid.New(),
		OrgID:       id.OrgID,
		Title:       req.Title,
		Status:      Workflow.Initial(),
		Amount:      req.Amount,
		AccountID:   req.AccountID,
		ContactID:   req.ContactID,
		QuoteID:     req.QuoteID,
		Notes:       req.Notes,
		CreatedByID: id.UserID,
	}
	if err := s.insertNumbered(ctx, id, &so); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id.OrgID, so.ID)
}

// ConvertQuote creates a sales order from an existing quote, carrying over
// its amount and parties, and marks the quote accepted.
func (s *Service) ConvertQuote(ctx context.Context, id shared.Identity, quoteID uuid.UUID) (*SalesOrder, error) {
	q, err := s.quotes.Get(ctx, id.OrgID, quoteID)
	if err != nil {
		return nil, err
	}

	so := SalesOrder{
		ID:          uuid.New(),
		OrgID:       id.OrgID,
		Title:       q.Title,
		Status:      Workflow.Initial(),
		Amount:      q.Amount,
		AccountID:   q.AccountID,
		ContactID:   q.ContactID,
		QuoteID:     &q.ID,
		CreatedByID: id.UserID,
	}
	if err := s.insertNumbered(ctx, id, &so); err != nil {
		return nil, err
	}

	if q.Status != quotes.StatusAccepted {
		if err := s.quotes.Update(ctx, id.OrgID, q.ID, map[string]any{
			"status": string(quotes.StatusAccepted),
		}); err != nil {
			return nil, fmt.Errorf("accept quote %s: %w", q.Code, err)
		}
		s.recorder.StatusChanged(ctx, id, activity.EntityQuote, q.ID,
			string(q.Status), string(quotes.StatusAccepted))
	}
	return s.repo.Get(ctx, id.OrgID, so.ID)
}

// Get returns one sales order within the caller's organization.
func (s *Service) Get(ctx context.Context, id shared.Identity, soID uuid.UUID) (*SalesOrder, error) {
	return s.repo.Get(ctx, id.OrgID, soID)
}

// List returns sales orders within the caller's organization, newest first.
func (s *Service) List(ctx context.Context, id shared.Identity, req ListSalesOrdersRequest) ([]SalesOrder, int, error) {
	return s.repo.List(ctx, id.OrgID, req)
}

// Update applies a partial update. A status value is validated against the
// lifecycle and a change is logged to the order's activity feed.
func (s *Service) Update(ctx context.Context, id shared.Identity, soID uuid.UUID, req UpdateSalesOrderRequest) (*SalesOrder, error) {
	current, err := s.repo.Get(ctx, id.OrgID, soID)
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
	if req.Notes != nil {
		updates["notes"] = *req.Notes
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
		if err := s.repo.Update(ctx, id.OrgID, soID, updates); err != nil {
			return nil, err
		}
	}
	if statusChanged {
		s.recorder.StatusChanged(ctx, id, activity.EntitySalesOrder, soID,
			string(current.Status), *req.Status)
	}
	return s.repo.Get(ctx, id.OrgID, soID)
}

// Delete removes a sales order within the caller's organization.
func (s *Service) Delete(ctx context.Context, id shared.Identity, soID uuid.UUID) error {
	return s.repo.Delete(ctx, id.OrgID, soID)
}

func (s *Service) insertNumbered(ctx context.Context, id shared.Identity, so *SalesOrder) error {
	day := s.now().UTC()
	err := s.generator.Lease(ctx, id.OrgID, CodePrefix, day, func(ctx context.Context) error {
		code, err := s.generator.Next(ctx, s.repo, id.OrgID, CodePrefix, day)
		if err != nil {
			return err
		}
		so.Code = code
		return s.repo.Insert(ctx, *so)
	})
	if err != nil {
		return fmt.Errorf("create sales order: %w", err)
	}

	s.recorder.Created(ctx, id, activity.EntitySalesOrder, so.ID,
		"Sales Order Created: "+so.Code, so.Title)
	s.metrics.DocumentCreated(CodePrefix)
	return nil
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
