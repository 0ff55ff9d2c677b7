package quotes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/activity"
	"github.com/meridian-crm/meridian/internal/docnum"
	"github.com/meridian-crm/meridian/internal/notify"
	"github.com/meridian-crm/meridian/internal/observability"
	"github.com/meridian-crm/meridian/internal/shared"
	"github.com/meridian-crm/meridian/internal/workflow"
)

// ReferenceChecker verifies that a referenced record exists within the
// caller's organization.
type ReferenceChecker interface {
	Exists(ctx context.Context, orgID, id uuid.UUID) (bool, error)
}

// ContactDirectory resolves contact references and phone numbers within the
// caller's organization.
type ContactDirectory interface {
	Exists(ctx context.Context, orgID, id uuid.UUID) (bool, error)
	PhoneOf(ctx context.Context, orgID, id uuid.UUID) (string, error)
}

// Service orchestrates quote operations.
type Service struct {
	logger    *slog.Logger
	repo      Repository
	generator *docnum.Generator
	accounts  ReferenceChecker
	contacts  ContactDirectory
	deals     ReferenceChecker
	recorder  *activity.Recorder
	metrics   *observability.Metrics
	sender    notify.Sender
	now       func() time.Time
}

// NewService constructs a Service. sender may be nil when outbound
// notifications are not configured.
func NewService(logger *slog.Logger, repo Repository, generator *docnum.Generator,
	accounts ReferenceChecker, contacts ContactDirectory, deals ReferenceChecker,
	recorder *activity.Recorder, metrics *observability.Metrics, sender notify.Sender) *Service {
	return &Service{
		logger:    logger,
		repo:      repo,
		generator: generator,
		accounts:  accounts,
		contacts:  contacts,
		deals:     deals,
		recorder:  recorder,
		metrics:   metrics,
		sender:    sender,
		now:       time.Now,
	}
}

// Create persists a new quote with the next sequential quote number for the
// organization and day.
func (s *Service) Create(ctx context.Context, id shared.Identity, req CreateQuoteRequest) (*Quote, error) {
	if err := s.checkRef(ctx, id.OrgID, s.accounts, "account", req.AccountID); err != nil {
		return nil, err
	}
	if err := s.checkContact(ctx, id.OrgID, req.ContactID); err != nil {
		return nil, err
	}
	if err := s.checkRef(ctx, id.OrgID, s.deals, "deal", req.DealID); err != nil {
		return nil, err
	}

	q := Quote{
		ID:          uuid.New(),
		OrgID:       id.OrgID,
		Title:       req.Title,
		Status:      Workflow.Initial(),
		Amount:      req.Amount,
		ValidUntil:  req.ValidUntil,
		AccountID:   req.AccountID,
		ContactID:   req.ContactID,
		DealID:      req.DealID,
		Notes:       req.Notes,
		CreatedByID: id.UserID,
	}

	day := s.now().UTC()
	err := s.generator.Lease(ctx, id.OrgID, CodePrefix, day, func(ctx context.Context) error {
		code, err := s.generator.Next(ctx, s.repo, id.OrgID, CodePrefix, day)
		if err != nil {
			return err
		}
		q.Code = code
		return s.repo.Insert(ctx, q)
	})
	if err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}

	s.recorder.Created(ctx, id, activity.EntityQuote, q.ID,
		"Quote Created: "+q.Code, q.Title)
	s.metrics.DocumentCreated(CodePrefix)
	return s.repo.Get(ctx, id.OrgID, q.ID)
}

// Get returns one quote within the caller's organization.
func (s *Service) Get(ctx context.Context, id shared.Identity, quoteID uuid.UUID) (*Quote, error) {
	return s.repo.Get(ctx, id.OrgID, quoteID)
}

// List returns quotes within the caller's organization, newest first.
func (s *Service) List(ctx context.Context, id shared.Identity, req ListQuotesRequest) ([]Quote, int, error) {
	return s.repo.List(ctx, id.OrgID, req)
}

// Update applies a partial update. A status change is validated and logged;
// moving to SENT pushes the quote to the linked contact's phone.
func (s *Service) Update(ctx context.Context, id shared.Identity, quoteID uuid.UUID, req UpdateQuoteRequest) (*Quote, error) {
	current, err := s.repo.Get(ctx, id.OrgID, quoteID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRef(ctx, id.OrgID, s.accounts, "account", req.AccountID); err != nil {
		return nil, err
	}
	if err := s.checkContact(ctx, id.OrgID, req.ContactID); err != nil {
		return nil, err
	}
	if err := s.checkRef(ctx, id.OrgID, s.deals, "deal", req.DealID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Amount != nil {
		updates["amount"] = *req.Amount
	}
	if req.ValidUntil != nil {
		updates["valid_until"] = *req.ValidUntil
	}
	if req.AccountID != nil {
		updates["account_id"] = *req.AccountID
	}
	if req.ContactID != nil {
		updates["contact_id"] = *req.ContactID
	}
	if req.DealID != nil {
		updates["deal_id"] = *req.DealID
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
		if err := s.repo.Update(ctx, id.OrgID, quoteID, updates); err != nil {
			return nil, err
		}
	}
	if statusChanged {
		s.recorder.StatusChanged(ctx, id, activity.EntityQuote, quoteID,
			string(current.Status), *req.Status)
		if workflow.Status(*req.Status) == StatusSent {
			s.notifySent(ctx, id.OrgID, current, req)
		}
	}
	return s.repo.Get(ctx, id.OrgID, quoteID)
}

// Delete removes a quote within the caller's organization.
func (s *Service) Delete(ctx context.Context, id shared.Identity, quoteID uuid.UUID) error {
	return s.repo.Delete(ctx, id.OrgID, quoteID)
}

func (s *Service) notifySent(ctx context.Context, orgID uuid.UUID, q *Quote, req UpdateQuoteRequest) {
	if s.sender == nil {
		return
	}
	contactID := q.ContactID
	if req.ContactID != nil {
		contactID = req.ContactID
	}
	amount := q.Amount
	if req.Amount != nil {
		amount = *req.Amount
	}
	if contactID == nil {
		return
	}
	phone, err := s.contacts.PhoneOf(ctx, orgID, *contactID)
	if err != nil || phone == "" {
		return
	}
	body := notify.QuoteIssuedMessage(q.Code, amount)
	if err := s.sender.Send(ctx, phone, body); err != nil {
		s.logger.Warn("quote notification",
			slog.String("quote", q.Code), slog.Any("error", err))
	}
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

func (s *Service) checkContact(ctx context.Context, orgID uuid.UUID, contactID *uuid.UUID) error {
	if contactID == nil || s.contacts == nil {
		return nil
	}
	ok, err := s.contacts.Exists(ctx, orgID, *contactID)
	if err != nil {
		return fmt.Errorf("verify contact: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: contact %s", shared.ErrReferentialIntegrity, contactID)
	}
	return nil
}
