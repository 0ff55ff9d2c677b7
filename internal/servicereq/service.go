package servicereq

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

// Service orchestrates service request operations.
type Service struct {
	logger    *slog.Logger
	repo      Repository
	generator *docnum.Generator
	accounts  ReferenceChecker
	contacts  ContactDirectory
	recorder  *activity.Recorder
	metrics   *observability.Metrics
	sender    notify.Sender
	now       func() time.Time
}

// NewService constructs a Service. sender may be nil when outbound
// notifications are not configured.
func NewService(logger *slog.Logger, repo Repository, generator *docnum.Generator,
	accounts ReferenceChecker, contacts ContactDirectory,
	recorder *activity.Recorder, metrics *observability.Metrics, sender notify.Sender) *Service {
	return &Service{
		logger:    logger,
		repo:      repo,
		generator: generator,
		accounts:  accounts,
		contacts:  contacts,
		recorder:  recorder,
		metrics:   metrics,
		sender:    sender,
		now:       time.Now,
	}
}

// Create persists a new ticket with the next sequential ticket number for
// the organization and day.
func (s *Service) Create(ctx context.Context, id shared.Identity, req CreateServiceRequestRequest) (*ServiceRequest, error) {
	if err := s.checkAccount(ctx, id.OrgID, req.AccountID); err != nil {
		return nil, err
	}
	if err := s.checkContact(ctx, id.OrgID, req.ContactID); err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	sr := ServiceRequest{
		ID:           uuid.New(),
		OrgID:        id.OrgID,
		Title:        req.Title,
		Description:  req.Description,
		Priority:     priority,
		Status:       Workflow.Initial(),
		AccountID:    req.AccountID,
		ContactID:    req.ContactID,
		AssignedToID: req.AssignedToID,
		CreatedByID:  id.UserID,
	}

	day := s.now().UTC()
	err := s.generator.Lease(ctx, id.OrgID, CodePrefix, day, func(ctx context.Context) error {
		code, err := s.generator.Next(ctx, s.repo, id.OrgID, CodePrefix, day)
		if err != nil {
			return err
		}
		sr.Code = code
		return s.repo.Insert(ctx, sr)
	})
	if err != nil {
		return nil, fmt.Errorf("create service request: %w", err)
	}

	s.recorder.Created(ctx, id, activity.EntityServiceRequest, sr.ID,
		"Service Request Created: "+sr.Code, sr.Title)
	s.metrics.DocumentCreated(CodePrefix)
	return s.repo.Get(ctx, id.OrgID, sr.ID)
}

// Get returns one ticket within the caller's organization.
func (s *Service) Get(ctx context.Context, id shared.Identity, srID uuid.UUID) (*ServiceRequest, error) {
	return s.repo.Get(ctx, id.OrgID, srID)
}

// List returns tickets within the caller's organization, newest first.
func (s *Service) List(ctx context.Context, id shared.Identity, req ListServiceRequestsRequest) ([]ServiceRequest, int, error) {
	return s.repo.List(ctx, id.OrgID, req)
}

// Update applies a partial update. A status change is validated, logged to
// the ticket's activity feed and pushed to the linked contact's phone.
func (s *Service) Update(ctx context.Context, id shared.Identity, srID uuid.UUID, req UpdateServiceRequestRequest) (*ServiceRequest, error) {
	current, err := s.repo.Get(ctx, id.OrgID, srID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccount(ctx, id.OrgID, req.AccountID); err != nil {
		return nil, err
	}
	if err := s.checkContact(ctx, id.OrgID, req.ContactID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.AccountID != nil {
		updates["account_id"] = *req.AccountID
	}
	if req.ContactID != nil {
		updates["contact_id"] = *req.ContactID
	}
	if req.AssignedToID != nil {
		updates["assigned_to_id"] = *req.AssignedToID
	}

	var statusChanged bool
	if req.Status != nil {
		next := workflow.Status(*req.Status)
		statusChanged, err = Workflow.Transition(current.Status, next)
		if err != nil {
			return nil, err
		}
		updates["status"] = string(next)
		if statusChanged && next == StatusResolved {
			updates["resolved_at"] = s.now().UTC()
		}
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id.OrgID, srID, updates); err != nil {
			return nil, err
		}
	}
	if statusChanged {
		s.recorder.StatusChanged(ctx, id, activity.EntityServiceRequest, srID,
			string(current.Status), *req.Status)
		s.notifyStatus(ctx, id.OrgID, current, *req.Status)
	}
	return s.repo.Get(ctx, id.OrgID, srID)
}

// Delete removes a ticket within the caller's organization.
func (s *Service) Delete(ctx context.Context, id shared.Identity, srID uuid.UUID) error {
	return s.repo.Delete(ctx, id.OrgID, srID)
}

func (s *Service) notifyStatus(ctx context.Context, orgID uuid.UUID, sr *ServiceRequest, status string) {
	if s.sender == nil || sr.ContactID == nil {
		return
	}
	phone, err := s.contacts.PhoneOf(ctx, orgID, *sr.ContactID)
	if err != nil || phone == "" {
		return
	}
	body := notify.ServiceRequestStatusMessage(sr.Code, status)
	if err := s.sender.Send(ctx, phone, body); err != nil {
		s.logger.Warn("service request notification",
			slog.String("ticket", sr.Code), slog.Any("error", err))
	}
}

func (s *Service) checkAccount(ctx context.Context, orgID uuid.UUID, accountID *uuid.UUID) error {
	if accountID == nil || s.accounts == nil {
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
