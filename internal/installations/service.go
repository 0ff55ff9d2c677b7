package installations

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

// Service orchestrates installation work order operations.
type Service struct {
	logger      *slog.Logger
	repo        Repository
	generator   *docnum.Generator
	accounts    ReferenceChecker
	contacts    ContactDirectory
	salesOrders ReferenceChecker
	recorder    *activity.Recorder
	metrics     *observability.Metrics
	sender      notify.Sender
	now         func() time.Time
}

// NewService constructs a Service. sender may be nil when outbound
// notifications are not configured.
func NewService(logger *slog.Logger, repo Repository, generator *docnum.Generator,
	accounts ReferenceChecker, contacts ContactDirectory, salesOrders ReferenceChecker,
	recorder *activity.Recorder, metrics *observability.Metrics, sender notify.Sender) *Service {
	return &Service{
		logger:      logger,
		repo:        repo,
		generator:   generator,
		accounts:    accounts,
		contacts:    contacts,
		salesOrders: salesOrders,
		recorder:    recorder,
		metrics:     metrics,
		sender:      sender,
		now:         time.Now,
	}
}

// Create persists a new work order with the next sequential work order
// number for the organization and day.
func (s *Service) Create(ctx context.Context, id shared.Identity, req CreateInstallationRequest) (*Installation, error) {
	if err := s.checkRef(ctx, id.OrgID, s.accounts, "account", req.AccountID); err != nil {
		return nil, err
	}
	if err := s.checkContact(ctx, id.OrgID, req.ContactID); err != nil {
		return nil, err
	}
	if err := s.checkRef(ctx, id.OrgID, s.salesOrders, "sales order", req.SalesOrderID); err != nil {
		return nil, err
	}

	in := Installation{
		ID:            uuid.New(),
		OrgID:         id.OrgID,
		Title:         req.Title,
		Status:        Workflow.Initial(),
		ScheduledDate: req.ScheduledDate,
		EngineerTeam:  req.EngineerTeam,
		SiteAddress:   req.SiteAddress,
		AccountID:     req.AccountID,
		ContactID:     req.ContactID,
		SalesOrderID:  req.SalesOrderID,
		Notes:         req.Notes,
		CreatedByID:   id.UserID,
	}

	day := s.now().UTC()
	err := s.generator.Lease(ctx, id.OrgID, CodePrefix, day, func(ctx context.Context) error {
		code, err := s.generator.Next(ctx, s.repo, id.OrgID, CodePrefix, day)
		if err != nil {
			return err
		}
		in.Code = code
		return s.repo.Insert(ctx, in)
	})
	if err != nil {
		return nil, fmt.Errorf("create installation: %w", err)
	}

	s.recorder.Created(ctx, id, activity.EntityInstallation, in.ID,
		"Installation Created: "+in.Code, in.Title)
	s.metrics.DocumentCreated(CodePrefix)
	return s.repo.Get(ctx, id.OrgID, in.ID)
}

// Get returns one work order within the caller's organization.
func (s *Service) Get(ctx context.Context, id shared.Identity, inID uuid.UUID) (*Installation, error) {
	return s.repo.Get(ctx, id.OrgID, inID)
}

// List returns work orders within the caller's organization, newest first.
func (s *Service) List(ctx context.Context, id shared.Identity, req ListInstallationsRequest) ([]Installation, int, error) {
	return s.repo.List(ctx, id.OrgID, req)
}

// Update applies a partial update. A status change is validated and logged;
// moving to SCHEDULED with a date set notifies the linked contact.
func (s *Service) Update(ctx context.Context, id shared.Identity, inID uuid.UUID, req UpdateInstallationRequest) (*Installation, error) {
	current, err := s.repo.Get(ctx, id.OrgID, inID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRef(ctx, id.OrgID, s.accounts, "account", req.AccountID); err != nil {
		return nil, err
	}
	if err := s.checkContact(ctx, id.OrgID, req.ContactID); err != nil {
		return nil, err
	}
	if err := s.checkRef(ctx, id.OrgID, s.salesOrders, "sales order", req.SalesOrderID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.ScheduledDate != nil {
		updates["scheduled_date"] = *req.ScheduledDate
	}
	if req.DispatchDate != nil {
		updates["dispatch_date"] = *req.DispatchDate
	}
	if req.EngineerTeam != nil {
		updates["engineer_team"] = req.EngineerTeam
	}
	if req.SiteAddress != nil {
		updates["site_address"] = *req.SiteAddress
	}
	if req.AccountID != nil {
		updates["account_id"] = *req.AccountID
	}
	if req.ContactID != nil {
		updates["contact_id"] = *req.ContactID
	}
	if req.SalesOrderID != nil {
		updates["sales_order_id"] = *req.SalesOrderID
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
		if err := s.repo.Update(ctx, id.OrgID, inID, updates); err != nil {
			return nil, err
		}
	}
	if statusChanged {
		s.recorder.StatusChanged(ctx, id, activity.EntityInstallation, inID,
			string(current.Status), *req.Status)
		if workflow.Status(*req.Status) == StatusScheduled {
			s.notifyScheduled(ctx, id.OrgID, current, req)
		}
	}
	return s.repo.Get(ctx, id.OrgID, inID)
}

// Delete removes a work order within the caller's organization.
func (s *Service) Delete(ctx context.Context, id shared.Identity, inID uuid.UUID) error {
	return s.repo.Delete(ctx, id.OrgID, inID)
}

func (s *Service) notifyScheduled(ctx context.Context, orgID uuid.UUID, in *Installation, req UpdateInstallationRequest) {
	if s.sender == nil {
		return
	}
	contactID := in.ContactID
	if req.ContactID != nil {
		contactID = req.ContactID
	}
	scheduled := in.ScheduledDate
	if req.ScheduledDate != nil {
		scheduled = req.ScheduledDate
	}
	if contactID == nil || scheduled == nil {
		return
	}
	phone, err := s.contacts.PhoneOf(ctx, orgID, *contactID)
	if err != nil || phone == "" {
		return
	}
	body := notify.InstallationScheduledMessage(in.Code, *scheduled)
	if err := s.sender.Send(ctx, phone, body); err != nil {
		s.logger.Warn("installation notification",
			slog.String("work_order", in.Code), slog.Any("error", err))
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
