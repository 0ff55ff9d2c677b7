package leads

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/accounts"
	"github.com/meridian-crm/meridian/internal/activity"
	"github.com/meridian-crm/meridian/internal/contacts"
	"github.com/meridian-crm/meridian/internal/shared"
	"github.com/meridian-crm/meridian/internal/workflow"
)

// AccountCreator creates the account side of a lead conversion. The accounts
// service satisfies it.
type AccountCreator interface {
	Create(ctx context.Context, id shared.Identity, req accounts.CreateAccountRequest) (*accounts.Account, error)
}

// ContactCreator creates the contact side of a lead conversion. The contacts
// service satisfies it.
type ContactCreator interface {
	Create(ctx context.Context, id shared.Identity, req contacts.CreateContactRequest) (*contacts.Contact, error)
}

// Service orchestrates lead operations.
type Service struct {
	repo     Repository
	accounts AccountCreator
	contacts ContactCreator
	recorder *activity.Recorder
}

// NewService constructs a Service.
func NewService(repo Repository, accountsSvc AccountCreator, contactsSvc ContactCreator, recorder *activity.Recorder) *Service {
	return &Service{repo: repo, accounts: accountsSvc, contacts: contactsSvc, recorder: recorder}
}

// Create persists a new lead in the initial pipeline status.
func (s *Service) Create(ctx context.Context, id shared.Identity, req CreateLeadRequest) (*Lead, error) {
	l := Lead{
		ID:           uuid.New(),
		OrgID:        id.OrgID,
		Name:         req.Name,
		Company:      req.Company,
		Email:        req.Email,
		Phone:        req.Phone,
		Source:       req.Source,
		Status:       Workflow.Initial(),
		AssignedToID: req.AssignedToID,
		Notes:        req.Notes,
		CreatedByID:  id.UserID,
	}
	if err := s.repo.Insert(ctx, l); err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}
	s.recorder.Created(ctx, id, activity.EntityLead, l.ID, "Lead Created: "+l.Name, "")
	return s.repo.Get(ctx, id.OrgID, l.ID)
}

// Get returns one lead within the caller's organization.
func (s *Service) Get(ctx context.Context, id shared.Identity, leadID uuid.UUID) (*Lead, error) {
	return s.repo.Get(ctx, id.OrgID, leadID)
}

// List returns leads within the caller's organization, newest first.
func (s *Service) List(ctx context.Context, id shared.Identity, req ListLeadsRequest) ([]Lead, int, error) {
	return s.repo.List(ctx, id.OrgID, req)
}

// Update applies a partial update. A status value is validated against the
// pipeline and a change is logged to the lead's activity feed.
func (s *Service) Update(ctx context.Context, id shared.Identity, leadID uuid.UUID, req UpdateLeadRequest) (*Lead, error) {
	current, err := s.repo.Get(ctx, id.OrgID, leadID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Company != nil {
		updates["company"] = *req.Company
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Source != nil {
		updates["source"] = *req.Source
	}
	if req.AssignedToID != nil {
		updates["assigned_to_id"] = *req.AssignedToID
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
		if err := s.repo.Update(ctx, id.OrgID, leadID, updates); err != nil {
			return nil, err
		}
	}
	if statusChanged {
		s.recorder.StatusChanged(ctx, id, activity.EntityLead, leadID,
			string(current.Status), *req.Status)
	}
	return s.repo.Get(ctx, id.OrgID, leadID)
}

// Delete removes a lead within the caller's organization.
func (s *Service) Delete(ctx context.Context, id shared.Identity, leadID uuid.UUID) error {
	return s.repo.Delete(ctx, id.OrgID, leadID)
}

// ConversionResult is the outcome of a lead conversion.
type ConversionResult struct {
	Lead    *Lead             `json:"lead"`
	Account *accounts.Account `json:"account"`
	Contact *contacts.Contact `json:"contact"`
}

// Convert promotes a qualified lead into an account with a primary contact
// and moves the lead to CONVERTED. A lead converts at most once.
func (s *Service) Convert(ctx context.Context, id shared.Identity, leadID uuid.UUID) (*ConversionResult, error) {
	lead, err := s.repo.Get(ctx, id.OrgID, leadID)
	if err != nil {
		return nil, err
	}
	if lead.Status == StatusConverted {
		return nil, fmt.Errorf("%w: lead already converted", shared.ErrInvalidStatus)
	}

	accountName := lead.Company
	if accountName == "" {
		accountName = lead.Name
	}
	account, err := s.accounts.Create(ctx, id, accounts.CreateAccountRequest{
		Name:  accountName,
		Phone: lead.Phone,
		Email: lead.Email,
		Notes: lead.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("convert lead: %w", err)
	}

	first, last := splitName(lead.Name)
	contact, err := s.contacts.Create(ctx, id, contacts.CreateContactRequest{
		FirstName: first,
		LastName:  last,
		Email:     lead.Email,
		Phone:     lead.Phone,
		AccountID: &account.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("convert lead: %w", err)
	}

	if err := s.repo.Update(ctx, id.OrgID, leadID, map[string]any{"status": string(StatusConverted)}); err != nil {
		return nil, err
	}
	s.recorder.StatusChanged(ctx, id, activity.EntityLead, leadID,
		string(lead.Status), string(StatusConverted))

	updated, err := s.repo.Get(ctx, id.OrgID, leadID)
	if err != nil {
		return nil, err
	}
	return &ConversionResult{Lead: updated, Account: account, Contact: contact}, nil
}

func splitName(full string) (string, string) {
	parts := strings.SplitN(strings.TrimSpace(full), " ", 2)
	if len(parts) < 2 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
