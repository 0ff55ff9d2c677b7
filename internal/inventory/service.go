package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/shared"
	"github.com/meridian-crm/meridian/internal/workflow"
)

// Service orchestrates inventory operations.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateItem persists a new item. SKUs are unique per organization; a clash
// surfaces as a duplicate-code error.
func (s *Service) CreateItem(ctx context.Context, id shared.Identity, req CreateItemRequest) (*Item, error) {
	it := Item{
		ID:          uuid.New(),
		OrgID:       id.OrgID,
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
	}
	if err := s.repo.InsertItem(ctx, it); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return s.repo.GetItem(ctx, id.OrgID, it.ID)
}

// GetItem returns one item within the caller's organization.
func (s *Service) GetItem(ctx context.Context, id shared.Identity, itemID uuid.UUID) (*Item, error) {
	return s.repo.GetItem(ctx, id.OrgID, itemID)
}

// ListItems returns items within the caller's organization, newest first.
func (s *Service) ListItems(ctx context.Context, id shared.Identity, req ListItemsRequest) ([]Item, int, error) {
	return s.repo.ListItems(ctx, id.OrgID, req)
}

// DeleteItem removes an item within the caller's organization.
func (s *Service) DeleteItem(ctx context.Context, id shared.Identity, itemID uuid.UUID) error {
	return s.repo.DeleteItem(ctx, id.OrgID, itemID)
}

// RegisterSerial tracks one physical unit of an item, starting AVAILABLE.
func (s *Service) RegisterSerial(ctx context.Context, id shared.Identity, req RegisterSerialRequest) (*SerialNumber, error) {
	if _, err := s.repo.GetItem(ctx, id.OrgID, req.ItemID); err != nil {
		return nil, fmt.Errorf("%w: item %s", shared.ErrReferentialIntegrity, req.ItemID)
	}

	sn := SerialNumber{
		ID:     uuid.New(),
		OrgID:  id.OrgID,
		ItemID: req.ItemID,
		Serial: req.Serial,
		Status: SerialWorkflow.Initial(),
	}
	if err := s.repo.InsertSerial(ctx, sn); err != nil {
		return nil, fmt.Errorf("register serial: %w", err)
	}
	return s.repo.GetSerial(ctx, id.OrgID, sn.ID)
}

// ListSerials returns the tracked units of one item.
func (s *Service) ListSerials(ctx context.Context, id shared.Identity, itemID uuid.UUID) ([]SerialNumber, error) {
	return s.repo.ListSerialsByItem(ctx, id.OrgID, itemID)
}

// UpdateSerial moves a unit through its lifecycle and links it to the order
// or installation consuming it.
func (s *Service) UpdateSerial(ctx context.Context, id shared.Identity, serialID uuid.UUID, req UpdateSerialRequest) (*SerialNumber, error) {
	updates := map[string]any{}
	if req.Status != nil {
		next := workflow.Status(*req.Status)
		if err := SerialWorkflow.Validate(next); err != nil {
			return nil, err
		}
		updates["status"] = string(next)
	}
	if req.SalesOrderID != nil {
		updates["sales_order_id"] = *req.SalesOrderID
	}
	if req.InstallationID != nil {
		updates["installation_id"] = *req.InstallationID
	}

	if len(updates) > 0 {
		if err := s.repo.UpdateSerial(ctx, id.OrgID, serialID, updates); err != nil {
			return nil, err
		}
	}
	return s.repo.GetSerial(ctx, id.OrgID, serialID)
}
