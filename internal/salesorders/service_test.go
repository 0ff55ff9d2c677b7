package salesorders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian/internal/activity"
	"github.com/meridian-crm/meridian/internal/quotes"
	"github.com/meridian-crm/meridian/internal/shared"
	"github.com/meridian-crm/meridian/internal/workflow"
)

type memRepo struct {
	orders map[uuid.UUID]SalesOrder
}

func newMemRepo() *memRepo {
	return &memRepo{orders: map[uuid.UUID]SalesOrder{}}
}

func (m *memRepo) CountCodes(_ context.Context, orgID uuid.UUID, codePrefix string) (int64, error) {
	var count int64
	for _, so := range m.orders {
		if so.OrgID == orgID && strings.HasPrefix(so.Code, codePrefix) {
			count++
		}
	}
	return count, nil
}

func (m *memRepo) Exists(_ context.Context, orgID, id uuid.UUID) (bool, error) {
	so, ok := m.orders[id]
	return ok && so.OrgID == orgID, nil
}

func (m *memRepo) Get(_ context.Context, orgID, id uuid.UUID) (*SalesOrder, error) {
	so, ok := m.orders[id]
	if !ok || so.OrgID != orgID {
		return nil, shared.ErrNotFound
	}
	return &so, nil
}

func (m *memRepo) List(_ context.Context, orgID uuid.UUID, _ ListSalesOrdersRequest) ([]SalesOrder, int, error) {
	var out []SalesOrder
	for _, so := range m.orders {
		if so.OrgID == orgID {
			out = append(out, so)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) Insert(_ context.Context, so SalesOrder) error {
	for _, existing := range m.orders {
		if existing.OrgID == so.OrgID && existing.Code == so.Code {
			return shared.ErrDuplicateCode
		}
	}
	m.orders[so.ID] = so
	return nil
}

func (m *memRepo) Update(_ context.Context, orgID, id uuid.UUID, updates map[string]any) error {
	so, ok := m.orders[id]
	if !ok || so.OrgID != orgID {
		return shared.ErrNotFound
	}
	if v, ok := updates["status"]; ok {
		so.Status = workflow.Status(v.(string))
	}
	if v, ok := updates["title"]; ok {
		so.Title = v.(string)
	}
	m.orders[id] = so
	return nil
}

func (m *memRepo) Delete(_ context.Context, orgID, id uuid.UUID) error {
	so, ok := m.orders[id]
	if !ok || so.OrgID != orgID {
		return shared.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

type memQuotes struct {
	quotes map[uuid.UUID]quotes.Quote
}

func (m *memQuotes) Get(_ context.Context, orgID, id uuid.UUID) (*quotes.Quote, error) {
	q, ok := m.quotes[id]
	if !ok || q.OrgID != orgID {
		return nil, shared.ErrNotFound
	}
	return &q, nil
}

func (m *memQuotes) Update(_ context.Context, orgID, id uuid.UUID, updates map[string]any) error {
	q, ok := m.quotes[id]
	if !ok || q.OrgID != orgID {
		return shared.ErrNotFound
	}
	if v, ok := updates["status"]; ok {
		q.Status = workflow.Status(v.(string))
	}
	m.quotes[id] = q
	return nil
}

type memActivities struct {
	entries []activity.Entry
}

func (m *memActivities) Insert(_ context.Context, e activity.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memActivities) ListByEntity(_ context.Context, _ uuid.UUID, _ activity.EntityKind, _ uuid.UUID) ([]activity.Entry, error) {
	return m.entries, nil
}

type fixture struct {
	svc    *Service
	repo   *memRepo
	quotes *memQuotes
	acts   *memActivities
}

func newFixture() *fixture {
	repo := newMemRepo()
	quoteDir := &memQuotes{quotes: map[uuid.UUID]quotes.Quote{}}
	acts := &memActivities{}
	recorder := activity.NewRecorder(acts, slog.Default())
	svc := NewService(repo, nil, nil, nil, quoteDir, recorder, nil)
	return &fixture{svc: svc, repo: repo, quotes: quoteDir, acts: acts}
}

func identity() shared.Identity {
	return shared.Identity{UserID: uuid.New(), OrgID: uuid.New()}
}

func TestCreateAssignsSequentialOrderNumbers(t *testing.T) {
	f := newFixture()
	id := identity()
	day := time.Now().UTC().Format("20060102")

	for i := 1; i <= 3; i++ {
		so, err := f.svc.Create(context.Background(), id, CreateSalesOrderRequest{Title: "5-ton split unit"})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("SO-%s-%04d", day, i), so.Code)
		assert.Equal(t, StatusDraft, so.Status)
	}
}

func TestConvertQuoteCarriesPartiesAndAcceptsQuote(t *testing.T) {
	f := newFixture()
	id := identity()
	accountID := uuid.New()
	contactID := uuid.New()

	q := quotes.Quote{
		ID:        uuid.New(),
		OrgID:     id.OrgID,
		Code:      "QT-20260801-0001",
		Title:     "5-ton split unit",
		Status:    quotes.StatusSent,
		Amount:    125000,
		AccountID: &accountID,
		ContactID: &contactID,
	}
	f.quotes.quotes[q.ID] = q

	so, err := f.svc.ConvertQuote(context.Background(), id, q.ID)
	require.NoError(t, err)

	assert.Equal(t, q.Title, so.Title)
	assert.Equal(t, q.Amount, so.Amount)
	assert.Equal(t, &accountID, so.AccountID)
	assert.Equal(t, &contactID, so.ContactID)
	require.NotNil(t, so.QuoteID)
	assert.Equal(t, q.ID, *so.QuoteID)

	assert.Equal(t, quotes.StatusAccepted, f.quotes.quotes[q.ID].Status)

	// creation entry for the order, status-change entry for the quote
	require.Len(t, f.acts.entries, 2)
	assert.Equal(t, "Status changed: SENT → ACCEPTED", f.acts.entries[1].Title)
}

func TestConvertQuoteCrossOrgIsNotFound(t *testing.T) {
	f := newFixture()
	owner := identity()

	q := quotes.Quote{ID: uuid.New(), OrgID: owner.OrgID, Code: "QT-20260801-0001", Status: quotes.StatusSent}
	f.quotes.quotes[q.ID] = q

	_, err := f.svc.ConvertQuote(context.Background(), identity(), q.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateStatusLogsTransition(t *testing.T) {
	f := newFixture()
	id := identity()

	so, err := f.svc.Create(context.Background(), id, CreateSalesOrderRequest{Title: "5-ton split unit"})
	require.NoError(t, err)

	next := string(StatusConfirmed)
	updated, err := f.svc.Update(context.Background(), id, so.ID, UpdateSalesOrderRequest{Status: &next})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)

	require.Len(t, f.acts.entries, 2)
	assert.Equal(t, "Status changed: DRAFT → CONFIRMED", f.acts.entries[1].Title)
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	f := newFixture()
	id := identity()

	so, err := f.svc.Create(context.Background(), id, CreateSalesOrderRequest{Title: "5-ton split unit"})
	require.NoError(t, err)

	bogus := "BACKORDERED"
	_, err = f.svc.Update(context.Background(), id, so.ID, UpdateSalesOrderRequest{Status: &bogus})
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
}
