package contracts

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
	"github.com/meridian-crm/meridian/internal/shared"
	"github.com/meridian-crm/meridian/internal/workflow"
)

type memRepo struct {
	contracts map[uuid.UUID]Contract
}

func newMemRepo() *memRepo {
	return &memRepo{contracts: map[uuid.UUID]Contract{}}
}

func (m *memRepo) CountCodes(_ context.Context, orgID uuid.UUID, codePrefix string) (int64, error) {
	var count int64
	for _, c := range m.contracts {
		if c.OrgID == orgID && strings.HasPrefix(c.Code, codePrefix) {
			count++
		}
	}
	return count, nil
}

func (m *memRepo) Get(_ context.Context, orgID, id uuid.UUID) (*Contract, error) {
	c, ok := m.contracts[id]
	if !ok || c.OrgID != orgID {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (m *memRepo) List(_ context.Context, orgID uuid.UUID, _ ListContractsRequest) ([]Contract, int, error) {
	var out []Contract
	for _, c := range m.contracts {
		if c.OrgID == orgID {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) ListExpiring(_ context.Context, before time.Time) ([]Contract, error) {
	var out []Contract
	now := time.Now()
	for _, c := range m.contracts {
		if c.Status == StatusActive && c.EndDate != nil && c.EndDate.Before(before) && c.EndDate.After(now) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memRepo) Insert(_ context.Context, c Contract) error {
	for _, existing := range m.contracts {
		if existing.OrgID == c.OrgID && existing.Code == c.Code {
			return shared.ErrDuplicateCode
		}
	}
	m.contracts[c.ID] = c
	return nil
}

func (m *memRepo) Update(_ context.Context, orgID, id uuid.UUID, updates map[string]any) error {
	c, ok := m.contracts[id]
	if !ok || c.OrgID != orgID {
		return shared.ErrNotFound
	}
	if v, ok := updates["status"]; ok {
		c.Status = workflow.Status(v.(string))
	}
	if v, ok := updates["title"]; ok {
		c.Title = v.(string)
	}
	if v, ok := updates["value"]; ok {
		c.Value = v.(float64)
	}
	m.contracts[id] = c
	return nil
}

func (m *memRepo) Delete(_ context.Context, orgID, id uuid.UUID) error {
	c, ok := m.contracts[id]
	if !ok || c.OrgID != orgID {
		return shared.ErrNotFound
	}
	delete(m.contracts, id)
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

func newTestService() (*Service, *memRepo, *memActivities) {
	repo := newMemRepo()
	acts := &memActivities{}
	recorder := activity.NewRecorder(acts, slog.Default())
	return NewService(repo, nil, nil, nil, recorder, nil), repo, acts
}

func identity() shared.Identity {
	return shared.Identity{UserID: uuid.New(), OrgID: uuid.New()}
}

func TestCreateAssignsSequentialContractNumbers(t *testing.T) {
	svc, _, _ := newTestService()
	id := identity()
	day := time.Now().UTC().Format("20060102")

	for i := 1; i <= 3; i++ {
		c, err := svc.Create(context.Background(), id, CreateContractRequest{Title: "AMC"})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("CON-%s-%04d", day, i), c.Code)
		assert.Equal(t, StatusDraft, c.Status)
	}
}

func TestStatusRoundTripLogsEachHop(t *testing.T) {
	svc, _, acts := newTestService()
	id := identity()

	c, err := svc.Create(context.Background(), id, CreateContractRequest{Title: "AMC"})
	require.NoError(t, err)

	active := string(StatusActive)
	_, err = svc.Update(context.Background(), id, c.ID, UpdateContractRequest{Status: &active})
	require.NoError(t, err)

	draft := string(StatusDraft)
	_, err = svc.Update(context.Background(), id, c.ID, UpdateContractRequest{Status: &draft})
	require.NoError(t, err)

	// creation plus one entry per hop, even back to the starting state
	require.Len(t, acts.entries, 3)
	assert.Equal(t, "Status changed: DRAFT → ACTIVE", acts.entries[1].Title)
	assert.Equal(t, "Status changed: ACTIVE → DRAFT", acts.entries[2].Title)
}

func TestTerminalStateAcceptsFurtherTransitions(t *testing.T) {
	svc, _, _ := newTestService()
	id := identity()

	c, err := svc.Create(context.Background(), id, CreateContractRequest{Title: "AMC"})
	require.NoError(t, err)

	terminated := string(StatusTerminated)
	_, err = svc.Update(context.Background(), id, c.ID, UpdateContractRequest{Status: &terminated})
	require.NoError(t, err)

	active := string(StatusActive)
	got, err := svc.Update(context.Background(), id, c.ID, UpdateContractRequest{Status: &active})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
	assert.True(t, Workflow.IsTerminal(StatusTerminated))
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService()
	id := identity()

	c, err := svc.Create(context.Background(), id, CreateContractRequest{Title: "AMC"})
	require.NoError(t, err)

	bogus := "SUSPENDED"
	_, err = svc.Update(context.Background(), id, c.ID, UpdateContractRequest{Status: &bogus})
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestListExpiringFiltersByWindowAndStatus(t *testing.T) {
	svc, _, _ := newTestService()
	id := identity()

	soon := time.Now().Add(10 * 24 * time.Hour)
	far := time.Now().Add(90 * 24 * time.Hour)

	expiring, err := svc.Create(context.Background(), id, CreateContractRequest{Title: "expiring", EndDate: &soon})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), id, CreateContractRequest{Title: "long-running", EndDate: &far})
	require.NoError(t, err)

	active := string(StatusActive)
	_, err = svc.Update(context.Background(), id, expiring.ID, UpdateContractRequest{Status: &active})
	require.NoError(t, err)

	got, err := svc.ListExpiring(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, expiring.ID, got[0].ID)
}

func TestCrossOrgLookupIsNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	owner := identity()

	c, err := svc.Create(context.Background(), owner, CreateContractRequest{Title: "AMC"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), identity(), c.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
