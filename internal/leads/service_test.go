package leads

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian/internal/accounts"
	"github.com/meridian-crm/meridian/internal/activity"
	"github.com/meridian-crm/meridian/internal/contacts"
	"github.com/meridian-crm/meridian/internal/shared"
	"github.com/meridian-crm/meridian/internal/workflow"
)

type memRepo struct {
	leads map[uuid.UUID]Lead
}

func newMemRepo() *memRepo {
	return &memRepo{leads: map[uuid.UUID]Lead{}}
}

func (m *memRepo) Get(_ context.Context, orgID, id uuid.UUID) (*Lead, error) {
	l, ok := m.leads[id]
	if !ok || l.OrgID != orgID {
		return nil, shared.ErrNotFound
	}
	return &l, nil
}

func (m *memRepo) List(_ context.Context, orgID uuid.UUID, _ ListLeadsRequest) ([]Lead, int, error) {
	var out []Lead
	for _, l := range m.leads {
		if l.OrgID == orgID {
			out = append(out, l)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) Insert(_ context.Context, l Lead) error {
	m.leads[l.ID] = l
	return nil
}

func (m *memRepo) Update(_ context.Context, orgID, id uuid.UUID, updates map[string]any) error {
	l, ok := m.leads[id]
	if !ok || l.OrgID != orgID {
		return shared.ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		l.Name = v.(string)
	}
	if v, ok := updates["status"]; ok {
		l.Status = workflow.Status(v.(string))
	}
	m.leads[id] = l
	return nil
}

func (m *memRepo) Delete(_ context.Context, orgID, id uuid.UUID) error {
	l, ok := m.leads[id]
	if !ok || l.OrgID != orgID {
		return shared.ErrNotFound
	}
	delete(m.leads, id)
	return nil
}

type memActivities struct {
	entries []activity.Entry
}

func (m *memActivities) Insert(_ context.Context, e activity.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memActivities) ListByEntity(_ context.Context, orgID uuid.UUID, kind activity.EntityKind, entityID uuid.UUID) ([]activity.Entry, error) {
	var out []activity.Entry
	for _, e := range m.entries {
		if e.OrgID == orgID && e.Kind == kind && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

type stubAccountCreator struct {
	created []accounts.CreateAccountRequest
}

func (s *stubAccountCreator) Create(_ context.Context, id shared.Identity, req accounts.CreateAccountRequest) (*accounts.Account, error) {
	s.created = append(s.created, req)
	return &accounts.Account{ID: uuid.New(), OrgID: id.OrgID, Name: req.Name, Phone: req.Phone, Email: req.Email}, nil
}

type stubContactCreator struct {
	created []contacts.CreateContactRequest
}

func (s *stubContactCreator) Create(_ context.Context, id shared.Identity, req contacts.CreateContactRequest) (*contacts.Contact, error) {
	s.created = append(s.created, req)
	return &contacts.Contact{ID: uuid.New(), OrgID: id.OrgID, FirstName: req.FirstName, LastName: req.LastName, AccountID: req.AccountID}, nil
}

func newTestService() (*Service, *memRepo, *memActivities) {
	svc, repo, acts, _, _ := newTestServiceWithCreators()
	return svc, repo, acts
}

func newTestServiceWithCreators() (*Service, *memRepo, *memActivities, *stubAccountCreator, *stubContactCreator) {
	repo := newMemRepo()
	acts := &memActivities{}
	accCreator := &stubAccountCreator{}
	conCreator := &stubContactCreator{}
	recorder := activity.NewRecorder(acts, slog.Default())
	return NewService(repo, accCreator, conCreator, recorder), repo, acts, accCreator, conCreator
}

func identity() shared.Identity {
	return shared.Identity{UserID: uuid.New(), OrgID: uuid.New()}
}

func TestCreateStartsInInitialStatus(t *testing.T) {
	svc, _, acts := newTestService()
	id := identity()

	lead, err := svc.Create(context.Background(), id, CreateLeadRequest{Name: "Acme Rooftop"})
	require.NoError(t, err)
	assert.Equal(t, StatusNew, lead.Status)
	require.Len(t, acts.entries, 1)
	assert.Equal(t, activity.TypeCreated, acts.entries[0].Type)
}

func TestUpdateStatusLogsTransition(t *testing.T) {
	svc, _, acts := newTestService()
	id := identity()

	lead, err := svc.Create(context.Background(), id, CreateLeadRequest{Name: "Acme Rooftop"})
	require.NoError(t, err)

	next := string(StatusContacted)
	updated, err := svc.Update(context.Background(), id, lead.ID, UpdateLeadRequest{Status: &next})
	require.NoError(t, err)
	assert.Equal(t, StatusContacted, updated.Status)

	require.Len(t, acts.entries, 2)
	assert.Equal(t, activity.TypeStatusChange, acts.entries[1].Type)
	assert.Equal(t, "Status changed: NEW → CONTACTED", acts.entries[1].Title)
}

func TestUpdateSameStatusIsIdempotent(t *testing.T) {
	svc, _, acts := newTestService()
	id := identity()

	lead, err := svc.Create(context.Background(), id, CreateLeadRequest{Name: "Acme Rooftop"})
	require.NoError(t, err)

	same := string(StatusNew)
	updated, err := svc.Update(context.Background(), id, lead.ID, UpdateLeadRequest{Status: &same})
	require.NoError(t, err)
	assert.Equal(t, StatusNew, updated.Status)

	// only the creation entry, no status-change entry for a no-op
	assert.Len(t, acts.entries, 1)
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService()
	id := identity()

	lead, err := svc.Create(context.Background(), id, CreateLeadRequest{Name: "Acme Rooftop"})
	require.NoError(t, err)

	bogus := "FROZEN"
	_, err = svc.Update(context.Background(), id, lead.ID, UpdateLeadRequest{Status: &bogus})
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)

	got, err := svc.Get(context.Background(), id, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNew, got.Status)
}

func TestConvertCreatesAccountAndContact(t *testing.T) {
	svc, _, acts, accCreator, conCreator := newTestServiceWithCreators()
	id := identity()

	lead, err := svc.Create(context.Background(), id, CreateLeadRequest{
		Name:    "Priya Sharma",
		Company: "Sharma Enterprises",
		Phone:   "+919876543210",
	})
	require.NoError(t, err)

	result, err := svc.Convert(context.Background(), id, lead.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusConverted, result.Lead.Status)
	require.Len(t, accCreator.created, 1)
	assert.Equal(t, "Sharma Enterprises", accCreator.created[0].Name)
	require.Len(t, conCreator.created, 1)
	assert.Equal(t, "Priya", conCreator.created[0].FirstName)
	assert.Equal(t, "Sharma", conCreator.created[0].LastName)
	require.NotNil(t, result.Contact.AccountID)
	assert.Equal(t, result.Account.ID, *result.Contact.AccountID)

	require.Len(t, acts.entries, 2)
	assert.Equal(t, "Status changed: NEW → CONVERTED", acts.entries[1].Title)
}

func TestConvertTwiceIsRejected(t *testing.T) {
	svc, _, _, accCreator, _ := newTestServiceWithCreators()
	id := identity()

	lead, err := svc.Create(context.Background(), id, CreateLeadRequest{Name: "Priya Sharma"})
	require.NoError(t, err)

	_, err = svc.Convert(context.Background(), id, lead.ID)
	require.NoError(t, err)

	_, err = svc.Convert(context.Background(), id, lead.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
	assert.Len(t, accCreator.created, 1)
}

func TestCrossOrgLookupIsNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	owner := identity()

	lead, err := svc.Create(context.Background(), owner, CreateLeadRequest{Name: "Acme Rooftop"})
	require.NoError(t, err)

	intruder := identity()
	_, err = svc.Get(context.Background(), intruder, lead.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	err = svc.Delete(context.Background(), intruder, lead.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
