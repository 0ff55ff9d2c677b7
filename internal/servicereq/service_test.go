package servicereq

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
	requests map[uuid.UUID]ServiceRequest
}

func newMemRepo() *memRepo {
	return &memRepo{requests: map[uuid.UUID]ServiceRequest{}}
}

func (m *memRepo) CountCodes(_ context.Context, orgID uuid.UUID, codePrefix string) (int64, error) {
	var count int64
	for _, sr := range m.requests {
		if sr.OrgID == orgID && strings.HasPrefix(sr.Code, codePrefix) {
			count++
		}
	}
	return count, nil
}

func (m *memRepo) Get(_ context.Context, orgID, id uuid.UUID) (*ServiceRequest, error) {
	sr, ok := m.requests[id]
	if !ok || sr.OrgID != orgID {
		return nil, shared.ErrNotFound
	}
	return &sr, nil
}

func (m *memRepo) List(_ context.Context, orgID uuid.UUID, _ ListServiceRequestsRequest) ([]ServiceRequest, int, error) {
	var out []ServiceRequest
	for _, sr := range m.requests {
		if sr.OrgID == orgID {
			out = append(out, sr)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) Insert(_ context.Context, sr ServiceRequest) error {
	for _, existing := range m.requests {
		if existing.OrgID == sr.OrgID && existing.Code == sr.Code {
			return shared.ErrDuplicateCode
		}
	}
	m.requests[sr.ID] = sr
	return nil
}

func (m *memRepo) Update(_ context.Context, orgID, id uuid.UUID, updates map[string]any) error {
	sr, ok := m.requests[id]
	if !ok || sr.OrgID != orgID {
		return shared.ErrNotFound
	}
	if v, ok := updates["status"]; ok {
		sr.Status = workflow.Status(v.(string))
	}
	if v, ok := updates["title"]; ok {
		sr.Title = v.(string)
	}
	if v, ok := updates["resolved_at"]; ok {
		t := v.(time.Time)
		sr.ResolvedAt = &t
	}
	m.requests[id] = sr
	return nil
}

func (m *memRepo) Delete(_ context.Context, orgID, id uuid.UUID) error {
	sr, ok := m.requests[id]
	if !ok || sr.OrgID != orgID {
		return shared.ErrNotFound
	}
	delete(m.requests, id)
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

type memContacts struct {
	phones map[uuid.UUID]string
}

func (m *memContacts) Exists(_ context.Context, _, id uuid.UUID) (bool, error) {
	_, ok := m.phones[id]
	return ok, nil
}

func (m *memContacts) PhoneOf(_ context.Context, _, id uuid.UUID) (string, error) {
	phone, ok := m.phones[id]
	if !ok {
		return "", shared.ErrNotFound
	}
	return phone, nil
}

type memSender struct {
	sent []string
}

func (m *memSender) Send(_ context.Context, to, body string) error {
	m.sent = append(m.sent, to+": "+body)
	return nil
}

type fixture struct {
	svc      *Service
	repo     *memRepo
	acts     *memActivities
	contacts *memContacts
	sender   *memSender
}

func newFixture() *fixture {
	repo := newMemRepo()
	acts := &memActivities{}
	contacts := &memContacts{phones: map[uuid.UUID]string{}}
	sender := &memSender{}
	recorder := activity.NewRecorder(acts, slog.Default())
	svc := NewService(slog.Default(), repo, nil, nil, contacts, recorder, nil, sender)
	return &fixture{svc: svc, repo: repo, acts: acts, contacts: contacts, sender: sender}
}

func identity() shared.Identity {
	return shared.Identity{UserID: uuid.New(), OrgID: uuid.New()}
}

func TestCreateAssignsSequentialTicketNumbers(t *testing.T) {
	f := newFixture()
	id := identity()
	day := time.Now().UTC().Format("20060102")

	for i := 1; i <= 3; i++ {
		sr, err := f.svc.Create(context.Background(), id, CreateServiceRequestRequest{Title: "AC not cooling"})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("SR-%s-%04d", day, i), sr.Code)
		assert.Equal(t, StatusOpen, sr.Status)
		assert.Equal(t, PriorityMedium, sr.Priority)
	}
}

func TestCreateSequencesArePerOrganization(t *testing.T) {
	f := newFixture()
	day := time.Now().UTC().Format("20060102")

	first, err := f.svc.Create(context.Background(), identity(), CreateServiceRequestRequest{Title: "one"})
	require.NoError(t, err)
	second, err := f.svc.Create(context.Background(), identity(), CreateServiceRequestRequest{Title: "two"})
	require.NoError(t, err)

	// different orgs each start their own sequence
	assert.Equal(t, "SR-"+day+"-0001", first.Code)
	assert.Equal(t, "SR-"+day+"-0001", second.Code)
}

func TestUpdateStatusNotifiesLinkedContact(t *testing.T) {
	f := newFixture()
	id := identity()
	contactID := uuid.New()
	f.contacts.phones[contactID] = "+91 98765 43210"

	sr, err := f.svc.Create(context.Background(), id, CreateServiceRequestRequest{
		Title:     "AC not cooling",
		ContactID: &contactID,
	})
	require.NoError(t, err)

	next := string(StatusInProgress)
	_, err = f.svc.Update(context.Background(), id, sr.ID, UpdateServiceRequestRequest{Status: &next})
	require.NoError(t, err)

	require.Len(t, f.sender.sent, 1)
	assert.Contains(t, f.sender.sent[0], sr.Code)
	assert.Contains(t, f.sender.sent[0], "IN_PROGRESS")

	require.Len(t, f.acts.entries, 2)
	assert.Equal(t, "Status changed: OPEN → IN_PROGRESS", f.acts.entries[1].Title)
}

func TestUpdateSameStatusSkipsLogAndNotification(t *testing.T) {
	f := newFixture()
	id := identity()
	contactID := uuid.New()
	f.contacts.phones[contactID] = "+91 98765 43210"

	sr, err := f.svc.Create(context.Background(), id, CreateServiceRequestRequest{
		Title:     "AC not cooling",
		ContactID: &contactID,
	})
	require.NoError(t, err)

	same := string(StatusOpen)
	_, err = f.svc.Update(context.Background(), id, sr.ID, UpdateServiceRequestRequest{Status: &same})
	require.NoError(t, err)

	assert.Empty(t, f.sender.sent)
	assert.Len(t, f.acts.entries, 1)
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	f := newFixture()
	id := identity()

	sr, err := f.svc.Create(context.Background(), id, CreateServiceRequestRequest{Title: "AC not cooling"})
	require.NoError(t, err)

	bogus := "ESCALATED"
	_, err = f.svc.Update(context.Background(), id, sr.ID, UpdateServiceRequestRequest{Status: &bogus})
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)

	got, err := f.svc.Get(context.Background(), id, sr.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, got.Status)
}

func TestResolvedStatusStampsResolvedAt(t *testing.T) {
	f := newFixture()
	id := identity()

	sr, err := f.svc.Create(context.Background(), id, CreateServiceRequestRequest{Title: "AC not cooling"})
	require.NoError(t, err)

	next := string(StatusResolved)
	updated, err := f.svc.Update(context.Background(), id, sr.ID, UpdateServiceRequestRequest{Status: &next})
	require.NoError(t, err)
	require.NotNil(t, updated.ResolvedAt)
}

func TestCrossOrgLookupIsNotFound(t *testing.T) {
	f := newFixture()
	owner := identity()

	sr, err := f.svc.Create(context.Background(), owner, CreateServiceRequestRequest{Title: "AC not cooling"})
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), identity(), sr.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateUnknownContactFailsReferentialCheck(t *testing.T) {
	f := newFixture()
	id := identity()
	missing := uuid.New()

	_, err := f.svc.Create(context.Background(), id, CreateServiceRequestRequest{
		Title:     "AC not cooling",
		ContactID: &missing,
	})
	assert.ErrorIs(t, err, shared.ErrReferentialIntegrity)
}
