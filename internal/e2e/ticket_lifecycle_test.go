package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian/internal/activity"
	"github.com/meridian-crm/meridian/internal/app"
	"github.com/meridian-crm/meridian/internal/servicereq"
	"github.com/meridian-crm/meridian/internal/shared"
	_ "github.com/meridian-crm/meridian/internal/testing/guard"
	"github.com/meridian-crm/meridian/internal/workflow"
)

type memTickets struct {
	requests map[uuid.UUID]servicereq.ServiceRequest
}

func (m *memTickets) CountCodes(_ context.Context, orgID uuid.UUID, codePrefix string) (int64, error) {
	var count int64
	for _, sr := range m.requests {
		if sr.OrgID == orgID && strings.HasPrefix(sr.Code, codePrefix) {
			count++
		}
	}
	return count, nil
}

func (m *memTickets) Get(_ context.Context, orgID, id uuid.UUID) (*servicereq.ServiceRequest, error) {
	sr, ok := m.requests[id]
	if !ok || sr.OrgID != orgID {
		return nil, shared.ErrNotFound
	}
	return &sr, nil
}

func (m *memTickets) List(_ context.Context, orgID uuid.UUID, _ servicereq.ListServiceRequestsRequest) ([]servicereq.ServiceRequest, int, error) {
	var out []servicereq.ServiceRequest
	for _, sr := range m.requests {
		if sr.OrgID == orgID {
			out = append(out, sr)
		}
	}
	return out, len(out), nil
}

func (m *memTickets) Insert(_ context.Context, sr servicereq.ServiceRequest) error {
	m.requests[sr.ID] = sr
	return nil
}

func (m *memTickets) Update(_ context.Context, orgID, id uuid.UUID, updates map[string]any) error {
	sr, ok := m.requests[id]
	if !ok || sr.OrgID != orgID {
		return shared.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "title":
			sr.Title = v.(string)
		case "status":
			sr.Status = workflow.Status(v.(string))
		case "resolved_at":
			t := v.(time.Time)
			sr.ResolvedAt = &t
		}
	}
	m.requests[id] = sr
	return nil
}

func (m *memTickets) Delete(_ context.Context, orgID, id uuid.UUID) error {
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

func (m *memActivities) ListByEntity(_ context.Context, orgID uuid.UUID, kind activity.EntityKind, entityID uuid.UUID) ([]activity.Entry, error) {
	var out []activity.Entry
	for _, e := range m.entries {
		if e.OrgID == orgID && e.Kind == kind && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// directory answers every reference check positively and hands out one phone
// number, standing in for the account and contact repositories.
type directory struct{ phone string }

func (d directory) Exists(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return true, nil }
func (d directory) PhoneOf(context.Context, uuid.UUID, uuid.UUID) (string, error) {
	return d.phone, nil
}

type capturingSender struct {
	messages []string
}

func (c *capturingSender) Send(_ context.Context, _, body string) error {
	c.messages = append(c.messages, body)
	return nil
}

// testStack is the whole application wired against in-memory storage.
type testStack struct {
	router     http.Handler
	tickets    *memTickets
	activities *memActivities
	sender     *capturingSender
	tokens     map[string]shared.Identity
}

func newTestStack() *testStack {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	tickets := &memTickets{requests: map[uuid.UUID]servicereq.ServiceRequest{}}
	activities := &memActivities{}
	sender := &capturingSender{}

	recorder := activity.NewRecorder(activities, logger)
	dir := directory{phone: "+919876543210"}
	service := servicereq.NewService(logger, tickets, nil, dir, dir, recorder, nil, sender)

	stack := &testStack{
		tickets:    tickets,
		activities: activities,
		sender:     sender,
		tokens:     map[string]shared.Identity{},
	}

	r := chi.NewRouter()
	r.Use(stack.tokenAuth)
	r.Group(func(r chi.Router) {
		r.Use(app.RequireAuth)
		r.Route("/service-requests", servicereq.NewHandler(logger, service).MountRoutes)
		r.Route("/activities", activity.NewHandler(logger, activities).MountRoutes)
	})
	stack.router = r
	return stack
}

// tokenAuth resolves a bearer token to an identity, mirroring what the
// session middleware does in production.
func (s *testStack) tokenAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if id, ok := s.tokens[token]; ok {
			r = r.WithContext(shared.ContextWithIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *testStack) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	app.RefreshTestMode()
	require.True(t, app.InTestMode())

	stack := newTestStack()
	stack.tokens["alpha"] = shared.Identity{UserID: uuid.New(), OrgID: uuid.New()}
	stack.tokens["beta"] = shared.Identity{UserID: uuid.New(), OrgID: uuid.New()}

	rec := stack.do(t, http.MethodGet, "/service-requests", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Linking a contact is what makes the status change notify someone.
	contactID := uuid.New()
	rec = stack.do(t, http.MethodPost, "/service-requests", "alpha", map[string]any{
		"title":      "AC unit not cooling",
		"priority":   "HIGH",
		"contact_id": contactID.String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created servicereq.ServiceRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	today := time.Now().UTC().Format("20060102")
	assert.Equal(t, fmt.Sprintf("SR-%s-0001", today), created.Code)
	assert.Equal(t, servicereq.StatusOpen, created.Status)
	require.NotNil(t, created.ContactID)
	assert.Equal(t, contactID, *created.ContactID)

	rec = stack.do(t, http.MethodPatch, "/service-requests/"+created.ID.String(), "alpha", map[string]any{
		"status": "IN_PROGRESS",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, stack.sender.messages, 1)
	assert.Contains(t, stack.sender.messages[0], created.Code)

	rec = stack.do(t, http.MethodGet, "/activities/SERVICE_REQUEST/"+created.ID.String(), "alpha", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Status changed: OPEN → IN_PROGRESS")

	// The same record does not exist for another organization.
	rec = stack.do(t, http.MethodGet, "/service-requests/"+created.ID.String(), "beta", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = stack.do(t, http.MethodPatch, "/service-requests/"+created.ID.String(), "beta", map[string]any{
		"status": "CLOSED",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusChangeWithoutContactSendsNothing(t *testing.T) {
	stack := newTestStack()
	stack.tokens["alpha"] = shared.Identity{UserID: uuid.New(), OrgID: uuid.New()}

	rec := stack.do(t, http.MethodPost, "/service-requests", "alpha", map[string]any{
		"title": "Filter replacement",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created servicereq.ServiceRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Nil(t, created.ContactID)

	rec = stack.do(t, http.MethodPatch, "/service-requests/"+created.ID.String(), "alpha", map[string]any{
		"status": "IN_PROGRESS",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, stack.sender.messages)
}

func TestTicketNumbersStayPerOrganization(t *testing.T) {
	stack := newTestStack()
	stack.tokens["alpha"] = shared.Identity{UserID: uuid.New(), OrgID: uuid.New()}
	stack.tokens["beta"] = shared.Identity{UserID: uuid.New(), OrgID: uuid.New()}

	today := time.Now().UTC().Format("20060102")
	for i := 1; i <= 2; i++ {
		rec := stack.do(t, http.MethodPost, "/service-requests", "alpha", map[string]any{"title": "ticket"})
		require.Equal(t, http.StatusCreated, rec.Code)
		var sr servicereq.ServiceRequest
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sr))
		assert.Equal(t, fmt.Sprintf("SR-%s-%04d", today, i), sr.Code)
	}

	rec := stack.do(t, http.MethodPost, "/service-requests", "beta", map[string]any{"title": "ticket"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var sr servicereq.ServiceRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sr))
	assert.Equal(t, fmt.Sprintf("SR-%s-0001", today), sr.Code)
}
