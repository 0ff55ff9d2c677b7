package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "meridian_session", "test-secret", time.Hour, false), mr
}

func commitAndCookie(t *testing.T, sm *SessionManager, sess *Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, sess))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestSessionRoundTripKeepsIdentity(t *testing.T) {
	sm, _ := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	id := Identity{UserID: uuid.New(), OrgID: uuid.New()}
	sess.SetIdentity(id)

	cookie := commitAndCookie(t, sm, sess)
	assert.Contains(t, cookie.Value, ".", "cookie carries id and signature")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)

	got, ok := loaded.Identity()
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestForgedSessionCookieStartsFresh(t *testing.T) {
	sm, _ := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetIdentity(Identity{UserID: uuid.New(), OrgID: uuid.New()})
	cookie := commitAndCookie(t, sm, sess)

	// Reuse the valid signature with a different session id.
	_, sig, ok := strings.Cut(cookie.Value, ".")
	require.True(t, ok)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: uuid.NewString() + "." + sig})

	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	_, authed := loaded.Identity()
	assert.False(t, authed)
	assert.NotEqual(t, sess.ID, loaded.ID)
}

func TestDestroyedSessionIsRemoved(t *testing.T) {
	sm, mr := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("user_id", uuid.NewString())
	commitAndCookie(t, sm, sess)
	require.True(t, mr.Exists("session:"+sess.ID))

	sm.Destroy(sess)
	cookie := commitAndCookie(t, sm, sess)
	assert.Equal(t, -1, cookie.MaxAge)
	assert.False(t, mr.Exists("session:"+sess.ID))
}
