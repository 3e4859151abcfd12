package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/sessiongate/internal/models"
	"github.com/wolfeidau/sessiongate/internal/session"
	memorystore "github.com/wolfeidau/sessiongate/internal/store/memory"
)

func newTestVerifier(t *testing.T) (*Verifier, *session.KVStore) {
	t.Helper()

	sessions := session.NewKVStore(memorystore.NewKVStore())
	return NewVerifier(sessions), sessions
}

func storeSession(t *testing.T, sessions *session.KVStore, email string, ttl time.Duration) string {
	t.Helper()

	sess := models.NewSession()
	require.NoError(t, sess.Insert(models.UserKey, models.User{Email: email}))
	sess.ExpireIn(ttl)

	cookie, err := sessions.Store(context.Background(), sess)
	require.NoError(t, err)

	return cookie
}

func TestVerifyAcceptsStoredSession(t *testing.T) {
	ctx := context.Background()
	verifier, sessions := newTestVerifier(t)

	cookie := storeSession(t, sessions, "jane@example.com", time.Hour)

	decision := verifier.Verify(ctx, []string{"SESSION=" + cookie})
	require.True(t, decision.Authorized)
	require.Equal(t, "jane@example.com", decision.Context["email"])
}

func TestVerifyDeniesWithoutCookie(t *testing.T) {
	ctx := context.Background()
	verifier, _ := newTestVerifier(t)

	for _, cookies := range [][]string{
		nil,
		{},
		{"other=value"},
		{"SESSION"},
	} {
		decision := verifier.Verify(ctx, cookies)
		require.False(t, decision.Authorized)
		require.Empty(t, decision.Context)
	}
}

func TestVerifyDeniesMalformedCookie(t *testing.T) {
	ctx := context.Background()
	verifier, _ := newTestVerifier(t)

	decision := verifier.Verify(ctx, []string{"SESSION=not-a-real-token"})
	require.False(t, decision.Authorized)
}

func TestVerifyDeniesUnknownSession(t *testing.T) {
	ctx := context.Background()
	verifier, _ := newTestVerifier(t)

	unknown := models.NewSession()

	decision := verifier.Verify(ctx, []string{"SESSION=" + unknown.CookieValue()})
	require.False(t, decision.Authorized)
}

func TestVerifyDeniesSessionWithoutUser(t *testing.T) {
	ctx := context.Background()
	verifier, sessions := newTestVerifier(t)

	sess := models.NewSession()
	sess.ExpireIn(time.Hour)
	cookie, err := sessions.Store(ctx, sess)
	require.NoError(t, err)

	decision := verifier.Verify(ctx, []string{"SESSION=" + cookie})
	require.False(t, decision.Authorized)
}

func TestVerifyEvictsExpiredSession(t *testing.T) {
	ctx := context.Background()
	verifier, sessions := newTestVerifier(t)

	cookie := storeSession(t, sessions, "jane@example.com", -time.Second)

	decision := verifier.Verify(ctx, []string{"SESSION=" + cookie})
	require.False(t, decision.Authorized)

	// Eviction is asynchronous
	require.Eventually(t, func() bool {
		sess, err := sessions.Load(ctx, cookie)
		return err == nil && sess == nil
	}, time.Second, 10*time.Millisecond)
}

func TestRequireSessionForbidsAnonymous(t *testing.T) {
	verifier, _ := newTestVerifier(t)

	handler := RequireSession(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "<p>Forbidden</p>", rec.Body.String())
}

func TestRequireSessionPassesIdentity(t *testing.T) {
	verifier, sessions := newTestVerifier(t)

	cookie := storeSession(t, sessions, "jane@example.com", time.Hour)

	handler := RequireSession(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		fmt.Fprintf(w, "hello %s", identity["email"])
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Cookie", "other=value; SESSION="+cookie)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "hello jane@example.com", rec.Body.String())
}
