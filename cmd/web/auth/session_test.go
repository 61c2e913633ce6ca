package auth

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == SessionName {
			return c
		}
	}
	return nil
}

func TestSessionManager_SavePresenterSession_RoundTrip(t *testing.T) {
	sm := NewSessionManager("test-secret")

	req := httptest.NewRequest("POST", "http://example.com/api/presenter/login", nil)
	rr := httptest.NewRecorder()

	require.NoError(t, sm.SavePresenterSession(rr, req))

	cookie := sessionCookie(t, rr)
	require.NotNil(t, cookie)
	require.NotEmpty(t, cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.False(t, cookie.Secure)

	req2 := httptest.NewRequest("GET", "http://example.com/", nil)
	req2.AddCookie(cookie)

	require.True(t, sm.IsPresenter(req2))
	require.Equal(t, AccessPresenter, sm.GetAccessLevel(req2))

	createdAt := sm.GetSessionCreatedAt(req2)
	require.False(t, createdAt.IsZero())
	require.WithinDuration(t, time.Now(), createdAt, 5*time.Second)
}

func TestSessionManager_SavePresenterSession_SecureDetection(t *testing.T) {
	sm := NewSessionManager("test-secret")

	t.Run("tls implies secure", func(t *testing.T) {
		req := httptest.NewRequest("GET", "https://example.com/", nil)
		req.TLS = &tls.ConnectionState{}
		rr := httptest.NewRecorder()

		require.NoError(t, sm.SavePresenterSession(rr, req))

		cookie := sessionCookie(t, rr)
		require.NotNil(t, cookie)
		require.True(t, cookie.Secure)
	})

	t.Run("x-forwarded-proto implies secure", func(t *testing.T) {
		req := httptest.NewRequest("GET", "http://example.com/", nil)
		req.Header.Set("X-Forwarded-Proto", "https")
		rr := httptest.NewRecorder()

		require.NoError(t, sm.SavePresenterSession(rr, req))

		cookie := sessionCookie(t, rr)
		require.NotNil(t, cookie)
		require.True(t, cookie.Secure)
	})
}

func TestSessionManager_NoCookieIsViewer(t *testing.T) {
	sm := NewSessionManager("test-secret")

	req := httptest.NewRequest("GET", "http://example.com/", nil)
	require.False(t, sm.IsPresenter(req))
	require.Equal(t, AccessViewer, sm.GetAccessLevel(req))
	require.True(t, sm.GetSessionCreatedAt(req).IsZero())
}

func TestSessionManager_ForeignSecretRejected(t *testing.T) {
	issuer := NewSessionManager("secret-a")
	verifier := NewSessionManager("secret-b")

	req := httptest.NewRequest("GET", "http://example.com/", nil)
	rr := httptest.NewRecorder()
	require.NoError(t, issuer.SavePresenterSession(rr, req))

	req2 := httptest.NewRequest("GET", "http://example.com/", nil)
	req2.AddCookie(sessionCookie(t, rr))

	require.False(t, verifier.IsPresenter(req2))
}

func TestSessionManager_ClearSession(t *testing.T) {
	sm := NewSessionManager("test-secret")

	req := httptest.NewRequest("GET", "http://example.com/", nil)
	rr := httptest.NewRecorder()
	require.NoError(t, sm.SavePresenterSession(rr, req))

	req2 := httptest.NewRequest("GET", "http://example.com/", nil)
	req2.AddCookie(sessionCookie(t, rr))
	rr2 := httptest.NewRecorder()
	require.NoError(t, sm.ClearSession(rr2, req2))

	cleared := sessionCookie(t, rr2)
	require.NotNil(t, cleared)
	require.True(t, cleared.MaxAge < 0)
}

func TestNewSessionManager_GeneratesSecret(t *testing.T) {
	sm := NewSessionManager("")

	req := httptest.NewRequest("GET", "http://example.com/", nil)
	rr := httptest.NewRecorder()
	require.NoError(t, sm.SavePresenterSession(rr, req))

	req2 := httptest.NewRequest("GET", "http://example.com/", nil)
	req2.AddCookie(sessionCookie(t, rr))
	require.True(t, sm.IsPresenter(req2))
}
