package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	webauth "thirdcoast.systems/screencast/cmd/web/auth"
	"thirdcoast.systems/screencast/pkg/utils/passwords"
)

func newPresenterHash(t *testing.T) passwords.Password {
	t.Helper()
	hash, err := passwords.NewPassword(passwords.PasswordInput{Password: "correct horse"})
	require.NoError(t, err)
	return hash
}

func login(t *testing.T, sm *webauth.SessionManager, hash passwords.Password, body string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/presenter/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	err := HandleLogin(sm, hash)(e.NewContext(req, rec))
	return rec, err
}

func requireHTTPStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, status, he.Code)
}

func TestHandleLogin(t *testing.T) {
	sm := webauth.NewSessionManager("test-secret")
	hash := newPresenterHash(t)

	t.Run("correct password", func(t *testing.T) {
		rec, err := login(t, sm, hash, `{"password":"correct horse"}`)
		require.NoError(t, err)
		require.Equal(t, http.StatusNoContent, rec.Code)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range rec.Result().Cookies() {
			req.AddCookie(c)
		}
		require.True(t, sm.IsPresenter(req))
	})

	t.Run("wrong password", func(t *testing.T) {
		rec, err := login(t, sm, hash, `{"password":"battery staple"}`)
		requireHTTPStatus(t, err, http.StatusUnauthorized)
		require.Empty(t, rec.Result().Cookies())
	})

	t.Run("missing password", func(t *testing.T) {
		_, err := login(t, sm, hash, `{}`)
		requireHTTPStatus(t, err, http.StatusBadRequest)
	})
}

func TestHandleLogout(t *testing.T) {
	e := echo.New()
	sm := webauth.NewSessionManager("test-secret")

	req := httptest.NewRequest(http.MethodPost, "/api/presenter/logout", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, HandleLogout(sm)(e.NewContext(req, rec)))
	require.Equal(t, http.StatusNoContent, rec.Code)
}
