package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestGuessLimiter_ChargesOnlyFailures(t *testing.T) {
	e := echo.New()
	e.IPExtractor = echo.ExtractIPDirect()

	fail := false
	l := newGuessLimiter(0.001, 2)
	e.POST("/guess", func(c echo.Context) error {
		if fail {
			return c.NoContent(http.StatusForbidden)
		}
		return c.NoContent(http.StatusOK)
	}, l.Middleware())

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/guess", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusOK, send("192.0.2.10:1000"))
	}

	fail = true
	require.Equal(t, http.StatusForbidden, send("192.0.2.10:1000"))
	require.Equal(t, http.StatusForbidden, send("192.0.2.10:1000"))
	require.Equal(t, http.StatusTooManyRequests, send("192.0.2.10:1000"))

	// Once spent, even a correct attempt waits for the budget to refill.
	fail = false
	require.Equal(t, http.StatusTooManyRequests, send("192.0.2.10:1001"))

	// Other addresses are unaffected.
	require.Equal(t, http.StatusOK, send("192.0.2.11:1000"))
}

func TestGuessLimiter_ChargesHandlerErrors(t *testing.T) {
	e := echo.New()
	l := newGuessLimiter(0.001, 1)
	e.POST("/guess", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "bad")
	}, l.Middleware())

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/guess", nil))
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []int{http.StatusBadRequest, http.StatusTooManyRequests}, codes)
}

func TestNewGuessLimiter_ClampsBurst(t *testing.T) {
	l := newGuessLimiter(1, 0)
	require.Equal(t, 1, l.burst)
	require.InDelta(t, 1.0, l.limiterFor("192.0.2.1").Tokens(), 0.01)
}
