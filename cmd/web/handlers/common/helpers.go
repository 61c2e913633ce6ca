package common

import (
	"github.com/labstack/echo/v4"
	"thirdcoast.systems/screencast/cmd/web/auth"
)

// RequirePresenter returns middleware that rejects requests without a
// presenter session. A nil SessionManager disables the check.
func RequirePresenter(sm *auth.SessionManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if sm != nil && !sm.IsPresenter(c.Request()) {
				return ErrUnauthorized()
			}
			return next(c)
		}
	}
}

// JSONError writes {"error": msg} with the given status.
func JSONError(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// NoStore marks a response as uncacheable.
func NoStore(c echo.Context) {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
}
