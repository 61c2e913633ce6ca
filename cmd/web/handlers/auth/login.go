package auth

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	webauth "thirdcoast.systems/screencast/cmd/web/auth"
	"thirdcoast.systems/screencast/cmd/web/handlers/common"
	"thirdcoast.systems/screencast/pkg/utils/passwords"
)

type loginRequest struct {
	Password string `json:"password" form:"password"`
}

// HandleLogin exchanges the presenter password for a session cookie.
func HandleLogin(sm *webauth.SessionManager, hash passwords.Password) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginRequest
		if err := c.Bind(&req); err != nil || req.Password == "" {
			return common.ErrBadRequest("password is required")
		}

		matches, err := hash.ComparePasswordAndHash(passwords.PasswordInput{Password: req.Password})
		if err != nil {
			slog.Error("failed to compare presenter password", "error", err)
			return common.ErrInternal("failed to verify password")
		}
		if !matches {
			slog.Info("presenter login failed", "remote_ip", c.RealIP())
			return common.ErrUnauthorized()
		}

		if err := sm.SavePresenterSession(c.Response().Writer, c.Request()); err != nil {
			slog.Error("failed to save session", "error", err)
			return common.ErrInternal("failed to save session")
		}

		slog.Info("presenter logged in", "remote_ip", c.RealIP())
		return c.NoContent(http.StatusNoContent)
	}
}
