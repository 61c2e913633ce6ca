package access_api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/screencast/cmd/web/internal/accesscode"
)

type revokeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func HandleRevoke(authority *accesscode.Authority) echo.HandlerFunc {
	return func(c echo.Context) error {
		authority.Revoke()
		return c.JSON(http.StatusOK, revokeResponse{
			Success: true,
			Message: "Access code revoked",
		})
	}
}
