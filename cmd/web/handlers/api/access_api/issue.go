package access_api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/screencast/cmd/web/handlers/common"
	"thirdcoast.systems/screencast/cmd/web/internal/accesscode"
	"thirdcoast.systems/screencast/cmd/web/internal/metrics"
)

type issueResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Expiry  int64  `json:"expiry"`
}

// HandleIssue generates a new access code, replacing any existing one.
func HandleIssue(authority *accesscode.Authority) echo.HandlerFunc {
	return func(c echo.Context) error {
		cred, err := authority.Issue()
		if err != nil {
			slog.Error("failed to issue access code", "error", err)
			return common.ErrInternal("failed to generate access code")
		}
		metrics.AccessCodesIssuedTotal.Inc()

		common.NoStore(c)
		return c.JSON(http.StatusOK, issueResponse{
			Success: true,
			Code:    cred.Code,
			Expiry:  cred.ExpiresAt.UnixMilli(),
		})
	}
}
