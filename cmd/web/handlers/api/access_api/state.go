package access_api

import (
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
	"thirdcoast.systems/screencast/cmd/web/handlers/common"
	"thirdcoast.systems/screencast/cmd/web/internal/accesscode"
)

type stateResponse struct {
	Code      *string `json:"code"`
	Expiry    *int64  `json:"expiry"`
	IsActive  bool    `json:"isActive"`
	ExpiresIn string  `json:"expiresIn,omitempty"`
}

// HandleState reports the current access code, if one is live.
func HandleState(authority *accesscode.Authority) echo.HandlerFunc {
	return func(c echo.Context) error {
		state := authority.Current()

		resp := stateResponse{IsActive: state.IsActive}
		if state.IsActive {
			code := state.Code
			expiry := state.ExpiresAt.UnixMilli()
			resp.Code = &code
			resp.Expiry = &expiry
			resp.ExpiresIn = humanize.Time(state.ExpiresAt)
		}

		common.NoStore(c)
		return c.JSON(http.StatusOK, resp)
	}
}
