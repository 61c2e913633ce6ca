package access_api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/screencast/cmd/web/internal/accesscode"
	"thirdcoast.systems/screencast/cmd/web/internal/metrics"
)

type verifyRequest struct {
	Code string `json:"code"`
}

type verifyResponse struct {
	Valid   bool              `json:"valid"`
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
	Reason  accesscode.Reason `json:"reason,omitempty"`
}

// HandleVerify checks a viewer-supplied code. Malformed input is a 400;
// every other failure is a 403 carrying a machine-readable reason.
func HandleVerify(authority *accesscode.Authority) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req verifyRequest
		if err := c.Bind(&req); err != nil {
			return verifyFailure(c, accesscode.ReasonMalformed)
		}

		err := authority.Validate(req.Code)
		reason := accesscode.ReasonOf(err)
		if err != nil {
			return verifyFailure(c, reason)
		}

		metrics.AccessCodeValidationsTotal.WithLabelValues("ok").Inc()
		return c.JSON(http.StatusOK, verifyResponse{
			Valid:   true,
			Message: reason.Message(),
		})
	}
}

func verifyFailure(c echo.Context, reason accesscode.Reason) error {
	metrics.AccessCodeValidationsTotal.WithLabelValues(string(reason)).Inc()
	slog.Info("access code rejected", "reason", reason, "remote_ip", c.RealIP())

	status := http.StatusForbidden
	switch {
	case reason.IsClientError():
		status = http.StatusBadRequest
	case reason == accesscode.ReasonUnknown:
		status = http.StatusInternalServerError
	}
	return c.JSON(status, verifyResponse{
		Valid:  false,
		Error:  reason.Message(),
		Reason: reason,
	})
}
