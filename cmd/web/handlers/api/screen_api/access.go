package screen_api

import (
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/screencast/cmd/web/handlers/common"
	"thirdcoast.systems/screencast/cmd/web/internal/accesscode"
	"thirdcoast.systems/screencast/cmd/web/internal/metrics"
	"thirdcoast.systems/screencast/cmd/web/internal/screen"
)

// StreamOptions configures the viewer stream handlers.
type StreamOptions struct {
	// RequireCode rejects streams whose access code does not validate.
	RequireCode bool
	QueueSize   int
}

// requireAccess validates the viewer's code before a channel is registered.
func requireAccess(c echo.Context, authority *accesscode.Authority, opts StreamOptions) error {
	if !opts.RequireCode {
		return nil
	}

	err := authority.Validate(common.AccessCodeParam(c))
	if err == nil {
		metrics.AccessCodeValidationsTotal.WithLabelValues("ok").Inc()
		return nil
	}

	reason := accesscode.ReasonOf(err)
	metrics.AccessCodeValidationsTotal.WithLabelValues(string(reason)).Inc()
	slog.Info("viewer stream rejected", "reason", reason, "remote_ip", c.RealIP())

	if reason.IsClientError() {
		return common.ErrBadRequest(reason.Message())
	}
	return common.ErrForbidden(reason.Message())
}

func viewerInfo(c echo.Context, transport string) screen.ViewerInfo {
	return screen.ViewerInfo{
		RemoteIP:  c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		Transport: transport,
	}
}

func registerError(err error) error {
	switch {
	case errors.Is(err, screen.ErrTooManyViewers):
		return common.ErrTooManyRequests("too many connected viewers")
	case errors.Is(err, screen.ErrRegistryClosed):
		return common.ErrServiceUnavailable("server is shutting down")
	default:
		slog.Error("failed to register viewer", "error", err)
		return common.ErrInternal("failed to open stream")
	}
}
