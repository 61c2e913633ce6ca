package screen_api

import (
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"thirdcoast.systems/screencast/cmd/web/handlers/common"
	"thirdcoast.systems/screencast/cmd/web/internal/screen"
)

type countResponse struct {
	Count     int   `json:"count"`
	Timestamp int64 `json:"timestamp"`
}

func HandleConnectedCount(registry *screen.Registry, clock clockwork.Clock) echo.HandlerFunc {
	return func(c echo.Context) error {
		common.NoStore(c)
		return c.JSON(http.StatusOK, countResponse{
			Count:     registry.ConnectedCount(),
			Timestamp: clock.Now().UnixMilli(),
		})
	}
}
