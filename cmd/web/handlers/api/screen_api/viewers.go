package screen_api

import (
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"thirdcoast.systems/screencast/cmd/web/handlers/common"
	"thirdcoast.systems/screencast/cmd/web/internal/screen"
)

type viewerRow struct {
	screen.ViewerInfo
	ConnectedSince string `json:"connectedSince"`
}

type viewersResponse struct {
	Count   int         `json:"count"`
	Viewers []viewerRow `json:"viewers"`
}

// HandleViewers lists connected viewers for the presenter, oldest first.
func HandleViewers(registry *screen.Registry, clock clockwork.Clock) echo.HandlerFunc {
	return func(c echo.Context) error {
		now := clock.Now()
		infos := registry.Viewers()

		rows := make([]viewerRow, 0, len(infos))
		for _, info := range infos {
			rows = append(rows, viewerRow{
				ViewerInfo:     info,
				ConnectedSince: humanize.RelTime(info.ConnectedAt, now, "ago", "from now"),
			})
		}

		common.NoStore(c)
		return c.JSON(http.StatusOK, viewersResponse{
			Count:   len(rows),
			Viewers: rows,
		})
	}
}
