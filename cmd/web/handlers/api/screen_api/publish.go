package screen_api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/screencast/cmd/web/handlers/common"
	"thirdcoast.systems/screencast/cmd/web/internal/screen"
)

type publishRequest struct {
	Image string `json:"image"`
}

type publishResponse struct {
	Success          bool `json:"success"`
	ConnectedClients int  `json:"connectedClients"`
}

// HandlePublish stores the presenter's snapshot and fans it out to every
// connected viewer.
func HandlePublish(registry *screen.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req publishRequest
		if err := c.Bind(&req); err != nil {
			return common.JSONError(c, http.StatusBadRequest, "invalid request body")
		}
		if req.Image == "" {
			return common.JSONError(c, http.StatusBadRequest, "image is required")
		}

		count := registry.PublishSnapshot(req.Image)
		return c.JSON(http.StatusOK, publishResponse{
			Success:          true,
			ConnectedClients: count,
		})
	}
}
