package common

import (
	"github.com/labstack/echo/v4"
)

// AccessCodeParam reads the viewer's access code from the query string,
// falling back to the X-Access-Code header. The value is passed on as sent.
func AccessCodeParam(c echo.Context) string {
	if code := c.QueryParam("accessCode"); code != "" {
		return code
	}
	return c.Request().Header.Get("X-Access-Code")
}
