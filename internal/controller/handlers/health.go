package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
