package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/response"
)

// Health is a liveness endpoint for load balancers and monitoring.
func Health(c echo.Context) error {
	return response.OK(c, http.StatusOK, "ok", map[string]string{"status": "ok"})
}
