package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/model"
)

// RegisterOrganizer registers ORGANIZER-scoped endpoints under
// /v1/organizer: event management and ticket redemption at the door.
func RegisterOrganizer(e *echo.Echo, ev *handler.EventHandler, t *handler.TicketHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	mw := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOrganizer),
	}
	if limiter != nil {
		mw = append(mw, limiter)
	}
	g := e.Group("/v1/organizer", mw...)

	g.GET("/events", ev.ListMyEvents)
	g.POST("/events", ev.CreateEvent)
	g.PUT("/events/:id", ev.UpdateEvent)
	g.PATCH("/events/:id", ev.UpdateEvent) // alias for clients that use PATCH
	g.DELETE("/events/:id", ev.DeleteEvent)

	g.POST("/tickets/redeem", t.Redeem)
}
