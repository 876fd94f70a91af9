package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/model"
)

// RegisterBuyer registers the purchase flow and the buyer's history.
// All routes require a valid JWT and the USER role; limiter, when not
// nil, runs after authentication so buckets are keyed per user.
func RegisterBuyer(e *echo.Echo, p *handler.PaymentHandler, t *handler.TicketHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	mw := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser),
	}
	if limiter != nil {
		mw = append(mw, limiter)
	}
	g := e.Group("/v1", mw...)

	g.POST("/events/:id/purchase", p.Purchase)
	g.GET("/payments", p.ListMyPayments)
	g.GET("/payments/:order_id", p.GetMyPayment)
	g.GET("/tickets", t.ListMyTickets)
	g.GET("/tickets/:id", t.GetMyTicket)
}
