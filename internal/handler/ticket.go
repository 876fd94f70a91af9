package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/response"
)

type ticketStore interface {
	ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error)
	GetByIDForUser(ctx context.Context, id, userID uint64) (*model.Ticket, error)
	Redeem(ctx context.Context, code string, organizerID uint64) (*model.Ticket, error)
}

// TicketHandler lists a buyer's tickets and lets organizers redeem them
// at the door.
type TicketHandler struct {
	Tickets ticketStore
}

func NewTicketHandler(t ticketStore) *TicketHandler { return &TicketHandler{Tickets: t} }

// ListMyTickets handles GET /v1/tickets.
func (h *TicketHandler) ListMyTickets(c echo.Context) error {
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	tickets, err := h.Tickets.ListByUser(ctx, uid)
	if err != nil {
		return writeError(c, err)
	}
	return response.OK(c, http.StatusOK, "tickets", tickets)
}

// GetMyTicket handles GET /v1/tickets/:id.
func (h *TicketHandler) GetMyTicket(c echo.Context) error {
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	t, err := h.Tickets.GetByIDForUser(ctx, id, uid)
	if err != nil {
		return writeError(c, err)
	}
	return response.OK(c, http.StatusOK, "ticket", t)
}

type redeemReq struct {
	Code string `json:"code"`
}

// Redeem handles POST /v1/organizer/tickets/redeem.
func (h *TicketHandler) Redeem(c echo.Context) error {
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req redeemReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return badRequest(c, "code is required")
	}
	t, err := h.Tickets.Redeem(ctx, code, uid)
	if err != nil {
		return writeError(c, err)
	}
	return response.OK(c, http.StatusOK, "ticket redeemed", t)
}
