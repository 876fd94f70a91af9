package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/response"
	"github.com/iliyamo/event-ticketing/internal/service"
)

// paymentFlow is the part of service.PaymentService the handlers use.
type paymentFlow interface {
	Purchase(ctx context.Context, r service.PurchaseRequest) (*service.PurchaseResult, error)
	HandleNotification(ctx context.Context, n service.Notification) (*service.NotificationResult, error)
}

type paymentReader interface {
	GetByOrderIDForUser(ctx context.Context, orderID string, userID uint64) (*model.Payment, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Payment, error)
}

type paymentTickets interface {
	ListByPayment(ctx context.Context, paymentID uint64) ([]model.Ticket, error)
}

type emailLookup interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// PaymentHandler serves checkout creation, gateway notifications and
// the buyer's payment history.
type PaymentHandler struct {
	Flow     paymentFlow
	Payments paymentReader
	Tickets  paymentTickets
	Users    emailLookup
}

func NewPaymentHandler(flow paymentFlow, payments paymentReader, tickets paymentTickets, users emailLookup) *PaymentHandler {
	return &PaymentHandler{Flow: flow, Payments: payments, Tickets: tickets, Users: users}
}

type purchaseReq struct {
	Quantity int `json:"quantity"`
}

// Purchase handles POST /v1/events/:id/purchase.
func (h *PaymentHandler) Purchase(c echo.Context) error {
	ctx, cancel := withTimeout(c, 15*time.Second) // covers the gateway round trip
	defer cancel()
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req purchaseReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	pr := service.PurchaseRequest{UserID: uid, EventID: eventID, Quantity: req.Quantity}
	// The email is only a courtesy for the checkout page.
	if h.Users != nil {
		if u, err := h.Users.GetByID(ctx, uid); err == nil {
			pr.Email = u.Email
		}
	}
	res, err := h.Flow.Purchase(ctx, pr)
	if err != nil {
		return writeError(c, err)
	}
	return response.OK(c, http.StatusCreated, "checkout created", res)
}

// Notification handles POST /v1/payments/notification, called by the
// gateway.  It is unauthenticated; the signature in the body is the
// credential.
func (h *PaymentHandler) Notification(c echo.Context) error {
	var n service.Notification
	if err := c.Bind(&n); err != nil {
		return badRequest(c, "invalid body")
	}
	n.OrderID = strings.TrimSpace(n.OrderID)
	if n.OrderID == "" {
		return badRequest(c, "order_id is required")
	}

	ctx, cancel := withTimeout(c, 10*time.Second)
	defer cancel()

	res, err := h.Flow.HandleNotification(ctx, n)
	if err != nil {
		return writeError(c, err)
	}
	return response.OK(c, http.StatusOK, "notification processed", res)
}

// ListMyPayments handles GET /v1/payments.
func (h *PaymentHandler) ListMyPayments(c echo.Context) error {
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	payments, err := h.Payments.ListByUser(ctx, uid)
	if err != nil {
		return writeError(c, err)
	}
	return response.OK(c, http.StatusOK, "payments", payments)
}

type paymentDetail struct {
	Payment *model.Payment `json:"payment"`
	Tickets []model.Ticket `json:"tickets"`
}

// GetMyPayment handles GET /v1/payments/:order_id and includes the
// tickets minted for it, if any.
func (h *PaymentHandler) GetMyPayment(c echo.Context) error {
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	p, err := h.Payments.GetByOrderIDForUser(ctx, c.Param("order_id"), uid)
	if err != nil {
		return writeError(c, err)
	}
	tickets, err := h.Tickets.ListByPayment(ctx, p.ID)
	if err != nil {
		return writeError(c, err)
	}
	return response.OK(c, http.StatusOK, "payment", paymentDetail{Payment: p, Tickets: tickets})
}
