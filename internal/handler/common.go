// Package handler exposes the HTTP handlers.  Every handler answers with
// the response envelope; domain errors are mapped to status codes in
// one place, writeError.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/response"
	"github.com/iliyamo/event-ticketing/internal/service"
)

// requestTimeout bounds the store calls made for one request.
const requestTimeout = 5 * time.Second

func withTimeout(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), d)
}

var errUnauthenticated = errors.New("invalid user_id in context")

// getUserID extracts the authenticated user's id set by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, errUnauthenticated
	}
	return id, nil
}

func parseIDParam(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// writeError maps domain errors to envelopes.  Anything unknown is
// returned to Echo so the central error handler logs it and answers 500
// without leaking details.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrPaymentNotFound):
		return response.Fail(c, http.StatusNotFound, "payment_not_found", "payment not found")
	case errors.Is(err, service.ErrEventNotFound):
		return response.Fail(c, http.StatusNotFound, "event_not_found", "event not found")
	case errors.Is(err, repository.ErrTicketNotFound):
		return response.Fail(c, http.StatusNotFound, "ticket_not_found", "ticket not found")
	case errors.Is(err, service.ErrInsufficientQuota):
		return response.Fail(c, http.StatusConflict, "insufficient_quota", "not enough tickets left")
	case errors.Is(err, repository.ErrTicketUsed):
		return response.Fail(c, http.StatusConflict, "ticket_used", "ticket already used")
	case errors.Is(err, repository.ErrConflict):
		return response.Fail(c, http.StatusConflict, "conflict", "conflicting state")
	case errors.Is(err, service.ErrUnrecognizedStatus):
		return response.Fail(c, http.StatusBadRequest, "unrecognized_status", "unrecognized transaction status")
	case errors.Is(err, service.ErrInvalidQuantity):
		return response.Fail(c, http.StatusBadRequest, "invalid_quantity", "quantity must be positive")
	case errors.Is(err, service.ErrInvalidSignature):
		return response.Fail(c, http.StatusUnauthorized, "invalid_signature", "invalid signature")
	case errors.Is(err, repository.ErrForbidden):
		return response.Fail(c, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, service.ErrUpstream):
		return response.Fail(c, http.StatusBadGateway, "upstream_error", "payment gateway unavailable")
	}
	return err
}

func unauthorized(c echo.Context) error {
	return response.Fail(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
}

func badRequest(c echo.Context, msg string) error {
	return response.Fail(c, http.StatusBadRequest, "bad_request", msg)
}
