package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/response"
)

type eventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id uint64) (*model.Event, error)
	List(ctx context.Context, f repository.EventFilter) ([]model.Event, error)
	ListByOrganizer(ctx context.Context, organizerID uint64) ([]model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	AdjustQuota(ctx context.Context, id uint64, delta int) error
	Delete(ctx context.Context, id uint64) error
}

// EventHandler serves the public catalogue and the organizer's event
// management.
type EventHandler struct {
	Events eventStore
}

func NewEventHandler(events eventStore) *EventHandler {
	if events == nil {
		panic("nil event store passed to NewEventHandler")
	}
	return &EventHandler{Events: events}
}

type eventReq struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Location    *string          `json:"location"`
	StartsAt    *time.Time       `json:"starts_at"`
	Price       *decimal.Decimal `json:"price"`
	Quota       *int             `json:"quota"`
}

// apply copies the provided fields onto e and validates the result.
func (r eventReq) apply(e *model.Event) string {
	if r.Title != nil {
		e.Title = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
	if r.Location != nil {
		e.Location = strings.TrimSpace(*r.Location)
	}
	if r.StartsAt != nil {
		e.StartsAt = r.StartsAt.UTC()
	}
	if r.Price != nil {
		e.Price = *r.Price
	}
	if r.Quota != nil {
		e.Quota = *r.Quota
	}
	switch {
	case e.Title == "":
		return "title is required"
	case e.StartsAt.IsZero():
		return "starts_at is required"
	case e.Price.IsNegative():
		return "price must not be negative"
	case e.Quota < 0:
		return "quota must not be negative"
	}
	return ""
}

// ListEvents handles GET /v1/events?q=&limit=&offset=.
func (h *EventHandler) ListEvents(c echo.Context) error {
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()
	f := repository.EventFilter{Query: c.QueryParam("q")}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return badRequest(c, "invalid limit")
		}
		f.Limit = n
	}
	if v := c.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return badRequest(c, "invalid offset")
		}
		f.Offset = n
	}
	events, err := h.Events.List(ctx, f)
	if err != nil {
		return writeError(c, err)
	}
	return response.OK(c, http.StatusOK, "events", events)
}

// GetEvent handles GET /v1/events/:id.
func (h *EventHandler) GetEvent(c echo.Context) error {
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return response.OK(c, http.StatusOK, "event", ev)
}

// CreateEvent handles POST /v1/organizer/events.
func (h *EventHandler) CreateEvent(c echo.Context) error {
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Quota == nil {
		return badRequest(c, "quota is required")
	}
	if req.Price == nil {
		return badRequest(c, "price is required")
	}
	ev := &model.Event{OrganizerID: uid}
	if msg := req.apply(ev); msg != "" {
		return badRequest(c, msg)
	}
	if err := h.Events.Create(ctx, ev); err != nil {
		return writeError(c, err)
	}
	return response.OK(c, http.StatusCreated, "event created", ev)
}

// ListMyEvents handles GET /v1/organizer/events.
func (h *EventHandler) ListMyEvents(c echo.Context) error {
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	events, err := h.Events.ListByOrganizer(ctx, uid)
	if err != nil {
		return writeError(c, err)
	}
	return response.OK(c, http.StatusOK, "events", events)
}

// owned loads the event named by :id and checks the caller owns it.
func (h *EventHandler) owned(ctx context.Context, c echo.Context) (*model.Event, error) {
	uid, err := getUserID(c)
	if err != nil {
		return nil, errUnauthenticated
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev.OrganizerID != uid {
		return nil, repository.ErrForbidden
	}
	return ev, nil
}

// UpdateEvent handles PUT /v1/organizer/events/:id.  Omitted fields keep
// their current value.  A new quota is applied as a delta against the
// value read here, so tickets confirmed in between are not given back.
func (h *EventHandler) UpdateEvent(c echo.Context) error {
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()
	ev, err := h.owned(ctx, c)
	if err == errUnauthenticated {
		return unauthorized(c)
	}
	if err != nil {
		return writeError(c, err)
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	before := ev.Quota
	if msg := req.apply(ev); msg != "" {
		return badRequest(c, msg)
	}
	if err := h.Events.Update(ctx, ev); err != nil {
		return writeError(c, err)
	}
	if req.Quota != nil {
		if err := h.Events.AdjustQuota(ctx, ev.ID, ev.Quota-before); err != nil {
			return writeError(c, err)
		}
	}
	updated, err := h.Events.GetByID(ctx, ev.ID)
	if err != nil {
		return writeError(c, err)
	}
	return response.OK(c, http.StatusOK, "event updated", updated)
}

// DeleteEvent handles DELETE /v1/organizer/events/:id.  Events that
// already have payments cannot be removed (409).
func (h *EventHandler) DeleteEvent(c echo.Context) error {
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()
	ev, err := h.owned(ctx, c)
	if err == errUnauthenticated {
		return unauthorized(c)
	}
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Events.Delete(ctx, ev.ID); err != nil {
		return writeError(c, err)
	}
	return response.OK(c, http.StatusOK, "event deleted", nil)
}
