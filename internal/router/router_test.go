package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/utils"
)

const secret = "test-secret"

type emptyEvents struct{}

func (emptyEvents) Create(context.Context, *model.Event) error { return nil }
func (emptyEvents) GetByID(context.Context, uint64) (*model.Event, error) {
	return nil, repository.ErrEventNotFound
}
func (emptyEvents) List(context.Context, repository.EventFilter) ([]model.Event, error) {
	return []model.Event{}, nil
}
func (emptyEvents) ListByOrganizer(context.Context, uint64) ([]model.Event, error) {
	return []model.Event{}, nil
}
func (emptyEvents) Update(context.Context, *model.Event) error { return nil }
func (emptyEvents) AdjustQuota(context.Context, uint64, int) error { return nil }
func (emptyEvents) Delete(context.Context, uint64) error { return nil }

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	ev := handler.NewEventHandler(emptyEvents{})
	RegisterRoutes(e)
	RegisterAuth(e, handler.NewAuthHandler(config.Config{JWTSecret: secret}, nil, nil), secret)
	RegisterPublic(e, ev, nil)
	RegisterOrganizer(e, ev, handler.NewTicketHandler(nil), secret, nil)
	return e
}

func bearer(t *testing.T, uid uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, uid, role, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func serve(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestOperationalRoutes(t *testing.T) {
	e := newServer(t)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/healthz", "").Code)
	rec := serve(e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}

func TestCatalogueIsPublic(t *testing.T) {
	e := newServer(t)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/v1/events", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodGet, "/v1/events/1", "").Code)
}

func TestOrganizerRoutesRequireRole(t *testing.T) {
	e := newServer(t)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/v1/organizer/events", "").Code)
	assert.Equal(t, http.StatusForbidden,
		serve(e, http.MethodGet, "/v1/organizer/events", bearer(t, 1, model.RoleUser)).Code)
	assert.Equal(t, http.StatusOK,
		serve(e, http.MethodGet, "/v1/organizer/events", bearer(t, 1, model.RoleOrganizer)).Code)
}

func TestMeEchoesIdentity(t *testing.T) {
	e := newServer(t)
	rec := serve(e, http.MethodGet, "/v1/me", bearer(t, 42, model.RoleUser))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":42`)
}
