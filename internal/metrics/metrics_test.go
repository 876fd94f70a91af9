package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectors(t *testing.T) {
	before := testutil.ToFloat64(notifications.WithLabelValues("paid"))
	Notification("paid", 10*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(notifications.WithLabelValues("paid")))

	beforeTickets := testutil.ToFloat64(ticketsIssued)
	TicketsIssued(3)
	assert.Equal(t, beforeTickets+3, testutil.ToFloat64(ticketsIssued))
}

func TestHandler_ServesExposition(t *testing.T) {
	Purchase("created")
	e := echo.New()
	e.GET("/metrics", Handler())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "purchases_total")
}
