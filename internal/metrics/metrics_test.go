package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRouteTemplate(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/api/shifts/:id", func(c *fiber.Ctx) error {
		if c.Params("id") == "0" {
			return fiber.NewError(fiber.StatusNotFound, "no shift")
		}
		return c.SendStatus(fiber.StatusOK)
	})

	for _, path := range []string{"/api/shifts/1", "/api/shifts/2", "/api/shifts/0"} {
		_, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/shifts/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/shifts/:id", "404")))
}

func TestHandlerExposesDomainCounters(t *testing.T) {
	m := New()
	m.ShiftsOpened.Inc()
	m.ShiftsClosed.WithLabelValues("SHORTAGE").Inc()

	app := fiber.New()
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "cashdesk_shifts_opened_total 1")
	assert.Contains(t, string(body), `cashdesk_shifts_closed_total{classification="SHORTAGE"} 1`)
}
