package logging

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFallsBackToInfo(t *testing.T) {
	l := New("loud", "json", &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	l = New("debug", "text", &bytes.Buffer{})
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	_, isText := l.Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)
}

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(Middleware(New("info", "json", &buf)))
	app.Get("/ping", func(c *fiber.Ctx) error {
		FromCtx(c).Info("inside handler")
		return c.SendString(RequestID(c))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	id := resp.Header.Get(HeaderRequestID)
	assert.NotEmpty(t, id)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var last map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &last))
	assert.Equal(t, id, last["request_id"])
	assert.Equal(t, float64(200), last["status"])
	assert.Equal(t, "/ping", last["path"])
}

func TestMiddlewareKeepsIncomingRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware(New("info", "json", &bytes.Buffer{})))
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "nope")
	})

	req := httptest.NewRequest("GET", "/missing", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(HeaderRequestID))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
