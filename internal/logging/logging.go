// Package logging sets up the process logger and the per-request log entry.
package logging

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	HeaderRequestID = "X-Request-ID"
	ctxEntryKey     = "log_entry"
	ctxRequestIDKey = "request_id"
)

// New builds a logrus logger. Unknown levels fall back to info.
func New(level, format string, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stdout
	}
	l := logrus.New()
	l.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if format == "text" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}
	return l
}

// Middleware tags every request with an id, stores a request-scoped entry in
// c.Locals and writes one line per request once the handler chain returns.
func Middleware(base *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// fiber reuses request buffers, keep our own copies
		reqID := strings.Clone(c.Get(HeaderRequestID))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(HeaderRequestID, reqID)

		entry := base.WithFields(logrus.Fields{
			"request_id": reqID,
			"method":     c.Method(),
			"path":       strings.Clone(c.Path()),
		})
		c.Locals(ctxRequestIDKey, reqID)
		c.Locals(ctxEntryKey, entry)

		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		fields := logrus.Fields{
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.IP(),
		}
		switch {
		case status >= 500:
			entry.WithFields(fields).WithError(err).Error("request failed")
		case status >= 400:
			entry.WithFields(fields).Warn("request rejected")
		default:
			entry.WithFields(fields).Info("request completed")
		}
		return err
	}
}

// FromCtx returns the request entry, or a bare entry on the standard logger
// when the middleware did not run (tests, background calls).
func FromCtx(c *fiber.Ctx) *logrus.Entry {
	if e, ok := c.Locals(ctxEntryKey).(*logrus.Entry); ok {
		return e
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(ctxRequestIDKey).(string)
	return id
}
