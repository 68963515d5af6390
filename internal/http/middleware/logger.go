package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"recordapi/internal/logger"
)

// Logger logs each HTTP request as one JSON line through the shared logger.
// Fields: request_id (from RequestID), method, path, status, latency in milliseconds
// and user_name when CurrentUser resolved one.
func Logger() fiber.Handler {
	return requestLogger(logger.Log)
}

// LoggerWithWriter is Logger writing to w with timestamps in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return requestLogger(logger.New(w, "info", loc))
}

func requestLogger(l *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		fields := logrus.Fields{
			"component":  "http",
			"request_id": rid,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		}
		if u, ok := c.Locals(UserLocalKey).(string); ok && u != "" {
			fields["user_name"] = u
		}
		entry := l.WithFields(fields)
		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error()
		case status >= fiber.StatusBadRequest:
			entry.Warn()
		default:
			entry.Info()
		}
		return err
	}
}
