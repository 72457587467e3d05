package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const RequestIDHeader = "X-Request-ID"

// Logger attaches a request scoped logger carrying request_id to the request context and logs
// each request once it completes. An incoming X-Request-ID is reused.
func Logger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		requestID := c.Request().Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Response().Header().Set(RequestIDHeader, requestID)

		ctx := c.Request().Context()

		logger := log.With().Str("request_id", requestID).Logger()
		ctx = logger.WithContext(ctx)

		c.SetRequest(c.Request().WithContext(ctx))

		err := next(c)

		req := c.Request()
		status := c.Response().Status

		event := log.Ctx(req.Context()).Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = log.Ctx(req.Context()).Error()
		case status >= http.StatusBadRequest:
			event = log.Ctx(req.Context()).Warn()
		}

		event.
			Err(err).
			Str("method", req.Method).
			Str("route", c.Path()).
			Str("endpoint", req.URL.Path).
			Int("status", status).
			Int64("latency", time.Since(start).Milliseconds()).
			Msg("Request processed")

		return err
	}
}
