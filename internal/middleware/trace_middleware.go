package middleware

import (
	"canaryAnalytics/business/analytics"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Trace puts a trace id into the request context, reusing X-Request-ID when
// the caller sent one, and echoes it back.
func Trace() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			tid := req.Header.Get(echo.HeaderXRequestID)
			if tid == "" {
				tid = uuid.NewString()
			}

			c.SetRequest(req.WithContext(analytics.WithTraceID(req.Context(), tid)))
			c.Response().Header().Set(echo.HeaderXRequestID, tid)

			return next(c)
		}
	}
}
