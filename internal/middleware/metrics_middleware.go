package middleware

import (
	"strconv"
	"time"

	"canaryAnalytics/pkg/metrics"

	"github.com/labstack/echo/v4"
)

// Metrics records latency and count per route.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			code := strconv.Itoa(c.Response().Status)
			metrics.HTTPRequestDuration.WithLabelValues(route, c.Request().Method).Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.WithLabelValues(route, c.Request().Method, code).Inc()
			return nil
		}
	}
}
