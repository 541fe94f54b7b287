package router

import (
	"canaryAnalytics/internal/middleware"
	"canaryAnalytics/internal/rest"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetAssessmentRoutes(api *echo.Group, handler *rest.AssessmentHandler, authRequired echo.MiddlewareFunc) {
	api.POST("/assessment", handler.Assess, authRequired)
}

func SetStateAdminRoutes(api *echo.Group, handler *rest.StateAdminHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	experiments := api.Group("/experiments")

	experiments.GET("/:name/state", handler.GetState, authRequired)
	experiments.DELETE("/:name/state", handler.DeleteState, authRequired, adminOnly)
}

func SetOpsRoutes(e *echo.Echo) {
	e.GET("/health", rest.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// AuthFor returns the auth middlewares for the configured secret. Without a
// secret the api is open.
func AuthFor(secret string) (authRequired, adminOnly echo.MiddlewareFunc) {
	if secret == "" {
		return middleware.Passthrough(), middleware.Passthrough()
	}
	return middleware.AuthMiddleware(secret), middleware.AdminOnly()
}
