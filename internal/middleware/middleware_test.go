package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"canaryAnalytics/business/analytics"
	"canaryAnalytics/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, role string, ttl time.Duration) string {
	t.Helper()
	claims := utils.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "rollout-controller",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
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

func TestAuthMiddleware(t *testing.T) {
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get("subject").(string))
	}, AuthMiddleware(testSecret))

	rec := serve(e, http.MethodGet, "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/protected", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/protected", "Bearer "+signToken(t, "viewer", -time.Minute))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/protected", "Bearer "+signToken(t, "viewer", time.Hour))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rollout-controller", rec.Body.String())
}

func TestAdminOnly(t *testing.T) {
	e := echo.New()
	e.DELETE("/state", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, AuthMiddleware(testSecret), AdminOnly())

	rec := serve(e, http.MethodDelete, "/state", "Bearer "+signToken(t, "viewer", time.Hour))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(e, http.MethodDelete, "/state", "Bearer "+signToken(t, "admin", time.Hour))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTrace(t *testing.T) {
	e := echo.New()
	e.Use(Trace())
	e.GET("/trace", func(c echo.Context) error {
		return c.String(http.StatusOK, analytics.TraceIDFromContext(c.Request().Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/trace", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Body.String())
	assert.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))

	rec = serve(e, http.MethodGet, "/trace", "")
	assert.Len(t, rec.Body.String(), 36)
	assert.Equal(t, rec.Body.String(), rec.Header().Get(echo.HeaderXRequestID))
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.GET("/teapot", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	rec := serve(e, http.MethodGet, "/teapot", "")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, rec.Body.String(), "short and stout")

	rec = serve(e, http.MethodGet, "/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
