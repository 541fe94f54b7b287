package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"canaryAnalytics/business/analytics"
	"canaryAnalytics/internal/repository/static"
	"canaryAnalytics/internal/rest"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

func newServer(secret string) *echo.Echo {
	svc := analytics.NewAnalyticsService(static.NewMetricsRepository(static.Observations{}), nil, analytics.DefaultConfig())

	e := echo.New()
	authRequired, adminOnly := AuthFor(secret)
	SetOpsRoutes(e)
	api := e.Group("/api/v1")
	SetAssessmentRoutes(api, rest.NewAssessmentHandler(validator.New(), svc), authRequired)
	SetStateAdminRoutes(api, rest.NewStateAdminHandler(svc), authRequired, adminOnly)
	return e
}

func token(t *testing.T, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  "rollout-controller",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func serve(e *echo.Echo, method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(""))
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestOpsRoutes(t *testing.T) {
	e := newServer("")

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/health", "").Code)

	rec := serve(e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestStateRoutes_OpenWithoutSecret(t *testing.T) {
	e := newServer("")

	rec := serve(e, http.MethodGet, "/api/v1/experiments/reviews-rollout/state", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = serve(e, http.MethodDelete, "/api/v1/experiments/reviews-rollout/state", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestStateRoutes_Auth(t *testing.T) {
	e := newServer(testSecret)

	tests := []struct {
		name   string
		method string
		bearer string
		want   int
	}{
		{"missing token", http.MethodGet, "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "not-a-jwt", http.StatusUnauthorized},
		{"reader can get", http.MethodGet, token(t, "reader"), http.StatusNotImplemented},
		{"reader cannot delete", http.MethodDelete, token(t, "reader"), http.StatusForbidden},
		{"admin can delete", http.MethodDelete, token(t, "admin"), http.StatusNotImplemented},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, tt.method, "/api/v1/experiments/reviews-rollout/state", tt.bearer)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAssessmentRoute_RequiresToken(t *testing.T) {
	e := newServer(testSecret)
	rec := serve(e, http.MethodPost, "/api/v1/assessment", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
