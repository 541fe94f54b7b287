package rest

import (
	"context"
	"errors"
	"net/http"

	"canaryAnalytics/business/analytics"
	"canaryAnalytics/domain"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	AssessmentHandler struct {
		validate *validator.Validate
		service  AssessmentService
	}

	AssessmentService interface {
		Assess(ctx context.Context, req domain.ExperimentIterationRequest) (domain.AssessmentResult, error)
	}
)

func NewAssessmentHandler(validate *validator.Validate, svc AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{
		validate: validate,
		service:  svc,
	}
}

// POST /api/v1/assessment
// body: ExperimentIterationRequest JSON
func (h *AssessmentHandler) Assess(c echo.Context) error {
	var req domain.ExperimentIterationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid body: " + err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	result, err := h.service.Assess(c.Request().Context(), req)
	if err != nil {
		return c.JSON(errorStatus(err), errorBody(err))
	}

	return c.JSON(http.StatusOK, result)
}

func errorStatus(err error) int {
	var fatal *analytics.FatalSpecError
	switch {
	case errors.As(err, &fatal):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) ResponseError {
	body := ResponseError{Message: err.Error()}
	var fatal *analytics.FatalSpecError
	if errors.As(err, &fatal) {
		body.Reason = string(fatal.Reason)
	}
	return body
}
