package rest

import (
	"context"
	"errors"
	"net/http"

	"canaryAnalytics/business/analytics"
	"canaryAnalytics/domain"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type (
	StateAdminHandler struct {
		service StateService
	}

	StateService interface {
		State(ctx context.Context, name string) (*domain.LastState, error)
		ResetState(ctx context.Context, name string) error
	}
)

func NewStateAdminHandler(svc StateService) *StateAdminHandler {
	return &StateAdminHandler{service: svc}
}

// GET /api/v1/experiments/:name/state
func (h *StateAdminHandler) GetState(c echo.Context) error {
	name := c.Param("name")

	state, err := h.service.State(c.Request().Context(), name)
	if errors.Is(err, analytics.ErrStateStoreDisabled) {
		return c.JSON(http.StatusNotImplemented, ResponseError{Message: err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	if state == nil {
		return c.JSON(http.StatusNotFound, ResponseError{Message: "no state stored for experiment " + name})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(state))
}

// DELETE /api/v1/experiments/:name/state
func (h *StateAdminHandler) DeleteState(c echo.Context) error {
	name := c.Param("name")

	err := h.service.ResetState(c.Request().Context(), name)
	if errors.Is(err, analytics.ErrStateStoreDisabled) {
		return c.JSON(http.StatusNotImplemented, ResponseError{Message: err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("experiment state reset"))
}
