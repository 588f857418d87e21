package http

import (
	"context"
	"errors"
	"net/http"
	"trading-signals/internal/apperrors"
	"trading-signals/internal/dto"
	"trading-signals/internal/service"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type HttpAPIHandler struct {
	echo      *echo.Echo
	validator *goValidator.Validate
	service   *service.Service
}

func NewHttpAPIHandler(ctx context.Context, echo *echo.Echo, validator *goValidator.Validate, service *service.Service) *HttpAPIHandler {
	return &HttpAPIHandler{
		echo:      echo,
		validator: validator,
		service:   service,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	base := h.echo.Group("/api")
	h.SetupSignals(base)
	h.SetupBatches(base)
	h.SetupTrades(base)
}

// errorResponse maps the error taxonomy onto status codes. Storage detail is
// logged upstream, never serialized to the caller.
func errorResponse(c echo.Context, err error) error {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		return c.JSON(http.StatusInternalServerError, dto.NewInternalErrorResponse("internal error"))
	}

	switch appErr.Kind {
	case apperrors.KindParse, apperrors.KindValidation:
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(appErr.Message))
	case apperrors.KindNotFound:
		return c.JSON(http.StatusNotFound, dto.NewNotFoundResponse(appErr.Message))
	default:
		return c.JSON(http.StatusInternalServerError, dto.NewInternalErrorResponse("internal error"))
	}
}
