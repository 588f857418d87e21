package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"trading-signals/internal/apperrors"
	"trading-signals/internal/dto"
	"trading-signals/internal/parser"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupSignals(base *echo.Group) {
	v1 := base.Group("/v1/signals")
	{
		v1.POST("", h.ProcessSignal)
	}
}

// ProcessSignal accepts either the structured JSON webhook shape or the plain
// text order-fill sentence, selected by sniffing the body.
func (h *HttpAPIHandler) ProcessSignal(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("unable to read request body"))
	}

	sig, err := parseBody(body)
	if err != nil {
		return errorResponse(c, err)
	}

	result, err := h.service.SignalService.Process(ctx, sig)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("signal processed", result))
}

func parseBody(body []byte) (*parser.Signal, error) {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return nil, apperrors.NewValidationError("request body is empty")
	}

	if strings.HasPrefix(text, "{") {
		var req dto.SignalRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, apperrors.NewValidationError("request body is not valid JSON")
		}
		return parser.ParseStructured(req)
	}
	return parser.ParseText(text)
}
