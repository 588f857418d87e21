package http

import (
	"net/http"
	"strconv"
	"trading-signals/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupTrades(base *echo.Group) {
	v1 := base.Group("/v1/trades")
	{
		v1.GET("", h.ListTrades)
		v1.GET("/:id", h.GetTrade)
	}
}

func (h *HttpAPIHandler) ListTrades(c echo.Context) error {
	param := dto.GetTradesParam{}
	if err := c.Bind(&param); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid query parameters"))
	}

	trades, total, err := h.service.TradeService.List(c.Request().Context(), param)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("trades", map[string]interface{}{
		"trades": trades,
		"total":  total,
	}))
}

func (h *HttpAPIHandler) GetTrade(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid trade id"))
	}

	trade, err := h.service.TradeService.Get(c.Request().Context(), uint(id))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("trade", trade))
}
