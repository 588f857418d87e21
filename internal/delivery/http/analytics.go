package http

import (
	"net/http"
	"strconv"
	"trading-signals/internal/dto"

	"github.com/labstack/echo/v4"
)

// SetupAnalytics mounts the read-only views under a batch.
func (h *HttpAPIHandler) SetupAnalytics(batches *echo.Group) {
	batches.GET("/:id/summary", h.BatchSummary)
	batches.GET("/:id/log", h.BatchTradeLog)
	batches.GET("/:id/capital", h.BatchCapitalSeries)
	batches.GET("/:id/capital-daily", h.BatchDailyCapitalSeries)
	batches.GET("/:id/trades-daily", h.BatchDailyTradeCounts)
	batches.GET("/:id/trade-count", h.BatchCumulativeTradeCounts)
	batches.GET("/:id/symbols-breakdown", h.BatchSymbolBreakdown)
	batches.GET("/:id/drawdown", h.BatchDrawdownSeries)
}

func (h *HttpAPIHandler) BatchSummary(c echo.Context) error {
	id, ok := batchID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid batch id"))
	}

	summary, err := h.service.AnalyticsService.Summary(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("batch summary", summary))
}

func (h *HttpAPIHandler) BatchTradeLog(c echo.Context) error {
	id, ok := batchID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid batch id"))
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	log, err := h.service.AnalyticsService.TradeLog(c.Request().Context(), id, page, limit)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("batch trade log", log))
}

func (h *HttpAPIHandler) BatchCapitalSeries(c echo.Context) error {
	id, ok := batchID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid batch id"))
	}

	points, err := h.service.AnalyticsService.CapitalSeries(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("capital series", points))
}

func (h *HttpAPIHandler) BatchDailyCapitalSeries(c echo.Context) error {
	id, ok := batchID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid batch id"))
	}

	points, err := h.service.AnalyticsService.DailyCapitalSeries(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("daily capital series", points))
}

func (h *HttpAPIHandler) BatchDailyTradeCounts(c echo.Context) error {
	id, ok := batchID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid batch id"))
	}

	counts, err := h.service.AnalyticsService.DailyTradeCounts(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("daily trade counts", counts))
}

func (h *HttpAPIHandler) BatchCumulativeTradeCounts(c echo.Context) error {
	id, ok := batchID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid batch id"))
	}

	counts, err := h.service.AnalyticsService.CumulativeTradeCounts(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("cumulative trade counts", counts))
}

func (h *HttpAPIHandler) BatchSymbolBreakdown(c echo.Context) error {
	id, ok := batchID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid batch id"))
	}

	breakdown, err := h.service.AnalyticsService.SymbolBreakdown(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("symbol breakdown", breakdown))
}

func (h *HttpAPIHandler) BatchDrawdownSeries(c echo.Context) error {
	id, ok := batchID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid batch id"))
	}

	points, err := h.service.AnalyticsService.DrawdownSeries(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("drawdown series", points))
}
