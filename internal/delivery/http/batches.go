package http

import (
	"net/http"
	"strconv"
	"trading-signals/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupBatches(base *echo.Group) {
	v1 := base.Group("/v1/batches")
	{
		v1.POST("", h.CreateBatch)
		v1.GET("", h.ListBatches)
		v1.GET("/:id", h.GetBatch)
		v1.PATCH("/:id", h.UpdateBatch)
		v1.DELETE("/:id", h.DeleteBatch)

		v1.PUT("/:id/symbols", h.ReplaceBatchSymbols)
		v1.POST("/:id/symbols", h.AddBatchSymbol)
		v1.DELETE("/:id/symbols/:symbol", h.RemoveBatchSymbol)

		v1.POST("/:id/rebuild", h.RebuildBatch)
		v1.POST("/rebuild-all", h.RebuildAllBatches)

		h.SetupAnalytics(v1)
	}
}

func batchID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func (h *HttpAPIHandler) CreateBatch(c echo.Context) error {
	req := new(dto.CreateBatchRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	batch, err := h.service.BatchService.Create(c.Request().Context(), *req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, dto.NewBaseResponse(http.StatusCreated, "batch created", batch))
}

func (h *HttpAPIHandler) ListBatches(c echo.Context) error {
	batches, err := h.service.BatchService.List(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("batches", batches))
}

func (h *HttpAPIHandler) GetBatch(c echo.Context) error {
	id, ok := batchID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid batch id"))
	}

	batch, err := h.service.BatchService.Get(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("batch", batch))
}

func (h *HttpAPIHandler) UpdateBatch(c echo.Context) error {
	id, ok := batchID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid batch id"))
	}

	req := new(dto.UpdateBatchRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	batch, err := h.service.BatchService.Update(c.Request().Context(), id, *req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("batch updated", batch))
}

func (h *HttpAPIHandler) DeleteBatch(c echo.Context) error {
	id, ok := batchID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid batch id"))
	}

	if err := h.service.BatchService.Delete(c.Request().Context(), id); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("batch deleted", nil))
}

func (h *HttpAPIHandler) ReplaceBatchSymbols(c echo.Context) error {
	id, ok := batchID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid batch id"))
	}

	req := new(dto.ReplaceSymbolsRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	batch, err := h.service.BatchService.ReplaceSymbols(c.Request().Context(), id, req.Symbols)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("batch symbols replaced", batch))
}

func (h *HttpAPIHandler) AddBatchSymbol(c echo.Context) error {
	id, ok := batchID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid batch id"))
	}

	req := new(dto.AddSymbolRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	batch, err := h.service.BatchService.AddSymbol(c.Request().Context(), id, req.Symbol)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("batch symbol added", batch))
}

func (h *HttpAPIHandler) RemoveBatchSymbol(c echo.Context) error {
	id, ok := batchID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid batch id"))
	}

	batch, err := h.service.BatchService.RemoveSymbol(c.Request().Context(), id, c.Param("symbol"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("batch symbol removed", batch))
}

func (h *HttpAPIHandler) RebuildBatch(c echo.Context) error {
	id, ok := batchID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid batch id"))
	}

	if err := h.service.BatchService.Rebuild(c.Request().Context(), id); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("batch log rebuilt", nil))
}

func (h *HttpAPIHandler) RebuildAllBatches(c echo.Context) error {
	if err := h.service.BatchService.RebuildAll(c.Request().Context()); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("all batch logs rebuilt", nil))
}
