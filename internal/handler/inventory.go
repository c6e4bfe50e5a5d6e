package handler

import (
	"net/http"
	"time"

	"sosstock/internal/dto"
	"sosstock/internal/infra"
	"sosstock/internal/middleware"
	"sosstock/internal/service"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct{ svc service.InventoryService }

func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// RecordMovement godoc
// @Summary Record a stock movement and apply it to inventory
// @Tags inventory
// @Accept json
// @Produce json
// @Param body body dto.MovementRequest true "Movement"
// @Success 201 {object} dto.MovementResponse
// @Failure 409 {object} apierror.APIError "Not enough stock at the source"
// @Failure 422 {object} apierror.ValidationError
// @Security BearerAuth
// @Router /v1/inventory/movements [post]
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	var req dto.MovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordMovement(c.Request.Context(), middleware.CurrentProfile(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListMovements godoc
// @Summary Latest movements, newest first
// @Tags inventory
// @Produce json
// @Param product_id query string false "Product id"
// @Param location_id query string false "Source or destination location id"
// @Param movement_type query string false "in, out, transfer, adjustment or consumption"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD, inclusive"
// @Success 200 {array} dto.MovementResponse
// @Security BearerAuth
// @Router /v1/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	var f dto.MovementFilter
	if !bindQuery(c, &f) {
		return
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportMovements GET /v1/inventory/movements/export
func (h *InventoryHandler) ExportMovements(c *gin.Context) {
	var f dto.MovementFilter
	if !bindQuery(c, &f) {
		return
	}
	buf, err := h.svc.ExportMovements(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	name := "movements-" + time.Now().UTC().Format("20060102") + ".xlsx"
	attachment(c, name, infra.XLSXContentType, buf.Bytes())
}

// Summary GET /v1/inventory/summary
func (h *InventoryHandler) Summary(c *gin.Context) {
	resp, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
