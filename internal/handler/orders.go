package handler

import (
	"net/http"

	"sosstock/internal/dto"
	"sosstock/internal/middleware"
	"sosstock/internal/service"

	"github.com/gin-gonic/gin"
)

type OrdersHandler struct{ svc service.OrderService }

func NewOrdersHandler(svc service.OrderService) *OrdersHandler {
	return &OrdersHandler{svc: svc}
}

// Create godoc
// @Summary Create an order with its lines
// @Description The header and every line are stored in one transaction.
// @Tags orders
// @Accept json
// @Produce json
// @Param body body dto.CreateOrderRequest true "Order"
// @Success 201 {object} dto.OrderDetailResponse
// @Failure 422 {object} apierror.ValidationError
// @Security BearerAuth
// @Router /v1/orders [post]
func (h *OrdersHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), middleware.CurrentProfile(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary List orders, newest first
// @Tags orders
// @Produce json
// @Param status query string false "Order status"
// @Param supplier_id query string false "Supplier id"
// @Param from query string false "Created on or after, YYYY-MM-DD"
// @Param to query string false "Created on or before, YYYY-MM-DD"
// @Success 200 {array} dto.OrderSummary
// @Security BearerAuth
// @Router /v1/orders [get]
func (h *OrdersHandler) List(c *gin.Context) {
	var f dto.OrderFilter
	if !bindQuery(c, &f) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Active GET /v1/orders/active
func (h *OrdersHandler) Active(c *gin.Context) {
	resp, err := h.svc.Active(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get GET /v1/orders/:id
func (h *OrdersHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update PUT /v1/orders/:id
func (h *OrdersHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddItem POST /v1/orders/:id/items
func (h *OrdersHandler) AddItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.OrderItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddItem(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// RemoveItem DELETE /v1/orders/:id/items/:item_id
func (h *OrdersHandler) RemoveItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "item_id")
	if !ok {
		return
	}
	resp, err := h.svc.RemoveItem(c.Request.Context(), id, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel POST /v1/orders/:id/cancel
func (h *OrdersHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Cancel(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Receive godoc
// @Summary Record received quantities
// @Description Each received line adds an "in" movement to its destination location.
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order id"
// @Param body body dto.ReceiveOrderRequest true "Received lines"
// @Success 200 {object} dto.OrderDetailResponse
// @Failure 409 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/orders/{id}/receive [post]
func (h *OrdersHandler) Receive(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ReceiveOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Receive(c.Request.Context(), middleware.CurrentProfile(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PDF GET /v1/orders/:id/pdf
func (h *OrdersHandler) PDF(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	buf, ref, err := h.svc.PDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, ref+".pdf", "application/pdf", buf.Bytes())
}

// Send godoc
// @Summary Email the purchase order PDF to the supplier
// @Tags orders
// @Accept json
// @Param id path string true "Order id"
// @Param body body dto.SendOrderRequest false "Recipient override and message"
// @Success 202
// @Security BearerAuth
// @Router /v1/orders/{id}/send [post]
func (h *OrdersHandler) Send(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.SendOrderRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Send(c.Request.Context(), id, req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}
