package handler

import (
	"net/http"
	"strconv"
	"time"

	"sosstock/internal/apierror"
	"sosstock/internal/infra"
	"sosstock/internal/service"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct{ svc service.DashboardService }

func NewDashboardHandler(svc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Get godoc
// @Summary Dashboard counters and locations
// @Tags dashboard
// @Produce json
// @Param search query string false "Location or product name contains"
// @Success 200 {object} dto.DashboardResponse
// @Security BearerAuth
// @Router /v1/dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Reports Handler ──────────────────────────────────────────────────────────

type ReportsHandler struct {
	svc         service.ReportService
	defaultDays int
}

func NewReportsHandler(svc service.ReportService, defaultDays int) *ReportsHandler {
	return &ReportsHandler{svc: svc, defaultDays: defaultDays}
}

// days reads ?days=, falling back to the configured window.
func (h *ReportsHandler) days(c *gin.Context) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return h.defaultDays, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("days must be a number"))
		return 0, false
	}
	return n, true
}

// ToOrder GET /v1/reports/to-order
func (h *ReportsHandler) ToOrder(c *gin.Context) {
	resp, err := h.svc.ToOrder(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Expiring GET /v1/reports/expiring?days=30
func (h *ReportsHandler) Expiring(c *gin.Context) {
	days, ok := h.days(c)
	if !ok {
		return
	}
	resp, err := h.svc.Expiring(c.Request.Context(), days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Workbook godoc
// @Summary Inventory workbook with stock, reorder and expiry sheets
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param days query int false "Expiry window in days"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /v1/reports/inventory.xlsx [get]
func (h *ReportsHandler) Workbook(c *gin.Context) {
	days, ok := h.days(c)
	if !ok {
		return
	}
	buf, err := h.svc.InventoryWorkbook(c.Request.Context(), days)
	if err != nil {
		respondError(c, err)
		return
	}
	name := "inventory-" + time.Now().UTC().Format("20060102") + ".xlsx"
	attachment(c, name, infra.XLSXContentType, buf.Bytes())
}
