package handler

import (
	"io"
	"net/http"
	"time"

	"sosstock/internal/middleware"
	"sosstock/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// streamHeartbeat keeps idle proxies from closing the alert stream.
const streamHeartbeat = 25 * time.Second

type AlertsHandler struct{ svc service.AlertService }

func NewAlertsHandler(svc service.AlertService) *AlertsHandler {
	return &AlertsHandler{svc: svc}
}

// List GET /v1/alerts
func (h *AlertsHandler) List(c *gin.Context) {
	resp, err := h.svc.All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Unread godoc
// @Summary Unread alerts with the critical count
// @Tags alerts
// @Produce json
// @Success 200 {object} dto.UnreadAlertsResponse
// @Security BearerAuth
// @Router /v1/alerts/unread [get]
func (h *AlertsHandler) Unread(c *gin.Context) {
	resp, err := h.svc.Unread(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MarkRead POST /v1/alerts/:id/read
func (h *AlertsHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.MarkRead(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAllRead POST /v1/alerts/read-all
func (h *AlertsHandler) MarkAllRead(c *gin.Context) {
	resp, err := h.svc.MarkAllRead(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Stream godoc
// @Summary Server-sent events with the unread alert board
// @Description Sends the current board, then a new "alerts" event whenever it changes.
// @Tags alerts
// @Produce text/event-stream
// @Param access_token query string false "Bearer token for EventSource clients"
// @Success 200
// @Security BearerAuth
// @Router /v1/alerts/stream [get]
func (h *AlertsHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	// The stream outlives the server write timeout.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	updates, unsubscribe := h.svc.Subscribe()
	defer unsubscribe()

	first, err := h.svc.Unread(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("alerts", first)
	c.Writer.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snap, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("alerts", snap)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
	log.Debug().Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("alerts: stream closed")
}
