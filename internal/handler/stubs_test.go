package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"sosstock/internal/auth"
	"sosstock/internal/domain"
	"sosstock/internal/dto"
	"sosstock/internal/middleware"
	"sosstock/internal/model"
	"sosstock/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() { gin.SetMode(gin.TestMode) }

// Stubs embed the service interface; calling a method a test did not
// override panics.

type stubInventory struct {
	service.InventoryService
	actor  *model.Profile
	req    dto.MovementRequest
	filter dto.MovementFilter
	err    error
}

var _ service.InventoryService = (*stubInventory)(nil)

func (s *stubInventory) RecordMovement(_ context.Context, actor *model.Profile, req dto.MovementRequest) (*dto.MovementResponse, error) {
	s.actor, s.req = actor, req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.MovementResponse{ID: uuid.NewString(), MovementType: req.MovementType, Quantity: req.Quantity}, nil
}

func (s *stubInventory) ListMovements(_ context.Context, f dto.MovementFilter) ([]dto.MovementResponse, error) {
	s.filter = f
	return []dto.MovementResponse{}, s.err
}

func (s *stubInventory) ExportMovements(_ context.Context, f dto.MovementFilter) (*bytes.Buffer, error) {
	s.filter = f
	return bytes.NewBufferString("xlsx"), s.err
}

type stubOrders struct {
	service.OrderService
	created dto.CreateOrderRequest
	sent    *dto.SendOrderRequest
	err     error
}

var _ service.OrderService = (*stubOrders)(nil)

func (s *stubOrders) Create(_ context.Context, _ *model.Profile, req dto.CreateOrderRequest) (*dto.OrderDetailResponse, error) {
	s.created = req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.OrderDetailResponse{}, nil
}

func (s *stubOrders) Get(_ context.Context, id uuid.UUID) (*dto.OrderDetailResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.OrderDetailResponse{}, nil
}

func (s *stubOrders) PDF(_ context.Context, _ uuid.UUID) (*bytes.Buffer, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return bytes.NewBufferString("%PDF-1.3"), "CMD-20240502-001", nil
}

func (s *stubOrders) Send(_ context.Context, _ uuid.UUID, req dto.SendOrderRequest) error {
	s.sent = &req
	return s.err
}

type stubAlerts struct {
	service.AlertService
	first   dto.UnreadAlertsResponse
	updates chan dto.UnreadAlertsResponse
	marked  []uuid.UUID
}

var _ service.AlertService = (*stubAlerts)(nil)

func (s *stubAlerts) Unread(context.Context) (*dto.UnreadAlertsResponse, error) {
	snap := s.first
	return &snap, nil
}

func (s *stubAlerts) Subscribe() (<-chan dto.UnreadAlertsResponse, func()) {
	return s.updates, func() {}
}

func (s *stubAlerts) MarkRead(_ context.Context, id uuid.UUID) error {
	s.marked = append(s.marked, id)
	return nil
}

type stubReports struct {
	service.ReportService
	days int
}

var _ service.ReportService = (*stubReports)(nil)

func (s *stubReports) Expiring(_ context.Context, days int) ([]dto.ExpiringRow, error) {
	s.days = days
	if days < 0 {
		errs := domain.FieldErrors{}
		errs.Add("days", "Days must be 0 or more")
		return nil, errs.Err()
	}
	return []dto.ExpiringRow{}, nil
}

// ── Request helpers ──────────────────────────────────────────────────────────

var testProfile = &model.Profile{ID: uuid.New(), Email: "op@example.com", Role: domain.RoleOperator}

// withSession stands in for JWTAuth.
func withSession(c *gin.Context) {
	c.Set(middleware.SessionKey, auth.Authenticated(testProfile, "jti-1"))
	c.Next()
}

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler(), withSession)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var errBoom = errors.New("boom")
