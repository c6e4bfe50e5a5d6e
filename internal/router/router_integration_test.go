//go:build integration

package router

// End-to-end tests against real Postgres and Redis started with
// testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sosstock/internal/auth"
	"sosstock/internal/config"
	"sosstock/internal/infra"
	"sosstock/internal/metrics"
	"sosstock/internal/repository"
	"sosstock/internal/service"
	"sosstock/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const adminPassword = "admin-e2e-pass"

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// expect asserts the status and decodes the body into dest when given.
func expect(t *testing.T, resp *http.Response, status int, dest any) {
	t.Helper()
	if resp.StatusCode != status {
		var raw bytes.Buffer
		_, _ = raw.ReadFrom(resp.Body)
		resp.Body.Close()
		require.Equalf(t, status, resp.StatusCode, "body: %s", raw.String())
	}
	if dest == nil {
		resp.Body.Close()
		return
	}
	decodeJSON(t, resp, dest)
}

type idBody struct {
	ID string `json:"id"`
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
	db     *gorm.DB
	rdb    *redis.Client
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("sosstock_test"),
		tcPostgres.WithUsername("sosstock"),
		tcPostgres.WithPassword("sosstock"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(context.Background()) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                  "test",
		JWTSecret:            "test-secret-key",
		JWTExpirationHours:   8,
		JWTRefreshHours:      24,
		ResetTokenMinutes:    30,
		DatabaseURL:          pgURL,
		RedisURL:             rdURL,
		CORSOrigin:           "*",
		PublicURL:            "http://localhost:5173",
		WorkerPoolSize:       1,
		PDFStoragePath:       t.TempDir(),
		CompanyName:          "SOSStock",
		DashboardCacheTTLSec: 60,
		ExpiringWithinDays:   30,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))
	readDB, err := infra.NewReadDB(db)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Exec(`INSERT INTO profiles (email, full_name, password_hash, role, created_at, updated_at)
		VALUES ('admin@e2e.test', 'Admin E2E', ?, 'admin', now(), now())`, string(hash)).Error)

	m := metrics.New()
	dashboard := service.NewDashboardInvalidator(infra.NewRedisCache(rdb, CachePrefix))
	alerts := service.NewAlertService(repository.NewAlertRepository(db), dashboard, m)
	go alerts.Run(ctx, infra.NewListener(cfg.DatabaseURL, infra.AlertsChannel))

	r := New(cfg, Deps{
		DB:      db,
		ReadDB:  readDB,
		Redis:   rdb,
		Tokens:  auth.NewStore(rdb),
		Emails:  worker.NewDispatcher(rdb),
		Metrics: m,
		Alerts:  alerts,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{
		server: srv,
		token:  login(t, srv, "admin@e2e.test", adminPassword),
		db:     db,
		rdb:    rdb,
	}
}

func login(t *testing.T, srv *httptest.Server, email, password string) string {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/v1/auth/login",
		jsonBody(t, map[string]string{"email": email, "password": password}), "")
	var body struct {
		AccessToken string `json:"access_token"`
	}
	expect(t, resp, http.StatusOK, &body)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

// seedCatalog creates a location, a product and a supplier.
func (e *testEnv) seedCatalog(t *testing.T) (location, product, supplier string) {
	t.Helper()
	var loc, prod, sup idBody
	expect(t, do(t, e.server, http.MethodPost, "/v1/locations",
		jsonBody(t, map[string]any{"name": "Kitchen"}), e.token), http.StatusCreated, &loc)
	expect(t, do(t, e.server, http.MethodPost, "/v1/products",
		jsonBody(t, map[string]any{"name": "Flour", "min_stock_level": 5, "warning_stock_level": 10}), e.token),
		http.StatusCreated, &prod)
	expect(t, do(t, e.server, http.MethodPost, "/v1/suppliers",
		jsonBody(t, map[string]any{"name": "Mill Co", "email": "orders@mill.test"}), e.token),
		http.StatusCreated, &sup)
	return loc.ID, prod.ID, sup.ID
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_MovementsUpdateInventory(t *testing.T) {
	env := setupTestEnv(t)
	loc, prod, _ := env.seedCatalog(t)

	resp := do(t, env.server, http.MethodPost, "/v1/inventory/movements", jsonBody(t, map[string]any{
		"movementType": "in", "productId": prod, "destinationLocationId": loc, "quantity": 12,
	}), env.token)
	expect(t, resp, http.StatusCreated, nil)

	// Taking more than is there is refused and leaves stock untouched.
	resp = do(t, env.server, http.MethodPost, "/v1/inventory/movements", jsonBody(t, map[string]any{
		"movementType": "out", "productId": prod, "sourceLocationId": loc, "quantity": 50,
	}), env.token)
	expect(t, resp, http.StatusConflict, nil)

	resp = do(t, env.server, http.MethodPost, "/v1/inventory/movements", jsonBody(t, map[string]any{
		"movementType": "consumption", "productId": prod, "sourceLocationId": loc, "quantity": 4,
	}), env.token)
	expect(t, resp, http.StatusCreated, nil)

	var detail struct {
		TotalItems  int    `json:"total_items"`
		StockStatus string `json:"stock_status"`
	}
	expect(t, do(t, env.server, http.MethodGet, "/v1/locations/"+loc, nil, env.token), http.StatusOK, &detail)
	assert.Equal(t, 8, detail.TotalItems)
	assert.Equal(t, "warning", detail.StockStatus)

	var movements []struct {
		MovementType string `json:"movement_type"`
		Quantity     int    `json:"quantity"`
	}
	expect(t, do(t, env.server, http.MethodGet, "/v1/inventory/movements?product_id="+prod, nil, env.token),
		http.StatusOK, &movements)
	require.Len(t, movements, 2)
	assert.Equal(t, "consumption", movements[0].MovementType)

	resp = do(t, env.server, http.MethodGet, "/v1/inventory/movements/export", nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
	resp.Body.Close()
}

func TestE2E_OrderReception(t *testing.T) {
	env := setupTestEnv(t)
	loc, prod, sup := env.seedCatalog(t)

	var order struct {
		ID              string `json:"id"`
		ReferenceNumber string `json:"reference_number"`
		Status          string `json:"status"`
		Items           []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	resp := do(t, env.server, http.MethodPost, "/v1/orders", jsonBody(t, map[string]any{
		"supplier_id": sup,
		"status":      "ordered",
		"items": []map[string]any{
			{"product_id": prod, "quantity": 10, "unit_price": "1.20", "destination_location_id": loc},
		},
	}), env.token)
	expect(t, resp, http.StatusCreated, &order)
	assert.Regexp(t, `^CMD-\d{8}-\d{3}$`, order.ReferenceNumber)
	assert.Equal(t, "ordered", order.Status)
	require.Len(t, order.Items, 1)

	var active []idBody
	expect(t, do(t, env.server, http.MethodGet, "/v1/orders/active", nil, env.token), http.StatusOK, &active)
	require.Len(t, active, 1)

	var received struct {
		Status        string `json:"status"`
		CompletionPct *int   `json:"completion_pct"`
		CanReceive    bool   `json:"can_receive"`
	}
	resp = do(t, env.server, http.MethodPost, "/v1/orders/"+order.ID+"/receive", jsonBody(t, map[string]any{
		"items": []map[string]any{{"item_id": order.Items[0].ID, "quantity": 10}},
	}), env.token)
	expect(t, resp, http.StatusOK, &received)
	assert.Equal(t, "received", received.Status)
	require.NotNil(t, received.CompletionPct)
	assert.Equal(t, 100, *received.CompletionPct)
	assert.False(t, received.CanReceive)

	// A received order can no longer be cancelled.
	expect(t, do(t, env.server, http.MethodPost, "/v1/orders/"+order.ID+"/cancel", nil, env.token), http.StatusConflict, nil)

	var detail struct {
		TotalItems int `json:"total_items"`
	}
	expect(t, do(t, env.server, http.MethodGet, "/v1/locations/"+loc, nil, env.token), http.StatusOK, &detail)
	assert.Equal(t, 10, detail.TotalItems)

	resp = do(t, env.server, http.MethodGet, "/v1/orders/"+order.ID+"/pdf", nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	resp.Body.Close()

	expect(t, do(t, env.server, http.MethodPost, "/v1/orders/"+order.ID+"/send", nil, env.token), http.StatusAccepted, nil)
	n, err := env.rdb.LLen(context.Background(), worker.QueueEmail).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestE2E_DashboardCache(t *testing.T) {
	env := setupTestEnv(t)
	loc, prod, _ := env.seedCatalog(t)
	ctx := context.Background()

	var dash struct {
		TotalItems     int `json:"total_items"`
		LocationsCount int `json:"locations_count"`
	}
	expect(t, do(t, env.server, http.MethodGet, "/v1/dashboard", nil, env.token), http.StatusOK, &dash)
	assert.Equal(t, 1, dash.LocationsCount)
	assert.Zero(t, dash.TotalItems)

	key := CachePrefix + "dashboard:summary"
	exists, err := env.rdb.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	// A movement invalidates the cached figures.
	expect(t, do(t, env.server, http.MethodPost, "/v1/inventory/movements", jsonBody(t, map[string]any{
		"movementType": "in", "productId": prod, "destinationLocationId": loc, "quantity": 3,
	}), env.token), http.StatusCreated, nil)
	exists, err = env.rdb.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	expect(t, do(t, env.server, http.MethodGet, "/v1/dashboard", nil, env.token), http.StatusOK, &dash)
	assert.Equal(t, 3, dash.TotalItems)
}

func TestE2E_RolesAndSessions(t *testing.T) {
	env := setupTestEnv(t)

	expect(t, do(t, env.server, http.MethodGet, "/v1/dashboard", nil, ""), http.StatusUnauthorized, nil)

	expect(t, do(t, env.server, http.MethodPost, "/v1/users", jsonBody(t, map[string]any{
		"email": "op@e2e.test", "password": "operator-pass", "role": "operator",
	}), env.token), http.StatusCreated, nil)
	opToken := login(t, env.server, "op@e2e.test", "operator-pass")

	expect(t, do(t, env.server, http.MethodGet, "/v1/locations", nil, opToken), http.StatusOK, nil)
	expect(t, do(t, env.server, http.MethodPost, "/v1/locations",
		jsonBody(t, map[string]any{"name": "Bar"}), opToken), http.StatusForbidden, nil)
	expect(t, do(t, env.server, http.MethodGet, "/v1/reports/to-order", nil, opToken), http.StatusForbidden, nil)

	var sess struct {
		Status  string `json:"status"`
		IsAdmin bool   `json:"is_admin"`
	}
	expect(t, do(t, env.server, http.MethodGet, "/v1/auth/session", nil, opToken), http.StatusOK, &sess)
	assert.Equal(t, "authenticated", sess.Status)
	assert.False(t, sess.IsAdmin)

	expect(t, do(t, env.server, http.MethodPost, "/v1/auth/logout", nil, opToken), http.StatusNoContent, nil)
	expect(t, do(t, env.server, http.MethodGet, "/v1/auth/session", nil, opToken), http.StatusUnauthorized, nil)
}

func TestE2E_AlertFeed(t *testing.T) {
	env := setupTestEnv(t)

	require.NoError(t, env.db.Exec(`INSERT INTO alerts (alert_type, severity, message, is_read, created_at)
		VALUES ('low_stock', 'critical', 'Flour is below its minimum', false, now())`).Error)

	type unread struct {
		UnreadCount   int `json:"unread_count"`
		CriticalCount int `json:"critical_count"`
	}
	// The NOTIFY-driven reload lands asynchronously.
	require.Eventually(t, func() bool {
		var u unread
		resp := do(t, env.server, http.MethodGet, "/v1/alerts/unread", nil, env.token)
		decodeJSON(t, resp, &u)
		return u.UnreadCount == 1 && u.CriticalCount == 1
	}, 10*time.Second, 100*time.Millisecond)

	var marked struct {
		Marked int `json:"marked"`
	}
	expect(t, do(t, env.server, http.MethodPost, "/v1/alerts/read-all", nil, env.token), http.StatusOK, &marked)
	assert.Equal(t, 1, marked.Marked)

	var u unread
	expect(t, do(t, env.server, http.MethodGet, "/v1/alerts/unread", nil, env.token), http.StatusOK, &u)
	assert.Zero(t, u.UnreadCount)
}
