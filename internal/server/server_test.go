package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apikeydomain "github.com/frontdesklabs/frontdesk/internal/apikey/domain"
	apikeyservice "github.com/frontdesklabs/frontdesk/internal/apikey/service"
	auditservice "github.com/frontdesklabs/frontdesk/internal/audit/service"
	"github.com/frontdesklabs/frontdesk/internal/authorization"
	bookingrepo "github.com/frontdesklabs/frontdesk/internal/booking/repository"
	bookingservice "github.com/frontdesklabs/frontdesk/internal/booking/service"
	checkoutservice "github.com/frontdesklabs/frontdesk/internal/checkout/service"
	"github.com/frontdesklabs/frontdesk/internal/clock"
	companyrepo "github.com/frontdesklabs/frontdesk/internal/company/repository"
	companyservice "github.com/frontdesklabs/frontdesk/internal/company/service"
	"github.com/frontdesklabs/frontdesk/internal/config"
	guestrepo "github.com/frontdesklabs/frontdesk/internal/guest/repository"
	"github.com/frontdesklabs/frontdesk/internal/migration"
	nightauditrepo "github.com/frontdesklabs/frontdesk/internal/nightaudit/repository"
	nightauditservice "github.com/frontdesklabs/frontdesk/internal/nightaudit/service"
	"github.com/frontdesklabs/frontdesk/internal/observability"
	paymentrepo "github.com/frontdesklabs/frontdesk/internal/payment/repository"
	paymentservice "github.com/frontdesklabs/frontdesk/internal/payment/service"
	roomrepo "github.com/frontdesklabs/frontdesk/internal/room/repository"
	settingsrepo "github.com/frontdesklabs/frontdesk/internal/settings/repository"
	settingsservice "github.com/frontdesklabs/frontdesk/internal/settings/service"
	"github.com/frontdesklabs/frontdesk/internal/tariff"
)

type testServer struct {
	engine *gin.Engine
	keys   apikeydomain.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fixed := clock.Fixed{At: time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)}
	log := zap.NewNop()
	metrics := observability.NewMetrics()

	authz, err := authorization.New(db, log)
	require.NoError(t, err)

	settings := settingsservice.New(settingsservice.Params{
		Repo: settingsrepo.Provide(), DB: db, Logger: log,
	})
	bookingRepo := bookingrepo.Provide()
	bookings := bookingservice.New(bookingservice.Params{
		Repo: bookingRepo, Settings: settings, Clock: fixed, GenID: node, DB: db, Logger: log,
	})
	paymentRepo := paymentrepo.Provide()
	ledger := paymentservice.NewLedger(paymentservice.LedgerParams{
		Repo: paymentRepo, Clock: fixed, GenID: node, DB: db, Logger: log,
	})
	deposits := paymentservice.NewDepositManager(paymentservice.DepositParams{
		Repo: paymentRepo, Clock: fixed, GenID: node, DB: db, Metrics: metrics, Logger: log,
	})
	companyImpl := companyservice.New(companyservice.Params{
		Repo: companyrepo.Provide(), Clock: fixed, GenID: node, DB: db, Logger: log, Metrics: metrics,
	})
	recorder := auditservice.NewRecorder(auditservice.RecorderParams{
		Clock: fixed, GenID: node, DB: db, Logger: log,
	})
	checkout := checkoutservice.New(checkoutservice.Params{
		Bookings:   bookingRepo,
		Guests:     guestrepo.Provide(),
		Rooms:      roomrepo.Provide(),
		Calculator: tariff.NewCalculator(log),
		Settings:   settings,
		Ledger:     ledger,
		Deposits:   deposits,
		Poster:     companyservice.NewLedgerPoster(companyImpl),
		Audit:      recorder,
		Clock:      fixed,
		DB:         db,
		Logger:     log,
		Metrics:    metrics,
	})
	nightAudit := nightauditservice.New(nightauditservice.Params{
		Repo:     nightauditrepo.Provide(),
		Bookings: bookingRepo,
		Rooms:    roomrepo.Provide(),
		Audit:    recorder,
		Clock:    fixed,
		GenID:    node,
		DB:       db,
		Logger:   log,
		Metrics:  metrics,
	})
	keys := apikeyservice.New(apikeyservice.Params{
		Clock: fixed, GenID: node, DB: db, Logger: log,
	})

	srv := New(Params{
		Config:      config.Config{},
		DB:          db,
		Logger:      log,
		Metrics:     metrics,
		Authz:       authz,
		Settings:    settings,
		Bookings:    bookings,
		Ledger:      ledger,
		Deposits:    deposits,
		Checkout:    checkout,
		NightAudit:  nightAudit,
		Company:     companyservice.NewService(companyImpl),
		ApiKeys:     keys,
		AuditExport: auditservice.NewExportService(db),
	})

	engine := gin.New()
	engine.Use(srv.requestMetrics())
	srv.RegisterRoutes(engine)
	return &testServer{engine: engine, keys: keys}
}

func (ts *testServer) secret(t *testing.T, role string) string {
	t.Helper()
	created, err := ts.keys.Create(context.Background(), "test "+role, role, nil)
	require.NoError(t, err)
	return created.Secret
}

func (ts *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpointsAreOpen(t *testing.T) {
	ts := newTestServer(t)

	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/healthz", "", "").Code)
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/readyz", "", "").Code)

	// Gathers the custom registry and the default one; a collector
	// registered on both would fail the whole scrape.
	rec := ts.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "frontdesk_http_request_duration_seconds")
	require.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestApiRequiresBearerKey(t *testing.T) {
	ts := newTestServer(t)

	require.Equal(t, http.StatusUnauthorized,
		ts.do(http.MethodGet, "/api/settings", "", "").Code)
	require.Equal(t, http.StatusUnauthorized,
		ts.do(http.MethodGet, "/api/settings", "fd_bogus", "").Code)

	token := ts.secret(t, apikeydomain.RoleFrontDesk)
	require.Equal(t, http.StatusOK,
		ts.do(http.MethodGet, "/api/settings", token, "").Code)
}

func TestPermissionEnforcedPerRole(t *testing.T) {
	ts := newTestServer(t)
	desk := ts.secret(t, apikeydomain.RoleFrontDesk)
	auditor := ts.secret(t, apikeydomain.RoleAuditor)

	body := `{"date":"2026-03-10"}`
	require.Equal(t, http.StatusForbidden,
		ts.do(http.MethodPost, "/api/night-audit/run", desk, body).Code)

	rec := ts.do(http.MethodPost, "/api/night-audit/run", auditor, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var payload struct {
		Data struct {
			TotalBookingsPosted int `json:"total_bookings_posted"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, 0, payload.Data.TotalBookingsPosted)
}

func TestDuplicateNightAuditRunMapsToConflict(t *testing.T) {
	ts := newTestServer(t)
	auditor := ts.secret(t, apikeydomain.RoleAuditor)
	body := `{"date":"2026-03-10"}`

	require.Equal(t, http.StatusCreated,
		ts.do(http.MethodPost, "/api/night-audit/run", auditor, body).Code)
	require.Equal(t, http.StatusConflict,
		ts.do(http.MethodPost, "/api/night-audit/run", auditor, body).Code)
}

func TestSettingsUpdateRequiresManager(t *testing.T) {
	ts := newTestServer(t)
	desk := ts.secret(t, apikeydomain.RoleFrontDesk)
	manager := ts.secret(t, apikeydomain.RoleManager)

	body := `{"value":"8"}`
	require.Equal(t, http.StatusForbidden,
		ts.do(http.MethodPut, "/api/settings/service_tax_rate", desk, body).Code)
	require.Equal(t, http.StatusOK,
		ts.do(http.MethodPut, "/api/settings/service_tax_rate", manager, body).Code)
}

func TestUnknownBookingMapsToNotFound(t *testing.T) {
	ts := newTestServer(t)
	desk := ts.secret(t, apikeydomain.RoleFrontDesk)

	require.Equal(t, http.StatusNotFound,
		ts.do(http.MethodGet, "/api/bookings/12345", desk, "").Code)
	require.Equal(t, http.StatusBadRequest,
		ts.do(http.MethodGet, "/api/bookings/not-an-id", desk, "").Code)
}
