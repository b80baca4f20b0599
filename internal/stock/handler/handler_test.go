package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mattressworks/stockboard/internal/stock/client"
	"github.com/mattressworks/stockboard/internal/stock/domain"
	"github.com/mattressworks/stockboard/internal/stock/handler"
	"github.com/mattressworks/stockboard/internal/stock/service"
	"github.com/mattressworks/stockboard/pkg/config"
	"github.com/mattressworks/stockboard/pkg/httputil"
	"github.com/mattressworks/stockboard/pkg/logger"
	"github.com/mattressworks/stockboard/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryAudit struct {
	entries []domain.AuditEntry
}

func (m *memoryAudit) Create(_ context.Context, entry *domain.AuditEntry) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryAudit) List(_ context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error) {
	end := filter.Offset + filter.Limit
	if end > len(m.entries) {
		end = len(m.entries)
	}
	if filter.Offset >= end {
		return []domain.AuditEntry{}, int64(len(m.entries)), nil
	}
	return m.entries[filter.Offset:end], int64(len(m.entries)), nil
}

type testEnv struct {
	api    *testutil.FakeStockAPI
	router http.Handler
	audit  *memoryAudit
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	api := testutil.NewFakeStockAPI(t)
	api.LoadScenario(testutil.NewMattressScenario())

	log := logger.Nop()
	remote := client.New(&config.StockAPIConfig{
		BaseURL:        api.URL(),
		Timeout:        2 * time.Second,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}, nil, log)

	audit := &memoryAudit{}
	dashboard := service.NewDashboardService(remote, nil, nil, nil, time.Minute, log)
	stock := service.NewStockService(remote, dashboard, audit, nil, log)
	reports := service.NewReportService(dashboard, remote, nil, log)

	dashboardHandler := handler.NewDashboardHandler(dashboard, log)
	stockHandler := handler.NewStockHandler(stock, dashboard, log)
	reportHandler := handler.NewReportHandler(reports, log)
	auditHandler := handler.NewAuditHandler(stock, log)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/dashboard", dashboardHandler.GetStats)
		r.Post("/dashboard/refresh", dashboardHandler.Refresh)
		r.Get("/materials", dashboardHandler.ListMaterials)
		r.Post("/materials", stockHandler.CreateMaterial)
		r.Post("/materials/{id}/add", stockHandler.AddQuantity)
		r.Post("/materials/{id}/subtract", stockHandler.SubtractQuantity)
		r.Post("/materials/{id}/defects", stockHandler.RecordDefect)
		r.Delete("/materials/{id}", stockHandler.DeleteMaterial)
		r.Get("/groups/tree", dashboardHandler.GetGroupTree)
		r.Get("/alerts", dashboardHandler.ListAlerts)
		r.Get("/products", dashboardHandler.ListProducts)
		r.Post("/products", stockHandler.CreateProduct)
		r.Put("/products/{id}/materials", stockHandler.AlterMaterials)
		r.Get("/production", dashboardHandler.ListProduction)
		r.Get("/production/{id}", dashboardHandler.GetProduction)
		r.Get("/production/{id}/shortfall", dashboardHandler.GetShortfall)
		r.Post("/production/{id}/produce", stockHandler.Produce)
		r.Get("/transactions", stockHandler.ListTransactions)
		r.Get("/reports/{name}", reportHandler.Download)
		r.Get("/audit", auditHandler.List)
	})

	return &testEnv{api: api, router: r, audit: audit}
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	req := testutil.WithUser(testutil.NewHTTPRequest(method, path, body), "user-1", "manager")
	return testutil.ExecuteRequest(e.router, req)
}

func TestDashboardHandler_GetStats(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/api/v1/dashboard", nil)

	testutil.AssertStatus(t, rr, http.StatusOK)
	var stats map[string]interface{}
	testutil.ParseData(t, rr, &stats)
	assert.Equal(t, 3.0, stats["total_materials"])
	assert.Equal(t, 1.0, stats["active_alerts"])
	assert.Equal(t, "1012.5", stats["total_value"])
	assert.Equal(t, 1.0, stats["producible_products"])
}

func TestDashboardHandler_Refresh(t *testing.T) {
	env := newTestEnv(t)

	testutil.AssertStatus(t, env.do(http.MethodGet, "/api/v1/dashboard", nil), http.StatusOK)
	testutil.AssertStatus(t, env.do(http.MethodPost, "/api/v1/dashboard/refresh", nil), http.StatusOK)

	assert.Equal(t, 2, env.api.RequestCount(http.MethodGet, "/api/v1/stock"))
}

func TestDashboardHandler_ListMaterials(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?group=g-raw", 2},
		{"?alerting=true", 1},
		{"?alerting=false", 3},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := env.do(http.MethodGet, "/api/v1/materials"+tt.query, nil)

			testutil.AssertStatus(t, rr, http.StatusOK)
			var materials []domain.Material
			testutil.ParseData(t, rr, &materials)
			assert.Len(t, materials, tt.want)
		})
	}

	rr := env.do(http.MethodGet, "/api/v1/materials?alerting=maybe", nil)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestDashboardHandler_TreeAlertsProducts(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/api/v1/groups/tree", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	var tree []map[string]interface{}
	testutil.ParseData(t, rr, &tree)
	require.Len(t, tree, 2)

	rr = env.do(http.MethodGet, "/api/v1/alerts", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	var alerts []domain.StockAlert
	testutil.ParseData(t, rr, &alerts)
	require.Len(t, alerts, 1)
	assert.Equal(t, "m-springs", alerts[0].MaterialID)

	rr = env.do(http.MethodGet, "/api/v1/products", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	var products []domain.Product
	testutil.ParseData(t, rr, &products)
	assert.Len(t, products, 2)
}

func TestDashboardHandler_Production(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/api/v1/production", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	var summaries []domain.ProductionSummary
	testutil.ParseData(t, rr, &summaries)
	require.Len(t, summaries, 2)

	rr = env.do(http.MethodGet, "/api/v1/production/p-pocket", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	var pocket domain.ProductionSummary
	testutil.ParseData(t, rr, &pocket)
	assert.Equal(t, 0, pocket.PossibleUnits)
	assert.Equal(t, []string{"Pocket springs"}, pocket.LimitingMaterials)

	rr = env.do(http.MethodGet, "/api/v1/production/p-none", nil)
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestDashboardHandler_GetShortfall(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/api/v1/production/p-pocket/shortfall?units=1", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	var shortages []domain.Shortage
	testutil.ParseData(t, rr, &shortages)
	require.Len(t, shortages, 1)
	assert.Equal(t, "m-springs", shortages[0].MaterialID)
	assert.Equal(t, 50.0, shortages[0].Missing)

	testutil.AssertStatus(t, env.do(http.MethodGet, "/api/v1/production/p-pocket/shortfall", nil), http.StatusBadRequest)
	testutil.AssertStatus(t, env.do(http.MethodGet, "/api/v1/production/p-pocket/shortfall?units=0", nil), http.StatusBadRequest)
}

func TestStockHandler_MaterialLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/materials", map[string]interface{}{
		"name":            "Latex",
		"unit":            "kg",
		"cost_per_unit":   "7.10",
		"available":       10,
		"min_stock_limit": 4,
	})
	testutil.AssertStatus(t, rr, http.StatusCreated)
	var created domain.Material
	testutil.ParseData(t, rr, &created)
	require.NotEmpty(t, created.ID)

	rr = env.do(http.MethodPost, "/api/v1/materials/"+created.ID+"/add", map[string]interface{}{"quantity": 5})
	testutil.AssertStatus(t, rr, http.StatusOK)
	var updated domain.Material
	testutil.ParseData(t, rr, &updated)
	assert.Equal(t, 15.0, updated.Available)

	rr = env.do(http.MethodPost, "/api/v1/materials/"+created.ID+"/subtract", map[string]interface{}{"quantity": 3})
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = env.do(http.MethodPost, "/api/v1/materials/"+created.ID+"/defects", map[string]interface{}{"quantity": 1, "note": "torn"})
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = env.do(http.MethodDelete, "/api/v1/materials/"+created.ID, nil)
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	assert.Len(t, env.audit.entries, 5)
}

func TestStockHandler_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/materials/m-foam/add", map[string]interface{}{"quantity": -2})
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	code, details := testutil.ParseError(t, rr)
	assert.Equal(t, "VALIDATION_ERROR", code)
	assert.Contains(t, details, "quantity")

	rr = env.do(http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name":      "Broken",
		"materials": []map[string]interface{}{{"material_id": "", "quantity": 0}},
	})
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	_, details = testutil.ParseError(t, rr)
	assert.Contains(t, details, "materials[0].material_id")
	assert.Contains(t, details, "materials[0].quantity")

	req := testutil.WithUser(httptest.NewRequest(http.MethodPost, "/api/v1/materials", strings.NewReader("{not json")), "user-1", "manager")
	rr = testutil.ExecuteRequest(env.router, req)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	assert.Empty(t, env.api.Requests())
}

func TestStockHandler_RemoteErrors(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/materials/m-missing/add", map[string]interface{}{"quantity": 1})
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	rr = env.do(http.MethodPost, "/api/v1/materials/m-cover/subtract", map[string]interface{}{"quantity": 100})
	testutil.AssertStatus(t, rr, http.StatusConflict)

	env.api.FailNext(503)
	rr = env.do(http.MethodPost, "/api/v1/materials/m-cover/add", map[string]interface{}{"quantity": 1})
	testutil.AssertStatus(t, rr, http.StatusBadGateway)
}

func TestStockHandler_Products(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name":       "Kids 70x140",
		"dimensions": "70x140x10",
		"materials":  []map[string]interface{}{{"material_id": "m-foam", "quantity": 8}},
	})
	testutil.AssertStatus(t, rr, http.StatusCreated)
	var product domain.Product
	testutil.ParseData(t, rr, &product)

	rr = env.do(http.MethodPut, "/api/v1/products/"+product.ID+"/materials", map[string]interface{}{
		"materials": []map[string]interface{}{{"material_id": "m-foam", "quantity": 8}, {"material_id": "m-cover", "quantity": 1}},
	})
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.ParseData(t, rr, &product)
	assert.Len(t, product.Materials, 2)
}

func TestStockHandler_Produce(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/production/p-classic/produce", map[string]interface{}{"units": 1})
	testutil.AssertStatus(t, rr, http.StatusOK)
	var summary domain.ProductionSummary
	testutil.ParseData(t, rr, &summary)
	assert.Equal(t, 3, summary.PossibleUnits)

	rr = env.do(http.MethodPost, "/api/v1/production/p-classic/produce", map[string]interface{}{"units": 10})
	testutil.AssertStatus(t, rr, http.StatusConflict)
	code, details := testutil.ParseError(t, rr)
	assert.Equal(t, "CONFLICT", code)
	assert.Equal(t, "need 250, have 75, missing 175", details["m-foam"])

	rr = env.do(http.MethodPost, "/api/v1/production/p-classic/produce", map[string]interface{}{"units": 0})
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestStockHandler_ListTransactions(t *testing.T) {
	env := newTestEnv(t)
	scenario := testutil.NewMattressScenario()
	factory := testutil.NewFixtureFactory()
	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	env.api.SetTransactions([]domain.Transaction{
		factory.Transaction(scenario.Foam, domain.TransactionAdd, 10, at),
		factory.Transaction(scenario.Cover, domain.TransactionAdd, 2, at),
	})

	rr := env.do(http.MethodGet, "/api/v1/transactions?material_id=m-cover&from=2026-01-01T00:00:00Z", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	var txs []domain.Transaction
	testutil.ParseData(t, rr, &txs)
	require.Len(t, txs, 1)
	assert.Equal(t, "m-cover", txs[0].MaterialID)

	testutil.AssertStatus(t, env.do(http.MethodGet, "/api/v1/transactions?from=yesterday", nil), http.StatusBadRequest)
	testutil.AssertStatus(t, env.do(http.MethodGet,
		"/api/v1/transactions?from=2026-02-02T00:00:00Z&to=2026-02-01T00:00:00Z", nil), http.StatusBadRequest)
}

func TestReportHandler_Download(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path        string
		contentType string
		extension   string
	}{
		{"/api/v1/reports/stock?format=xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ".xlsx"},
		{"/api/v1/reports/alerts?format=csv", "text/csv; charset=utf-8", ".csv"},
		{"/api/v1/reports/production?format=pdf", "application/pdf", ".pdf"},
		{"/api/v1/reports/transactions?format=csv", "text/csv; charset=utf-8", ".csv"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := env.do(http.MethodGet, tt.path, nil)

			testutil.AssertStatus(t, rr, http.StatusOK)
			assert.Equal(t, tt.contentType, rr.Header().Get("Content-Type"))
			disposition := rr.Header().Get("Content-Disposition")
			assert.True(t, strings.HasPrefix(disposition, "attachment; filename="))
			assert.Contains(t, disposition, tt.extension)
			assert.NotZero(t, rr.Body.Len())
		})
	}

	testutil.AssertStatus(t, env.do(http.MethodGet, "/api/v1/reports/stock?format=pdf", nil), http.StatusBadRequest)
	testutil.AssertStatus(t, env.do(http.MethodGet, "/api/v1/reports/payroll?format=csv", nil), http.StatusNotFound)
}

func TestAuditHandler_List(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		testutil.AssertStatus(t, env.do(http.MethodPost, "/api/v1/materials/m-foam/add", map[string]interface{}{"quantity": 1}), http.StatusOK)
	}

	rr := env.do(http.MethodGet, "/api/v1/audit?page=2&per_page=2", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var envelope httputil.Response
	testutil.ParseJSONBody(t, rr, &envelope)
	require.NotNil(t, envelope.Meta)
	assert.Equal(t, 2, envelope.Meta.Page)
	assert.Equal(t, int64(3), envelope.Meta.Total)
	assert.Equal(t, 2, envelope.Meta.TotalPages)

	var entries []domain.AuditEntry
	testutil.ParseData(t, rr, &entries)
	assert.Len(t, entries, 1)
}
