package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mattressworks/stockboard/internal/stock/client"
	"github.com/mattressworks/stockboard/internal/stock/domain"
	"github.com/mattressworks/stockboard/internal/stock/events"
	"github.com/mattressworks/stockboard/pkg/config"
	apperrors "github.com/mattressworks/stockboard/pkg/errors"
	"github.com/mattressworks/stockboard/pkg/httputil"
	"github.com/mattressworks/stockboard/pkg/logger"
	"github.com/mattressworks/stockboard/pkg/messaging"
	"github.com/mattressworks/stockboard/pkg/metrics"
	"github.com/mattressworks/stockboard/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedEvent struct {
	eventType string
	data      interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (r *recordingPublisher) Publish(_ context.Context, eventType string, data interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{eventType: eventType, data: data})
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.eventType)
	}
	return types
}

func (r *recordingPublisher) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type memoryAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	err     error
}

func (m *memoryAudit) Create(_ context.Context, entry *domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryAudit) List(_ context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]domain.AuditEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if filter.EntityID != "" && e.EntityID != filter.EntityID {
			continue
		}
		result = append(result, e)
	}
	return result, int64(len(result)), nil
}

type fixture struct {
	api       *testutil.FakeStockAPI
	scenario  testutil.MattressScenario
	dashboard *DashboardService
	stock     *StockService
	reports   *ReportService
	audit     *memoryAudit
	events    *recordingPublisher
	metrics   *metrics.Metrics
	clock     *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	api := testutil.NewFakeStockAPI(t)
	scenario := testutil.NewMattressScenario()
	api.LoadScenario(scenario)

	m := metrics.New()
	remote := client.New(&config.StockAPIConfig{
		BaseURL:        api.URL(),
		Timeout:        2 * time.Second,
		MaxRetries:     0,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}, m, logger.Nop())

	rec := &recordingPublisher{}
	publisher := events.NewPublisher(rec, logger.Nop())
	audit := &memoryAudit{}

	clock := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	dashboard := NewDashboardService(remote, nil, publisher, m, time.Minute, logger.Nop())
	dashboard.now = func() time.Time { return clock }

	reports := NewReportService(dashboard, remote, m, logger.Nop())
	reports.now = dashboard.now

	return &fixture{
		api:       api,
		scenario:  scenario,
		dashboard: dashboard,
		stock:     NewStockService(remote, dashboard, audit, publisher, logger.Nop()),
		reports:   reports,
		audit:     audit,
		events:    rec,
		metrics:   m,
		clock:     &clock,
	}
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func asAppError(t *testing.T, err error) *apperrors.AppError {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr
}

func userContext(userID, role string) context.Context {
	return httputil.WithUserContext(context.Background(), userID, userID+"@stockboard.test", role)
}

// Dashboard

func TestDashboardService_Refresh(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.dashboard.Refresh(context.Background()))

	snap, err := f.dashboard.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Len(t, snap.Materials, 3)
	assert.Len(t, snap.Products, 2)
	assert.Len(t, snap.Tree, 2)
	require.Len(t, snap.Alerts, 1)
	assert.Equal(t, "m-springs", snap.Alerts[0].MaterialID)

	require.Len(t, snap.Production, 2)
	assert.Equal(t, 4, snap.Production[0].PossibleUnits)
	assert.Equal(t, []string{"Foam"}, snap.Production[0].LimitingMaterials)
	assert.Equal(t, 0, snap.Production[1].PossibleUnits)
	assert.Equal(t, *f.clock, snap.RefreshedAt)
}

func TestDashboardService_FirstRefreshPublishesNoAlertEvents(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.dashboard.Refresh(context.Background()))

	assert.Empty(t, f.events.types())
}

func TestDashboardService_PublishesAlertChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.dashboard.Refresh(ctx))

	// Foam drops under its limit, springs recover
	foam := f.scenario.Foam
	foam.Available = 15
	springs := f.scenario.Springs
	springs.Available = 500
	f.api.Load([]domain.Material{foam, springs, f.scenario.Cover}, f.scenario.Products(), f.scenario.Groups())

	require.NoError(t, f.dashboard.Refresh(ctx))

	require.Len(t, f.events.events, 2)
	assert.Equal(t, messaging.EventAlertRaised, f.events.events[0].eventType)
	assert.Equal(t, messaging.AlertRaisedEvent{MaterialID: "m-foam", Name: "Foam", Available: 15, MinStockLimit: 20}, f.events.events[0].data)
	assert.Equal(t, messaging.EventAlertCleared, f.events.events[1].eventType)
	assert.Equal(t, messaging.AlertClearedEvent{MaterialID: "m-springs", Name: "Pocket springs"}, f.events.events[1].data)

	// Unchanged alerts are not announced again
	f.events.reset()
	require.NoError(t, f.dashboard.Refresh(ctx))
	assert.Empty(t, f.events.types())
}

func TestDashboardService_SnapshotRefreshesWhenStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.dashboard.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.api.RequestCount("GET", "/api/v1/stock"))

	f.advance(30 * time.Second)
	_, err = f.dashboard.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.api.RequestCount("GET", "/api/v1/stock"))

	f.advance(31 * time.Second)
	_, err = f.dashboard.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.api.RequestCount("GET", "/api/v1/stock"))
}

func TestDashboardService_SnapshotServesStaleOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.dashboard.Snapshot(ctx)
	require.NoError(t, err)

	f.advance(2 * time.Minute)
	f.api.FailNext(503)

	snap, err := f.dashboard.Snapshot(ctx)
	require.NoError(t, err)
	assert.Same(t, first, snap)
}

func TestDashboardService_SnapshotFailsWithoutPrevious(t *testing.T) {
	f := newFixture(t)
	f.api.FailNext(503)

	_, err := f.dashboard.Snapshot(context.Background())

	appErr := asAppError(t, err)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", appErr.Code)
}

func TestDashboardService_Stats(t *testing.T) {
	f := newFixture(t)

	stats, err := f.dashboard.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalMaterials)
	assert.Equal(t, 2, stats.TotalProducts)
	assert.Equal(t, 1, stats.ActiveAlerts)
	assert.Equal(t, "1012.5", stats.TotalValue.String())
	assert.Equal(t, 12.0, stats.DefectiveQuantity)
	assert.Equal(t, 1, stats.ProducibleProducts)
}

func TestDashboardService_Materials(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		filter MaterialFilter
		want   []string
	}{
		{"all", MaterialFilter{}, []string{"m-foam", "m-springs", "m-cover"}},
		{"group", MaterialFilter{GroupID: "g-raw"}, []string{"m-foam", "m-springs"}},
		{"alerting", MaterialFilter{AlertingOnly: true}, []string{"m-springs"}},
		{"alerting in textiles", MaterialFilter{GroupID: "g-textiles", AlertingOnly: true}, []string{}},
		{"unknown group", MaterialFilter{GroupID: "g-none"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			materials, err := f.dashboard.Materials(context.Background(), tt.filter)
			require.NoError(t, err)

			ids := make([]string, 0, len(materials))
			for _, m := range materials {
				ids = append(ids, m.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestDashboardService_Production(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	summary, err := f.dashboard.Production(ctx, "p-classic")
	require.NoError(t, err)
	assert.Equal(t, 4, summary.PossibleUnits)

	_, err = f.dashboard.Production(ctx, "p-missing")
	assert.Equal(t, "NOT_FOUND", asAppError(t, err).Code)
}

func TestDashboardService_Shortfall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shortages, err := f.dashboard.Shortfall(ctx, "p-classic", 5)
	require.NoError(t, err)
	require.Len(t, shortages, 1)
	assert.Equal(t, domain.Shortage{MaterialID: "m-foam", Name: "Foam", Required: 125, Available: 100, Missing: 25}, shortages[0])

	shortages, err = f.dashboard.Shortfall(ctx, "p-classic", 4)
	require.NoError(t, err)
	assert.Empty(t, shortages)

	_, err = f.dashboard.Shortfall(ctx, "p-classic", 0)
	assert.Equal(t, "BAD_REQUEST", asAppError(t, err).Code)

	_, err = f.dashboard.Shortfall(ctx, "p-missing", 1)
	assert.Equal(t, "NOT_FOUND", asAppError(t, err).Code)
}

// Stock mutations

func TestStockService_AddQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := userContext("user-1", "manager")

	material, err := f.stock.AddQuantity(ctx, "m-foam", &domain.QuantityRequest{Quantity: 40, Note: "delivery"})
	require.NoError(t, err)
	assert.Equal(t, 140.0, material.Available)

	remote, _ := f.api.Material("m-foam")
	assert.Equal(t, 140.0, remote.Available)

	require.Len(t, f.audit.entries, 1)
	entry := f.audit.entries[0]
	assert.Equal(t, domain.AuditMaterialAdded, entry.Action)
	assert.Equal(t, "m-foam", entry.EntityID)
	assert.Equal(t, "user-1", entry.ActorID)
	assert.Equal(t, 40.0, *entry.Quantity)
	assert.Equal(t, "delivery", entry.Details["note"])

	assert.Contains(t, f.events.types(), messaging.EventStockAdjusted)

	snap, err := f.dashboard.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 140.0, snap.Materials[0].Available)
	assert.Equal(t, 5, snap.Production[0].PossibleUnits)
}

func TestStockService_SubtractRaisesAlert(t *testing.T) {
	f := newFixture(t)
	ctx := userContext("user-1", "manager")
	require.NoError(t, f.dashboard.Refresh(ctx))

	_, err := f.stock.SubtractQuantity(ctx, "m-foam", &domain.QuantityRequest{Quantity: 85})
	require.NoError(t, err)

	assert.Equal(t, []string{messaging.EventStockAdjusted, messaging.EventAlertRaised}, f.events.types())
	assert.Equal(t, domain.AuditMaterialRemoved, f.audit.entries[0].Action)
}

func TestStockService_RecordDefect(t *testing.T) {
	f := newFixture(t)
	ctx := userContext("user-1", "manager")

	_, err := f.stock.RecordDefect(ctx, "m-cover", &domain.QuantityRequest{Quantity: 2})
	require.NoError(t, err)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, domain.AuditMaterialDefect, f.audit.entries[0].Action)
	assert.Equal(t, 1, f.api.RequestCount("POST", "/api/v1/stock/m-cover/defects"))
}

func TestStockService_ValidationRejectsBeforeRemoteCall(t *testing.T) {
	f := newFixture(t)
	ctx := userContext("user-1", "manager")

	_, err := f.stock.AddQuantity(ctx, "m-foam", &domain.QuantityRequest{Quantity: 0})
	appErr := asAppError(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Contains(t, appErr.Details, "quantity")

	_, err = f.stock.AddQuantity(ctx, " ", &domain.QuantityRequest{Quantity: 1})
	assert.Equal(t, "BAD_REQUEST", asAppError(t, err).Code)

	_, err = f.stock.CreateProduct(ctx, &domain.CreateProductRequest{Name: "Empty"})
	assert.Equal(t, "VALIDATION_ERROR", asAppError(t, err).Code)

	assert.Empty(t, f.api.Requests())
	assert.Empty(t, f.audit.entries)
}

func TestStockService_RemoteConflictIsReturned(t *testing.T) {
	f := newFixture(t)
	ctx := userContext("user-1", "manager")

	_, err := f.stock.SubtractQuantity(ctx, "m-cover", &domain.QuantityRequest{Quantity: 31})

	assert.Equal(t, "CONFLICT", asAppError(t, err).Code)
	assert.Empty(t, f.audit.entries)
	assert.Empty(t, f.events.types())
}

func TestStockService_AuditFailureIsNotReturned(t *testing.T) {
	f := newFixture(t)
	f.audit.err = errors.New("database down")

	_, err := f.stock.AddQuantity(userContext("user-1", "manager"), "m-foam", &domain.QuantityRequest{Quantity: 1})

	require.NoError(t, err)
}

func TestStockService_CreateAndDeleteMaterial(t *testing.T) {
	f := newFixture(t)
	ctx := userContext("admin-1", "admin")

	created, err := f.stock.CreateMaterial(ctx, &domain.CreateMaterialRequest{
		Name:          "Latex",
		Unit:          "kg",
		Available:     12,
		MinStockLimit: testutil.PtrFloat(5),
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	snap, err := f.dashboard.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Materials, 4)

	require.NoError(t, f.stock.DeleteMaterial(ctx, created.ID))

	snap, err = f.dashboard.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Materials, 3)

	require.Len(t, f.audit.entries, 2)
	assert.Equal(t, domain.AuditMaterialCreated, f.audit.entries[0].Action)
	assert.Equal(t, domain.AuditMaterialDeleted, f.audit.entries[1].Action)
	assert.Equal(t, "admin-1", f.audit.entries[1].ActorID)
}

func TestStockService_CreateAndAlterProduct(t *testing.T) {
	f := newFixture(t)
	ctx := userContext("user-1", "manager")

	product, err := f.stock.CreateProduct(ctx, &domain.CreateProductRequest{
		Name:      "Topper",
		Materials: []domain.RequirementInput{{MaterialID: "m-foam", Quantity: 5}},
	})
	require.NoError(t, err)

	summary, err := f.dashboard.Production(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, summary.PossibleUnits)

	_, err = f.stock.AlterMaterials(ctx, product.ID, &domain.AlterMaterialsRequest{
		Materials: []domain.RequirementInput{{MaterialID: "m-foam", Quantity: 5}, {MaterialID: "m-cover", Quantity: 2}},
	})
	require.NoError(t, err)

	summary, err = f.dashboard.Production(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, summary.PossibleUnits)
	assert.Equal(t, []string{"Cover"}, summary.LimitingMaterials)

	assert.Equal(t, []string{messaging.EventProductUpdated, messaging.EventProductUpdated}, f.events.types())
}

func TestStockService_Produce(t *testing.T) {
	f := newFixture(t)
	ctx := userContext("user-1", "manager")

	require.NoError(t, f.stock.Produce(ctx, "p-classic", &domain.ProduceRequest{Units: 2}))

	foam, _ := f.api.Material("m-foam")
	assert.Equal(t, 50.0, foam.Available)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, domain.AuditProductProduced, f.audit.entries[0].Action)
	assert.Equal(t, 2.0, *f.audit.entries[0].Quantity)
	assert.Contains(t, f.events.types(), messaging.EventProductProduced)

	summary, err := f.dashboard.Production(ctx, "p-classic")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.PossibleUnits)
}

func TestStockService_ProduceOverCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := userContext("user-1", "manager")

	err := f.stock.Produce(ctx, "p-classic", &domain.ProduceRequest{Units: 5})

	appErr := asAppError(t, err)
	assert.Equal(t, "CONFLICT", appErr.Code)
	assert.Equal(t, map[string]string{"m-foam": "need 125, have 100, missing 25"}, appErr.Details)
	assert.Zero(t, f.api.RequestCount("POST", "/api/v1/products/p-classic/produce"))
	assert.Empty(t, f.audit.entries)
}

func TestStockService_ProduceUnknownProduct(t *testing.T) {
	f := newFixture(t)

	err := f.stock.Produce(userContext("user-1", "manager"), "p-missing", &domain.ProduceRequest{Units: 1})

	assert.Equal(t, "NOT_FOUND", asAppError(t, err).Code)
}

func TestStockService_ListTransactions(t *testing.T) {
	f := newFixture(t)
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	factory := testutil.NewFixtureFactory()
	f.api.SetTransactions([]domain.Transaction{
		factory.Transaction(f.scenario.Foam, domain.TransactionAdd, 10, at),
		factory.Transaction(f.scenario.Cover, domain.TransactionSubtract, 1, at),
	})

	txs, err := f.stock.ListTransactions(context.Background(), domain.TransactionFilter{MaterialID: "m-foam"})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "m-foam", txs[0].MaterialID)

	_, err = f.stock.ListTransactions(context.Background(), domain.TransactionFilter{
		From: testutil.PtrTime(at.Add(time.Hour)),
		To:   testutil.PtrTime(at),
	})
	assert.Equal(t, "BAD_REQUEST", asAppError(t, err).Code)
}

func TestStockService_AuditLog(t *testing.T) {
	f := newFixture(t)
	ctx := userContext("user-1", "manager")
	_, err := f.stock.AddQuantity(ctx, "m-foam", &domain.QuantityRequest{Quantity: 1})
	require.NoError(t, err)

	entries, total, err := f.stock.AuditLog(ctx, domain.AuditFilter{EntityID: "m-foam"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, "user-1", entries[0].ActorID)
	assert.Equal(t, "user-1@stockboard.test", entries[0].Details["actor_email"])

	_, err = f.stock.RecordDefect(userContext("user-2", "manager"), "m-foam", &domain.QuantityRequest{Quantity: 1})
	require.NoError(t, err)
	entries, _, err = f.stock.AuditLog(ctx, domain.AuditFilter{EntityID: "m-foam"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "user-2@stockboard.test", entries[1].Details["actor_email"])

	withoutDB := NewStockService(nil, f.dashboard, nil, nil, logger.Nop())
	_, _, err = withoutDB.AuditLog(ctx, domain.AuditFilter{})
	assert.ErrorIs(t, err, ErrAuditDisabled)
}

// Reports

func TestReportService_Generate(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name        string
		report      string
		format      string
		contentType string
	}{
		{"stock xlsx", ReportStock, FormatXLSX, contentTypes[FormatXLSX]},
		{"stock csv", ReportStock, FormatCSV, contentTypes[FormatCSV]},
		{"default format", ReportStock, "", contentTypes[FormatXLSX]},
		{"production xlsx", ReportProduction, FormatXLSX, contentTypes[FormatXLSX]},
		{"production pdf", ReportProduction, FormatPDF, contentTypes[FormatPDF]},
		{"alerts csv", ReportAlerts, FormatCSV, contentTypes[FormatCSV]},
		{"alerts xlsx", ReportAlerts, FormatXLSX, contentTypes[FormatXLSX]},
		{"transactions csv", ReportTransactions, FormatCSV, contentTypes[FormatCSV]},
		{"transactions xlsx", ReportTransactions, FormatXLSX, contentTypes[FormatXLSX]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := f.reports.Generate(context.Background(), tt.report, tt.format, domain.TransactionFilter{})
			require.NoError(t, err)

			assert.NotEmpty(t, r.Content)
			assert.Equal(t, tt.contentType, r.ContentType)
			assert.Regexp(t, `^`+tt.report+`-20260401-090000\.(xlsx|csv|pdf)$`, r.Filename)
		})
	}
}

func TestReportService_Unsupported(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		report string
		format string
		code   string
	}{
		{ReportStock, FormatPDF, "BAD_REQUEST"},
		{ReportAlerts, FormatPDF, "BAD_REQUEST"},
		{ReportProduction, FormatCSV, "BAD_REQUEST"},
		{ReportTransactions, FormatPDF, "BAD_REQUEST"},
		{ReportStock, "docx", "BAD_REQUEST"},
		{"inventory", FormatCSV, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.report+"/"+tt.format, func(t *testing.T) {
			_, err := f.reports.Generate(ctx, tt.report, tt.format, domain.TransactionFilter{})
			assert.Equal(t, tt.code, asAppError(t, err).Code)
		})
	}
}

// Scheduler

func TestRefreshScheduler_RefreshesImmediately(t *testing.T) {
	f := newFixture(t)

	scheduler := NewRefreshScheduler(f.dashboard, time.Hour, logger.Nop())
	scheduler.Start(context.Background())

	assert.Eventually(t, func() bool {
		return f.api.RequestCount("GET", "/api/v1/groups") == 1
	}, 2*time.Second, 10*time.Millisecond)

	scheduler.Stop()
}

func TestRefreshScheduler_SurvivesFailures(t *testing.T) {
	f := newFixture(t)
	f.api.FailNext(503)

	scheduler := NewRefreshScheduler(f.dashboard, 20*time.Millisecond, logger.Nop())
	scheduler.Start(context.Background())

	assert.Eventually(t, func() bool {
		return f.api.RequestCount("GET", "/api/v1/groups") >= 1
	}, 2*time.Second, 10*time.Millisecond)

	scheduler.Stop()
}

func TestRefreshScheduler_StopWithoutStart(t *testing.T) {
	scheduler := NewRefreshScheduler(nil, time.Minute, logger.Nop())
	assert.NotPanics(t, scheduler.Stop)
}

func TestRefreshScheduler_NonPositiveIntervalRefreshesOnce(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		f := newFixture(t)

		scheduler := NewRefreshScheduler(f.dashboard, interval, logger.Nop())
		require.NotPanics(t, func() { scheduler.Start(context.Background()) })

		assert.Eventually(t, func() bool {
			return f.api.RequestCount("GET", "/api/v1/groups") == 1
		}, 2*time.Second, 10*time.Millisecond)

		scheduler.Stop()
		assert.Equal(t, 1, f.api.RequestCount("GET", "/api/v1/groups"))
	}
}
