package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mattressworks/stockboard/internal/stock/cache"
	"github.com/mattressworks/stockboard/internal/stock/domain"
	"github.com/mattressworks/stockboard/internal/stock/events"
	"github.com/mattressworks/stockboard/internal/stock/monitoring"
	"github.com/mattressworks/stockboard/pkg/errors"
	"github.com/mattressworks/stockboard/pkg/logger"
	"github.com/mattressworks/stockboard/pkg/metrics"
	"github.com/shopspring/decimal"
)

// StockAPI is the remote stock API as seen by the services.
// *client.StockAPI satisfies it.
type StockAPI interface {
	ListMaterials(ctx context.Context) ([]domain.Material, error)
	CreateMaterial(ctx context.Context, req *domain.CreateMaterialRequest) (*domain.Material, error)
	AddQuantity(ctx context.Context, materialID string, req *domain.QuantityRequest) (*domain.Material, error)
	SubtractQuantity(ctx context.Context, materialID string, req *domain.QuantityRequest) (*domain.Material, error)
	RecordDefect(ctx context.Context, materialID string, req *domain.QuantityRequest) (*domain.Material, error)
	DeleteMaterial(ctx context.Context, materialID string) error
	ListGroups(ctx context.Context) ([]domain.StockGroup, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, req *domain.CreateProductRequest) (*domain.Product, error)
	AlterMaterials(ctx context.Context, productID string, req *domain.AlterMaterialsRequest) (*domain.Product, error)
	Produce(ctx context.Context, productID string, req *domain.ProduceRequest) error
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
}

// Snapshot is one consistent view of the remote stock and everything derived from it
type Snapshot struct {
	Materials   []domain.Material          `json:"materials"`
	Products    []domain.Product           `json:"products"`
	Groups      []domain.StockGroup        `json:"groups"`
	Tree        []*domain.GroupNode        `json:"tree"`
	Alerts      []domain.StockAlert        `json:"alerts"`
	Production  []domain.ProductionSummary `json:"production"`
	RefreshedAt time.Time                  `json:"refreshed_at"`
}

// Stats are the headline numbers of the dashboard
type Stats struct {
	TotalMaterials     int             `json:"total_materials"`
	TotalProducts      int             `json:"total_products"`
	ActiveAlerts       int             `json:"active_alerts"`
	TotalValue         decimal.Decimal `json:"total_value"`
	DefectiveQuantity  float64         `json:"defective_quantity"`
	ProducibleProducts int             `json:"producible_products"`
	RefreshedAt        time.Time       `json:"refreshed_at"`
}

// MaterialFilter narrows the material list
type MaterialFilter struct {
	GroupID      string
	AlertingOnly bool
}

// DashboardService keeps the latest snapshot of the remote stock
type DashboardService struct {
	api       StockAPI
	cache     *cache.Cache
	publisher *events.Publisher
	metrics   *metrics.Metrics
	interval  time.Duration
	logger    *logger.Logger
	now       func() time.Time

	refreshMu sync.Mutex
	mu        sync.RWMutex
	current   *Snapshot
}

// NewDashboardService creates a dashboard service. cache, publisher and metrics may be nil.
func NewDashboardService(
	api StockAPI,
	snapshotCache *cache.Cache,
	publisher *events.Publisher,
	m *metrics.Metrics,
	interval time.Duration,
	log *logger.Logger,
) *DashboardService {
	return &DashboardService{
		api:       api,
		cache:     snapshotCache,
		publisher: publisher,
		metrics:   m,
		interval:  interval,
		logger:    log.WithComponent("dashboard"),
		now:       time.Now,
	}
}

// Refresh fetches the remote stock and rebuilds the snapshot.
// Concurrent calls are serialized so alert diffs are computed against the right predecessor.
func (s *DashboardService) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := s.now()

	materials, err := s.materials(ctx)
	if err != nil {
		return err
	}
	products, err := s.products(ctx)
	if err != nil {
		return err
	}
	groups, err := s.groups(ctx)
	if err != nil {
		return err
	}

	next := &Snapshot{
		Materials:   materials,
		Products:    products,
		Groups:      groups,
		Tree:        monitoring.BuildGroupTree(groups, materials),
		Alerts:      monitoring.CheckStockAlerts(materials),
		Production:  monitoring.SummarizeProduction(products, materials),
		RefreshedAt: s.now().UTC(),
	}

	s.mu.Lock()
	previous := s.current
	s.current = next
	s.mu.Unlock()

	if previous != nil {
		s.publishAlertChanges(ctx, previous.Alerts, next.Alerts)
	}

	s.metrics.SetActiveAlerts(len(next.Alerts))
	s.metrics.ObserveRefresh(s.now().Sub(start))

	s.logger.Debug().
		Int("materials", len(materials)).
		Int("products", len(products)).
		Int("alerts", len(next.Alerts)).
		Msg("snapshot refreshed")

	return nil
}

// Snapshot returns the latest snapshot, refreshing it when missing or stale.
// A stale snapshot is still served if the refresh fails.
func (s *DashboardService) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	if current != nil && (s.interval <= 0 || s.now().Sub(current.RefreshedAt) < s.interval) {
		return current, nil
	}

	if err := s.Refresh(ctx); err != nil {
		if current != nil {
			s.logger.Warn().Err(err).Time("refreshed_at", current.RefreshedAt).Msg("refresh failed, serving stale snapshot")
			return current, nil
		}
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

// Stats summarizes the current snapshot
func (s *DashboardService) Stats(ctx context.Context) (*Stats, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalMaterials: len(snap.Materials),
		TotalProducts:  len(snap.Products),
		ActiveAlerts:   len(snap.Alerts),
		TotalValue:     decimal.Zero,
		RefreshedAt:    snap.RefreshedAt,
	}
	for _, m := range snap.Materials {
		stats.TotalValue = stats.TotalValue.Add(m.Value())
		stats.DefectiveQuantity += m.Defective()
	}
	for _, p := range snap.Production {
		if p.PossibleUnits > 0 {
			stats.ProducibleProducts++
		}
	}

	return stats, nil
}

// Materials lists materials from the snapshot
func (s *DashboardService) Materials(ctx context.Context, filter MaterialFilter) ([]domain.Material, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var alerting map[string]bool
	if filter.AlertingOnly {
		alerting = make(map[string]bool, len(snap.Alerts))
		for _, a := range snap.Alerts {
			alerting[a.MaterialID] = true
		}
	}

	var members map[string]bool
	if filter.GroupID != "" {
		members = make(map[string]bool)
		for _, g := range snap.Groups {
			if g.ID != filter.GroupID {
				continue
			}
			for _, id := range g.MaterialIDs {
				members[id] = true
			}
		}
	}

	result := make([]domain.Material, 0, len(snap.Materials))
	for _, m := range snap.Materials {
		if alerting != nil && !alerting[m.ID] {
			continue
		}
		if members != nil && !members[m.ID] && (m.GroupID == nil || *m.GroupID != filter.GroupID) {
			continue
		}
		result = append(result, m)
	}

	return result, nil
}

// Production returns the capacity summary of one product
func (s *DashboardService) Production(ctx context.Context, productID string) (*domain.ProductionSummary, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	for i := range snap.Production {
		if snap.Production[i].ProductID == productID {
			summary := snap.Production[i]
			return &summary, nil
		}
	}

	return nil, errors.NotFound("product")
}

// Shortfall lists what is missing to produce units of a product
func (s *DashboardService) Shortfall(ctx context.Context, productID string, units int) ([]domain.Shortage, error) {
	if units <= 0 {
		return nil, errors.BadRequest("units must be greater than 0")
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	product, ok := findProduct(snap.Products, productID)
	if !ok {
		return nil, errors.NotFound("product")
	}

	return monitoring.Shortfall(product, snap.Materials, units), nil
}

// Invalidate drops the cached lists so the next refresh reads the remote API
func (s *DashboardService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate snapshot cache")
	}
}

func (s *DashboardService) publishAlertChanges(ctx context.Context, previous, current []domain.StockAlert) {
	before := make(map[string]bool, len(previous))
	for _, a := range previous {
		before[a.MaterialID] = true
	}
	after := make(map[string]bool, len(current))
	for _, a := range current {
		after[a.MaterialID] = true
		if !before[a.MaterialID] {
			s.publisher.PublishAlertRaised(ctx, a)
		}
	}
	for _, a := range previous {
		if !after[a.MaterialID] {
			s.publisher.PublishAlertCleared(ctx, a)
		}
	}
}

func (s *DashboardService) materials(ctx context.Context) ([]domain.Material, error) {
	if cached, ok := s.cache.Materials(ctx); ok {
		return cached, nil
	}
	materials, err := s.api.ListMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	s.cache.SetMaterials(ctx, materials)
	return materials, nil
}

func (s *DashboardService) products(ctx context.Context) ([]domain.Product, error) {
	if cached, ok := s.cache.Products(ctx); ok {
		return cached, nil
	}
	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	s.cache.SetProducts(ctx, products)
	return products, nil
}

func (s *DashboardService) groups(ctx context.Context) ([]domain.StockGroup, error) {
	if cached, ok := s.cache.Groups(ctx); ok {
		return cached, nil
	}
	groups, err := s.api.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	s.cache.SetGroups(ctx, groups)
	return groups, nil
}

func findProduct(products []domain.Product, id string) (domain.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}
