package service

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/mattressworks/stockboard/internal/stock/domain"
	"github.com/mattressworks/stockboard/internal/stock/events"
	"github.com/mattressworks/stockboard/internal/stock/monitoring"
	"github.com/mattressworks/stockboard/pkg/errors"
	"github.com/mattressworks/stockboard/pkg/httputil"
	"github.com/mattressworks/stockboard/pkg/logger"
)

// AuditStore persists audit entries. *repository.AuditRepository satisfies it.
type AuditStore interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error)
}

// ErrAuditDisabled is returned when the audit log is queried without a database
var ErrAuditDisabled = errors.New("AUDIT_DISABLED", "audit log is not enabled", http.StatusServiceUnavailable)

// StockService issues mutations against the remote stock API
type StockService struct {
	api       StockAPI
	dashboard *DashboardService
	audit     AuditStore
	publisher *events.Publisher
	logger    *logger.Logger
}

// NewStockService creates a stock service. audit and publisher may be nil.
func NewStockService(
	api StockAPI,
	dashboard *DashboardService,
	audit AuditStore,
	publisher *events.Publisher,
	log *logger.Logger,
) *StockService {
	return &StockService{
		api:       api,
		dashboard: dashboard,
		audit:     audit,
		publisher: publisher,
		logger:    log.WithComponent("stock"),
	}
}

// Material operations

// CreateMaterial creates a material on the remote API
func (s *StockService) CreateMaterial(ctx context.Context, req *domain.CreateMaterialRequest) (*domain.Material, error) {
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}

	material, err := s.api.CreateMaterial(ctx, req)
	if err != nil {
		return nil, err
	}

	actor := httputil.GetUserID(ctx)
	s.record(ctx, &domain.AuditEntry{
		Action:     domain.AuditMaterialCreated,
		EntityType: domain.AuditEntityMaterial,
		EntityID:   material.ID,
		Quantity:   &material.Available,
		ActorID:    actor,
		Details:    domain.Details{"name": material.Name, "unit": material.Unit},
	})
	s.publisher.PublishStockAdjusted(ctx, material.ID, domain.TransactionCreate, material.Available, actor)
	s.afterMutation(ctx)

	return material, nil
}

// AddQuantity books incoming stock
func (s *StockService) AddQuantity(ctx context.Context, materialID string, req *domain.QuantityRequest) (*domain.Material, error) {
	return s.adjust(ctx, materialID, req, domain.TransactionAdd)
}

// SubtractQuantity books consumed stock
func (s *StockService) SubtractQuantity(ctx context.Context, materialID string, req *domain.QuantityRequest) (*domain.Material, error) {
	return s.adjust(ctx, materialID, req, domain.TransactionSubtract)
}

// RecordDefect moves stock into the defective quantity
func (s *StockService) RecordDefect(ctx context.Context, materialID string, req *domain.QuantityRequest) (*domain.Material, error) {
	return s.adjust(ctx, materialID, req, domain.TransactionDefect)
}

// DeleteMaterial removes a material from the remote API
func (s *StockService) DeleteMaterial(ctx context.Context, materialID string) error {
	if strings.TrimSpace(materialID) == "" {
		return errors.BadRequest("material id is required")
	}

	if err := s.api.DeleteMaterial(ctx, materialID); err != nil {
		return err
	}

	actor := httputil.GetUserID(ctx)
	s.record(ctx, &domain.AuditEntry{
		Action:     domain.AuditMaterialDeleted,
		EntityType: domain.AuditEntityMaterial,
		EntityID:   materialID,
		ActorID:    actor,
	})
	s.publisher.PublishStockAdjusted(ctx, materialID, domain.TransactionDelete, 0, actor)
	s.afterMutation(ctx)

	return nil
}

func (s *StockService) adjust(ctx context.Context, materialID string, req *domain.QuantityRequest, kind domain.TransactionKind) (*domain.Material, error) {
	if strings.TrimSpace(materialID) == "" {
		return nil, errors.BadRequest("material id is required")
	}
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}

	var (
		material *domain.Material
		err      error
		action   string
	)
	switch kind {
	case domain.TransactionAdd:
		material, err = s.api.AddQuantity(ctx, materialID, req)
		action = domain.AuditMaterialAdded
	case domain.TransactionSubtract:
		material, err = s.api.SubtractQuantity(ctx, materialID, req)
		action = domain.AuditMaterialRemoved
	case domain.TransactionDefect:
		material, err = s.api.RecordDefect(ctx, materialID, req)
		action = domain.AuditMaterialDefect
	default:
		return nil, errors.Internal("unsupported stock adjustment " + string(kind))
	}
	if err != nil {
		return nil, err
	}

	actor := httputil.GetUserID(ctx)
	details := domain.Details{"available_after": material.Available}
	if req.Note != "" {
		details["note"] = req.Note
	}
	s.record(ctx, &domain.AuditEntry{
		Action:     action,
		EntityType: domain.AuditEntityMaterial,
		EntityID:   materialID,
		Quantity:   &req.Quantity,
		ActorID:    actor,
		Details:    details,
	})
	s.publisher.PublishStockAdjusted(ctx, materialID, kind, req.Quantity, actor)
	s.afterMutation(ctx)

	return material, nil
}

// Product operations

// CreateProduct defines a product on the remote API
func (s *StockService) CreateProduct(ctx context.Context, req *domain.CreateProductRequest) (*domain.Product, error) {
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}

	product, err := s.api.CreateProduct(ctx, req)
	if err != nil {
		return nil, err
	}

	actor := httputil.GetUserID(ctx)
	s.record(ctx, &domain.AuditEntry{
		Action:     domain.AuditProductCreated,
		EntityType: domain.AuditEntityProduct,
		EntityID:   product.ID,
		ActorID:    actor,
		Details:    domain.Details{"name": product.Name, "materials": len(req.Materials)},
	})
	s.publisher.PublishProductUpdated(ctx, *product, "created", actor)
	s.afterMutation(ctx)

	return product, nil
}

// AlterMaterials replaces a product's bill of materials
func (s *StockService) AlterMaterials(ctx context.Context, productID string, req *domain.AlterMaterialsRequest) (*domain.Product, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, errors.BadRequest("product id is required")
	}
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}

	product, err := s.api.AlterMaterials(ctx, productID, req)
	if err != nil {
		return nil, err
	}

	actor := httputil.GetUserID(ctx)
	s.record(ctx, &domain.AuditEntry{
		Action:     domain.AuditProductAltered,
		EntityType: domain.AuditEntityProduct,
		EntityID:   productID,
		ActorID:    actor,
		Details:    domain.Details{"materials": len(req.Materials)},
	})
	s.publisher.PublishProductUpdated(ctx, *product, "materials_altered", actor)
	s.afterMutation(ctx)

	return product, nil
}

// Produce books a production run after checking capacity against the current snapshot
func (s *StockService) Produce(ctx context.Context, productID string, req *domain.ProduceRequest) error {
	if strings.TrimSpace(productID) == "" {
		return errors.BadRequest("product id is required")
	}
	if err := httputil.Validate(req); err != nil {
		return err
	}

	snap, err := s.dashboard.Snapshot(ctx)
	if err != nil {
		return err
	}
	product, ok := findProduct(snap.Products, productID)
	if !ok {
		return errors.NotFound("product")
	}

	if exceedsCapacity(snap, productID, req.Units) {
		shortages := monitoring.Shortfall(product, snap.Materials, req.Units)
		return errors.Conflict("insufficient stock to produce "+strconv.Itoa(req.Units)+" units of "+product.Name).
			WithDetails(shortageDetails(shortages))
	}

	if err := s.api.Produce(ctx, productID, req); err != nil {
		return err
	}

	actor := httputil.GetUserID(ctx)
	units := float64(req.Units)
	s.record(ctx, &domain.AuditEntry{
		Action:     domain.AuditProductProduced,
		EntityType: domain.AuditEntityProduct,
		EntityID:   productID,
		Quantity:   &units,
		ActorID:    actor,
		Details:    domain.Details{"name": product.Name},
	})
	s.publisher.PublishProductProduced(ctx, product, req.Units, actor)
	s.afterMutation(ctx)

	return nil
}

// exceedsCapacity reports whether units is more than the snapshot says can be produced
func exceedsCapacity(snap *Snapshot, productID string, units int) bool {
	for _, summary := range snap.Production {
		if summary.ProductID == productID {
			return units > summary.PossibleUnits
		}
	}
	return true
}

func shortageDetails(shortages []domain.Shortage) map[string]string {
	if len(shortages) == 0 {
		return nil
	}
	details := make(map[string]string, len(shortages))
	for _, sh := range shortages {
		details[sh.MaterialID] = "need " + formatQuantity(sh.Required) +
			", have " + formatQuantity(sh.Available) +
			", missing " + formatQuantity(sh.Missing)
	}
	return details
}

func formatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Queries

// ListTransactions returns the remote transaction history
func (s *StockService) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, errors.BadRequest("from must not be after to")
	}
	return s.api.ListTransactions(ctx, filter)
}

// AuditLog lists recorded audit entries
func (s *StockService) AuditLog(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error) {
	if s.audit == nil {
		return nil, 0, ErrAuditDisabled
	}
	return s.audit.List(ctx, filter)
}

func (s *StockService) record(ctx context.Context, entry *domain.AuditEntry) {
	if s.audit == nil {
		return
	}
	if email := httputil.GetUserEmail(ctx); email != "" {
		if entry.Details == nil {
			entry.Details = domain.Details{}
		}
		entry.Details["actor_email"] = email
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Error().
			Err(err).
			Str("action", entry.Action).
			Str("entity_id", entry.EntityID).
			Msg("failed to write audit entry")
	}
}

// afterMutation drops cached lists and rebuilds the snapshot; refresh errors are only logged
func (s *StockService) afterMutation(ctx context.Context) {
	s.dashboard.Invalidate(ctx)
	if err := s.dashboard.Refresh(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("refresh after mutation failed")
	}
}
