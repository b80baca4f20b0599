package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattressworks/stockboard/internal/stock/domain"
	"github.com/mattressworks/stockboard/pkg/database"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditRepository handles audit log persistence
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts an audit entry, filling in ID and CreatedAt
func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Details == nil {
		entry.Details = domain.Details{}
	}

	query := `
		INSERT INTO stock_audit_log (id, action, entity_type, entity_id, quantity, actor_id, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		entry.ID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.Quantity,
		entry.ActorID,
		entry.Details,
	).Scan(&entry.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	entry.CreatedAt = entry.CreatedAt.UTC()
	return nil
}

// List returns audit entries newest first together with the unpaginated total
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error) {
	var conditions []string
	var args []interface{}

	if filter.EntityID != "" {
		args = append(args, filter.EntityID)
		conditions = append(conditions, fmt.Sprintf("entity_id = $%d", len(args)))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM stock_audit_log"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := "SELECT id, action, entity_type, entity_id, quantity, actor_id, details, created_at FROM stock_audit_log" +
		where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	entries := make([]domain.AuditEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}

	for i := range entries {
		entries[i].CreatedAt = entries[i].CreatedAt.In(time.UTC)
	}

	return entries, total, nil
}
