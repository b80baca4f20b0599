package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Audit actions
const (
	AuditMaterialCreated = "material.created"
	AuditMaterialAdded   = "material.quantity_added"
	AuditMaterialRemoved = "material.quantity_subtracted"
	AuditMaterialDefect  = "material.defect_recorded"
	AuditMaterialDeleted = "material.deleted"
	AuditProductCreated  = "product.created"
	AuditProductAltered  = "product.materials_altered"
	AuditProductProduced = "product.produced"
)

// Audit entity types
const (
	AuditEntityMaterial = "material"
	AuditEntityProduct  = "product"
)

// Details is a JSONB column value
type Details map[string]interface{}

// Value implements driver.Valuer
func (d Details) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner
func (d *Details) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = Details{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Details", src)
	}
	return json.Unmarshal(raw, d)
}

// AuditEntry records a mutation issued through the dashboard
type AuditEntry struct {
	ID         string    `json:"id" db:"id"`
	Action     string    `json:"action" db:"action"`
	EntityType string    `json:"entity_type" db:"entity_type"`
	EntityID   string    `json:"entity_id" db:"entity_id"`
	Quantity   *float64  `json:"quantity,omitempty" db:"quantity"`
	ActorID    string    `json:"actor_id" db:"actor_id"`
	Details    Details   `json:"details,omitempty" db:"details"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// AuditFilter narrows an audit log listing
type AuditFilter struct {
	EntityID string
	Action   string
	Limit    int
	Offset   int
}
