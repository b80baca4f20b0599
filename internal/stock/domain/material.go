package domain

import (
	"github.com/shopspring/decimal"
)

// Material is a raw material held in stock by the remote stock API
type Material struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Unit              string          `json:"unit"`
	CostPerUnit       decimal.Decimal `json:"cost_per_unit"`
	Available         float64         `json:"available"`
	MinStockLimit     *float64        `json:"min_stock_limit,omitempty"`
	DefectiveQuantity *float64        `json:"defective_quantity,omitempty"`
	GroupID           *string         `json:"group_id,omitempty"`
}

// HasLimit reports whether a minimum stock limit is configured
func (m Material) HasLimit() bool {
	return m.MinStockLimit != nil
}

// Defective returns the defective quantity, zero when unset
func (m Material) Defective() float64 {
	if m.DefectiveQuantity == nil {
		return 0
	}
	return *m.DefectiveQuantity
}

// Value is the stock valuation of the available quantity
func (m Material) Value() decimal.Decimal {
	return m.CostPerUnit.Mul(decimal.NewFromFloat(m.Available))
}

// StockAlert flags a material at or below its minimum stock limit.
// Values are copied out of the material at evaluation time.
type StockAlert struct {
	MaterialID    string  `json:"material_id"`
	Name          string  `json:"name"`
	Available     float64 `json:"available"`
	MinStockLimit float64 `json:"min_stock_limit"`
}
