package domain

import "github.com/shopspring/decimal"

// CreateMaterialRequest creates a material on the remote API
type CreateMaterialRequest struct {
	Name          string          `json:"name" validate:"required,max=120"`
	Unit          string          `json:"unit" validate:"required,max=20"`
	CostPerUnit   decimal.Decimal `json:"cost_per_unit"`
	Available     float64         `json:"available" validate:"gte=0"`
	MinStockLimit *float64        `json:"min_stock_limit,omitempty" validate:"omitempty,gte=0"`
	GroupID       *string         `json:"group_id,omitempty"`
}

// QuantityRequest adds, subtracts or books defects on a material
type QuantityRequest struct {
	Quantity float64 `json:"quantity" validate:"gt=0"`
	Note     string  `json:"note,omitempty" validate:"max=500"`
}

// RequirementInput is one bill-of-materials line in a product request
type RequirementInput struct {
	MaterialID string  `json:"material_id" validate:"required"`
	Quantity   float64 `json:"quantity" validate:"gt=0"`
}

// CreateProductRequest defines a product and its bill of materials
type CreateProductRequest struct {
	Name       string             `json:"name" validate:"required,max=120"`
	Dimensions string             `json:"dimensions,omitempty" validate:"max=60"`
	Materials  []RequirementInput `json:"materials" validate:"min=1,dive"`
}

// AlterMaterialsRequest replaces a product's bill of materials
type AlterMaterialsRequest struct {
	Materials []RequirementInput `json:"materials" validate:"min=1,dive"`
}

// ProduceRequest books a production run
type ProduceRequest struct {
	Units int `json:"units" validate:"gt=0"`
}
