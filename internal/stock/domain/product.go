package domain

// Requirement is the quantity of one material consumed per unit of product
type Requirement struct {
	MaterialID string  `json:"material_id"`
	Name       string  `json:"name,omitempty"`
	Quantity   float64 `json:"quantity"`
}

// Product is a finished good with its bill of materials.
// Capacity is never stored; see monitoring.CalculatePossibleProduction.
type Product struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Dimensions string        `json:"dimensions,omitempty"`
	Materials  []Requirement `json:"materials"`
}

// ProductionSummary is the derived capacity of a product against current stock
type ProductionSummary struct {
	ProductID         string   `json:"product_id"`
	Name              string   `json:"name"`
	Dimensions        string   `json:"dimensions,omitempty"`
	PossibleUnits     int      `json:"possible_units"`
	LimitingMaterials []string `json:"limiting_materials"`
}

// Shortage is the missing quantity of one material for a requested production run
type Shortage struct {
	MaterialID string  `json:"material_id"`
	Name       string  `json:"name"`
	Required   float64 `json:"required"`
	Available  float64 `json:"available"`
	Missing    float64 `json:"missing"`
}
