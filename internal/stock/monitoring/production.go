package monitoring

import (
	"math"

	"github.com/mattressworks/stockboard/internal/stock/domain"
)

// CalculatePossibleProduction returns how many units of product can be built from inventory
// and which materials bind that number. Requirements are joined to inventory by material id.
//
// A requirement without a matching material, or with a non-positive quantity, limits
// production to zero. A product without requirements is not producible.
func CalculatePossibleProduction(product domain.Product, inventory []domain.Material) domain.ProductionSummary {
	summary := domain.ProductionSummary{
		ProductID:         product.ID,
		Name:              product.Name,
		Dimensions:        product.Dimensions,
		LimitingMaterials: []string{},
	}
	if len(product.Materials) == 0 {
		return summary
	}

	byID := indexMaterials(inventory)

	limits := make([]int, len(product.Materials))
	minimum := math.MaxInt
	for i, req := range product.Materials {
		m, ok := byID[req.MaterialID]
		if ok {
			limits[i] = requirementLimit(m.Available, req.Quantity)
		}
		if limits[i] < minimum {
			minimum = limits[i]
		}
	}

	summary.PossibleUnits = minimum
	for i, req := range product.Materials {
		if limits[i] == minimum {
			summary.LimitingMaterials = append(summary.LimitingMaterials, requirementName(req, byID))
		}
	}
	return summary
}

// SummarizeProduction computes a ProductionSummary for every product, in order
func SummarizeProduction(products []domain.Product, inventory []domain.Material) []domain.ProductionSummary {
	summaries := make([]domain.ProductionSummary, 0, len(products))
	for _, p := range products {
		summaries = append(summaries, CalculatePossibleProduction(p, inventory))
	}
	return summaries
}

// Shortfall lists the requirements that cannot be covered when producing units of product.
// A material absent from inventory counts as zero available.
func Shortfall(product domain.Product, inventory []domain.Material, units int) []domain.Shortage {
	shortages := make([]domain.Shortage, 0)
	if units <= 0 {
		return shortages
	}

	byID := indexMaterials(inventory)
	for _, req := range product.Materials {
		var available float64
		if m, ok := byID[req.MaterialID]; ok {
			available = m.Available
		}
		required := req.Quantity * float64(units)
		if required > available {
			shortages = append(shortages, domain.Shortage{
				MaterialID: req.MaterialID,
				Name:       requirementName(req, byID),
				Required:   required,
				Available:  available,
				Missing:    required - available,
			})
		}
	}
	return shortages
}

func requirementLimit(available, quantity float64) int {
	if quantity <= 0 {
		return 0
	}
	ratio := math.Floor(available / quantity)
	switch {
	case math.IsNaN(ratio):
		return 0
	case ratio >= math.MaxInt:
		return math.MaxInt
	case ratio <= math.MinInt:
		return math.MinInt
	}
	return int(ratio)
}

func requirementName(req domain.Requirement, byID map[string]domain.Material) string {
	if req.Name != "" {
		return req.Name
	}
	if m, ok := byID[req.MaterialID]; ok && m.Name != "" {
		return m.Name
	}
	return req.MaterialID
}

// indexMaterials keys materials by id; the first occurrence of a duplicate id wins
func indexMaterials(materials []domain.Material) map[string]domain.Material {
	byID := make(map[string]domain.Material, len(materials))
	for _, m := range materials {
		if _, seen := byID[m.ID]; !seen {
			byID[m.ID] = m
		}
	}
	return byID
}
