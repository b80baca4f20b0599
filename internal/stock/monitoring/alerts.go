// Package monitoring derives stock alerts, production capacity and the group tree
// from the material and product lists returned by the stock API.
// Every function here is pure: no I/O, no mutation of its inputs.
package monitoring

import "github.com/mattressworks/stockboard/internal/stock/domain"

// CheckStockAlerts returns an alert for every material with a minimum stock limit
// whose available quantity is at or below that limit, in input order.
func CheckStockAlerts(materials []domain.Material) []domain.StockAlert {
	alerts := make([]domain.StockAlert, 0)
	for _, m := range materials {
		if !m.HasLimit() {
			continue
		}
		if m.Available <= *m.MinStockLimit {
			alerts = append(alerts, domain.StockAlert{
				MaterialID:    m.ID,
				Name:          m.Name,
				Available:     m.Available,
				MinStockLimit: *m.MinStockLimit,
			})
		}
	}
	return alerts
}

// alertingIDs indexes the materials that currently alert
func alertingIDs(materials []domain.Material) map[string]bool {
	ids := make(map[string]bool)
	for _, a := range CheckStockAlerts(materials) {
		ids[a.MaterialID] = true
	}
	return ids
}
