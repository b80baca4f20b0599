package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mattressworks/stockboard/internal/stock/domain"
)

const timeFormat = time.RFC3339

// AlertsCSV renders the active stock alerts
func AlertsCSV(alerts []domain.StockAlert) ([]byte, error) {
	rows := make([][]string, 0, len(alerts)+1)
	rows = append(rows, []string{"material_id", "name", "available", "min_stock_limit", "missing"})
	for _, a := range alerts {
		rows = append(rows, []string{
			safeText(a.MaterialID),
			safeText(a.Name),
			formatFloat(a.Available),
			formatFloat(a.MinStockLimit),
			formatFloat(a.MinStockLimit - a.Available),
		})
	}
	return writeCSV(rows)
}

// TransactionsCSV renders the transaction history
func TransactionsCSV(txs []domain.Transaction) ([]byte, error) {
	rows := make([][]string, 0, len(txs)+1)
	rows = append(rows, []string{"id", "created_at", "material_id", "material_name", "kind", "quantity", "note", "performed_by"})
	for _, tx := range txs {
		rows = append(rows, []string{
			safeText(tx.ID),
			tx.CreatedAt.UTC().Format(timeFormat),
			safeText(tx.MaterialID),
			safeText(tx.MaterialName),
			string(tx.Kind),
			formatFloat(tx.Quantity),
			safeText(tx.Note),
			safeText(tx.PerformedBy),
		})
	}
	return writeCSV(rows)
}

// StockCSV renders the material list
func StockCSV(materials []domain.Material) ([]byte, error) {
	rows := make([][]string, 0, len(materials)+1)
	rows = append(rows, []string{"id", "name", "unit", "cost_per_unit", "available", "defective", "min_stock_limit", "value"})
	for _, m := range materials {
		limit := ""
		if m.HasLimit() {
			limit = formatFloat(*m.MinStockLimit)
		}
		rows = append(rows, []string{
			safeText(m.ID),
			safeText(m.Name),
			safeText(m.Unit),
			m.CostPerUnit.String(),
			formatFloat(m.Available),
			formatFloat(m.Defective()),
			limit,
			m.Value().StringFixed(2),
		})
	}
	return writeCSV(rows)
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// safeText quotes user text that a spreadsheet would evaluate as a formula
func safeText(s string) string {
	if s != "" && strings.ContainsRune("=+-@", rune(s[0])) {
		return "'" + s
	}
	return s
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
