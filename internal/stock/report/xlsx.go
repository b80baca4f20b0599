package report

import (
	"fmt"
	"strings"

	"github.com/mattressworks/stockboard/internal/stock/domain"
	"github.com/mattressworks/stockboard/internal/stock/monitoring"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Sheet names
const (
	SheetStock        = "Stock"
	SheetAlerts       = "Alerts"
	SheetProduction   = "Production"
	SheetRequirements = "Requirements"
	SheetTransactions = "Transactions"
)

// Material status labels
const (
	StatusOK  = "OK"
	StatusLow = "LOW"
)

var (
	stockHeader        = []interface{}{"ID", "Name", "Group", "Unit", "Cost per unit", "Available", "Defective", "Min limit", "Value", "Status"}
	alertHeader        = []interface{}{"ID", "Name", "Available", "Min limit", "Missing"}
	productionHeader   = []interface{}{"ID", "Name", "Dimensions", "Possible units", "Limiting materials"}
	requirementsHeader = []interface{}{"Product ID", "Product", "Material ID", "Material", "Quantity per unit"}
	transactionsHeader = []interface{}{"ID", "Time", "Material ID", "Material", "Kind", "Quantity", "Note", "Performed by"}
)

// workbook wraps an excelize file with a shared header style
type workbook struct {
	f           *excelize.File
	headerStyle int
	totalStyle  int
	sheets      int
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create total style: %w", err)
	}

	return &workbook{f: f, headerStyle: headerStyle, totalStyle: totalStyle}, nil
}

// sheet adds a sheet with a bold header row. The first call renames the default sheet.
func (w *workbook) sheet(name string, header []interface{}) error {
	if w.sheets == 0 {
		if err := w.f.SetSheetName(w.f.GetSheetName(0), name); err != nil {
			return err
		}
	} else if _, err := w.f.NewSheet(name); err != nil {
		return err
	}
	w.sheets++

	if err := w.f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := w.f.SetCellStyle(name, "A1", last, w.headerStyle); err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return w.f.SetColWidth(name, "A", lastCol, 18)
}

func (w *workbook) row(sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	for i, v := range values {
		if text, ok := v.(string); ok {
			values[i] = safeText(text)
		}
	}
	return w.f.SetSheetRow(sheet, cell, &values)
}

func (w *workbook) bold(sheet string, row, cols int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(sheet, first, last, w.totalStyle)
}

func (w *workbook) bytes() ([]byte, error) {
	defer w.f.Close()

	w.f.SetActiveSheet(0)
	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// StockWorkbook renders the current stock with a totals row and an alerts sheet
func StockWorkbook(materials []domain.Material, groups []domain.StockGroup) ([]byte, error) {
	w, err := newWorkbook()
	if err != nil {
		return nil, err
	}

	if err := w.sheet(SheetStock, stockHeader); err != nil {
		w.f.Close()
		return nil, err
	}

	names := groupNames(groups, materials)
	alerts := monitoring.CheckStockAlerts(materials)
	alerting := make(map[string]bool, len(alerts))
	for _, a := range alerts {
		alerting[a.MaterialID] = true
	}

	totalValue := decimal.Zero
	var totalAvailable, totalDefective float64
	row := 2
	for _, m := range materials {
		status := StatusOK
		if alerting[m.ID] {
			status = StatusLow
		}
		var limit interface{} = ""
		if m.HasLimit() {
			limit = *m.MinStockLimit
		}

		values := []interface{}{
			m.ID,
			m.Name,
			names[m.ID],
			m.Unit,
			m.CostPerUnit.InexactFloat64(),
			m.Available,
			m.Defective(),
			limit,
			m.Value().Round(2).InexactFloat64(),
			status,
		}
		if err := w.row(SheetStock, row, values); err != nil {
			w.f.Close()
			return nil, err
		}

		totalValue = totalValue.Add(m.Value())
		totalAvailable += m.Available
		totalDefective += m.Defective()
		row++
	}

	totals := []interface{}{"Total", fmt.Sprintf("%d materials", len(materials)), "", "", "", totalAvailable, totalDefective, "", totalValue.Round(2).InexactFloat64(), fmt.Sprintf("%d low", len(alerts))}
	if err := w.row(SheetStock, row, totals); err != nil {
		w.f.Close()
		return nil, err
	}
	if err := w.bold(SheetStock, row, len(stockHeader)); err != nil {
		w.f.Close()
		return nil, err
	}

	if err := w.sheet(SheetAlerts, alertHeader); err != nil {
		w.f.Close()
		return nil, err
	}
	for i, a := range alerts {
		missing := a.MinStockLimit - a.Available
		if err := w.row(SheetAlerts, i+2, []interface{}{a.MaterialID, a.Name, a.Available, a.MinStockLimit, missing}); err != nil {
			w.f.Close()
			return nil, err
		}
	}

	return w.bytes()
}

// ProductionWorkbook renders production capacity and the bills of materials behind it
func ProductionWorkbook(summaries []domain.ProductionSummary, products []domain.Product) ([]byte, error) {
	w, err := newWorkbook()
	if err != nil {
		return nil, err
	}

	if err := w.sheet(SheetProduction, productionHeader); err != nil {
		w.f.Close()
		return nil, err
	}
	for i, s := range summaries {
		values := []interface{}{s.ProductID, s.Name, s.Dimensions, s.PossibleUnits, strings.Join(s.LimitingMaterials, ", ")}
		if err := w.row(SheetProduction, i+2, values); err != nil {
			w.f.Close()
			return nil, err
		}
	}

	if err := w.sheet(SheetRequirements, requirementsHeader); err != nil {
		w.f.Close()
		return nil, err
	}
	row := 2
	for _, p := range products {
		for _, req := range p.Materials {
			if err := w.row(SheetRequirements, row, []interface{}{p.ID, p.Name, req.MaterialID, req.Name, req.Quantity}); err != nil {
				w.f.Close()
				return nil, err
			}
			row++
		}
	}

	return w.bytes()
}

// TransactionsWorkbook renders the transaction history
func TransactionsWorkbook(txs []domain.Transaction) ([]byte, error) {
	w, err := newWorkbook()
	if err != nil {
		return nil, err
	}

	if err := w.sheet(SheetTransactions, transactionsHeader); err != nil {
		w.f.Close()
		return nil, err
	}
	for i, tx := range txs {
		if err := w.row(SheetTransactions, i+2, transactionRow(tx)); err != nil {
			w.f.Close()
			return nil, err
		}
	}

	return w.bytes()
}

// groupNames maps material ID to the name of the group holding it
func groupNames(groups []domain.StockGroup, materials []domain.Material) map[string]string {
	byID := make(map[string]string, len(groups))
	names := make(map[string]string, len(materials))
	for _, g := range groups {
		byID[g.ID] = g.Name
		for _, id := range g.MaterialIDs {
			if _, ok := names[id]; !ok {
				names[id] = g.Name
			}
		}
	}
	for _, m := range materials {
		if m.GroupID == nil {
			continue
		}
		if name, ok := byID[*m.GroupID]; ok {
			names[m.ID] = name
		}
	}
	return names
}

func transactionRow(tx domain.Transaction) []interface{} {
	return []interface{}{
		tx.ID,
		tx.CreatedAt.UTC().Format(timeFormat),
		tx.MaterialID,
		tx.MaterialName,
		string(tx.Kind),
		tx.Quantity,
		tx.Note,
		tx.PerformedBy,
	}
}
