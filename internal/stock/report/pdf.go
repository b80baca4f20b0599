package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/mattressworks/stockboard/internal/stock/domain"
)

var productionColumns = []struct {
	title string
	width float64
	align string
}{
	{"Product", 60, "L"},
	{"Dimensions", 30, "L"},
	{"Possible units", 30, "R"},
	{"Limiting materials", 70, "L"},
}

// ProductionPDF renders production capacity as a single table
func ProductionPDF(summaries []domain.ProductionSummary, generatedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Production capacity", false)
	pdf.SetCreationDate(generatedAt)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Production capacity", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Generated "+generatedAt.UTC().Format(timeFormat), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(217, 225, 242)
		for _, col := range productionColumns {
			pdf.CellFormat(col.width, 8, col.title, "1", 0, col.align, true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 10)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	})
	header()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, s := range summaries {
		values := []string{
			tr(s.Name),
			tr(s.Dimensions),
			strconv.Itoa(s.PossibleUnits),
			tr(strings.Join(s.LimitingMaterials, ", ")),
		}
		for i, col := range productionColumns {
			pdf.CellFormat(col.width, 7, values[i], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(summaries) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 8, "No products defined", "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
