package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mattressworks/stockboard/internal/stock/domain"
	"github.com/mattressworks/stockboard/internal/stock/report"
	"github.com/mattressworks/stockboard/pkg/errors"
	"github.com/mattressworks/stockboard/pkg/logger"
	"github.com/mattressworks/stockboard/pkg/metrics"
)

// Report names
const (
	ReportStock        = "stock"
	ReportProduction   = "production"
	ReportAlerts       = "alerts"
	ReportTransactions = "transactions"
)

// Report formats
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
)

var contentTypes = map[string]string{
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatCSV:  "text/csv; charset=utf-8",
	FormatPDF:  "application/pdf",
}

// Report is a rendered export
type Report struct {
	Content     []byte
	Filename    string
	ContentType string
}

// ReportService renders exports from the dashboard snapshot and the transaction history
type ReportService struct {
	dashboard *DashboardService
	api       StockAPI
	metrics   *metrics.Metrics
	logger    *logger.Logger
	now       func() time.Time
}

// NewReportService creates a report service
func NewReportService(dashboard *DashboardService, api StockAPI, m *metrics.Metrics, log *logger.Logger) *ReportService {
	return &ReportService{
		dashboard: dashboard,
		api:       api,
		metrics:   m,
		logger:    log.WithComponent("reports"),
		now:       time.Now,
	}
}

// Generate renders the named report in the requested format.
// The transaction filter only applies to the transactions report.
func (s *ReportService) Generate(ctx context.Context, name, format string, filter domain.TransactionFilter) (*Report, error) {
	if format == "" {
		format = FormatXLSX
	}
	contentType, ok := contentTypes[format]
	if !ok {
		return nil, errors.BadRequest("unsupported report format: " + format)
	}

	content, err := s.render(ctx, name, format, filter)
	if err != nil {
		return nil, err
	}

	s.metrics.IncReport(name, format)
	s.logger.Debug().Str("report", name).Str("format", format).Int("bytes", len(content)).Msg("report generated")

	return &Report{
		Content:     content,
		Filename:    fmt.Sprintf("%s-%s.%s", name, s.now().UTC().Format("20060102-150405"), format),
		ContentType: contentType,
	}, nil
}

func (s *ReportService) render(ctx context.Context, name, format string, filter domain.TransactionFilter) ([]byte, error) {
	switch name {
	case ReportStock, ReportProduction, ReportAlerts:
	case ReportTransactions:
		return s.renderTransactions(ctx, format, filter)
	default:
		return nil, errors.NotFound("report")
	}

	snap, err := s.dashboard.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case name == ReportStock && format == FormatXLSX:
		return report.StockWorkbook(snap.Materials, snap.Groups)
	case name == ReportStock && format == FormatCSV:
		return report.StockCSV(snap.Materials)
	case name == ReportProduction && format == FormatXLSX:
		return report.ProductionWorkbook(snap.Production, snap.Products)
	case name == ReportProduction && format == FormatPDF:
		return report.ProductionPDF(snap.Production, s.now())
	case name == ReportAlerts && format == FormatCSV:
		return report.AlertsCSV(snap.Alerts)
	case name == ReportAlerts && format == FormatXLSX:
		// The stock workbook carries an alerts sheet
		return report.StockWorkbook(snap.Materials, snap.Groups)
	}

	return nil, unsupported(name, format)
}

func (s *ReportService) renderTransactions(ctx context.Context, format string, filter domain.TransactionFilter) ([]byte, error) {
	if format == FormatPDF {
		return nil, unsupported(ReportTransactions, format)
	}

	txs, err := s.api.ListTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}

	if format == FormatCSV {
		return report.TransactionsCSV(txs)
	}
	return report.TransactionsWorkbook(txs)
}

func unsupported(name, format string) error {
	return errors.BadRequest(fmt.Sprintf("report %q is not available as %s", name, format))
}
