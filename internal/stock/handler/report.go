package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mattressworks/stockboard/internal/stock/service"
	"github.com/mattressworks/stockboard/pkg/httputil"
	"github.com/mattressworks/stockboard/pkg/logger"
)

// ReportHandler serves report downloads
type ReportHandler struct {
	reports *service.ReportService
	logger  *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *service.ReportService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  log,
	}
}

// Download renders /reports/{name}?format= as an attachment.
// The transactions report accepts the same filters as the transaction list.
func (h *ReportHandler) Download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	format := r.URL.Query().Get("format")

	filter, err := transactionFilter(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	report, err := h.reports.Generate(r.Context(), name, format, filter)
	if err != nil {
		h.logger.Debug().Err(err).Str("report", name).Str("format", format).Msg("report not generated")
		httputil.Error(w, err)
		return
	}

	httputil.Attachment(w, report.Filename, report.ContentType, report.Content)
}
