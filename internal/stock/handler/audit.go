package handler

import (
	"net/http"
	"strconv"

	"github.com/mattressworks/stockboard/internal/stock/domain"
	"github.com/mattressworks/stockboard/internal/stock/service"
	"github.com/mattressworks/stockboard/pkg/httputil"
	"github.com/mattressworks/stockboard/pkg/logger"
)

const defaultPerPage = 50

// AuditHandler exposes the audit log
type AuditHandler struct {
	stock  *service.StockService
	logger *logger.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(stock *service.StockService, log *logger.Logger) *AuditHandler {
	return &AuditHandler{
		stock:  stock,
		logger: log,
	}
}

// List returns audit entries newest first (query: entity_id, action, page, per_page)
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage < 1 || perPage > 500 {
		perPage = defaultPerPage
	}

	entries, total, err := h.stock.AuditLog(r.Context(), domain.AuditFilter{
		EntityID: q.Get("entity_id"),
		Action:   q.Get("action"),
		Limit:    perPage,
		Offset:   (page - 1) * perPage,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, entries, httputil.NewMeta(page, perPage, total))
}
