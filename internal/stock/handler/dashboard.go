package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mattressworks/stockboard/internal/stock/service"
	"github.com/mattressworks/stockboard/pkg/errors"
	"github.com/mattressworks/stockboard/pkg/httputil"
	"github.com/mattressworks/stockboard/pkg/logger"
)

// DashboardHandler serves the read side of the dashboard
type DashboardHandler struct {
	dashboard *service.DashboardService
	logger    *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard *service.DashboardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		logger:    log,
	}
}

// GetStats returns dashboard statistics
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, stats)
}

// Refresh rebuilds the snapshot and returns fresh statistics
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.dashboard.Refresh(r.Context()); err != nil {
		httputil.Error(w, err)
		return
	}

	h.GetStats(w, r)
}

// ListMaterials lists materials, optionally by group or alerting only
func (h *DashboardHandler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	filter := service.MaterialFilter{GroupID: r.URL.Query().Get("group")}

	if raw := r.URL.Query().Get("alerting"); raw != "" {
		alerting, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.Error(w, errors.BadRequest("alerting must be true or false"))
			return
		}
		filter.AlertingOnly = alerting
	}

	materials, err := h.dashboard.Materials(r.Context(), filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, materials)
}

// GetGroupTree returns the group hierarchy with materials and alert counts
func (h *DashboardHandler) GetGroupTree(w http.ResponseWriter, r *http.Request) {
	snap, err := h.dashboard.Snapshot(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, snap.Tree)
}

// ListAlerts returns the active stock alerts
func (h *DashboardHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	snap, err := h.dashboard.Snapshot(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, snap.Alerts)
}

// ListProducts returns the products and their bills of materials
func (h *DashboardHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	snap, err := h.dashboard.Snapshot(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, snap.Products)
}

// ListProduction returns the capacity of every product
func (h *DashboardHandler) ListProduction(w http.ResponseWriter, r *http.Request) {
	snap, err := h.dashboard.Snapshot(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, snap.Production)
}

// GetProduction returns the capacity of one product
func (h *DashboardHandler) GetProduction(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboard.Production(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// GetShortfall lists what is missing to produce ?units= of a product
func (h *DashboardHandler) GetShortfall(w http.ResponseWriter, r *http.Request) {
	units, err := strconv.Atoi(r.URL.Query().Get("units"))
	if err != nil {
		httputil.Error(w, errors.BadRequest("units must be an integer"))
		return
	}

	shortages, err := h.dashboard.Shortfall(r.Context(), chi.URLParam(r, "id"), units)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, shortages)
}
