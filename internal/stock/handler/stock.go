package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mattressworks/stockboard/internal/stock/domain"
	"github.com/mattressworks/stockboard/internal/stock/service"
	"github.com/mattressworks/stockboard/pkg/errors"
	"github.com/mattressworks/stockboard/pkg/httputil"
	"github.com/mattressworks/stockboard/pkg/logger"
)

// StockHandler handles material and product mutations
type StockHandler struct {
	stock     *service.StockService
	dashboard *service.DashboardService
	logger    *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(stock *service.StockService, dashboard *service.DashboardService, log *logger.Logger) *StockHandler {
	return &StockHandler{
		stock:     stock,
		dashboard: dashboard,
		logger:    log,
	}
}

// Material handlers

// CreateMaterial creates a material
func (h *StockHandler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMaterialRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	material, err := h.stock.CreateMaterial(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, material)
}

// AddQuantity books incoming stock
func (h *StockHandler) AddQuantity(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.stock.AddQuantity)
}

// SubtractQuantity books consumed stock
func (h *StockHandler) SubtractQuantity(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.stock.SubtractQuantity)
}

// RecordDefect books defective stock
func (h *StockHandler) RecordDefect(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.stock.RecordDefect)
}

type adjustFunc func(ctx context.Context, materialID string, req *domain.QuantityRequest) (*domain.Material, error)

func (h *StockHandler) adjust(w http.ResponseWriter, r *http.Request, fn adjustFunc) {
	var req domain.QuantityRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	material, err := fn(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, material)
}

// DeleteMaterial removes a material
func (h *StockHandler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	if err := h.stock.DeleteMaterial(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Product handlers

// CreateProduct creates a product
func (h *StockHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProductRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := h.stock.CreateProduct(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, product)
}

// AlterMaterials replaces a product's bill of materials
func (h *StockHandler) AlterMaterials(w http.ResponseWriter, r *http.Request) {
	var req domain.AlterMaterialsRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := h.stock.AlterMaterials(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// Produce books a production run and returns the product's remaining capacity
func (h *StockHandler) Produce(w http.ResponseWriter, r *http.Request) {
	var req domain.ProduceRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	productID := chi.URLParam(r, "id")
	if err := h.stock.Produce(r.Context(), productID, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	summary, err := h.dashboard.Production(r.Context(), productID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// ListTransactions returns the remote transaction history
func (h *StockHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := transactionFilter(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	txs, err := h.stock.ListTransactions(r.Context(), filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, txs)
}

// transactionFilter reads material_id, from and to (RFC3339) from the query string
func transactionFilter(r *http.Request) (domain.TransactionFilter, error) {
	q := r.URL.Query()
	filter := domain.TransactionFilter{MaterialID: q.Get("material_id")}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"from", &filter.From},
		{"to", &filter.To},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.BadRequest(p.name + " must be an RFC3339 timestamp")
		}
		*p.dst = &t
	}

	return filter, nil
}
