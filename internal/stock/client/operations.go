package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/mattressworks/stockboard/internal/stock/domain"
)

// Operation names, used as metric labels
const (
	opListMaterials    = "list_materials"
	opCreateMaterial   = "create_material"
	opAddQuantity      = "add_quantity"
	opSubtractQuantity = "subtract_quantity"
	opRecordDefect     = "record_defect"
	opDeleteMaterial   = "delete_material"
	opListGroups       = "list_groups"
	opListProducts     = "list_products"
	opCreateProduct    = "create_product"
	opAlterMaterials   = "alter_materials"
	opProduce          = "produce"
	opListTransactions = "list_transactions"
)

func stockPath(id, action string) string {
	path := "/api/v1/stock/" + url.PathEscape(id)
	if action != "" {
		path += "/" + action
	}
	return path
}

func productPath(id, action string) string {
	path := "/api/v1/products/" + url.PathEscape(id)
	if action != "" {
		path += "/" + action
	}
	return path
}

// ListMaterials returns every material held in stock
func (c *StockAPI) ListMaterials(ctx context.Context) ([]domain.Material, error) {
	materials := make([]domain.Material, 0)
	if err := c.do(ctx, opListMaterials, http.MethodGet, "/api/v1/stock", nil, &materials); err != nil {
		return nil, err
	}
	return materials, nil
}

// CreateMaterial creates a new material
func (c *StockAPI) CreateMaterial(ctx context.Context, req *domain.CreateMaterialRequest) (*domain.Material, error) {
	var material domain.Material
	if err := c.do(ctx, opCreateMaterial, http.MethodPost, "/api/v1/stock", req, &material); err != nil {
		return nil, err
	}
	return &material, nil
}

// AddQuantity books incoming stock
func (c *StockAPI) AddQuantity(ctx context.Context, materialID string, req *domain.QuantityRequest) (*domain.Material, error) {
	var material domain.Material
	if err := c.do(ctx, opAddQuantity, http.MethodPost, stockPath(materialID, "add"), req, &material); err != nil {
		return nil, err
	}
	return &material, nil
}

// SubtractQuantity books outgoing stock
func (c *StockAPI) SubtractQuantity(ctx context.Context, materialID string, req *domain.QuantityRequest) (*domain.Material, error) {
	var material domain.Material
	if err := c.do(ctx, opSubtractQuantity, http.MethodPost, stockPath(materialID, "subtract"), req, &material); err != nil {
		return nil, err
	}
	return &material, nil
}

// RecordDefect moves quantity from available to defective
func (c *StockAPI) RecordDefect(ctx context.Context, materialID string, req *domain.QuantityRequest) (*domain.Material, error) {
	var material domain.Material
	if err := c.do(ctx, opRecordDefect, http.MethodPost, stockPath(materialID, "defects"), req, &material); err != nil {
		return nil, err
	}
	return &material, nil
}

// DeleteMaterial removes a material
func (c *StockAPI) DeleteMaterial(ctx context.Context, materialID string) error {
	return c.do(ctx, opDeleteMaterial, http.MethodDelete, stockPath(materialID, ""), nil, nil)
}

// ListGroups returns the flat stock group list
func (c *StockAPI) ListGroups(ctx context.Context) ([]domain.StockGroup, error) {
	groups := make([]domain.StockGroup, 0)
	if err := c.do(ctx, opListGroups, http.MethodGet, "/api/v1/groups", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ListProducts returns every product with its bill of materials
func (c *StockAPI) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, 0)
	if err := c.do(ctx, opListProducts, http.MethodGet, "/api/v1/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProduct defines a product
func (c *StockAPI) CreateProduct(ctx context.Context, req *domain.CreateProductRequest) (*domain.Product, error) {
	var product domain.Product
	if err := c.do(ctx, opCreateProduct, http.MethodPost, "/api/v1/products", req, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// AlterMaterials replaces a product's bill of materials
func (c *StockAPI) AlterMaterials(ctx context.Context, productID string, req *domain.AlterMaterialsRequest) (*domain.Product, error) {
	var product domain.Product
	if err := c.do(ctx, opAlterMaterials, http.MethodPut, productPath(productID, "materials"), req, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Produce books a production run, consuming materials on the remote side
func (c *StockAPI) Produce(ctx context.Context, productID string, req *domain.ProduceRequest) error {
	return c.do(ctx, opProduce, http.MethodPost, productPath(productID, "produce"), req, nil)
}

// ListTransactions returns the stock history, newest first as ordered by the remote API
func (c *StockAPI) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	query := url.Values{}
	if filter.MaterialID != "" {
		query.Set("material_id", filter.MaterialID)
	}
	if filter.From != nil {
		query.Set("from", filter.From.UTC().Format(time.RFC3339))
	}
	if filter.To != nil {
		query.Set("to", filter.To.UTC().Format(time.RFC3339))
	}

	path := "/api/v1/transactions"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	txs := make([]domain.Transaction, 0)
	if err := c.do(ctx, opListTransactions, http.MethodGet, path, nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// Health checks the remote API once, without retries
func (c *StockAPI) Health(ctx context.Context) map[string]string {
	status := map[string]string{"status": "up"}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
		return status
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
		return status
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		status["status"] = "down"
		status["error"] = http.StatusText(resp.StatusCode)
	}
	return status
}
